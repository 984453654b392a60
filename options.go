// Functional options for engine construction and per-operation tuning.
package transit

import (
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/porterbay/transit/transittypes"
)

// WithRegion sets the AWS region. If not specified, the region resolves
// through the default credential chain, falling back to us-east-1.
func WithRegion(region string) transittypes.Option {
	return func(c *transittypes.Config) {
		c.Region = region
	}
}

// WithBucket sets the bucket the engine is bound to. Required.
func WithBucket(bucket string) transittypes.Option {
	return func(c *transittypes.Config) {
		c.Bucket = bucket
	}
}

// WithEndpoint sets a custom endpoint URL. Useful for S3-compatible
// services such as MinIO or for local testing.
func WithEndpoint(endpoint string) transittypes.Option {
	return func(c *transittypes.Config) {
		c.Endpoint = endpoint
	}
}

// WithStaticCredentials supplies fixed credentials instead of the default
// chain. The session token may be empty for long-lived credentials.
func WithStaticCredentials(accessKeyID, secretAccessKey, sessionToken string) transittypes.Option {
	return func(c *transittypes.Config) {
		c.AccessKeyID = accessKeyID
		c.SecretAccessKey = secretAccessKey
		c.SessionToken = sessionToken
	}
}

// WithForcePathStyle forces path-style URLs instead of virtual-hosted
// style. Required for S3-compatible services without wildcard DNS.
func WithForcePathStyle(force bool) transittypes.Option {
	return func(c *transittypes.Config) {
		c.ForcePathStyle = force
	}
}

// WithMultipartThreshold sets the size at or above which uploads switch
// to the multipart path. Default is 5 MiB.
func WithMultipartThreshold(threshold int64) transittypes.Option {
	return func(c *transittypes.Config) {
		if threshold > 0 {
			c.MultipartThreshold = threshold
		}
	}
}

// WithChunkSize sets the part size for multipart uploads. Default is
// 8 MiB; the store requires at least 5 MiB for all parts but the last.
func WithChunkSize(size int64) transittypes.Option {
	return func(c *transittypes.Config) {
		if size > 0 {
			c.ChunkSize = size
		}
	}
}

// WithMaxConcurrentUploads bounds how many parts upload in parallel
// during a multipart transfer. It also sizes the HTTP connection pool.
// Default is 10.
func WithMaxConcurrentUploads(n int) transittypes.Option {
	return func(c *transittypes.Config) {
		if n > 0 {
			c.MaxConcurrentUploads = n
		}
	}
}

// WithTimeouts sets the connection establishment timeout and the timeout
// for awaiting response headers. Defaults are 60s and 300s. Bodies stream
// without a total deadline.
func WithTimeouts(connect, read time.Duration) transittypes.Option {
	return func(c *transittypes.Config) {
		if connect > 0 {
			c.ConnectTimeout = connect
		}
		if read > 0 {
			c.ReadTimeout = read
		}
	}
}

// WithRetryPolicy replaces the retry policy for remote calls.
// Default is 3 attempts, 1s base delay, 60s cap, exponent 2, jitter on.
func WithRetryPolicy(policy transittypes.RetryPolicy) transittypes.Option {
	return func(c *transittypes.Config) {
		c.Retry = policy
	}
}

// WithMaxObjectSize caps the size a single upload may have. Default is
// 5 GiB, matching the store's single-object copy ceiling.
func WithMaxObjectSize(size int64) transittypes.Option {
	return func(c *transittypes.Config) {
		if size > 0 {
			c.MaxObjectSize = size
		}
	}
}

// WithPresignExpiry sets the default and maximum lifetime for presigned
// URLs. Defaults are 1 hour and 7 days; the store rejects anything above
// 7 days.
func WithPresignExpiry(defaultExpiry, maxExpiry time.Duration) transittypes.Option {
	return func(c *transittypes.Config) {
		if defaultExpiry > 0 {
			c.DefaultPresignExpiry = defaultExpiry
		}
		if maxExpiry > 0 {
			c.MaxPresignExpiry = maxExpiry
		}
	}
}

// WithMetadataCacheTTL sets how long stat results are served from cache.
// Default is 300s. A TTL of zero or less disables caching.
func WithMetadataCacheTTL(ttl time.Duration) transittypes.Option {
	return func(c *transittypes.Config) {
		c.CacheTTL = ttl
	}
}

// WithMetadataCacheDisabled turns the metadata cache off entirely.
func WithMetadataCacheDisabled() transittypes.Option {
	return func(c *transittypes.Config) {
		c.CacheDisabled = true
	}
}

// WithLogger sets the logger for transfer diagnostics. Default is a
// no-op logger.
func WithLogger(logger zerolog.Logger) transittypes.Option {
	return func(c *transittypes.Config) {
		c.Logger = &logger
	}
}

// WithFilesystem replaces the filesystem used for local file transfers.
// Intended for tests running against afero.NewMemMapFs.
func WithFilesystem(fs afero.Fs) transittypes.Option {
	return func(c *transittypes.Config) {
		c.Filesystem = fs
	}
}

// WithHTTPClient supplies the HTTP client handed to the SDK. The engine
// does not manage a caller-supplied client's lifecycle, and the timeout
// options do not apply to it.
func WithHTTPClient(client *http.Client) transittypes.Option {
	return func(c *transittypes.Config) {
		c.HTTPClient = client
	}
}

// WithAWSConfig supplies a fully formed aws.Config, bypassing the default
// configuration loading. Use for fine-grained control over SDK behavior.
func WithAWSConfig(config *aws.Config) transittypes.Option {
	return func(c *transittypes.Config) {
		c.AWSConfig = config
	}
}

// WithContentType sets the content type explicitly, skipping detection.
func WithContentType(contentType string) transittypes.UploadOption {
	return func(c *transittypes.UploadOptionConfig) {
		c.ContentType = contentType
	}
}

// WithMetadata attaches user metadata to the uploaded object. Repeated
// uses merge, later entries winning on key collisions.
func WithMetadata(metadata map[string]string) transittypes.UploadOption {
	return func(c *transittypes.UploadOptionConfig) {
		if c.Metadata == nil {
			c.Metadata = make(map[string]string, len(metadata))
		}
		for k, v := range metadata {
			c.Metadata[k] = v
		}
	}
}

// WithProgress registers an observer for upload progress.
func WithProgress(observer transittypes.ProgressObserver) transittypes.UploadOption {
	return func(c *transittypes.UploadOptionConfig) {
		c.Observer = observer
	}
}

// WithUploadChunkSize overrides the engine's part size for one upload.
func WithUploadChunkSize(size int64) transittypes.UploadOption {
	return func(c *transittypes.UploadOptionConfig) {
		if size > 0 {
			c.ChunkSize = size
		}
	}
}

// WithUploadConcurrency overrides the engine's part concurrency for one
// upload.
func WithUploadConcurrency(n int) transittypes.UploadOption {
	return func(c *transittypes.UploadOptionConfig) {
		if n > 0 {
			c.Concurrency = n
		}
	}
}

// WithDownloadProgress registers an observer for download progress.
func WithDownloadProgress(observer transittypes.ProgressObserver) transittypes.DownloadOption {
	return func(c *transittypes.DownloadOptionConfig) {
		c.Observer = observer
	}
}

// WithRangeStart downloads from the given byte offset onward.
func WithRangeStart(offset int64) transittypes.DownloadOption {
	return func(c *transittypes.DownloadOptionConfig) {
		c.RangeStart = &offset
	}
}

// WithRangeEnd downloads through the given byte offset, inclusive. Can
// combine with WithRangeStart; alone it reads from the start of the
// object.
func WithRangeEnd(offset int64) transittypes.DownloadOption {
	return func(c *transittypes.DownloadOptionConfig) {
		c.RangeEnd = &offset
	}
}

// WithBypassCache forces a fresh remote stat, skipping the metadata
// cache for this call. The fresh result still refreshes the cache.
func WithBypassCache() transittypes.StatOption {
	return func(c *transittypes.StatOptionConfig) {
		c.BypassCache = true
	}
}

// WithMaxKeys caps the number of keys in one listing page. The store
// allows at most 1000 per page, which is also the default.
func WithMaxKeys(n int32) transittypes.ListOption {
	return func(c *transittypes.ListOptionConfig) {
		if n > 0 {
			c.MaxKeys = n
		}
	}
}

// WithContinuationToken resumes a listing from a previous page's
// NextContinuationToken.
func WithContinuationToken(token string) transittypes.ListOption {
	return func(c *transittypes.ListOptionConfig) {
		c.ContinuationToken = token
	}
}

// WithSourceBucket copies from a different bucket than the engine's. The
// destination is always the engine's bucket.
func WithSourceBucket(bucket string) transittypes.CopyOption {
	return func(c *transittypes.CopyOptionConfig) {
		c.SourceBucket = bucket
	}
}

// WithCopyMetadata replaces the destination object's metadata instead of
// inheriting the source's.
func WithCopyMetadata(metadata map[string]string) transittypes.CopyOption {
	return func(c *transittypes.CopyOptionConfig) {
		c.Metadata = metadata
	}
}

// WithCopyContentType sets the destination's content type when metadata
// is replaced.
func WithCopyContentType(contentType string) transittypes.CopyOption {
	return func(c *transittypes.CopyOptionConfig) {
		c.ContentType = contentType
	}
}

// WithUpdateContentType changes the content type while updating
// metadata. Without it the object's current content type is preserved.
func WithUpdateContentType(contentType string) transittypes.UpdateOption {
	return func(c *transittypes.UpdateOptionConfig) {
		c.ContentType = contentType
	}
}
