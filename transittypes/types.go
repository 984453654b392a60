// Package transittypes contains the public types shared across the transit module.
package transittypes

import (
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// UploadType identifies which placement path stored an object.
type UploadType string

const (
	// UploadTypeSimple is a single PutObject call for small payloads.
	UploadTypeSimple UploadType = "simple"
	// UploadTypeMultipart is a chunked parallel multipart upload.
	UploadTypeMultipart UploadType = "multipart"
	// UploadTypeStream is a fully buffered stream stored with a single put.
	UploadTypeStream UploadType = "stream"
)

// PresignOperation selects the HTTP verb a presigned URL authorizes.
type PresignOperation string

const (
	// PresignGet authorizes a GET of the object.
	PresignGet PresignOperation = "get"
	// PresignPut authorizes a PUT of the object.
	PresignPut PresignOperation = "put"
)

const (
	// DefaultRegion is used when no region is configured or discoverable.
	DefaultRegion = "us-east-1"

	// DefaultMultipartThreshold is the size at or above which uploads switch
	// to the multipart path.
	DefaultMultipartThreshold = 5 * 1024 * 1024

	// DefaultChunkSize is the default multipart part size.
	DefaultChunkSize = 8 * 1024 * 1024

	// DefaultMaxConcurrentUploads bounds parallel part uploads and sizes the
	// HTTP connection pool.
	DefaultMaxConcurrentUploads = 10

	// DefaultConnectTimeout bounds dialing the remote endpoint.
	DefaultConnectTimeout = 60 * time.Second

	// DefaultReadTimeout bounds waiting for response headers.
	DefaultReadTimeout = 300 * time.Second

	// DefaultMaxObjectSize is the hard ceiling on a single object.
	DefaultMaxObjectSize = 5 * 1024 * 1024 * 1024

	// DefaultPresignExpiry applies when a presign call passes no expiry.
	DefaultPresignExpiry = time.Hour

	// MaxPresignExpiry is the longest lifetime a presigned URL may have.
	MaxPresignExpiry = 7 * 24 * time.Hour

	// DefaultCacheTTL is how long cached object metadata stays fresh.
	DefaultCacheTTL = 5 * time.Minute
)

// RetryPolicy controls how failed remote calls are reissued.
// Delays grow as BaseDelay * ExponentialBase^attempt, capped at MaxDelay,
// with up to 10% random jitter added when Jitter is set.
type RetryPolicy struct {
	MaxAttempts     int
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	ExponentialBase float64
	Jitter          bool
}

// DefaultRetryPolicy returns the retry settings used when none are configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		BaseDelay:       time.Second,
		MaxDelay:        60 * time.Second,
		ExponentialBase: 2.0,
		Jitter:          true,
	}
}

// Config holds the resolved engine configuration. Values are populated from
// defaults and functional options when the engine is constructed.
type Config struct {
	// Region is the AWS region for the target bucket.
	Region string
	// Bucket is the bucket every engine operation is scoped to.
	Bucket string
	// Endpoint overrides the S3 endpoint, typically for S3-compatible stores.
	Endpoint string
	// ForcePathStyle switches addressing from virtual-host to path style.
	ForcePathStyle bool

	// AccessKeyID, SecretAccessKey and SessionToken configure static
	// credentials. When AccessKeyID is empty the default chain applies.
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	// MultipartThreshold is the size at or above which file uploads switch to
	// the multipart path.
	MultipartThreshold int64
	// ChunkSize is the multipart part size.
	ChunkSize int64
	// MaxConcurrentUploads bounds parallel part uploads.
	MaxConcurrentUploads int
	// MaxObjectSize is the per-object size ceiling.
	MaxObjectSize int64

	// ConnectTimeout bounds dialing, ReadTimeout bounds header waits.
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration

	// Retry applies to every remote call the engine issues.
	Retry RetryPolicy

	// DefaultPresignExpiry and MaxPresignExpiry bound presigned URL lifetimes.
	DefaultPresignExpiry time.Duration
	MaxPresignExpiry     time.Duration

	// CacheTTL is the metadata cache freshness window. CacheDisabled turns
	// the cache off entirely.
	CacheTTL      time.Duration
	CacheDisabled bool

	// Logger receives structured engine logs. Nil means no logging.
	Logger *zerolog.Logger

	// Filesystem abstracts local file access for file transfers.
	Filesystem afero.Fs

	// HTTPClient overrides the client built from the timeout settings.
	HTTPClient *http.Client

	// AWSConfig bypasses the default credential and region resolution.
	AWSConfig *aws.Config
}

// Object describes one entry returned by a listing.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
	ETag         string
	StorageClass string
}

// FileInfo describes a stored object's metadata.
type FileInfo struct {
	Key             string
	Size            int64
	ContentType     string
	ETag            string
	LastModified    time.Time
	Metadata        map[string]string
	StorageClass    string
	CacheControl    string
	ContentEncoding string
}

// UploadResult reports a finished upload.
type UploadResult struct {
	Key        string
	Size       int64
	UploadType UploadType
	ETag       string
	TotalParts int
	Duration   time.Duration
}

// DownloadResult reports a finished download.
type DownloadResult struct {
	Key       string
	LocalPath string
	Size      int64
	ETag      string
	Duration  time.Duration
}

// CopyResult reports a finished server-side copy.
type CopyResult struct {
	SourceBucket   string
	SourceKey      string
	DestinationKey string
	ETag           string
	Duration       time.Duration
}

// UpdateMetadataResult reports a finished metadata rewrite.
type UpdateMetadataResult struct {
	Key      string
	ETag     string
	Metadata map[string]string
	Duration time.Duration
}

// ListResult is one page of a bucket listing.
type ListResult struct {
	Objects               []Object
	Prefix                string
	IsTruncated           bool
	NextContinuationToken string
	KeyCount              int
	Duration              time.Duration
}

// ProgressSnapshot is one observation of a transfer in flight.
type ProgressSnapshot struct {
	TotalBytes       int64
	TransferredBytes int64
	// Percentage is 0..100, or 0 when the total is unknown.
	Percentage float64
	// Throughput is bytes per second since the transfer started.
	Throughput float64
	Elapsed    time.Duration
	// ETA is the estimated remaining time, 0 when throughput is unknown.
	ETA time.Duration
}

// ProgressObserver receives transfer progress. Implementations are invoked
// synchronously and serialized, so they must not block for long.
type ProgressObserver interface {
	OnProgress(snapshot ProgressSnapshot)
}

// UploadOptionConfig holds per-call upload settings.
type UploadOptionConfig struct {
	ContentType string
	Metadata    map[string]string
	Observer    ProgressObserver
	ChunkSize   int64
	Concurrency int
}

// DownloadOptionConfig holds per-call download settings.
type DownloadOptionConfig struct {
	Observer   ProgressObserver
	RangeStart *int64
	RangeEnd   *int64
}

// StatOptionConfig holds per-call metadata lookup settings.
type StatOptionConfig struct {
	BypassCache bool
}

// ListOptionConfig holds per-call listing settings.
type ListOptionConfig struct {
	MaxKeys           int32
	ContinuationToken string
}

// CopyOptionConfig holds per-call copy settings.
type CopyOptionConfig struct {
	SourceBucket string
	Metadata     map[string]string
	ContentType  string
}

// UpdateOptionConfig holds per-call metadata update settings.
type UpdateOptionConfig struct {
	ContentType string
}

// Option types for configuring the engine and individual operations.
type (
	// Option configures the engine at construction time.
	Option func(*Config)

	// UploadOption configures a single upload operation.
	UploadOption func(*UploadOptionConfig)

	// DownloadOption configures a single download operation.
	DownloadOption func(*DownloadOptionConfig)

	// StatOption configures a single metadata lookup.
	StatOption func(*StatOptionConfig)

	// ListOption configures a single listing call.
	ListOption func(*ListOptionConfig)

	// CopyOption configures a single copy or move operation.
	CopyOption func(*CopyOptionConfig)

	// UpdateOption configures a single metadata update.
	UpdateOption func(*UpdateOptionConfig)
)
