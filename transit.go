package transit

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	transiterrors "github.com/porterbay/transit/errors"
	"github.com/porterbay/transit/internal/operations/copy"
	"github.com/porterbay/transit/internal/operations/delete"
	"github.com/porterbay/transit/internal/operations/download"
	"github.com/porterbay/transit/internal/operations/list"
	"github.com/porterbay/transit/internal/operations/presign"
	"github.com/porterbay/transit/internal/operations/upload"
	"github.com/porterbay/transit/internal/progress"
	"github.com/porterbay/transit/internal/retry"
	"github.com/porterbay/transit/internal/validation"
	"github.com/porterbay/transit/transittypes"
)

// DefaultContentType is assigned when detection cannot produce anything
// more specific.
const DefaultContentType = "application/octet-stream"

// UploadFile uploads a local file to the engine's bucket under key.
// Files at or above the multipart threshold are split into chunks and
// uploaded in parallel; smaller files go up in a single request.
//
// The key is normalized before use (backslashes become slashes, redundant
// separators collapse, control characters are stripped). Content type is
// resolved from the WithContentType option, then by sniffing the file's
// leading bytes, then from the key's extension.
//
// Returns:
//   - *UploadResult: ETag, byte count, upload type, and part count
//   - error: classified *errors.Error on failure
//
// Example:
//
//	result, err := engine.UploadFile(ctx, "/data/report.pdf", "reports/2024/q3.pdf",
//	    transit.WithMetadata(map[string]string{"team": "finance"}),
//	    transit.WithProgress(observer),
//	)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("uploaded %d bytes as %s in %v\n", result.Size, result.UploadType, result.Duration)
func (e *Engine) UploadFile(
	ctx context.Context,
	localPath, key string,
	opts ...transittypes.UploadOption,
) (*transittypes.UploadResult, error) {
	start := time.Now()

	key, err := e.prepareKey(key)
	if err != nil {
		return nil, err
	}
	if localPath == "" {
		return nil, transiterrors.New(transiterrors.KindGeneric, "uploadFile").
			WithKey(key).
			WithMessage("local path cannot be empty")
	}

	var cfg transittypes.UploadOptionConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	fs := e.filesystem()
	f, err := fs.Open(localPath)
	if err != nil {
		return nil, transiterrors.Wrap(transiterrors.KindGeneric, "uploadFile", err).
			WithKey(key).
			WithMessage(fmt.Sprintf("open %s", localPath))
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, transiterrors.Wrap(transiterrors.KindGeneric, "uploadFile", err).
			WithKey(key).
			WithMessage(fmt.Sprintf("stat %s", localPath))
	}
	if info.IsDir() {
		return nil, transiterrors.New(transiterrors.KindGeneric, "uploadFile").
			WithKey(key).
			WithMessage(fmt.Sprintf("%s is a directory", localPath))
	}

	size := info.Size()
	if size > e.cfg.MaxObjectSize {
		return nil, sizeExceeded("uploadFile", key, size, e.cfg.MaxObjectSize)
	}

	contentType := cfg.ContentType
	if contentType == "" {
		contentType = detectFileContentType(f, key)
	}

	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = e.cfg.ChunkSize
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = e.cfg.MaxConcurrentUploads
	}

	return upload.New(e.client).Upload(ctx, f, size, &upload.Config{
		Bucket:      e.cfg.Bucket,
		Key:         key,
		ContentType: contentType,
		Metadata:    cfg.Metadata,
		Threshold:   e.cfg.MultipartThreshold,
		ChunkSize:   chunkSize,
		Concurrency: concurrency,
		Tracker:     progress.NewTracker(size, cfg.Observer),
		Retry:       e.retryPolicy(),
		Logger:      e.transferLogger("uploadFile"),
	}, start)
}

// Put uploads an in-memory payload under key with a single request.
func (e *Engine) Put(
	ctx context.Context,
	key string,
	data []byte,
	opts ...transittypes.UploadOption,
) (*transittypes.UploadResult, error) {
	start := time.Now()

	key, err := e.prepareKey(key)
	if err != nil {
		return nil, err
	}

	var cfg transittypes.UploadOptionConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return e.putStream(ctx, "put", key, data, &cfg, start)
}

// UploadStream drains the reader and uploads its contents under key.
//
// The producer is read to completion before the request so the payload
// size is known up front; the result reports upload type "stream". Sources
// too large to buffer should be staged to a file and sent with UploadFile.
//
// Returns:
//   - *UploadResult: ETag, byte count, and duration
//   - error: classified *errors.Error on failure
func (e *Engine) UploadStream(
	ctx context.Context,
	r io.Reader,
	key string,
	opts ...transittypes.UploadOption,
) (*transittypes.UploadResult, error) {
	start := time.Now()

	key, err := e.prepareKey(key)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, transiterrors.New(transiterrors.KindGeneric, "uploadStream").
			WithKey(key).
			WithMessage("reader cannot be nil")
	}

	var cfg transittypes.UploadOptionConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, transiterrors.Wrap(transiterrors.KindGeneric, "uploadStream", err).
			WithKey(key).
			WithMessage("read stream")
	}
	return e.putStream(ctx, "uploadStream", key, data, &cfg, start)
}

// putStream ships an already buffered payload as one put.
func (e *Engine) putStream(
	ctx context.Context,
	op, key string,
	data []byte,
	cfg *transittypes.UploadOptionConfig,
	start time.Time,
) (*transittypes.UploadResult, error) {
	size := int64(len(data))
	if size > e.cfg.MaxObjectSize {
		return nil, sizeExceeded(op, key, size, e.cfg.MaxObjectSize)
	}

	contentType := cfg.ContentType
	if contentType == "" {
		contentType = detectContentType(data, key)
	}

	return upload.New(e.client).PutStream(ctx, data, &upload.Config{
		Bucket:      e.cfg.Bucket,
		Key:         key,
		ContentType: contentType,
		Metadata:    cfg.Metadata,
		Tracker:     progress.NewTracker(size, cfg.Observer),
		Retry:       e.retryPolicy(),
		Logger:      e.transferLogger(op),
	}, start)
}

// Download retrieves an object and writes its body to w.
func (e *Engine) Download(
	ctx context.Context,
	key string,
	w io.Writer,
	opts ...transittypes.DownloadOption,
) (*transittypes.DownloadResult, error) {
	start := time.Now()

	key, err := e.prepareKey(key)
	if err != nil {
		return nil, err
	}

	var cfg transittypes.DownloadOptionConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	return download.New(e.client).ToWriter(ctx, w, &download.Config{
		Bucket:     e.cfg.Bucket,
		Key:        key,
		RangeStart: cfg.RangeStart,
		RangeEnd:   cfg.RangeEnd,
		Observer:   cfg.Observer,
		Retry:      e.retryPolicy(),
	}, start)
}

// DownloadStream retrieves an object and returns its body for streaming.
// The caller must close the returned ReadCloser. The stream is a single
// pass; resuming after partial consumption requires a new call with an
// adjusted range (WithRangeStart).
func (e *Engine) DownloadStream(
	ctx context.Context,
	key string,
	opts ...transittypes.DownloadOption,
) (io.ReadCloser, error) {
	key, err := e.prepareKey(key)
	if err != nil {
		return nil, err
	}

	var cfg transittypes.DownloadOptionConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	return download.New(e.client).Open(ctx, &download.Config{
		Bucket:     e.cfg.Bucket,
		Key:        key,
		RangeStart: cfg.RangeStart,
		RangeEnd:   cfg.RangeEnd,
		Observer:   cfg.Observer,
		Retry:      e.retryPolicy(),
	})
}

// DownloadFile retrieves an object and writes it to destPath, creating
// parent directories as needed. The object is stat'd first so progress
// observers see the total size before the first byte arrives. On failure
// a partially written file may remain at destPath.
//
// Returns:
//   - *DownloadResult: local path, byte count, ETag, and duration
//   - error: classified *errors.Error on failure
//
// Example:
//
//	result, err := engine.DownloadFile(ctx, "reports/2024/q3.pdf", "/tmp/q3.pdf",
//	    transit.WithDownloadProgress(observer),
//	)
func (e *Engine) DownloadFile(
	ctx context.Context,
	key, destPath string,
	opts ...transittypes.DownloadOption,
) (*transittypes.DownloadResult, error) {
	start := time.Now()

	key, err := e.prepareKey(key)
	if err != nil {
		return nil, err
	}
	if destPath == "" {
		return nil, transiterrors.New(transiterrors.KindGeneric, "downloadFile").
			WithKey(key).
			WithMessage("destination path cannot be empty")
	}

	var cfg transittypes.DownloadOptionConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	info, err := e.fileInfo(ctx, key, false)
	if err != nil {
		return nil, err
	}
	expected := info.Size
	if cfg.RangeStart != nil || cfg.RangeEnd != nil {
		// Ranged downloads take their total from the response instead.
		expected = 0
	}

	fs := e.filesystem()
	if dir := filepath.Dir(destPath); dir != "" && dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return nil, transiterrors.Wrap(transiterrors.KindGeneric, "downloadFile", err).
				WithKey(key).
				WithMessage(fmt.Sprintf("create directory %s", dir))
		}
	}
	f, err := fs.Create(destPath)
	if err != nil {
		return nil, transiterrors.Wrap(transiterrors.KindGeneric, "downloadFile", err).
			WithKey(key).
			WithMessage(fmt.Sprintf("create %s", destPath))
	}
	defer f.Close()

	res, err := download.New(e.client).ToWriter(ctx, f, &download.Config{
		Bucket:       e.cfg.Bucket,
		Key:          key,
		RangeStart:   cfg.RangeStart,
		RangeEnd:     cfg.RangeEnd,
		Observer:     cfg.Observer,
		ExpectedSize: expected,
		Retry:        e.retryPolicy(),
	}, start)
	if err != nil {
		return nil, err
	}
	res.LocalPath = destPath
	return res, nil
}

// GetFileInfo returns object metadata, serving from the metadata cache
// when enabled. WithBypassCache forces a fresh remote stat. Concurrent
// misses on the same key share one remote call.
//
// Returns:
//   - *FileInfo: size, content type, ETag, timestamps, and user metadata
//   - error: KindNotFound when the object does not exist
func (e *Engine) GetFileInfo(
	ctx context.Context,
	key string,
	opts ...transittypes.StatOption,
) (*transittypes.FileInfo, error) {
	key, err := e.prepareKey(key)
	if err != nil {
		return nil, err
	}

	var cfg transittypes.StatOptionConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return e.fileInfo(ctx, key, cfg.BypassCache)
}

// fileInfo resolves metadata for an already prepared key.
func (e *Engine) fileInfo(ctx context.Context, key string, bypassCache bool) (*transittypes.FileInfo, error) {
	if !bypassCache {
		if info, ok := e.cache.Get(key); ok {
			return &info, nil
		}
	}

	v, err, _ := e.flight.Do(key, func() (any, error) {
		out, err := retry.Do(ctx, e.retryPolicy(), func() (*s3.HeadObjectOutput, error) {
			out, err := e.client.HeadObject(ctx, &s3.HeadObjectInput{
				Bucket: aws.String(e.cfg.Bucket),
				Key:    aws.String(key),
			})
			if err != nil {
				return nil, transiterrors.Classify("getFileInfo", err).WithKey(key)
			}
			return out, nil
		})
		if err != nil {
			return nil, err
		}

		info := fileInfoFromHead(key, out)
		e.cache.Put(key, *info)
		return info, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*transittypes.FileInfo), nil
}

// Exists reports whether an object is present under key. A missing object
// is not an error; any other failure is.
func (e *Engine) Exists(ctx context.Context, key string) (bool, error) {
	key, err := e.prepareKey(key)
	if err != nil {
		return false, err
	}

	_, err = retry.Do(ctx, e.retryPolicy(), func() (*s3.HeadObjectOutput, error) {
		out, err := e.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(e.cfg.Bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, transiterrors.Classify("exists", err).WithKey(key)
		}
		return out, nil
	})
	if err != nil {
		if transiterrors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListFiles returns a single page of objects under prefix, at most 1000.
// Use WithContinuationToken with the returned token to fetch subsequent
// pages. Prefixes pass through untouched; they are not object keys and a
// caller may legitimately list under a prefix such as "" or "logs/".
//
// Example:
//
//	page, err := engine.ListFiles(ctx, "logs/2024/", transit.WithMaxKeys(100))
//	for page != nil && page.IsTruncated {
//	    page, err = engine.ListFiles(ctx, "logs/2024/",
//	        transit.WithContinuationToken(page.NextContinuationToken))
//	}
func (e *Engine) ListFiles(
	ctx context.Context,
	prefix string,
	opts ...transittypes.ListOption,
) (*transittypes.ListResult, error) {
	var cfg transittypes.ListOptionConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	return list.New(e.client).List(ctx, &list.Config{
		Bucket:            e.cfg.Bucket,
		Prefix:            prefix,
		MaxKeys:           cfg.MaxKeys,
		ContinuationToken: cfg.ContinuationToken,
		Retry:             e.retryPolicy(),
	})
}

// DeleteFile removes a single object and invalidates its cache entry.
// Deleting a key that does not exist succeeds; the store treats delete as
// idempotent.
func (e *Engine) DeleteFile(ctx context.Context, key string) (bool, error) {
	key, err := e.prepareKey(key)
	if err != nil {
		return false, err
	}

	err = delete.New(e.client).Delete(ctx, key, &delete.Config{
		Bucket: e.cfg.Bucket,
		Retry:  e.retryPolicy(),
		Logger: e.transferLogger("delete"),
	})
	if err != nil {
		return false, err
	}
	e.cache.Invalidate(key)
	return true, nil
}

// DeleteFiles removes up to 1000 objects in one batch call. The result
// map is keyed by normalized keys. Keys the store does not explicitly
// report as failed are treated as deleted: the batch API stays silent
// about keys that never existed, and for deletion absence is success.
// Per-key failures are reported in the map, not as an error.
//
// Returns:
//   - map[string]bool: normalized key to deletion outcome
//   - error: only when the batch call itself fails or a key is invalid
func (e *Engine) DeleteFiles(ctx context.Context, keys []string) (map[string]bool, error) {
	normalized := make([]string, 0, len(keys))
	for _, raw := range keys {
		key, err := e.prepareKey(raw)
		if err != nil {
			return nil, err
		}
		normalized = append(normalized, key)
	}

	outcome, err := delete.New(e.client).DeleteBatch(ctx, normalized, &delete.Config{
		Bucket: e.cfg.Bucket,
		Retry:  e.retryPolicy(),
		Logger: e.transferLogger("deleteBatch"),
	})
	if err != nil {
		return nil, err
	}

	for key, deleted := range outcome {
		if deleted {
			e.cache.Invalidate(key)
		}
	}
	return outcome, nil
}

// CopyFile copies an object server side within the engine's bucket, or
// from another bucket via WithSourceBucket. Copying an object onto itself
// without new metadata is rejected; use UpdateMetadata for that.
//
// Returns:
//   - *CopyResult: source coordinates, destination key, new ETag
//   - error: classified *errors.Error on failure
func (e *Engine) CopyFile(
	ctx context.Context,
	srcKey, destKey string,
	opts ...transittypes.CopyOption,
) (*transittypes.CopyResult, error) {
	return e.copyObject(ctx, "copy", srcKey, destKey, opts)
}

// MoveFile copies an object to destKey and then deletes the source. The
// two steps are not atomic: a delete failure after a successful copy
// leaves both objects in place and surfaces the delete error.
func (e *Engine) MoveFile(
	ctx context.Context,
	srcKey, destKey string,
	opts ...transittypes.CopyOption,
) (*transittypes.CopyResult, error) {
	start := time.Now()

	res, err := e.copyObject(ctx, "move", srcKey, destKey, opts)
	if err != nil {
		return nil, err
	}
	if _, err := e.DeleteFile(ctx, srcKey); err != nil {
		return nil, err
	}

	res.Duration = time.Since(start)
	return res, nil
}

func (e *Engine) copyObject(
	ctx context.Context,
	op, srcKey, destKey string,
	opts []transittypes.CopyOption,
) (*transittypes.CopyResult, error) {
	srcKey, err := e.prepareKey(srcKey)
	if err != nil {
		return nil, err
	}
	destKey, err = e.prepareKey(destKey)
	if err != nil {
		return nil, err
	}

	var cfg transittypes.CopyOptionConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	srcBucket := cfg.SourceBucket
	if srcBucket == "" {
		srcBucket = e.cfg.Bucket
	}
	if srcBucket == e.cfg.Bucket && srcKey == destKey && len(cfg.Metadata) == 0 {
		return nil, transiterrors.New(transiterrors.KindGeneric, op).
			WithKey(destKey).
			WithMessage("source and destination are the same object")
	}

	res, err := copy.New(e.client).Copy(ctx, &copy.Config{
		Op:           op,
		SourceBucket: srcBucket,
		SourceKey:    srcKey,
		DestBucket:   e.cfg.Bucket,
		DestKey:      destKey,
		Metadata:     cfg.Metadata,
		ContentType:  cfg.ContentType,
		Retry:        e.retryPolicy(),
	})
	if err != nil {
		return nil, err
	}
	e.cache.Invalidate(destKey)
	return res, nil
}

// UpdateMetadata replaces an object's user metadata in place via a copy
// onto itself with a replace directive. The object's current content type
// is preserved unless WithUpdateContentType overrides it. The full new
// metadata set must be supplied; the store replaces rather than merges.
//
// Returns:
//   - *UpdateMetadataResult: key, new ETag, and the applied metadata
//   - error: KindNotFound when the object does not exist
func (e *Engine) UpdateMetadata(
	ctx context.Context,
	key string,
	metadata map[string]string,
	opts ...transittypes.UpdateOption,
) (*transittypes.UpdateMetadataResult, error) {
	start := time.Now()

	key, err := e.prepareKey(key)
	if err != nil {
		return nil, err
	}

	var cfg transittypes.UpdateOptionConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	metadata = validation.SanitizeMetadata(metadata)
	if err := validation.ValidateMetadata(metadata); err != nil {
		return nil, err
	}

	// A fresh stat, not a cached one: the copy needs the object's current
	// content type and proves the object still exists.
	current, err := e.fileInfo(ctx, key, true)
	if err != nil {
		return nil, err
	}

	contentType := cfg.ContentType
	if contentType == "" {
		contentType = current.ContentType
	}
	if contentType == "" {
		contentType = DefaultContentType
	}

	res, err := copy.New(e.client).Copy(ctx, &copy.Config{
		Op:              "updateMetadata",
		SourceBucket:    e.cfg.Bucket,
		SourceKey:       key,
		DestBucket:      e.cfg.Bucket,
		DestKey:         key,
		Metadata:        metadata,
		ContentType:     contentType,
		ReplaceMetadata: true,
		Retry:           e.retryPolicy(),
	})
	if err != nil {
		return nil, err
	}
	e.cache.Invalidate(key)

	return &transittypes.UpdateMetadataResult{
		Key:      key,
		ETag:     res.ETag,
		Metadata: metadata,
		Duration: time.Since(start),
	}, nil
}

// PresignURL returns a time-limited URL for fetching or storing a single
// object without credentials. An expiry of zero or less falls back to the
// configured default; expiries above the configured maximum are rejected.
//
// Example:
//
//	url, err := engine.PresignURL(ctx, "reports/2024/q3.pdf", transittypes.PresignGet, 15*time.Minute)
func (e *Engine) PresignURL(
	ctx context.Context,
	key string,
	op transittypes.PresignOperation,
	expiry time.Duration,
) (string, error) {
	key, err := e.prepareKey(key)
	if err != nil {
		return "", err
	}

	p := e.getPresigner()
	if p == nil {
		return "", transiterrors.New(transiterrors.KindGeneric, "presign").
			WithKey(key).
			WithMessage("presigning not available on this engine")
	}

	return presign.New(p).URL(ctx, op, &presign.Config{
		Bucket:        e.cfg.Bucket,
		Key:           key,
		Expiry:        expiry,
		DefaultExpiry: e.cfg.DefaultPresignExpiry,
		MaxExpiry:     e.cfg.MaxPresignExpiry,
	})
}

// ClearMetadataCache empties the metadata cache.
func (e *Engine) ClearMetadataCache() {
	e.cache.Clear()
}

// prepareKey normalizes a raw key and validates the result. Every keyed
// operation goes through here, so stored keys are always in normal form.
func (e *Engine) prepareKey(raw string) (string, error) {
	key := validation.NormalizeKey(raw)
	if err := validation.ValidateKey(key); err != nil {
		return "", err
	}
	return key, nil
}

// transferLogger stamps each operation's log entries with a fresh
// transfer id so interleaved concurrent transfers stay attributable.
func (e *Engine) transferLogger(op string) zerolog.Logger {
	return e.log.With().
		Str("op", op).
		Str("transfer_id", ksuid.New().String()).
		Logger()
}

func sizeExceeded(op, key string, size, limit int64) error {
	return transiterrors.New(transiterrors.KindSizeExceeded, op).
		WithKey(key).
		WithMessage(fmt.Sprintf("object size %d exceeds limit %d", size, limit))
}

// detectContentType resolves a payload's content type: sniff the leading
// bytes, fall back to the key's extension, then to the generic default.
func detectContentType(data []byte, key string) string {
	if len(data) > 0 {
		if mt := mimetype.Detect(data); !mt.Is(DefaultContentType) {
			return mt.String()
		}
	}
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return DefaultContentType
}

// detectFileContentType sniffs from the file head only, matching the
// detection library's own read limit.
func detectFileContentType(r io.ReaderAt, key string) string {
	buf := make([]byte, 3072)
	n, _ := r.ReadAt(buf, 0)
	return detectContentType(buf[:n], key)
}

// fileInfoFromHead converts a HEAD response. ETags are stored without the
// surrounding quotes; an absent storage class means the standard one.
func fileInfoFromHead(key string, out *s3.HeadObjectOutput) *transittypes.FileInfo {
	info := &transittypes.FileInfo{
		Key:             key,
		Size:            aws.ToInt64(out.ContentLength),
		ContentType:     aws.ToString(out.ContentType),
		ETag:            strings.Trim(aws.ToString(out.ETag), `"`),
		LastModified:    aws.ToTime(out.LastModified),
		Metadata:        out.Metadata,
		StorageClass:    string(out.StorageClass),
		CacheControl:    aws.ToString(out.CacheControl),
		ContentEncoding: aws.ToString(out.ContentEncoding),
	}
	if info.StorageClass == "" {
		info.StorageClass = "STANDARD"
	}
	return info
}
