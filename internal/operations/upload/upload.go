// Package upload implements object placement. Payloads at or above the
// multipart threshold are split into parts and uploaded in parallel;
// smaller payloads and buffered streams go up with a single put.
package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/porterbay/transit/errors"
	"github.com/porterbay/transit/internal/progress"
	"github.com/porterbay/transit/internal/retry"
	"github.com/porterbay/transit/internal/s3api"
	"github.com/porterbay/transit/transittypes"
)

const (
	// DefaultChunkSize is the part size used when none is configured.
	DefaultChunkSize = 8 * 1024 * 1024

	// DefaultConcurrency bounds parallel part uploads when unconfigured.
	DefaultConcurrency = 10
)

// Uploader performs object uploads against an S3 client.
type Uploader struct {
	client s3api.S3API
}

// New creates a new Uploader.
func New(client s3api.S3API) *Uploader {
	return &Uploader{client: client}
}

// Config carries the resolved settings for one upload.
type Config struct {
	Bucket      string
	Key         string
	ContentType string
	Metadata    map[string]string

	// Threshold is the size at or above which Upload takes the multipart
	// path. ChunkSize and Concurrency shape that path.
	Threshold   int64
	ChunkSize   int64
	Concurrency int

	Tracker *progress.Tracker
	Retry   retry.Policy
	Logger  zerolog.Logger
}

// Upload stores size bytes readable through r. Payloads at or above the
// configured threshold use the multipart path, everything else a single
// put. The reader must serve concurrent ReadAt calls for multipart.
func (u *Uploader) Upload(
	ctx context.Context,
	r io.ReaderAt,
	size int64,
	cfg *Config,
	start time.Time,
) (*transittypes.UploadResult, error) {
	if size >= cfg.Threshold {
		return u.uploadMultipart(ctx, r, size, cfg, start)
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(io.NewSectionReader(r, 0, size), data); err != nil {
		return nil, errors.Wrap(errors.KindGeneric, "upload", err).
			WithKey(cfg.Key).
			WithMessage("read source data")
	}
	return u.put(ctx, data, cfg, start, transittypes.UploadTypeSimple)
}

// PutStream stores an already buffered stream payload with a single put,
// regardless of size. Streamed bodies are never split into parts.
func (u *Uploader) PutStream(
	ctx context.Context,
	data []byte,
	cfg *Config,
	start time.Time,
) (*transittypes.UploadResult, error) {
	return u.put(ctx, data, cfg, start, transittypes.UploadTypeStream)
}

// put performs a single PutObject and reports the full size to the tracker.
func (u *Uploader) put(
	ctx context.Context,
	data []byte,
	cfg *Config,
	start time.Time,
	uploadType transittypes.UploadType,
) (*transittypes.UploadResult, error) {
	size := int64(len(data))

	out, err := retry.Do(ctx, cfg.Retry, func() (*s3.PutObjectOutput, error) {
		input := &s3.PutObjectInput{
			Bucket:        aws.String(cfg.Bucket),
			Key:           aws.String(cfg.Key),
			Body:          bytes.NewReader(data),
			ContentLength: aws.Int64(size),
			ContentType:   aws.String(cfg.ContentType),
		}
		if len(cfg.Metadata) > 0 {
			input.Metadata = cfg.Metadata
		}

		out, err := u.client.PutObject(ctx, input)
		if err != nil {
			return nil, errors.Classify("putObject", err).WithKey(cfg.Key)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	cfg.Tracker.Update(size)
	cfg.Logger.Debug().
		Str("key", cfg.Key).
		Int64("size", size).
		Str("upload_type", string(uploadType)).
		Msg("object stored")

	return &transittypes.UploadResult{
		Key:        cfg.Key,
		Size:       size,
		UploadType: uploadType,
		ETag:       strings.Trim(aws.ToString(out.ETag), `"`),
		Duration:   time.Since(start),
	}, nil
}

// partCount returns how many parts a payload of the given size needs.
// Zero-byte payloads still need one empty part to satisfy the protocol.
func partCount(size, chunkSize int64) int {
	if size == 0 {
		return 1
	}
	return int((size + chunkSize - 1) / chunkSize)
}

// readSection fills buf from r at the given offset.
func readSection(r io.ReaderAt, buf []byte, offset int64, key string, partNumber int32) error {
	if _, err := io.ReadFull(io.NewSectionReader(r, offset, int64(len(buf))), buf); err != nil {
		return errors.Wrap(errors.KindGeneric, "uploadPart", err).
			WithKey(key).
			WithMessage(fmt.Sprintf("read part %d", partNumber))
	}
	return nil
}
