// Package download implements object retrieval: streaming reads, writes
// into an io.Writer, and byte-range requests, with progress reporting on
// the copy path.
package download

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/porterbay/transit/errors"
	"github.com/porterbay/transit/internal/pool"
	"github.com/porterbay/transit/internal/progress"
	"github.com/porterbay/transit/internal/retry"
	"github.com/porterbay/transit/internal/s3api"
	"github.com/porterbay/transit/transittypes"
)

// Downloader performs object downloads against an S3 client.
type Downloader struct {
	client s3api.S3API
}

// New creates a new Downloader.
func New(client s3api.S3API) *Downloader {
	return &Downloader{client: client}
}

// Config carries the resolved settings for one download.
type Config struct {
	Bucket string
	Key    string

	// RangeStart and RangeEnd select a byte range. A nil start with a
	// non-nil end reads from offset zero through end.
	RangeStart *int64
	RangeEnd   *int64

	// Observer receives progress while the body is consumed.
	Observer transittypes.ProgressObserver

	// ExpectedSize seeds progress totals when known ahead of the response.
	ExpectedSize int64

	Retry retry.Policy
}

// Open retrieves the object and returns its body for streaming. The caller
// owns the returned ReadCloser. When an observer is configured the body
// reports progress as it is consumed.
func (d *Downloader) Open(ctx context.Context, cfg *Config) (io.ReadCloser, error) {
	out, err := d.get(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Observer == nil {
		return out.Body, nil
	}

	total := cfg.ExpectedSize
	if total <= 0 {
		total = aws.ToInt64(out.ContentLength)
	}
	tracker := progress.NewTracker(total, cfg.Observer)
	return &progressBody{
		Reader: progress.NewReader(out.Body, tracker),
		closer: out.Body,
	}, nil
}

// ToWriter retrieves the object and copies its body into w, reporting
// progress along the way.
func (d *Downloader) ToWriter(
	ctx context.Context,
	w io.Writer,
	cfg *Config,
	start time.Time,
) (*transittypes.DownloadResult, error) {
	out, err := d.get(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = out.Body.Close() }()

	total := cfg.ExpectedSize
	if total <= 0 {
		total = aws.ToInt64(out.ContentLength)
	}
	tracker := progress.NewTracker(total, cfg.Observer)

	buf := pool.GetBuffer(pool.MediumBufferSize)
	defer pool.PutBuffer(buf)
	buf = buf[:cap(buf)]

	written, err := io.CopyBuffer(w, progress.NewReader(out.Body, tracker), buf)
	if err != nil {
		return nil, errors.Wrap(errors.KindNetworkError, "download", err).
			WithKey(cfg.Key).
			WithMessage("copy object body")
	}

	return &transittypes.DownloadResult{
		Key:      cfg.Key,
		Size:     written,
		ETag:     strings.Trim(aws.ToString(out.ETag), `"`),
		Duration: time.Since(start),
	}, nil
}

// get issues the GetObject call with retry and range handling.
func (d *Downloader) get(ctx context.Context, cfg *Config) (*s3.GetObjectOutput, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(cfg.Bucket),
		Key:    aws.String(cfg.Key),
	}
	if header := rangeHeader(cfg.RangeStart, cfg.RangeEnd); header != "" {
		input.Range = aws.String(header)
	}

	return retry.Do(ctx, cfg.Retry, func() (*s3.GetObjectOutput, error) {
		out, err := d.client.GetObject(ctx, input)
		if err != nil {
			return nil, errors.Classify("download", err).WithKey(cfg.Key)
		}
		return out, nil
	})
}

// rangeHeader renders an HTTP range header for the requested byte span.
// A missing start defaults to zero; a missing end leaves the range open.
func rangeHeader(start, end *int64) string {
	if start == nil && end == nil {
		return ""
	}

	var from int64
	if start != nil {
		from = *start
	}
	if end != nil {
		return fmt.Sprintf("bytes=%d-%d", from, *end)
	}
	return fmt.Sprintf("bytes=%d-", from)
}

// progressBody pairs a progress-reporting reader with the underlying
// body's closer.
type progressBody struct {
	io.Reader
	closer io.Closer
}

// Close implements io.Closer.
func (b *progressBody) Close() error {
	return b.closer.Close()
}
