package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"

	"github.com/porterbay/transit/errors"
	"github.com/porterbay/transit/internal/pool"
	"github.com/porterbay/transit/internal/retry"
	"github.com/porterbay/transit/transittypes"
)

// uploadMultipart splits the payload into chunk-sized parts, uploads them
// in parallel under a concurrency bound, and completes the session with the
// assembled part list. Any part or completion failure aborts the session
// and surfaces as a multipart failure wrapping the first cause.
func (u *Uploader) uploadMultipart(
	ctx context.Context,
	r io.ReaderAt,
	size int64,
	cfg *Config,
	start time.Time,
) (*transittypes.UploadResult, error) {
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	numParts := partCount(size, chunkSize)

	uploadID, err := u.createSession(ctx, cfg)
	if err != nil {
		return nil, err
	}

	log := cfg.Logger.With().Str("key", cfg.Key).Str("upload_id", uploadID).Logger()
	log.Debug().Int64("size", size).Int("parts", numParts).Msg("multipart upload started")

	parts, err := u.uploadParts(ctx, r, size, uploadID, chunkSize, numParts, cfg)
	if err != nil {
		u.abortSession(ctx, uploadID, cfg, log)
		return nil, errors.Wrap(errors.KindMultipartFailure, "upload", err).WithKey(cfg.Key)
	}

	if err := validateParts(parts, numParts); err != nil {
		u.abortSession(ctx, uploadID, cfg, log)
		return nil, errors.Wrap(errors.KindMultipartFailure, "upload", err).WithKey(cfg.Key)
	}

	out, err := u.completeSession(ctx, uploadID, parts, cfg)
	if err != nil {
		u.abortSession(ctx, uploadID, cfg, log)
		return nil, errors.Wrap(errors.KindMultipartFailure, "upload", err).WithKey(cfg.Key)
	}

	log.Debug().Msg("multipart upload completed")

	return &transittypes.UploadResult{
		Key:        cfg.Key,
		Size:       size,
		UploadType: transittypes.UploadTypeMultipart,
		ETag:       strings.Trim(aws.ToString(out.ETag), `"`),
		TotalParts: numParts,
		Duration:   time.Since(start),
	}, nil
}

// uploadParts fans part uploads out across a bounded set of goroutines.
// The first failure cancels scheduling of parts that have not started;
// parts already in flight finish or fail on their own before this returns.
func (u *Uploader) uploadParts(
	ctx context.Context,
	r io.ReaderAt,
	size int64,
	uploadID string,
	chunkSize int64,
	numParts int,
	cfg *Config,
) ([]awstypes.CompletedPart, error) {
	type partResult struct {
		partNumber int32
		etag       string
		err        error
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make(chan partResult, numParts)
	sem := make(chan struct{}, concurrency)
	parts := make([]awstypes.CompletedPart, numParts)

	var wg sync.WaitGroup
	for i := 0; i < numParts; i++ {
		wg.Add(1)
		go func(partNumber int32) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results <- partResult{partNumber: partNumber, err: ctx.Err()}
				return
			}
			defer func() { <-sem }()

			etag, err := u.uploadPart(ctx, r, size, uploadID, chunkSize, partNumber, cfg)
			results <- partResult{partNumber: partNumber, etag: etag, err: err}
		}(int32(i + 1))
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var firstErr error
	for result := range results {
		if result.err != nil {
			if firstErr == nil {
				firstErr = result.err
				cancel()
			}
			continue
		}
		parts[result.partNumber-1] = awstypes.CompletedPart{
			ETag:       aws.String(result.etag),
			PartNumber: aws.Int32(result.partNumber),
		}
	}

	if firstErr != nil {
		return nil, firstErr
	}
	return parts, nil
}

// uploadPart stages one part in a pooled buffer and uploads it with retry.
// The buffer is handed back once the part settles, so each retry attempt
// rewinds over the same staged bytes.
func (u *Uploader) uploadPart(
	ctx context.Context,
	r io.ReaderAt,
	totalSize int64,
	uploadID string,
	chunkSize int64,
	partNumber int32,
	cfg *Config,
) (string, error) {
	offset := int64(partNumber-1) * chunkSize
	partSize := chunkSize
	if offset+partSize > totalSize {
		partSize = totalSize - offset
	}

	buf := pool.GetBuffer(int(partSize))
	defer pool.PutBuffer(buf)
	buf = buf[:partSize]

	if err := readSection(r, buf, offset, cfg.Key, partNumber); err != nil {
		return "", err
	}

	out, err := retry.Do(ctx, cfg.Retry, func() (*s3.UploadPartOutput, error) {
		out, err := u.client.UploadPart(ctx, &s3.UploadPartInput{
			Bucket:        aws.String(cfg.Bucket),
			Key:           aws.String(cfg.Key),
			UploadId:      aws.String(uploadID),
			PartNumber:    aws.Int32(partNumber),
			Body:          bytes.NewReader(buf),
			ContentLength: aws.Int64(partSize),
		})
		if err != nil {
			return nil, errors.Classify("uploadPart", err).WithKey(cfg.Key)
		}
		return out, nil
	})
	if err != nil {
		return "", err
	}

	cfg.Tracker.Update(partSize)
	return aws.ToString(out.ETag), nil
}

// validateParts checks the assembled part list before completion: exactly
// the expected count, part numbers strictly increasing from one, and an
// ETag present for each.
func validateParts(parts []awstypes.CompletedPart, want int) error {
	if len(parts) != want {
		return fmt.Errorf("expected %d parts, assembled %d", want, len(parts))
	}
	for i, part := range parts {
		if aws.ToInt32(part.PartNumber) != int32(i+1) {
			return fmt.Errorf("part %d missing from completed set", i+1)
		}
		if aws.ToString(part.ETag) == "" {
			return fmt.Errorf("part %d completed without an etag", i+1)
		}
	}
	return nil
}

// createSession starts a multipart upload and returns its upload ID.
func (u *Uploader) createSession(ctx context.Context, cfg *Config) (string, error) {
	out, err := retry.Do(ctx, cfg.Retry, func() (*s3.CreateMultipartUploadOutput, error) {
		input := &s3.CreateMultipartUploadInput{
			Bucket:      aws.String(cfg.Bucket),
			Key:         aws.String(cfg.Key),
			ContentType: aws.String(cfg.ContentType),
		}
		if len(cfg.Metadata) > 0 {
			input.Metadata = cfg.Metadata
		}

		out, err := u.client.CreateMultipartUpload(ctx, input)
		if err != nil {
			return nil, errors.Classify("createMultipartUpload", err).WithKey(cfg.Key)
		}
		return out, nil
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.UploadId), nil
}

// completeSession assembles the uploaded parts into the final object.
func (u *Uploader) completeSession(
	ctx context.Context,
	uploadID string,
	parts []awstypes.CompletedPart,
	cfg *Config,
) (*s3.CompleteMultipartUploadOutput, error) {
	return retry.Do(ctx, cfg.Retry, func() (*s3.CompleteMultipartUploadOutput, error) {
		out, err := u.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
			Bucket:          aws.String(cfg.Bucket),
			Key:             aws.String(cfg.Key),
			UploadId:        aws.String(uploadID),
			MultipartUpload: &awstypes.CompletedMultipartUpload{Parts: parts},
		})
		if err != nil {
			return nil, errors.Classify("completeMultipartUpload", err).WithKey(cfg.Key)
		}
		return out, nil
	})
}

// abortSession is best-effort cleanup after a failed session. It runs even
// when the caller's context is already canceled, and its own failures are
// logged rather than overriding the root cause.
func (u *Uploader) abortSession(ctx context.Context, uploadID string, cfg *Config, log zerolog.Logger) {
	ctx = context.WithoutCancel(ctx)
	_, err := u.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(cfg.Bucket),
		Key:      aws.String(cfg.Key),
		UploadId: aws.String(uploadID),
	})
	if err != nil {
		log.Warn().Err(err).Msg("abort multipart upload failed")
	}
}
