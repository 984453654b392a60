// Package copy implements server-side object copies. The same code path
// powers plain copies, the copy half of a move, and metadata rewrites via
// copy-to-self with a replace directive.
package copy

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/porterbay/transit/errors"
	"github.com/porterbay/transit/internal/retry"
	"github.com/porterbay/transit/internal/s3api"
	"github.com/porterbay/transit/transittypes"
)

// Copier performs server-side copies against an S3 client.
type Copier struct {
	client s3api.S3API
}

// New creates a new Copier.
func New(client s3api.S3API) *Copier {
	return &Copier{client: client}
}

// Config carries the resolved settings for one copy.
type Config struct {
	// Op names the engine operation for error context, "copy" by default.
	Op string

	SourceBucket string
	SourceKey    string
	DestBucket   string
	DestKey      string

	// Metadata and ContentType apply with a replace directive. When
	// ReplaceMetadata is false and Metadata is empty the destination
	// inherits the source's metadata.
	Metadata        map[string]string
	ContentType     string
	ReplaceMetadata bool

	Retry retry.Policy
}

// Copy performs the server-side copy and returns the new object's ETag.
func (c *Copier) Copy(ctx context.Context, cfg *Config) (*transittypes.CopyResult, error) {
	start := time.Now()
	op := cfg.Op
	if op == "" {
		op = "copy"
	}

	input := &s3.CopyObjectInput{
		Bucket:     aws.String(cfg.DestBucket),
		Key:        aws.String(cfg.DestKey),
		CopySource: aws.String(cfg.SourceBucket + "/" + cfg.SourceKey),
	}
	if cfg.ReplaceMetadata || len(cfg.Metadata) > 0 {
		input.MetadataDirective = awstypes.MetadataDirectiveReplace
		input.Metadata = cfg.Metadata
		if cfg.ContentType != "" {
			input.ContentType = aws.String(cfg.ContentType)
		}
	}

	out, err := retry.Do(ctx, cfg.Retry, func() (*s3.CopyObjectOutput, error) {
		out, err := c.client.CopyObject(ctx, input)
		if err != nil {
			return nil, errors.Classify(op, err).WithKey(cfg.DestKey)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	var etag string
	if out.CopyObjectResult != nil {
		etag = strings.Trim(aws.ToString(out.CopyObjectResult.ETag), `"`)
	}

	return &transittypes.CopyResult{
		SourceBucket:   cfg.SourceBucket,
		SourceKey:      cfg.SourceKey,
		DestinationKey: cfg.DestKey,
		ETag:           etag,
		Duration:       time.Since(start),
	}, nil
}
