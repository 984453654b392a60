// Package list implements paged object listing under a prefix.
package list

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/porterbay/transit/errors"
	"github.com/porterbay/transit/internal/retry"
	"github.com/porterbay/transit/internal/s3api"
	"github.com/porterbay/transit/transittypes"
)

// MaxPageSize is the most keys one listing page may return.
const MaxPageSize = 1000

// Lister performs object listings against an S3 client.
type Lister struct {
	client s3api.S3API
}

// New creates a new Lister.
func New(client s3api.S3API) *Lister {
	return &Lister{client: client}
}

// Config carries the resolved settings for one listing call.
type Config struct {
	Bucket            string
	Prefix            string
	MaxKeys           int32
	ContinuationToken string
	Retry             retry.Policy
}

// List returns one page of objects under the configured prefix. Page sizes
// outside 1..MaxPageSize clamp to MaxPageSize. The result carries the
// continuation token for the next page when the listing is truncated.
func (l *Lister) List(ctx context.Context, cfg *Config) (*transittypes.ListResult, error) {
	start := time.Now()

	pageSize := cfg.MaxKeys
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(cfg.Bucket),
		Prefix:  aws.String(cfg.Prefix),
		MaxKeys: aws.Int32(pageSize),
	}
	if cfg.ContinuationToken != "" {
		input.ContinuationToken = aws.String(cfg.ContinuationToken)
	}

	out, err := retry.Do(ctx, cfg.Retry, func() (*s3.ListObjectsV2Output, error) {
		out, err := l.client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, errors.Classify("list", err)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	result := &transittypes.ListResult{
		Objects:               make([]transittypes.Object, 0, len(out.Contents)),
		Prefix:                cfg.Prefix,
		IsTruncated:           aws.ToBool(out.IsTruncated),
		NextContinuationToken: aws.ToString(out.NextContinuationToken),
		KeyCount:              int(aws.ToInt32(out.KeyCount)),
		Duration:              time.Since(start),
	}
	for _, obj := range out.Contents {
		result.Objects = append(result.Objects, transittypes.Object{
			Key:          aws.ToString(obj.Key),
			Size:         aws.ToInt64(obj.Size),
			LastModified: aws.ToTime(obj.LastModified),
			ETag:         strings.Trim(aws.ToString(obj.ETag), `"`),
			StorageClass: string(obj.StorageClass),
		})
	}

	return result, nil
}
