// Package delete implements single and batch object removal. Batch results
// follow the provider contract: entries absent from the error list are
// deleted, including keys that never existed.
package delete

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"

	"github.com/porterbay/transit/errors"
	"github.com/porterbay/transit/internal/retry"
	"github.com/porterbay/transit/internal/s3api"
)

// MaxBatchSize is the most keys one batch delete request may carry.
const MaxBatchSize = 1000

// Deleter performs object removal against an S3 client.
type Deleter struct {
	client s3api.S3API
}

// New creates a new Deleter.
func New(client s3api.S3API) *Deleter {
	return &Deleter{client: client}
}

// Config carries the resolved settings for delete calls.
type Config struct {
	Bucket string
	Retry  retry.Policy
	Logger zerolog.Logger
}

// Delete removes a single object. Removing an absent key succeeds, matching
// the provider's idempotent delete semantics.
func (d *Deleter) Delete(ctx context.Context, key string, cfg *Config) error {
	_, err := retry.Do(ctx, cfg.Retry, func() (*s3.DeleteObjectOutput, error) {
		out, err := d.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(cfg.Bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, errors.Classify("delete", err).WithKey(key)
		}
		return out, nil
	})
	return err
}

// DeleteBatch removes up to MaxBatchSize objects in one request and returns
// a per-key outcome map. Every key starts as deleted; only keys the
// provider explicitly reports as failed flip to false.
func (d *Deleter) DeleteBatch(ctx context.Context, keys []string, cfg *Config) (map[string]bool, error) {
	if len(keys) == 0 {
		return map[string]bool{}, nil
	}
	if len(keys) > MaxBatchSize {
		return nil, errors.New(errors.KindGeneric, "deleteBatch").
			WithMessage(fmt.Sprintf("cannot delete more than %d keys in one batch", MaxBatchSize))
	}

	objects := make([]awstypes.ObjectIdentifier, 0, len(keys))
	for _, key := range keys {
		objects = append(objects, awstypes.ObjectIdentifier{Key: aws.String(key)})
	}

	out, err := retry.Do(ctx, cfg.Retry, func() (*s3.DeleteObjectsOutput, error) {
		out, err := d.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(cfg.Bucket),
			Delete: &awstypes.Delete{
				Objects: objects,
				Quiet:   aws.Bool(false),
			},
		})
		if err != nil {
			return nil, errors.Classify("deleteBatch", err)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	outcome := make(map[string]bool, len(keys))
	for _, key := range keys {
		outcome[key] = true
	}
	for _, derr := range out.Errors {
		key := aws.ToString(derr.Key)
		outcome[key] = false
		cfg.Logger.Warn().
			Str("key", key).
			Str("code", aws.ToString(derr.Code)).
			Str("message", aws.ToString(derr.Message)).
			Msg("batch delete entry failed")
	}

	return outcome, nil
}
