// Package presign issues time-limited URLs that grant access to single
// objects without sharing credentials. Signing is local, so no retry or
// remote round-trip is involved.
package presign

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/porterbay/transit/errors"
	"github.com/porterbay/transit/internal/s3api"
	"github.com/porterbay/transit/transittypes"
)

// Signer creates presigned URLs through an S3 presign client.
type Signer struct {
	presigner s3api.Presigner
}

// New creates a new Signer.
func New(presigner s3api.Presigner) *Signer {
	return &Signer{presigner: presigner}
}

// Config carries the resolved settings for one presign call.
type Config struct {
	Bucket string
	Key    string

	// Expiry is the requested lifetime. Zero or negative falls back to
	// DefaultExpiry; anything above MaxExpiry is rejected.
	Expiry        time.Duration
	DefaultExpiry time.Duration
	MaxExpiry     time.Duration
}

// URL signs a URL authorizing the given operation on the configured object.
func (s *Signer) URL(ctx context.Context, op transittypes.PresignOperation, cfg *Config) (string, error) {
	expiry := cfg.Expiry
	if expiry <= 0 {
		expiry = cfg.DefaultExpiry
	}
	if cfg.MaxExpiry > 0 && expiry > cfg.MaxExpiry {
		return "", errors.New(errors.KindGeneric, "presign").
			WithKey(cfg.Key).
			WithMessage(fmt.Sprintf("expiry %s exceeds maximum %s", expiry, cfg.MaxExpiry))
	}

	switch op {
	case transittypes.PresignGet:
		req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(cfg.Bucket),
			Key:    aws.String(cfg.Key),
		}, s3.WithPresignExpires(expiry))
		if err != nil {
			return "", errors.Classify("presign", err).WithKey(cfg.Key)
		}
		return req.URL, nil

	case transittypes.PresignPut:
		req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(cfg.Bucket),
			Key:    aws.String(cfg.Key),
		}, s3.WithPresignExpires(expiry))
		if err != nil {
			return "", errors.Classify("presign", err).WithKey(cfg.Key)
		}
		return req.URL, nil

	default:
		return "", errors.New(errors.KindGeneric, "presign").
			WithKey(cfg.Key).
			WithMessage(fmt.Sprintf("unsupported presign operation %q", string(op)))
	}
}
