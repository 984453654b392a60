package copy

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	transiterrors "github.com/porterbay/transit/errors"
	"github.com/porterbay/transit/internal/retry"
	"github.com/porterbay/transit/internal/testutil"
)

func TestCopier_Copy(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *Config
		mockFunc func(t *testing.T, m *testutil.MockS3Client)
		wantErr  bool
		wantKind transiterrors.Kind
	}{
		{
			name: "plain copy inherits source metadata",
			cfg: &Config{
				SourceBucket: "src-bucket",
				SourceKey:    "src-key",
				DestBucket:   "dst-bucket",
				DestKey:      "dst-key",
			},
			mockFunc: func(t *testing.T, m *testutil.MockS3Client) {
				m.CopyObjectFunc = func(ctx context.Context, input *s3.CopyObjectInput, opts ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
					assert.Equal(t, "src-bucket/src-key", aws.ToString(input.CopySource))
					assert.Equal(t, "dst-bucket", aws.ToString(input.Bucket))
					assert.Equal(t, "dst-key", aws.ToString(input.Key))
					assert.Empty(t, input.MetadataDirective)
					return &s3.CopyObjectOutput{
						CopyObjectResult: &awstypes.CopyObjectResult{ETag: aws.String(`"copied"`)},
					}, nil
				}
			},
		},
		{
			name: "metadata triggers a replace directive",
			cfg: &Config{
				SourceBucket: "bkt",
				SourceKey:    "a",
				DestBucket:   "bkt",
				DestKey:      "b",
				Metadata:     map[string]string{"team": "ops"},
				ContentType:  "text/plain",
			},
			mockFunc: func(t *testing.T, m *testutil.MockS3Client) {
				m.CopyObjectFunc = func(ctx context.Context, input *s3.CopyObjectInput, opts ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
					assert.Equal(t, awstypes.MetadataDirectiveReplace, input.MetadataDirective)
					assert.Equal(t, "ops", input.Metadata["team"])
					assert.Equal(t, "text/plain", aws.ToString(input.ContentType))
					return &s3.CopyObjectOutput{
						CopyObjectResult: &awstypes.CopyObjectResult{ETag: aws.String(`"replaced"`)},
					}, nil
				}
			},
		},
		{
			name: "copy onto itself for a metadata rewrite",
			cfg: &Config{
				Op:              "updateMetadata",
				SourceBucket:    "bkt",
				SourceKey:       "same",
				DestBucket:      "bkt",
				DestKey:         "same",
				Metadata:        map[string]string{},
				ReplaceMetadata: true,
			},
			mockFunc: func(t *testing.T, m *testutil.MockS3Client) {
				m.CopyObjectFunc = func(ctx context.Context, input *s3.CopyObjectInput, opts ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
					// An empty replacement set still replaces.
					assert.Equal(t, awstypes.MetadataDirectiveReplace, input.MetadataDirective)
					assert.Equal(t, "bkt/same", aws.ToString(input.CopySource))
					return &s3.CopyObjectOutput{
						CopyObjectResult: &awstypes.CopyObjectResult{ETag: aws.String(`"rewritten"`)},
					}, nil
				}
			},
		},
		{
			name: "missing source",
			cfg: &Config{
				SourceBucket: "bkt",
				SourceKey:    "ghost",
				DestBucket:   "bkt",
				DestKey:      "dst",
			},
			mockFunc: func(t *testing.T, m *testutil.MockS3Client) {
				m.CopyObjectFunc = func(ctx context.Context, input *s3.CopyObjectInput, opts ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
					return nil, testutil.AWSError("NoSuchKey", "source does not exist")
				}
			},
			wantErr:  true,
			wantKind: transiterrors.KindNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := &testutil.MockS3Client{}
			if tt.mockFunc != nil {
				tt.mockFunc(t, mockClient)
			}

			tt.cfg.Retry = retry.Policy{MaxAttempts: 1}
			result, err := New(mockClient).Copy(context.Background(), tt.cfg)

			if tt.wantErr {
				require.Error(t, err)
				kind, ok := transiterrors.KindOf(err)
				require.True(t, ok)
				assert.Equal(t, tt.wantKind, kind)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.cfg.SourceKey, result.SourceKey)
			assert.Equal(t, tt.cfg.DestKey, result.DestinationKey)
			assert.NotContains(t, result.ETag, `"`)
		})
	}
}
