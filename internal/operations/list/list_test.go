package list

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	transiterrors "github.com/porterbay/transit/errors"
	"github.com/porterbay/transit/internal/retry"
	"github.com/porterbay/transit/internal/testutil"
)

func TestLister_List_PageSizeClamp(t *testing.T) {
	tests := []struct {
		name     string
		maxKeys  int32
		wantSent int32
	}{
		{name: "zero falls back to the page limit", maxKeys: 0, wantSent: 1000},
		{name: "within limit passes through", maxKeys: 250, wantSent: 250},
		{name: "above limit clamps", maxKeys: 5000, wantSent: 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := &testutil.MockS3Client{
				ListObjectsV2Func: func(ctx context.Context, input *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
					assert.Equal(t, tt.wantSent, aws.ToInt32(input.MaxKeys))
					return &s3.ListObjectsV2Output{}, nil
				},
			}

			_, err := New(mockClient).List(context.Background(), &Config{
				Bucket:  "test-bucket",
				MaxKeys: tt.maxKeys,
				Retry:   retry.Policy{MaxAttempts: 1},
			})
			require.NoError(t, err)
		})
	}
}

func TestLister_List(t *testing.T) {
	now := time.Now().Truncate(time.Second)

	mockClient := &testutil.MockS3Client{
		ListObjectsV2Func: func(ctx context.Context, input *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			assert.Equal(t, "test-bucket", aws.ToString(input.Bucket))
			assert.Equal(t, "logs/2024/", aws.ToString(input.Prefix))
			assert.Equal(t, "resume-here", aws.ToString(input.ContinuationToken))
			return &s3.ListObjectsV2Output{
				Contents: []awstypes.Object{
					{
						Key:          aws.String("logs/2024/jan.log"),
						Size:         aws.Int64(1024),
						LastModified: aws.Time(now),
						ETag:         aws.String(`"e1"`),
						StorageClass: awstypes.ObjectStorageClassStandard,
					},
					{
						Key:  aws.String("logs/2024/feb.log"),
						Size: aws.Int64(2048),
						ETag: aws.String(`"e2"`),
					},
				},
				IsTruncated:           aws.Bool(true),
				NextContinuationToken: aws.String("next-page"),
				KeyCount:              aws.Int32(2),
			}, nil
		},
	}

	result, err := New(mockClient).List(context.Background(), &Config{
		Bucket:            "test-bucket",
		Prefix:            "logs/2024/",
		ContinuationToken: "resume-here",
		Retry:             retry.Policy{MaxAttempts: 1},
	})

	require.NoError(t, err)
	assert.Equal(t, "logs/2024/", result.Prefix)
	assert.True(t, result.IsTruncated)
	assert.Equal(t, "next-page", result.NextContinuationToken)
	assert.Equal(t, 2, result.KeyCount)

	require.Len(t, result.Objects, 2)
	assert.Equal(t, "logs/2024/jan.log", result.Objects[0].Key)
	assert.Equal(t, int64(1024), result.Objects[0].Size)
	assert.Equal(t, now, result.Objects[0].LastModified)
	assert.Equal(t, "e1", result.Objects[0].ETag)
	assert.Equal(t, "STANDARD", result.Objects[0].StorageClass)
	assert.Equal(t, "e2", result.Objects[1].ETag)
}

func TestLister_List_FirstPageOmitsToken(t *testing.T) {
	mockClient := &testutil.MockS3Client{
		ListObjectsV2Func: func(ctx context.Context, input *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			assert.Nil(t, input.ContinuationToken)
			return &s3.ListObjectsV2Output{}, nil
		},
	}

	result, err := New(mockClient).List(context.Background(), &Config{
		Bucket: "test-bucket",
		Retry:  retry.Policy{MaxAttempts: 1},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Objects)
	assert.False(t, result.IsTruncated)
}

func TestLister_List_MissingBucket(t *testing.T) {
	mockClient := &testutil.MockS3Client{
		ListObjectsV2Func: func(ctx context.Context, input *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			return nil, testutil.AWSError("NoSuchBucket", "gone")
		},
	}

	_, err := New(mockClient).List(context.Background(), &Config{
		Bucket: "test-bucket",
		Retry:  retry.Policy{MaxAttempts: 1},
	})

	require.Error(t, err)
	assert.True(t, transiterrors.IsBucketMissing(err))
}
