package download

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	transiterrors "github.com/porterbay/transit/errors"
	"github.com/porterbay/transit/internal/retry"
	"github.com/porterbay/transit/internal/testutil"
)

func getObjectReturning(content, etag string) func(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return func(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
		return &s3.GetObjectOutput{
			Body:          io.NopCloser(strings.NewReader(content)),
			ContentLength: aws.Int64(int64(len(content))),
			ETag:          aws.String(etag),
		}, nil
	}
}

func TestDownloader_ToWriter(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		mockFunc    func(t *testing.T, m *testutil.MockS3Client)
		wantErr     bool
		wantKind    transiterrors.Kind
		errContains string
	}{
		{
			name:    "body round trips",
			content: "the payload survives the trip",
			mockFunc: func(t *testing.T, m *testutil.MockS3Client) {
				m.GetObjectFunc = func(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
					assert.Equal(t, "test-bucket", aws.ToString(input.Bucket))
					assert.Equal(t, "reports/q3.txt", aws.ToString(input.Key))
					assert.Nil(t, input.Range)
					return getObjectReturning("the payload survives the trip", `"dl-etag"`)(ctx, input, opts...)
				}
			},
		},
		{
			name: "missing object",
			mockFunc: func(t *testing.T, m *testutil.MockS3Client) {
				m.GetObjectFunc = func(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
					return nil, testutil.AWSError("NoSuchKey", "no such key")
				}
			},
			wantErr:     true,
			wantKind:    transiterrors.KindNotFound,
			errContains: "no such key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := &testutil.MockS3Client{}
			if tt.mockFunc != nil {
				tt.mockFunc(t, mockClient)
			}

			var buf bytes.Buffer
			result, err := New(mockClient).ToWriter(context.Background(), &buf, &Config{
				Bucket: "test-bucket",
				Key:    "reports/q3.txt",
				Retry:  retry.Policy{MaxAttempts: 1},
			}, time.Now())

			if tt.wantErr {
				require.Error(t, err)
				kind, ok := transiterrors.KindOf(err)
				require.True(t, ok)
				assert.Equal(t, tt.wantKind, kind)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.content, buf.String())
			assert.Equal(t, int64(len(tt.content)), result.Size)
			assert.Equal(t, "dl-etag", result.ETag)
		})
	}
}

func TestDownloader_ToWriter_Progress(t *testing.T) {
	content := strings.Repeat("d", 4096)
	observer := &testutil.RecordingObserver{}

	mockClient := &testutil.MockS3Client{
		GetObjectFunc: getObjectReturning(content, `"e"`),
	}

	var buf bytes.Buffer
	_, err := New(mockClient).ToWriter(context.Background(), &buf, &Config{
		Bucket:   "test-bucket",
		Key:      "tracked",
		Observer: observer,
		Retry:    retry.Policy{MaxAttempts: 1},
	}, time.Now())

	require.NoError(t, err)
	last, ok := observer.Last()
	require.True(t, ok)
	assert.Equal(t, int64(len(content)), last.TransferredBytes)
	assert.Equal(t, int64(len(content)), last.TotalBytes)
	assert.InDelta(t, 100.0, last.Percentage, 0.01)
}

func TestDownloader_Open(t *testing.T) {
	content := "streamed body"
	observer := &testutil.RecordingObserver{}

	mockClient := &testutil.MockS3Client{
		GetObjectFunc: getObjectReturning(content, `"e"`),
	}

	body, err := New(mockClient).Open(context.Background(), &Config{
		Bucket:   "test-bucket",
		Key:      "streamed",
		Observer: observer,
		Retry:    retry.Policy{MaxAttempts: 1},
	})
	require.NoError(t, err)

	got, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())

	assert.Equal(t, content, string(got))
	last, ok := observer.Last()
	require.True(t, ok)
	assert.Equal(t, int64(len(content)), last.TransferredBytes)
}

func TestDownloader_RangeRequests(t *testing.T) {
	tests := []struct {
		name      string
		start     *int64
		end       *int64
		wantRange string
	}{
		{name: "no range", wantRange: ""},
		{name: "start only", start: aws.Int64(5), wantRange: "bytes=5-"},
		{name: "start and end", start: aws.Int64(5), end: aws.Int64(9), wantRange: "bytes=5-9"},
		{name: "end only reads from zero", end: aws.Int64(9), wantRange: "bytes=0-9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := &testutil.MockS3Client{
				GetObjectFunc: func(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
					if tt.wantRange == "" {
						assert.Nil(t, input.Range)
					} else {
						assert.Equal(t, tt.wantRange, aws.ToString(input.Range))
					}
					return getObjectReturning("x", `"e"`)(ctx, input, opts...)
				},
			}

			var buf bytes.Buffer
			_, err := New(mockClient).ToWriter(context.Background(), &buf, &Config{
				Bucket:     "test-bucket",
				Key:        "ranged",
				RangeStart: tt.start,
				RangeEnd:   tt.end,
				Retry:      retry.Policy{MaxAttempts: 1},
			}, time.Now())
			require.NoError(t, err)
		})
	}
}

func TestRangeHeader(t *testing.T) {
	assert.Equal(t, "", rangeHeader(nil, nil))
	assert.Equal(t, "bytes=128-", rangeHeader(aws.Int64(128), nil))
	assert.Equal(t, "bytes=128-255", rangeHeader(aws.Int64(128), aws.Int64(255)))
	assert.Equal(t, "bytes=0-255", rangeHeader(nil, aws.Int64(255)))
}
