package presign

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/porterbay/transit/internal/testutil"
	"github.com/porterbay/transit/transittypes"
)

func testConfig(expiry time.Duration) *Config {
	return &Config{
		Bucket:        "test-bucket",
		Key:           "shared/file.bin",
		Expiry:        expiry,
		DefaultExpiry: time.Hour,
		MaxExpiry:     7 * 24 * time.Hour,
	}
}

func TestSigner_URL(t *testing.T) {
	tests := []struct {
		name        string
		op          transittypes.PresignOperation
		expiry      time.Duration
		wantURL     string
		wantErr     bool
		errContains string
	}{
		{
			name:    "get url",
			op:      transittypes.PresignGet,
			expiry:  15 * time.Minute,
			wantURL: "https://example.com/presigned-get",
		},
		{
			name:    "put url",
			op:      transittypes.PresignPut,
			expiry:  15 * time.Minute,
			wantURL: "https://example.com/presigned-put",
		},
		{
			name:    "zero expiry falls back to the default",
			op:      transittypes.PresignGet,
			expiry:  0,
			wantURL: "https://example.com/presigned-get",
		},
		{
			name:        "expiry above the maximum is rejected",
			op:          transittypes.PresignGet,
			expiry:      8 * 24 * time.Hour,
			wantErr:     true,
			errContains: "exceeds maximum",
		},
		{
			name:        "unsupported operation",
			op:          transittypes.PresignOperation("post"),
			expiry:      time.Minute,
			wantErr:     true,
			errContains: "unsupported presign operation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			presigner := &testutil.MockPresigner{}
			url, err := New(presigner).URL(context.Background(), tt.op, testConfig(tt.expiry))

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, url)
		})
	}
}

func TestSigner_URL_KeyForwarded(t *testing.T) {
	var gotBucket, gotKey string
	presigner := &testutil.MockPresigner{
		PresignGetObjectFunc: func(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
			gotBucket = aws.ToString(input.Bucket)
			gotKey = aws.ToString(input.Key)
			return &v4.PresignedHTTPRequest{URL: "https://example.com/x", Method: "GET"}, nil
		},
	}

	_, err := New(presigner).URL(context.Background(), transittypes.PresignGet, testConfig(time.Minute))

	require.NoError(t, err)
	assert.Equal(t, "test-bucket", gotBucket)
	assert.Equal(t, "shared/file.bin", gotKey)
}
