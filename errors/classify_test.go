package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/url"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func apiError(code, message string) error {
	return &smithy.GenericAPIError{Code: code, Message: message}
}

func TestClassify_ProviderCodes(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		wantKind Kind
	}{
		{name: "missing bucket", code: "NoSuchBucket", wantKind: KindBucketMissing},
		{name: "missing key", code: "NoSuchKey", wantKind: KindNotFound},
		{name: "head not found", code: "NotFound", wantKind: KindNotFound},
		{name: "access denied", code: "AccessDenied", wantKind: KindPermissionDenied},
		{name: "bad access key", code: "InvalidAccessKeyId", wantKind: KindAuthFailure},
		{name: "bad signature", code: "SignatureDoesNotMatch", wantKind: KindAuthFailure},
		{name: "clock skew", code: "RequestTimeTooSkewed", wantKind: KindAuthFailure},
		{name: "service unavailable", code: "ServiceUnavailable", wantKind: KindServiceUnavailable},
		{name: "slow down", code: "SlowDown", wantKind: KindRateLimited},
		{name: "request limit", code: "RequestLimitExceeded", wantKind: KindRateLimited},
		{name: "unknown code", code: "TeapotError", wantKind: KindGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := apiError(tt.code, "the service said no")
			classified := Classify("stat", raw)

			require.NotNil(t, classified)
			assert.Equal(t, tt.wantKind, classified.Kind)
			assert.Equal(t, "stat", classified.Op)
			assert.Equal(t, tt.code, classified.Code)
			assert.Equal(t, "the service said no", classified.Message)
			assert.True(t, stderrors.Is(classified, raw))
		})
	}
}

func TestClassify_TransportErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "deadline exceeded", err: context.DeadlineExceeded},
		{name: "wrapped deadline", err: fmt.Errorf("request: %w", context.DeadlineExceeded)},
		{name: "canceled", err: context.Canceled},
		{
			name: "dns failure",
			err:  &net.DNSError{Err: "no such host", Name: "bucket.example.com", IsNotFound: true},
		},
		{
			name: "url error",
			err: &url.Error{
				Op:  "Post",
				URL: "https://bucket.example.com/key",
				Err: stderrors.New("connection refused"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := Classify("upload", tt.err)

			require.NotNil(t, classified)
			assert.Equal(t, KindNetworkError, classified.Kind)
			assert.Equal(t, "upload", classified.Op)
			assert.True(t, stderrors.Is(classified, tt.err))
		})
	}
}

func TestClassify_PassThrough(t *testing.T) {
	original := New(KindNotFound, "stat").WithKey("a/b.txt")

	classified := Classify("download", original)

	// The first classification wins, so a later call must not rewrap
	// or relabel the error with its own operation.
	assert.Same(t, original, classified)
	assert.Equal(t, "stat", classified.Op)

	wrapped := fmt.Errorf("fetching metadata: %w", original)
	assert.Same(t, original, Classify("download", wrapped))
}

func TestClassify_LocalError(t *testing.T) {
	raw := stderrors.New("buffer exhausted")

	classified := Classify("upload", raw)

	require.NotNil(t, classified)
	assert.Equal(t, KindGeneric, classified.Kind)
	assert.Equal(t, "upload", classified.Op)
	assert.Empty(t, classified.Code)
	assert.True(t, stderrors.Is(classified, raw))
}

func TestClassify_Nil(t *testing.T) {
	assert.Nil(t, Classify("upload", nil))
}
