package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "kind only",
			err:  New(KindNotFound, "download"),
			want: "transit.download: object not found",
		},
		{
			name: "with key",
			err:  New(KindNotFound, "download").WithKey("a/b.txt"),
			want: "transit.download a/b.txt: object not found",
		},
		{
			name: "with key and message",
			err: New(KindPermissionDenied, "upload").
				WithKey("a/b.txt").
				WithMessage("user lacks s3:PutObject"),
			want: "transit.upload a/b.txt: access denied: user lacks s3:PutObject",
		},
		{
			name: "message without key",
			err:  New(KindGeneric, "configure").WithMessage("chunk size must be positive"),
			want: "transit.configure: remote error: chunk size must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := stderrors.New("socket closed")
	err := Wrap(KindNetworkError, "download", cause).WithKey("k")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, cause, stderrors.Unwrap(err))
}

func TestError_Builders(t *testing.T) {
	err := New(KindAuthFailure, "configure").
		WithBucket("archive").
		WithKey("a").
		WithCode("SignatureDoesNotMatch").
		WithMessage("signature mismatch")

	assert.Equal(t, "archive", err.Bucket)
	assert.Equal(t, "a", err.Key)
	assert.Equal(t, "SignatureDoesNotMatch", err.Code)
	assert.Equal(t, "signature mismatch", err.Message)
	assert.Equal(t, KindAuthFailure, err.Kind)
	assert.Equal(t, "configure", err.Op)
}

func TestKindOf(t *testing.T) {
	kind, ok := KindOf(New(KindRateLimited, "upload"))
	require.True(t, ok)
	assert.Equal(t, KindRateLimited, kind)

	// Wrapped deeper in a chain it is still found.
	wrapped := fmt.Errorf("outer: %w", New(KindNotFound, "stat"))
	kind, ok = KindOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindNotFound, kind)

	_, ok = KindOf(stderrors.New("plain"))
	assert.False(t, ok)

	_, ok = KindOf(nil)
	assert.False(t, ok)
}

func TestKindOf_OutermostWins(t *testing.T) {
	// A multipart failure wrapping a classified cause reports as a
	// multipart failure, not as the inner kind.
	inner := New(KindNetworkError, "uploadPart").WithKey("k")
	outer := Wrap(KindMultipartFailure, "upload", inner).WithKey("k")

	kind, ok := KindOf(outer)
	require.True(t, ok)
	assert.Equal(t, KindMultipartFailure, kind)
	assert.True(t, IsMultipartFailure(outer))
}

func TestKind_Retryable(t *testing.T) {
	retryable := []Kind{KindGeneric, KindRateLimited, KindServiceUnavailable, KindNetworkError}
	for _, kind := range retryable {
		assert.True(t, kind.Retryable(), kind.String())
	}

	terminal := []Kind{
		KindNotFound,
		KindBucketMissing,
		KindPermissionDenied,
		KindAuthFailure,
		KindSizeExceeded,
		KindInvalidKey,
		KindMultipartFailure,
	}
	for _, kind := range terminal {
		assert.False(t, kind.Retryable(), kind.String())
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(New(KindNetworkError, "download")))
	assert.False(t, IsRetryable(New(KindPermissionDenied, "download")))

	// Unclassified errors stay retryable.
	assert.True(t, IsRetryable(stderrors.New("anything")))
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name      string
		predicate func(error) bool
		kind      Kind
	}{
		{name: "not found", predicate: IsNotFound, kind: KindNotFound},
		{name: "bucket missing", predicate: IsBucketMissing, kind: KindBucketMissing},
		{name: "permission denied", predicate: IsPermissionDenied, kind: KindPermissionDenied},
		{name: "auth failure", predicate: IsAuthFailure, kind: KindAuthFailure},
		{name: "rate limited", predicate: IsRateLimited, kind: KindRateLimited},
		{name: "service unavailable", predicate: IsServiceUnavailable, kind: KindServiceUnavailable},
		{name: "network", predicate: IsNetworkError, kind: KindNetworkError},
		{name: "size exceeded", predicate: IsSizeExceeded, kind: KindSizeExceeded},
		{name: "invalid key", predicate: IsInvalidKey, kind: KindInvalidKey},
		{name: "multipart failure", predicate: IsMultipartFailure, kind: KindMultipartFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.predicate(New(tt.kind, "op")))
			assert.False(t, tt.predicate(New(KindGeneric, "op")))
			assert.False(t, tt.predicate(nil))
		})
	}
}
