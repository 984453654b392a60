// Package errors defines the error taxonomy for the transit module.
// Every failure an engine operation surfaces is an *Error carrying exactly
// one Kind, the operation that failed, and optional object context.
package errors

import (
	"errors"
	"fmt"
)

// Kind is the closed set of failure categories.
type Kind uint8

const (
	// KindGeneric covers remote errors with no more specific category.
	KindGeneric Kind = iota
	// KindNotFound means the requested object does not exist.
	KindNotFound
	// KindBucketMissing means the target bucket does not exist.
	KindBucketMissing
	// KindPermissionDenied means the credentials lack access.
	KindPermissionDenied
	// KindAuthFailure means the credentials themselves were rejected.
	KindAuthFailure
	// KindRateLimited means the provider asked us to slow down.
	KindRateLimited
	// KindServiceUnavailable means the provider is temporarily down.
	KindServiceUnavailable
	// KindNetworkError means the request never produced an API response.
	KindNetworkError
	// KindSizeExceeded means a payload is larger than the configured ceiling.
	KindSizeExceeded
	// KindInvalidKey means an object key failed validation.
	KindInvalidKey
	// KindMultipartFailure means a multipart upload failed and was aborted.
	KindMultipartFailure
)

// String returns a short human-readable description of the kind.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "object not found"
	case KindBucketMissing:
		return "bucket not found"
	case KindPermissionDenied:
		return "access denied"
	case KindAuthFailure:
		return "authentication failed"
	case KindRateLimited:
		return "rate limited"
	case KindServiceUnavailable:
		return "service unavailable"
	case KindNetworkError:
		return "network error"
	case KindSizeExceeded:
		return "object size exceeds limit"
	case KindInvalidKey:
		return "invalid object key"
	case KindMultipartFailure:
		return "multipart upload failed"
	default:
		return "remote error"
	}
}

// Retryable reports whether a failure of this kind is worth reissuing.
// Only transient categories qualify; definitive rejections such as missing
// objects or bad credentials never do.
func (k Kind) Retryable() bool {
	switch k {
	case KindNetworkError, KindRateLimited, KindServiceUnavailable, KindGeneric:
		return true
	default:
		return false
	}
}

// Error is the error type returned by all engine operations.
type Error struct {
	// Kind categorizes the failure.
	Kind Kind
	// Op is the engine operation that failed, e.g. "upload" or "deleteBatch".
	Op string
	// Bucket and Key identify the object involved, when known.
	Bucket string
	Key    string
	// Code is the provider error code, when the failure came from the API.
	Code string
	// Message is additional human-readable context.
	Message string
	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.Key != "" && msg != "":
		return fmt.Sprintf("transit.%s %s: %s: %s", e.Op, e.Key, e.Kind, msg)
	case e.Key != "":
		return fmt.Sprintf("transit.%s %s: %s", e.Op, e.Key, e.Kind)
	case msg != "":
		return fmt.Sprintf("transit.%s: %s: %s", e.Op, e.Kind, msg)
	default:
		return fmt.Sprintf("transit.%s: %s", e.Op, e.Kind)
	}
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error of the given kind for the given operation.
func New(kind Kind, op string) *Error {
	return &Error{Kind: kind, Op: op}
}

// Wrap creates an Error of the given kind wrapping an underlying cause.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// WithBucket adds bucket context to the error.
func (e *Error) WithBucket(bucket string) *Error {
	e.Bucket = bucket
	return e
}

// WithKey adds object key context to the error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithCode records the provider error code.
func (e *Error) WithCode(code string) *Error {
	e.Code = code
	return e
}

// WithMessage adds a descriptive message to the error.
func (e *Error) WithMessage(msg string) *Error {
	e.Message = msg
	return e
}

// KindOf extracts the Kind from an error chain. The second return is false
// when the chain contains no *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return KindGeneric, false
}

// IsRetryable reports whether the error should be retried. Errors outside
// the transit taxonomy are treated as retryable so that transport-level
// surprises keep the historical retry behavior.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if k, ok := KindOf(err); ok {
		return k.Retryable()
	}
	return true
}

// IsNotFound reports whether the error means the object does not exist.
func IsNotFound(err error) bool {
	return is(err, KindNotFound)
}

// IsBucketMissing reports whether the error means the bucket does not exist.
func IsBucketMissing(err error) bool {
	return is(err, KindBucketMissing)
}

// IsPermissionDenied reports whether the error means access was denied.
func IsPermissionDenied(err error) bool {
	return is(err, KindPermissionDenied)
}

// IsAuthFailure reports whether the error means authentication failed.
func IsAuthFailure(err error) bool {
	return is(err, KindAuthFailure)
}

// IsRateLimited reports whether the error means the provider throttled us.
func IsRateLimited(err error) bool {
	return is(err, KindRateLimited)
}

// IsServiceUnavailable reports whether the provider was temporarily down.
func IsServiceUnavailable(err error) bool {
	return is(err, KindServiceUnavailable)
}

// IsNetworkError reports whether the request failed before an API response.
func IsNetworkError(err error) bool {
	return is(err, KindNetworkError)
}

// IsSizeExceeded reports whether a payload breached the size ceiling.
func IsSizeExceeded(err error) bool {
	return is(err, KindSizeExceeded)
}

// IsInvalidKey reports whether an object key failed validation.
func IsInvalidKey(err error) bool {
	return is(err, KindInvalidKey)
}

// IsMultipartFailure reports whether a multipart upload failed.
func IsMultipartFailure(err error) bool {
	return is(err, KindMultipartFailure)
}

func is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
