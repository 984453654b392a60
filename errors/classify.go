package errors

import (
	"context"
	"errors"
	"net"

	"github.com/aws/smithy-go"
)

// Classify converts a raw SDK or transport error into an *Error for the
// given operation. Errors that are already classified pass through
// unchanged so the first classification wins.
func Classify(op string, err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return &Error{
			Kind:    kindForCode(apiErr.ErrorCode()),
			Op:      op,
			Code:    apiErr.ErrorCode(),
			Message: apiErr.ErrorMessage(),
			Err:     err,
		}
	}

	// No API response reached us. Timeouts, refused connections and DNS
	// failures all land here, as do context timeouts during a request.
	if isTransport(err) {
		return &Error{Kind: KindNetworkError, Op: op, Err: err}
	}

	return &Error{Kind: KindGeneric, Op: op, Err: err}
}

// kindForCode maps provider error codes onto the taxonomy. Unknown codes
// stay KindGeneric and keep their code and message for diagnostics.
func kindForCode(code string) Kind {
	switch code {
	case "NoSuchBucket":
		return KindBucketMissing
	case "NoSuchKey", "NotFound":
		return KindNotFound
	case "AccessDenied":
		return KindPermissionDenied
	case "InvalidAccessKeyId", "SignatureDoesNotMatch", "RequestTimeTooSkewed":
		return KindAuthFailure
	case "ServiceUnavailable":
		return KindServiceUnavailable
	case "SlowDown", "RequestLimitExceeded":
		return KindRateLimited
	default:
		return KindGeneric
	}
}

func isTransport(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
