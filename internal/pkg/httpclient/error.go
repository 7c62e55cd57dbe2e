package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Error is returned for responses with a status code >= 400. The body is
// preserved so callers can surface provider detail.
type Error struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	Body       []byte
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s - %s with status %s", e.Method, e.URL, e.Status)
}

// IsTimeout reports whether err represents a transport or deadline
// timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}

// IsStatusCodeRetryable checks if an HTTP status code is retryable.
// 4xx status codes are generally not retryable except for 429.
func IsStatusCodeRetryable(statusCode int) bool {
	if statusCode == http.StatusTooManyRequests {
		return true
	}

	if statusCode >= 400 && statusCode < 500 {
		return false
	}

	return statusCode >= 500
}
