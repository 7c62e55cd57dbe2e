package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/neuraform/neuraform/internal/pkg/httpclient"
)

var (
	// ErrUnavailable marks a backend that cannot currently serve
	// requests. The router treats it as a signal to try the next
	// candidate once.
	ErrUnavailable = errors.New("backend unavailable")

	// ErrTimeout marks a backend call that exceeded its deadline.
	ErrTimeout = errors.New("backend timeout")
)

// Error carries provider detail for a failed backend call.
type Error struct {
	Provider string
	Model    string
	Message  string

	// StatusCode is set for HTTP-level failures.
	StatusCode int

	err error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("backend %s/%s: status %d: %s", e.Provider, e.Model, e.StatusCode, e.Message)
	}

	return fmt.Sprintf("backend %s/%s: %s", e.Provider, e.Model, e.Message)
}

func (e *Error) Unwrap() error {
	return e.err
}

// classify wraps a transport error into the backend error taxonomy.
func classify(err error, provider, model string) error {
	if err == nil {
		return nil
	}

	if httpclient.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Provider: provider, Model: model, Message: err.Error(), err: ErrTimeout}
	}

	var httpErr *httpclient.Error
	if errors.As(err, &httpErr) {
		wrapped := err
		if httpclient.IsStatusCodeRetryable(httpErr.StatusCode) {
			wrapped = fmt.Errorf("%w: %w", ErrUnavailable, err)
		}

		return &Error{
			Provider:   provider,
			Model:      model,
			StatusCode: httpErr.StatusCode,
			Message:    string(httpErr.Body),
			err:        wrapped,
		}
	}

	// Connection refused and friends: the backend is unreachable.
	return &Error{Provider: provider, Model: model, Message: err.Error(), err: fmt.Errorf("%w: %w", ErrUnavailable, err)}
}
