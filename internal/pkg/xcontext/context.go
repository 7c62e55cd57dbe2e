// Package xcontext provides context helpers for work that must outlive
// its originating request.
package xcontext

import (
	"context"
	"time"
)

// DetachWithTimeout returns a context that keeps the values of ctx but
// not its cancellation, bounded by its own timeout. Used for
// fire-and-forget work kicked off from a request handler, such as audit
// emission after the response has been returned.
func DetachWithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	return context.WithTimeout(detached, timeout)
}
