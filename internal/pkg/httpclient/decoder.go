package httpclient

import (
	"context"
	"io"
	"iter"

	"github.com/tmaxmax/go-sse"

	"github.com/neuraform/neuraform/internal/pkg/streams"
)

// maxEventSize bounds a single SSE event payload.
const maxEventSize = 1 << 20

// NewSSEDecoder decodes server-sent events from rc as a pull stream. The
// decoder owns rc and closes it when the stream ends or is closed.
func NewSSEDecoder(ctx context.Context, rc io.ReadCloser) streams.Stream[*StreamEvent] {
	next, stop := iter.Pull2(sse.Read(rc, &sse.ReadConfig{MaxEventSize: maxEventSize}))

	return &sseDecoder{
		ctx:  ctx,
		rc:   rc,
		next: next,
		stop: stop,
	}
}

var _ streams.Stream[*StreamEvent] = (*sseDecoder)(nil)

// sseDecoder is not safe for concurrent use: do not call Next/Close from
// multiple goroutines. Close is idempotent.
//
//nolint:containedctx // bound to one in-flight response.
type sseDecoder struct {
	ctx     context.Context
	rc      io.ReadCloser
	next    func() (sse.Event, error, bool)
	stop    func()
	current *StreamEvent
	err     error
	closed  bool
}

// Next advances to the next event in the stream.
func (s *sseDecoder) Next() bool {
	if s.err != nil || s.closed {
		return false
	}

	select {
	case <-s.ctx.Done():
		s.err = s.ctx.Err()
		_ = s.Close()

		return false
	default:
	}

	event, err, ok := s.next()
	if !ok {
		_ = s.Close()
		return false
	}

	if err != nil {
		s.err = err
		_ = s.Close()

		return false
	}

	s.current = &StreamEvent{
		LastEventID: event.LastEventID,
		Type:        event.Type,
		Data:        []byte(event.Data),
	}

	return true
}

// Current returns the current event.
func (s *sseDecoder) Current() *StreamEvent {
	return s.current
}

// Err returns any error that occurred during streaming.
func (s *sseDecoder) Err() error {
	return s.err
}

// Close stops the iterator and releases the underlying connection.
func (s *sseDecoder) Close() error {
	if s.closed {
		return nil
	}

	s.closed = true
	s.stop()

	return s.rc.Close()
}
