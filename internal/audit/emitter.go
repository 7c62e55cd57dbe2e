package audit

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/neuraform/neuraform/internal/log"
)

// Config configures the emitter queue.
type Config struct {
	// QueueSize bounds the in-flight entry queue. A full queue drops new
	// entries rather than blocking the request path.
	QueueSize int `conf:"queue_size" yaml:"queue_size" json:"queue_size"`
}

func DefaultConfig() Config {
	return Config{QueueSize: 1024}
}

// Emitter decouples the request path from the sink with a bounded queue
// and a single drain goroutine.
type Emitter struct {
	sink Sink

	queue   chan Entry
	stop    chan struct{}
	done    chan struct{}
	stopped atomic.Bool
	once    sync.Once
}

func NewEmitter(config Config, sink Sink) *Emitter {
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultConfig().QueueSize
	}

	return &Emitter{
		sink:  sink,
		queue: make(chan Entry, config.QueueSize),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Start begins draining the queue.
func (e *Emitter) Start(ctx context.Context) error {
	go e.drain()
	return nil
}

// Emit enqueues one entry. A full queue drops the entry with a warning;
// an emitter that has been stopped drops silently. Emission never
// blocks, fails, or panics the caller, so late entries from detached
// goroutines are safe during shutdown.
func (e *Emitter) Emit(ctx context.Context, entry Entry) {
	if e.stopped.Load() {
		return
	}

	select {
	case e.queue <- entry:
	default:
		log.Warn(ctx, "audit queue full, dropping entry",
			log.String("user_id", entry.UserID),
			log.String("model_id", entry.ModelID),
		)
	}
}

// Stop drains the remaining entries and shuts the emitter down. The
// queue channel is never closed: emitters outlive their last Emit only
// by convention, not by construction.
func (e *Emitter) Stop(ctx context.Context) error {
	e.once.Do(func() {
		e.stopped.Store(true)
		close(e.stop)
	})

	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Emitter) drain() {
	defer close(e.done)

	for {
		select {
		case entry := <-e.queue:
			e.deliver(entry)
		case <-e.stop:
			for {
				select {
				case entry := <-e.queue:
					e.deliver(entry)
				default:
					return
				}
			}
		}
	}
}

func (e *Emitter) deliver(entry Entry) {
	if err := e.sink.Emit(context.Background(), entry); err != nil {
		log.Warn(context.Background(), "audit sink failed", log.Cause(err))
	}
}
