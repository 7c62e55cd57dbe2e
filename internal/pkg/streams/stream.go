package streams

// Stream is a pull-based iterator over a sequence of values.
//
// The usual consumption loop is:
//
//	for stream.Next() {
//		use(stream.Current())
//	}
//	if err := stream.Err(); err != nil { ... }
//
// Streams are finite and not restartable. Implementations are not
// required to be safe for concurrent use.
type Stream[T any] interface {
	// Next advances the stream and reports whether a value is available.
	Next() bool

	// Current returns the value produced by the last successful Next.
	Current() T

	// Err returns the first error encountered while iterating.
	Err() error

	// Close releases the resources held by the stream. It is safe to call
	// Close multiple times sequentially.
	Close() error
}

// SliceStream creates a Stream over the given slice.
func SliceStream[T any](items []T) Stream[T] {
	return &sliceStream[T]{items: items}
}

type sliceStream[T any] struct {
	items []T
	index int
}

func (s *sliceStream[T]) Next() bool {
	if s.index < len(s.items) {
		s.index++
		return true
	}

	return false
}

func (s *sliceStream[T]) Current() T {
	if s.index > 0 && s.index <= len(s.items) {
		return s.items[s.index-1]
	}

	var zero T

	return zero
}

func (s *sliceStream[T]) Err() error { return nil }

func (s *sliceStream[T]) Close() error { return nil }

// Map transforms every element of the source stream with fn.
func Map[T any, R any](source Stream[T], fn func(T) R) Stream[R] {
	return MapErr(source, func(v T) (R, error) {
		return fn(v), nil
	})
}

// MapErr transforms every element of the source stream with fn. If fn
// returns an error, iteration stops and the error is surfaced via Err.
func MapErr[T any, R any](source Stream[T], fn func(T) (R, error)) Stream[R] {
	return &mapStream[T, R]{source: source, fn: fn}
}

type mapStream[T any, R any] struct {
	source  Stream[T]
	fn      func(T) (R, error)
	current R
	err     error
}

func (s *mapStream[T, R]) Next() bool {
	if s.err != nil {
		return false
	}

	if !s.source.Next() {
		return false
	}

	current, err := s.fn(s.source.Current())
	if err != nil {
		s.err = err
		return false
	}

	s.current = current

	return true
}

func (s *mapStream[T, R]) Current() R { return s.current }

func (s *mapStream[T, R]) Err() error {
	if s.err != nil {
		return s.err
	}

	return s.source.Err()
}

func (s *mapStream[T, R]) Close() error { return s.source.Close() }

// Filter yields only the elements of the source stream for which keep
// returns true.
func Filter[T any](source Stream[T], keep func(T) bool) Stream[T] {
	return &filterStream[T]{source: source, keep: keep}
}

type filterStream[T any] struct {
	source Stream[T]
	keep   func(T) bool
}

func (s *filterStream[T]) Next() bool {
	for s.source.Next() {
		if s.keep(s.source.Current()) {
			return true
		}
	}

	return false
}

func (s *filterStream[T]) Current() T { return s.source.Current() }

func (s *filterStream[T]) Err() error { return s.source.Err() }

func (s *filterStream[T]) Close() error { return s.source.Close() }

// AppendStream yields all elements of the source stream, then the extra
// items. The extra items are suppressed if the source terminated with an
// error.
func AppendStream[T any](source Stream[T], items ...T) Stream[T] {
	return &appendStream[T]{source: source, items: items}
}

type appendStream[T any] struct {
	source  Stream[T]
	items   []T
	index   int
	drained bool
	current T
}

func (s *appendStream[T]) Next() bool {
	if !s.drained {
		if s.source.Next() {
			s.current = s.source.Current()
			return true
		}

		s.drained = true

		if s.source.Err() != nil {
			return false
		}
	}

	if s.index < len(s.items) {
		s.current = s.items[s.index]
		s.index++

		return true
	}

	return false
}

func (s *appendStream[T]) Current() T { return s.current }

func (s *appendStream[T]) Err() error { return s.source.Err() }

func (s *appendStream[T]) Close() error { return s.source.Close() }
