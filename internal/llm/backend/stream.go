package backend

import (
	"github.com/neuraform/neuraform/internal/llm"
	"github.com/neuraform/neuraform/internal/pkg/httpclient"
	"github.com/neuraform/neuraform/internal/pkg/streams"
)

// extractFunc turns one provider stream event into a chunk. A nil chunk
// skips the event; done terminates the stream.
type extractFunc func(event *httpclient.StreamEvent) (chunk *llm.Chunk, done bool, err error)

// newChunkStream adapts a provider event stream to the unified chunk
// stream.
func newChunkStream(source streams.Stream[*httpclient.StreamEvent], extract extractFunc) streams.Stream[*llm.Chunk] {
	return &chunkStream{source: source, extract: extract}
}

type chunkStream struct {
	source  streams.Stream[*httpclient.StreamEvent]
	extract extractFunc
	current *llm.Chunk
	err     error
}

func (s *chunkStream) Next() bool {
	if s.err != nil {
		return false
	}

	for s.source.Next() {
		chunk, done, err := s.extract(s.source.Current())
		if err != nil {
			s.err = err
			_ = s.source.Close()

			return false
		}

		if done {
			_ = s.source.Close()
			return false
		}

		if chunk != nil {
			s.current = chunk
			return true
		}
	}

	return false
}

func (s *chunkStream) Current() *llm.Chunk {
	return s.current
}

func (s *chunkStream) Err() error {
	if s.err != nil {
		return s.err
	}

	return s.source.Err()
}

func (s *chunkStream) Close() error {
	return s.source.Close()
}
