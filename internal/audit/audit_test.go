package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitterDeliversInOrder(t *testing.T) {
	sink := NewMemorySink()
	emitter := NewEmitter(Config{QueueSize: 8}, sink)
	require.NoError(t, emitter.Start(context.Background()))

	for i := 0; i < 3; i++ {
		emitter.Emit(context.Background(), Entry{
			Timestamp:  time.Now(),
			UserID:     "u1",
			ModelID:    "m1",
			TokensUsed: int64(i),
			Cost:       decimal.NewFromFloat(0.01),
		})
	}

	require.NoError(t, emitter.Stop(context.Background()))

	entries := sink.Entries()
	require.Len(t, entries, 3)

	for i, entry := range entries {
		assert.Equal(t, int64(i), entry.TokensUsed)
	}
}

func TestEmitterDropsWhenFull(t *testing.T) {
	release := make(chan struct{})
	sink := &blockingSink{release: release, inner: NewMemorySink()}

	emitter := NewEmitter(Config{QueueSize: 1}, sink)
	require.NoError(t, emitter.Start(context.Background()))

	// The first entry occupies the drain goroutine, the second fills the
	// queue, anything beyond is dropped without blocking.
	for i := 0; i < 5; i++ {
		emitter.Emit(context.Background(), Entry{TokensUsed: int64(i)})
	}

	close(release)
	require.NoError(t, emitter.Stop(context.Background()))

	assert.LessOrEqual(t, len(sink.inner.Entries()), 3)
}

func TestEmitterEmitAfterStopIsSilentDrop(t *testing.T) {
	sink := NewMemorySink()
	emitter := NewEmitter(Config{QueueSize: 4}, sink)
	require.NoError(t, emitter.Start(context.Background()))

	emitter.Emit(context.Background(), Entry{UserID: "u1"})
	require.NoError(t, emitter.Stop(context.Background()))

	// Detached goroutines may still emit after shutdown; the entry is
	// dropped, never a panic.
	require.NotPanics(t, func() {
		emitter.Emit(context.Background(), Entry{UserID: "late"})
	})

	require.NoError(t, emitter.Stop(context.Background()))

	entries := sink.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "u1", entries[0].UserID)
}

func TestEmitterSurvivesSinkFailure(t *testing.T) {
	emitter := NewEmitter(Config{}, failingSink{})
	require.NoError(t, emitter.Start(context.Background()))

	emitter.Emit(context.Background(), Entry{UserID: "u1"})

	require.NoError(t, emitter.Stop(context.Background()))
}

type blockingSink struct {
	release chan struct{}
	inner   *MemorySink
}

func (s *blockingSink) Emit(ctx context.Context, entry Entry) error {
	<-s.release
	return s.inner.Emit(ctx, entry)
}

type failingSink struct{}

func (failingSink) Emit(context.Context, Entry) error {
	return errors.New("sink down")
}
