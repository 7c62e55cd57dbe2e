// Package audit records per-query usage for billing and compliance. The
// emitter is fire-and-forget: a slow or failing sink never affects the
// user-visible response.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/neuraform/neuraform/internal/log"
)

// Entry is one audited query.
type Entry struct {
	Timestamp    time.Time       `json:"timestamp"`
	UserID       string          `json:"user_id"`
	DivisionID   string          `json:"division_id"`
	DepartmentID string          `json:"department_id"`
	ModelID      string          `json:"model_id"`
	TokensUsed   int64           `json:"tokens_used"`
	Cost         decimal.Decimal `json:"cost"`
	PIICount     int             `json:"pii_count"`
}

// Sink receives audit entries.
type Sink interface {
	Emit(ctx context.Context, entry Entry) error
}

// LogSink writes entries to the structured log.
type LogSink struct{}

func NewLogSink() *LogSink {
	return &LogSink{}
}

func (s *LogSink) Emit(ctx context.Context, entry Entry) error {
	log.Info(ctx, "audit entry",
		log.Time("timestamp", entry.Timestamp),
		log.String("user_id", entry.UserID),
		log.String("division_id", entry.DivisionID),
		log.String("department_id", entry.DepartmentID),
		log.String("model_id", entry.ModelID),
		log.Int64("tokens_used", entry.TokensUsed),
		log.String("cost", entry.Cost.String()),
		log.Int("pii_count", entry.PIICount),
	)

	return nil
}

// MemorySink collects entries in memory. Used by tests.
type MemorySink struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Emit(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, entry)

	return nil
}

func (s *MemorySink) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Entry(nil), s.entries...)
}
