package log

import (
	"context"

	"github.com/neuraform/neuraform/internal/contexts"
)

// Hook enriches log fields from the context before an entry is written.
type Hook interface {
	Apply(ctx context.Context, msg string, fields ...Field) []Field
}

// HookFunc adapts a function to the Hook interface.
type HookFunc func(ctx context.Context, msg string, fields ...Field) []Field

func (f HookFunc) Apply(ctx context.Context, msg string, fields ...Field) []Field {
	return f(ctx, msg, fields...)
}

// traceFields adds the trace id and operation name to log entries if they
// exist in the context.
func traceFields(ctx context.Context, _ string, fields ...Field) []Field {
	if ctx == nil {
		return fields
	}

	if traceID, ok := contexts.GetTraceID(ctx); ok {
		fields = append(fields, String("trace_id", traceID))
	}

	if name, ok := contexts.GetOperationName(ctx); ok {
		fields = append(fields, String("operation_name", name))
	}

	return fields
}
