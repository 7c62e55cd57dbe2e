// Package log wraps zap with a context-first API. Every logging call takes
// a context so that registered hooks can enrich entries with request-scoped
// fields such as the trace id.
package log

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Logger is a leveled, hook-aware logger.
type Logger struct {
	zl    *zap.Logger
	level zap.AtomicLevel
	hooks []Hook
}

// New builds a Logger from the given configuration.
func New(cfg Config) (*Logger, error) {
	level := zap.NewAtomicLevel()

	if err := level.UnmarshalText([]byte(levelOrDefault(cfg.Level))); err != nil {
		return nil, err
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder

	switch cfg.Format {
	case "json":
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	default:
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	sinks := []zapcore.WriteSyncer{zapcore.Lock(os.Stderr)}

	if cfg.File.Enabled {
		sinks = append(sinks, zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAgeDays,
			Compress:   cfg.File.Compress,
		}))
	}

	core := zapcore.NewCore(encoder, zap.CombineWriteSyncers(sinks...), level)

	zl := zap.New(core, zap.AddCallerSkip(2))
	if cfg.Name != "" {
		zl = zl.Named(cfg.Name)
	}

	return &Logger{zl: zl, level: level}, nil
}

func levelOrDefault(level string) string {
	if level == "" {
		return "info"
	}

	return level
}

// AddHook registers a hook executed on every log call.
func (l *Logger) AddHook(hook Hook) {
	l.hooks = append(l.hooks, hook)
}

// With returns a logger that adds the given fields to every entry.
func (l *Logger) With(fields ...Field) *Logger {
	return &Logger{
		zl:    l.zl.With(fields...),
		level: l.level,
		hooks: l.hooks,
	}
}

// DebugEnabled reports whether debug-level logging is enabled.
func (l *Logger) DebugEnabled() bool {
	return l.level.Enabled(zapcore.DebugLevel)
}

func (l *Logger) apply(ctx context.Context, msg string, fields []Field) []Field {
	for _, hook := range l.hooks {
		fields = hook.Apply(ctx, msg, fields...)
	}

	return fields
}

// Debug logs a debug-level entry.
func (l *Logger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.zl.Debug(msg, l.apply(ctx, msg, fields)...)
}

// Info logs an info-level entry.
func (l *Logger) Info(ctx context.Context, msg string, fields ...Field) {
	l.zl.Info(msg, l.apply(ctx, msg, fields)...)
}

// Warn logs a warn-level entry.
func (l *Logger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.zl.Warn(msg, l.apply(ctx, msg, fields)...)
}

// Error logs an error-level entry.
func (l *Logger) Error(ctx context.Context, msg string, fields ...Field) {
	l.zl.Error(msg, l.apply(ctx, msg, fields)...)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.zl.Sync()
}
