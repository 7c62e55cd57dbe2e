package log

import (
	"context"
	"sync/atomic"
)

var global atomic.Pointer[Logger]

//nolint:gochecknoinits // install a usable default logger.
func init() {
	logger, err := New(DefaultConfig())
	if err != nil {
		panic(err)
	}

	logger.AddHook(HookFunc(traceFields))
	global.Store(logger)
}

// SetGlobalConfig rebuilds the global logger from the given configuration.
func SetGlobalConfig(cfg Config) error {
	logger, err := New(cfg)
	if err != nil {
		return err
	}

	logger.AddHook(HookFunc(traceFields))
	SetDefault(logger)

	return nil
}

// SetDefault replaces the global logger.
func SetDefault(logger *Logger) {
	global.Store(logger)
}

// GetGlobalLogger returns the global logger.
func GetGlobalLogger() *Logger {
	return global.Load()
}

// DebugEnabled reports whether the global logger emits debug entries. Use
// it to guard expensive field construction.
func DebugEnabled(ctx context.Context) bool {
	_ = ctx

	return GetGlobalLogger().DebugEnabled()
}

// Debug logs a debug-level entry on the global logger.
func Debug(ctx context.Context, msg string, fields ...Field) {
	GetGlobalLogger().Debug(ctx, msg, fields...)
}

// Info logs an info-level entry on the global logger.
func Info(ctx context.Context, msg string, fields ...Field) {
	GetGlobalLogger().Info(ctx, msg, fields...)
}

// Warn logs a warn-level entry on the global logger.
func Warn(ctx context.Context, msg string, fields ...Field) {
	GetGlobalLogger().Warn(ctx, msg, fields...)
}

// Error logs an error-level entry on the global logger.
func Error(ctx context.Context, msg string, fields ...Field) {
	GetGlobalLogger().Error(ctx, msg, fields...)
}
