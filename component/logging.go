package component

import (
	"context"
	"log/slog"
)

// Logger provides structured logging for a stage. It wraps a standard
// slog.Logger and stamps every record with the stage name.
type Logger struct {
	componentName string
	logger        *slog.Logger
}

// NewLogger creates a new stage logger. A nil base logger falls back to
// slog.Default().
func NewLogger(componentName string, logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{
		componentName: componentName,
		logger:        logger.With("component", componentName),
	}
}

// Name returns the stage name this logger is bound to
func (cl *Logger) Name() string {
	return cl.componentName
}

// Debug logs a debug-level message
func (cl *Logger) Debug(msg string, args ...any) {
	cl.logger.Debug(msg, args...)
}

// Info logs an info-level message
func (cl *Logger) Info(msg string, args ...any) {
	cl.logger.Info(msg, args...)
}

// Warn logs a warning-level message
func (cl *Logger) Warn(msg string, args ...any) {
	cl.logger.Warn(msg, args...)
}

// Error logs an error-level message with error details
func (cl *Logger) Error(msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err)
	}
	cl.logger.Error(msg, args...)
}

// DebugContext logs a debug-level message with context
func (cl *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	cl.logger.DebugContext(ctx, msg, args...)
}

// InfoContext logs an info-level message with context
func (cl *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	cl.logger.InfoContext(ctx, msg, args...)
}

// WarnContext logs a warning-level message with context
func (cl *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	cl.logger.WarnContext(ctx, msg, args...)
}

// ErrorContext logs an error-level message with context and error details
func (cl *Logger) ErrorContext(ctx context.Context, msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err)
	}
	cl.logger.ErrorContext(ctx, msg, args...)
}
