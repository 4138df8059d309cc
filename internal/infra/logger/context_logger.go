package logger

import (
	"context"
	"log/slog"
)

type ContextKey string

const (
	// Business context keys following OpenTelemetry semantic conventions
	// with a 'ranker.' prefix.
	RunIDKey ContextKey = "ranker.run.id"
	StageKey ContextKey = "ranker.stage"
	QueryKey ContextKey = "ranker.query"
)

// ContextLogger provides context-aware logging with funnel run metadata.
type ContextLogger struct {
	logger      *slog.Logger
	serviceName string
}

// NewContextLoggerWith wraps an already configured logger, so callers that
// set up their own handlers (OTel bridge, CLI stderr output, io.Discard in
// tests) still get context enrichment.
func NewContextLoggerWith(base *slog.Logger, serviceName string) *ContextLogger {
	return &ContextLogger{
		logger:      base,
		serviceName: serviceName,
	}
}

// WithContext returns a logger with context values extracted and added as fields
func (cl *ContextLogger) WithContext(ctx context.Context) *slog.Logger {
	logger := cl.logger.With("service", cl.serviceName)

	var fields []any

	if runID := ctx.Value(RunIDKey); runID != nil {
		fields = append(fields, string(RunIDKey), runID)
	}
	if stage := ctx.Value(StageKey); stage != nil {
		fields = append(fields, string(StageKey), stage)
	}
	if query := ctx.Value(QueryKey); query != nil {
		fields = append(fields, string(QueryKey), query)
	}

	if len(fields) > 0 {
		logger = logger.With(fields...)
	}

	return logger
}

// WithRunID adds the funnel run ID to context for observability
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// WithStage adds the funnel stage name to context for observability
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, StageKey, stage)
}

// WithQuery adds the query text to context for observability
func WithQuery(ctx context.Context, query string) context.Context {
	return context.WithValue(ctx, QueryKey, query)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug", "DEBUG":
		return slog.LevelDebug
	case "warn", "WARN", "warning", "WARNING":
		return slog.LevelWarn
	case "error", "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
