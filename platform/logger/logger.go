// Package logger wraps log/slog with the sync's domain log lines.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

type contextKey string

// RunIDKey carries the scheduler cycle ID through a context.
const RunIDKey contextKey = "run_id"

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	return NewWithWriter(env, os.Stdout)
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(env string, w io.Writer) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// WithContext attaches the cycle ID carried by ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}
	if runID, ok := ctx.Value(RunIDKey).(string); ok && runID != "" {
		return l.WithRunID(runID)
	}
	return l
}

// WithRunID returns a logger with the cycle ID
func (l *Logger) WithRunID(runID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("run_id", runID)),
	}
}

// WithPartner returns a logger scoped to one partner
func (l *Logger) WithPartner(partnerID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("partner", partnerID)),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// RateLimitExceeded logs a throttled request
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}

// PartnerStatus logs the HTTP status a partner answered for a window
func (l *Logger) PartnerStatus(partnerID string, status int, window string, records int) {
	l.Info("partner_status",
		slog.String("partner", partnerID),
		slog.Int("status", status),
		slog.String("window", window),
		slog.Int("records", records),
	)
}

// PartnerError logs a partner skipped for a window
func (l *Logger) PartnerError(partnerID, window string, err error) {
	l.Error("partner_error",
		slog.String("partner", partnerID),
		slog.String("window", window),
		slog.String("error", err.Error()),
	)
}

// WindowMerged logs the outcome of one window merge
func (l *Logger) WindowMerged(window string, staged int, skipped bool, phases map[string]time.Duration) {
	attrs := []any{
		slog.String("window", window),
		slog.Int("staged", staged),
		slog.Bool("skipped", skipped),
	}
	for name, d := range phases {
		attrs = append(attrs, slog.Int64(name+"_ms", d.Milliseconds()))
	}
	l.Info("window_merged", attrs...)
}

// Progress logs deep sweep progress
func (l *Logger) Progress(bar, window, eta string) {
	l.Info("sweep_progress",
		slog.String("progress", bar),
		slog.String("window", window),
		slog.String("eta", eta),
	)
}

// DatabaseError logs database errors
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}
