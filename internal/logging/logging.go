package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
)

// Logger wraps slog.Logger with helpers that keep field names consistent
// across the engine and the stores.
type Logger struct {
	*slog.Logger
}

// New creates a Logger with the given handler. A nil handler logs text to
// stderr at info level.
func New(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewWriter builds a text or JSON logger writing to w.
func NewWriter(w io.Writer, format string, level slog.Level) (*Logger, error) {
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(format) {
	case "", "text":
		return New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("logging: unknown format %q (supported: text, json)", format)
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000),
	}))
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("logging: %w", err)
	}
	return l, nil
}

// LogRejected records an operation that failed validation or integrity
// checks. Callers still get the error; this is the diagnostic line.
func (l *Logger) LogRejected(ctx context.Context, op, tableName string, err error) {
	l.WarnContext(ctx, "operation rejected",
		"op", op,
		"table", tableName,
		"error", err,
	)
}

// LogSave logs a table write.
func (l *Logger) LogSave(ctx context.Context, tableName string, rows int, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "table save failed",
			"table", tableName,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "table saved",
		"table", tableName,
		"rows", rows,
		"size", humanize.Bytes(uint64(bytes)),
	)
}

// LogLoad logs a table read.
func (l *Logger) LogLoad(ctx context.Context, tableName string, rows int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "table load failed",
			"table", tableName,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "table loaded",
		"table", tableName,
		"rows", rows,
	)
}

// LogCascade logs a primary-key rename and how many foreign-key cells it
// rewrote.
func (l *Logger) LogCascade(ctx context.Context, tableName, from, to string, updated int) {
	l.InfoContext(ctx, "primary key changed",
		"table", tableName,
		"from", from,
		"to", to,
		"fk_cells_updated", updated,
	)
}
