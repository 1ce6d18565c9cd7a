// Package debug provides debug logging for relorm using log/slog.
package debug

import (
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

var (
	// logger is the process-wide debug logger
	logger *slog.Logger
	// enabled reports whether debug output is written
	enabled bool
	// mu protects logger and enabled
	mu sync.RWMutex
)

func init() {
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Init enables or disables debug logging to os.Stderr.
func Init(enable bool) {
	InitWriter(os.Stderr, enable)
}

// InitWriter enables or disables debug logging to w.
// When disabled, every record is discarded regardless of w.
func InitWriter(w io.Writer, enable bool) {
	mu.Lock()
	defer mu.Unlock()

	enabled = enable
	if !enable {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		return
	}

	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// Enabled reports whether debug logging is enabled.
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	current().Debug(msg, args...)
}

// Info logs an info message.
func Info(msg string, args ...any) {
	current().Info(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	current().Warn(msg, args...)
}

// Error logs an error message.
func Error(msg string, args ...any) {
	current().Error(msg, args...)
}

// Statement logs one executed SQL statement.
func Statement(kind, sql string, elapsed time.Duration, err error) {
	l := current()
	if err != nil {
		l.Debug("statement failed", "kind", kind, "sql", sql, "elapsed", elapsed, "error", err)
		return
	}
	l.Debug("statement", "kind", kind, "sql", sql, "elapsed", elapsed)
}

// With returns a logger carrying the given attributes.
func With(args ...any) *slog.Logger {
	return current().With(args...)
}

// Logger returns the underlying slog.Logger.
func Logger() *slog.Logger {
	return current()
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}
