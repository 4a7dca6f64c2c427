// Package logger wraps log/slog with the component/symbol tagging this
// codebase uses throughout, adapted for the two-process bot/server
// runtime instead of a single exchange-trading process.
package logger

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with convenience methods.
type Logger struct {
	*slog.Logger
}

// Config holds logger configuration.
type Config struct {
	Level     slog.Level
	Format    string // "json" or "text"
	AddSource bool
}

// DefaultConfig returns production defaults: JSON, info level.
func DefaultConfig() *Config {
	return &Config{Level: slog.LevelInfo, Format: "json"}
}

// New creates a structured logger writing to stdout.
func New(cfg *Config) *Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	opts := &slog.HandlerOptions{Level: cfg.Level, AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return &Logger{Logger: slog.New(handler)}
}

// Component returns a logger tagged with a subsystem name ("bot",
// "server", "strategy", ...).
func (l *Logger) Component(name string) *Logger {
	return &Logger{Logger: l.Logger.With("component", name)}
}

// Symbol returns a logger tagged with a trading symbol.
func (l *Logger) Symbol(symbol string) *Logger {
	return &Logger{Logger: l.Logger.With("symbol", symbol)}
}

// WithFields returns a logger with additional structured fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{Logger: l.Logger.With(args...)}
}

// WithError returns a logger with an error field attached. A nil err
// returns l unchanged so call sites can chain unconditionally.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return &Logger{Logger: l.Logger.With("error", err.Error())}
}
