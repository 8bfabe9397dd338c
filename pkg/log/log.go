package log

import (
	"io"
	"log/slog"
)

var (
	DefaultLogger = slog.Default()
)

// NewLogger returns a text logger writing to w at the given level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return NewLogger(io.Discard, slog.LevelError+1)
}
