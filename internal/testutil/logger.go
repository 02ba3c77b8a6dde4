package testutil

import (
	"io"
	"log/slog"
	"os"
)

// NewTestLogger returns a debug-level text logger on stderr, for tests that
// need to see what a component logged while they fail.
func NewTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// NewNullLogger returns a logger whose output goes nowhere.
func NewNullLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
