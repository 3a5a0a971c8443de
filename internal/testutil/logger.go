package testutil

import (
	"io"
	"log/slog"
)

// SilentLogger returns a logger that discards everything. Used to keep
// scenario runs quiet under go test.
func SilentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
