package httpserver

import (
	"io"
	"log/slog"
)

// testLogger returns a logger that discards everything, for tests that
// need an Engine but don't care about its log output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
