// Package logging configures the process-wide structured logger shared by
// the supervisor and every worker.
package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// New builds a leveled, colorized console logger tagged with the given
// process name (e.g. "supervisor", "worker[8080]"). Output goes to os.Stderr
// so that a worker's stdout remains free for any future machine-readable
// use; this mirrors the separation tqserver's main.go makes between its
// request log and process log.
func New(process string, quiet bool) *slog.Logger {
	var w io.Writer = os.Stderr
	if quiet {
		w = io.Discard
	}
	handler := tint.NewHandler(w, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.Kitchen,
	})
	return slog.New(handler).With("process", process)
}
