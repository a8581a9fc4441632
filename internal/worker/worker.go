package worker

import (
	"log/slog"
	"sync/atomic"

	"github.com/webserv-go/webserv/internal/config"
	"github.com/webserv-go/webserv/internal/httpserver"
)

// defaultTableCapacity bounds how many simultaneous connections one
// worker admits before refusing new ones — the Go equivalent of the
// original's MAX_CLIENTS.
const defaultTableCapacity = 1024

// Run is one worker process's entire body: bind cfg's port, build the
// request engine, and service connections until stop reports true.
// Called once per configured server, each from its own re-exec'd process
// (internal/supervisor), per spec.md §5's "one worker process per
// configured server."
func Run(cfg *config.ServerConfig, log *slog.Logger, stop func() bool) error {
	var requests, errors atomic.Int64

	engine := httpserver.New(cfg, log, func(status int) {
		requests.Add(1)
		if status >= 500 {
			errors.Add(1)
		}
	})

	loop, err := NewLoop(cfg, log, engine, defaultTableCapacity)
	if err != nil {
		return err
	}
	defer loop.Close()

	log.Info("worker listening", "port", cfg.Port, "server_name", cfg.ServerName)

	loop.Run(stop)

	log.Info("worker stopped", "port", cfg.Port, "requests", requests.Load(), "errors", errors.Load())
	return nil
}
