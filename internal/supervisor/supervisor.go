// Package supervisor is the initial process: it parses configuration,
// probes FastCGI upstreams (it never starts one), spawns one worker per configured
// server block, and reaps them on exit (spec.md §6, GLOSSARY).
//
// Go has no bare fork() — only fork+exec — so "one worker process per
// configured server" (spec.md §5) is implemented by re-executing this
// same binary with an internal marker flag per server index, the
// closest idiomatic analogue to the separately-built worker processes
// tqserver's own supervisor spawns in pkg/php/worker.go.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/webserv-go/webserv/internal/config"
)

// WorkerFlag and ServerIndexFlag are the undocumented re-exec flags a
// spawned worker process receives; they are never part of the
// user-facing CLI contract of spec.md §6.
const (
	WorkerFlag      = "--worker"
	ServerIndexFlag = "--server-index"
)

// managedWorker tracks one re-exec'd worker process. Only the monitor
// goroutine started in spawnWorker ever calls cmd.Wait(); every other
// caller observes completion through exited/doneCh instead, so a worker
// process is never waited on from two goroutines at once.
type managedWorker struct {
	cfg    *config.ServerConfig
	cmd    *exec.Cmd
	exited atomic.Bool
}

// Supervisor owns the worker fleet for one parsed configuration file.
type Supervisor struct {
	cfgPath string
	cfg     *config.ConfigFile
	log     *slog.Logger

	workers []*managedWorker
	wg      sync.WaitGroup
	doneCh  chan struct{}
}

// New builds a Supervisor for an already-loaded configuration.
func New(cfgPath string, cfg *config.ConfigFile, log *slog.Logger) *Supervisor {
	return &Supervisor{cfgPath: cfgPath, cfg: cfg, log: log}
}

// Start TCP-probes each unique fastcgi_pass endpoint (backend.go; no
// backend is launched), then re-execs one worker process
// per server block. It returns once every worker has been launched (not
// once they are ready); launch failures are logged and skipped so a
// single bad server block does not prevent the rest from starting.
func (s *Supervisor) Start(ctx context.Context) error {
	probeBackends(s.cfg.Servers, s.log)

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("supervisor: resolve self path: %w", err)
	}

	started := 0
	for i, srv := range s.cfg.Servers {
		mw, err := s.spawnWorker(exe, i, &srv)
		if err != nil {
			s.log.Error("failed to start worker", "port", srv.Port, "err", err)
			continue
		}
		s.workers = append(s.workers, mw)
		started++
	}

	if started == 0 {
		return fmt.Errorf("supervisor: no worker could be started")
	}

	s.doneCh = make(chan struct{})
	go func() {
		s.wg.Wait()
		close(s.doneCh)
	}()
	return nil
}

// spawnWorker re-execs the running binary as a worker for server index i,
// wiring its stdout/stderr through and monitoring it in a goroutine —
// the re-exec analogue of tqserver's startWorker in the prior
// PHP-hot-reload supervisor, minus port-pool allocation (ports come
// from configuration here, not a pool) and minus any file-watch restart
// trigger (spec.md loads configuration once at startup).
func (s *Supervisor) spawnWorker(exe string, i int, srv *config.ServerConfig) (*managedWorker, error) {
	cmd := exec.Command(exe, WorkerFlag, ServerIndexFlag, fmt.Sprint(i), s.cfgPath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	s.log.Info("worker started", "port", srv.Port, "pid", cmd.Process.Pid)

	mw := &managedWorker{cfg: srv, cmd: cmd}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := cmd.Wait()
		mw.exited.Store(true)
		if err != nil {
			s.log.Warn("worker exited", "port", mw.cfg.Port, "err", err)
		} else {
			s.log.Info("worker exited cleanly", "port", mw.cfg.Port)
		}
	}()
	return mw, nil
}

// Wait blocks until every worker has exited.
func (s *Supervisor) Wait() {
	<-s.doneCh
}

// Stop requests a graceful shutdown of every worker (SIGINT, escalating
// to SIGKILL for any still running after deadline), matching spec.md
// §5's "unresponsive worker is terminated by a second signal from the
// supervisor." It blocks until every worker has actually exited.
func (s *Supervisor) Stop(deadline time.Duration) {
	for _, mw := range s.workers {
		if mw.exited.Load() || mw.cmd.Process == nil {
			continue
		}
		_ = mw.cmd.Process.Signal(os.Interrupt)
	}

	select {
	case <-s.doneCh:
		return
	case <-time.After(deadline):
	}

	for _, mw := range s.workers {
		if mw.exited.Load() || mw.cmd.Process == nil {
			continue
		}
		s.log.Warn("worker unresponsive, killing", "port", mw.cfg.Port)
		_ = mw.cmd.Process.Kill()
	}

	<-s.doneCh
}
