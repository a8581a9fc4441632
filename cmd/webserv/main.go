// Command webserv is the origin server's single binary: invoked plainly
// it is the supervisor (spec.md §6, "webserv <config_path>"); invoked
// with the internal --worker --server-index N flag pair (set only by
// the supervisor's own re-exec, never by a user) it becomes one
// worker's event loop instead.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/webserv-go/webserv/internal/config"
	"github.com/webserv-go/webserv/internal/logging"
	"github.com/webserv-go/webserv/internal/metrics"
	"github.com/webserv-go/webserv/internal/supervisor"
	"github.com/webserv-go/webserv/internal/worker"
)

// shutdownGrace bounds how long the supervisor waits for a worker to
// exit on SIGINT before escalating to SIGKILL.
const shutdownGrace = 5 * time.Second

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if isWorkerInvocation(args) {
		return runWorker(args)
	}
	return runSupervisor(args)
}

func isWorkerInvocation(args []string) bool {
	return len(args) > 0 && args[0] == supervisor.WorkerFlag
}

// runSupervisor is the normal entry point: load configuration, print the
// startup banner, probe backends, spawn one worker per server block, and
// wait for a shutdown signal.
func runSupervisor(args []string) int {
	var metricsAddr string
	var cfgPath string
	for i := 0; i < len(args); i++ {
		if args[i] == "--metrics-addr" && i+1 < len(args) {
			metricsAddr = args[i+1]
			i++
			continue
		}
		cfgPath = args[i]
	}

	envCfg, err := config.LoadEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read environment overlay: %v\n", err)
		return 1
	}
	if cfgPath == "" {
		cfgPath = envCfg.ConfigPath
	}
	if metricsAddr == "" {
		metricsAddr = envCfg.MetricsAddr
	}
	if cfgPath == "" {
		fmt.Fprintln(os.Stderr, "usage: webserv <config_path> (or set WEBSERV_CONFIG)")
		return 1
	}

	log := logging.New("supervisor", false)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Error("failed to load configuration", "err", err)
		return 1
	}

	supervisor.PrintBanner(os.Stdout, cfgPath, cfg)

	if metricsAddr != "" {
		metrics.NewRegistry()
		go func() {
			if err := metrics.Serve(metricsAddr); err != nil {
				log.Warn("metrics listener stopped", "err", err)
			}
		}()
	}

	sup := supervisor.New(cfgPath, cfg, log)
	if err := sup.Start(context.Background()); err != nil {
		log.Error("failed to start supervisor", "err", err)
		return 1
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	waitDone := make(chan struct{})
	go func() {
		sup.Wait()
		close(waitDone)
	}()

	select {
	case <-sigCh:
		log.Info("shutting down")
		sup.Stop(shutdownGrace)
	case <-waitDone:
		log.Info("all workers exited")
		return 0
	}

	<-waitDone
	log.Info("goodbye")
	return 0
}

// runWorker parses "--worker --server-index N <config_path>" and runs
// that single server block's event loop until SIGINT/SIGTERM, per
// spec.md §5's "worker shutdown is requested by SIGINT/SIGTERM ... sets
// a flag observed at the next loop iteration."
func runWorker(args []string) int {
	var index = -1
	var cfgPath string
	for i := 1; i < len(args); i++ {
		if args[i] == supervisor.ServerIndexFlag && i+1 < len(args) {
			n, err := strconv.Atoi(args[i+1])
			if err != nil {
				fmt.Fprintf(os.Stderr, "invalid %s value %q\n", supervisor.ServerIndexFlag, args[i+1])
				return 1
			}
			index = n
			i++
			continue
		}
		cfgPath = args[i]
	}
	if index < 0 || cfgPath == "" {
		fmt.Fprintln(os.Stderr, "usage: webserv --worker --server-index N <config_path>")
		return 1
	}

	cfgFile, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		return 1
	}
	if index >= len(cfgFile.Servers) {
		fmt.Fprintf(os.Stderr, "server index %d out of range (%d servers configured)\n", index, len(cfgFile.Servers))
		return 1
	}
	srv := &cfgFile.Servers[index]

	log := logging.New(fmt.Sprintf("worker[%d]", srv.Port), false)

	var stopping atomic.Bool
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("worker received shutdown signal")
		stopping.Store(true)
	}()

	if err := worker.Run(srv, log, stopping.Load); err != nil {
		log.Error("worker failed", "err", err)
		return 1
	}
	return 0
}
