package supervisor

import (
	"log/slog"
	"net"
	"time"

	"github.com/webserv-go/webserv/internal/config"
)

// probeTimeout bounds each backend connectivity check, matching the
// client.Timeout tqserver's pkg/supervisor/healthcheck.go configures on
// its *http.Client for worker health checks — adapted here to a raw TCP
// dial since a FastCGI endpoint has no HTTP health path to call.
const probeTimeout = 2 * time.Second

// probeBackends TCP-dials every unique fastcgi_pass endpoint named
// across srvs' locations and logs whether each is reachable. Per
// spec.md's component table ("Backend prober/spawner ... on startup,
// for each unique fastcgi endpoint in config, TCP-probes and optionally
// launches a helper to start the upstream") this is diagnostic only: an
// unreachable backend does not prevent the supervisor from starting its
// workers, since a FastCGI failure at request time already has a
// defined disposition (502/504, spec.md §4.9) — the probe exists so an
// operator sees the misconfiguration immediately instead of on first
// request.
func probeBackends(srvs []config.ServerConfig, log *slog.Logger) {
	seen := make(map[string]bool)
	for _, srv := range srvs {
		for _, loc := range srv.Locations {
			addr := loc.FastCGIPass
			if addr == "" || seen[addr] {
				continue
			}
			seen[addr] = true
			probeOne(addr, log)
		}
	}
}

func probeOne(addr string, log *slog.Logger) {
	conn, err := net.DialTimeout("tcp", addr, probeTimeout)
	if err != nil {
		log.Warn("fastcgi backend unreachable at startup", "addr", addr, "err", err)
		return
	}
	conn.Close()
	log.Info("fastcgi backend reachable", "addr", addr)
}
