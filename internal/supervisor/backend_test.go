package supervisor

import (
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/webserv-go/webserv/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProbeBackendsDedupesEndpoints(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	addr := ln.Addr().String()
	accepted := make(chan struct{}, 8)
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
			accepted <- struct{}{}
		}
	}()

	srvs := []config.ServerConfig{
		{
			Locations: []config.LocationConfig{
				{FastCGIPass: addr},
				{FastCGIPass: addr},
			},
		},
		{
			Locations: []config.LocationConfig{
				{FastCGIPass: addr},
				{FastCGIPass: ""},
			},
		},
	}

	probeBackends(srvs, testLogger())

	select {
	case <-accepted:
	case <-time.After(time.Second):
		t.Fatal("expected at least one probe dial to reach the listener")
	}
	select {
	case <-accepted:
		t.Fatal("expected the duplicate fastcgi_pass endpoint to be probed only once")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestProbeOneUnreachableDoesNotPanic(t *testing.T) {
	probeOne("127.0.0.1:1", testLogger())
}
