package httpserver

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/webserv-go/webserv/internal/config"
)

func TestEngineHandleRoutesByMethod(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("ok"), 0644); err != nil {
		t.Fatal(err)
	}
	var lastStatus int
	cfg := &config.ServerConfig{
		Port: 8080, Root: dir, IndexFiles: []string{"index.html"},
		Locations: []config.LocationConfig{{Location: "/", AllowedMethods: []string{"GET"}}},
	}
	e := New(cfg, testLogger(), func(status int) { lastStatus = status })

	raw := []byte("GET / HTTP/1.1\r\nHost: x\r\n\r\n")
	out := e.Handle(raw)
	if !strings.Contains(string(out), "200 OK") {
		t.Fatalf("expected 200, got: %s", out)
	}
	if lastStatus != 200 {
		t.Errorf("onDone status = %d, want 200", lastStatus)
	}
}

func TestEngineHandleMalformedRequest400(t *testing.T) {
	cfg := &config.ServerConfig{Port: 8080, Root: t.TempDir()}
	e := New(cfg, testLogger(), nil)

	out := e.Handle([]byte("not-a-request\r\n\r\n"))
	if !strings.Contains(string(out), "400") {
		t.Fatalf("expected 400, got: %s", out)
	}
}

func TestEngineHandleUnsupportedMethod405(t *testing.T) {
	cfg := &config.ServerConfig{Port: 8080, Root: t.TempDir()}
	e := New(cfg, testLogger(), nil)

	out := e.Handle([]byte("PATCH / HTTP/1.1\r\n\r\n"))
	if !strings.Contains(string(out), "405") {
		t.Fatalf("expected 405, got: %s", out)
	}
}

func TestStatusOf(t *testing.T) {
	if got := statusOf([]byte("HTTP/1.1 201 Created\r\nX: y\r\n\r\n")); got != 201 {
		t.Errorf("statusOf() = %d, want 201", got)
	}
	if got := statusOf([]byte("garbage")); got != 0 {
		t.Errorf("statusOf(garbage) = %d, want 0", got)
	}
}
