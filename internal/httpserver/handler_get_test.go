package httpserver

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/webserv-go/webserv/internal/config"
)

func newTestEngine(root string, locs []config.LocationConfig) *Engine {
	cfg := &config.ServerConfig{
		Port:       8080,
		ServerName: "test",
		Root:       root,
		IndexFiles: []string{"index.html"},
		Locations:  locs,
	}
	return New(cfg, testLogger(), nil)
}

func TestHandleGetServesFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "hello.txt"), []byte("hi there"), 0644); err != nil {
		t.Fatal(err)
	}
	e := newTestEngine(dir, []config.LocationConfig{{Location: "/"}})
	req := &Request{Method: "GET", Path: "/hello.txt"}

	out := e.handleGet(req)
	if !strings.Contains(string(out), "200 OK") || !strings.Contains(string(out), "hi there") {
		t.Fatalf("unexpected response: %s", out)
	}
}

func TestHandleGetMissingFile404(t *testing.T) {
	dir := t.TempDir()
	e := newTestEngine(dir, []config.LocationConfig{{Location: "/"}})
	req := &Request{Method: "GET", Path: "/nope.txt"}

	out := e.handleGet(req)
	if !strings.Contains(string(out), "404") {
		t.Fatalf("expected 404, got: %s", out)
	}
}

func TestHandleGetIndexResolution(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>home</h1>"), 0644); err != nil {
		t.Fatal(err)
	}
	e := newTestEngine(dir, []config.LocationConfig{{Location: "/"}})
	req := &Request{Method: "GET", Path: "/"}

	out := e.handleGet(req)
	if !strings.Contains(string(out), "home") {
		t.Fatalf("expected index content, got: %s", out)
	}
}

func TestHandleGetAutoindex(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	e := newTestEngine(dir, []config.LocationConfig{{Location: "/", Autoindex: true}})
	req := &Request{Method: "GET", Path: "/"}

	out := e.handleGet(req)
	s := string(out)
	if !strings.Contains(s, "a.txt") || !strings.Contains(s, "sub/") {
		t.Fatalf("expected autoindex listing, got: %s", s)
	}
}

func TestHandleGetDirectoryNoAutoindex403(t *testing.T) {
	dir := t.TempDir()
	e := newTestEngine(dir, []config.LocationConfig{{Location: "/", Autoindex: false}})
	req := &Request{Method: "GET", Path: "/"}

	out := e.handleGet(req)
	if !strings.Contains(string(out), "403") {
		t.Fatalf("expected 403, got: %s", out)
	}
}

func TestHandleGetRedirectsMissingTrailingSlash(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	e := newTestEngine(dir, []config.LocationConfig{{Location: "/"}})
	req := &Request{Method: "GET", Path: "/sub"}

	out := e.handleGet(req)
	s := string(out)
	if !strings.Contains(s, "301") || !strings.Contains(s, "Location: /sub/") {
		t.Fatalf("expected 301 redirect, got: %s", s)
	}
}

func TestHandleGetTraversalForbidden(t *testing.T) {
	dir := t.TempDir()
	e := newTestEngine(dir, []config.LocationConfig{{Location: "/"}})
	req := &Request{Method: "GET", Path: "/../secret"}

	out := e.handleGet(req)
	if !strings.Contains(string(out), "403") {
		t.Fatalf("expected 403, got: %s", out)
	}
}

func TestHandleGetMethodNotAllowed(t *testing.T) {
	dir := t.TempDir()
	e := newTestEngine(dir, []config.LocationConfig{{Location: "/", AllowedMethods: []string{"POST"}}})
	req := &Request{Method: "GET", Path: "/"}

	out := e.handleGet(req)
	s := string(out)
	if !strings.Contains(s, "405") || !strings.Contains(s, "Allow: POST") {
		t.Fatalf("expected 405 with Allow header, got: %s", s)
	}
}

func TestHumanSize(t *testing.T) {
	cases := map[int64]string{
		0:    "0 B",
		512:  "512 B",
		1024: "1.0 KiB",
	}
	for n, want := range cases {
		if got := humanSize(n); got != want {
			t.Errorf("humanSize(%d) = %q, want %q", n, got, want)
		}
	}
}
