package httpserver

import (
	"testing"

	"github.com/webserv-go/webserv/internal/config"
)

func TestMatchLocationLongestPrefix(t *testing.T) {
	locs := []config.LocationConfig{
		{Location: "/"},
		{Location: "/cgi/"},
		{Location: "/cgi/admin/"},
	}
	got := matchLocation(locs, "/cgi/admin/tool.py")
	if got == nil || got.Location != "/cgi/admin/" {
		t.Fatalf("expected longest-prefix match /cgi/admin/, got %+v", got)
	}
}

func TestMatchLocationNoMatch(t *testing.T) {
	locs := []config.LocationConfig{{Location: "/app/"}}
	if got := matchLocation(locs, "/other"); got != nil {
		t.Fatalf("expected no match, got %+v", got)
	}
}

func TestBaseDirPrecedence(t *testing.T) {
	cases := []struct {
		name           string
		loc            config.LocationConfig
		allowUploadDir bool
		want           string
	}{
		{"explicit path wins", config.LocationConfig{Location: "/x", Path: "/explicit"}, true, "/explicit"},
		{"upload_dir when allowed", config.LocationConfig{Location: "/up", UploadDir: "/uploads"}, true, "/uploads"},
		{"upload_dir ignored for GET", config.LocationConfig{Location: "/up", UploadDir: "/uploads"}, false, "www/up"},
		{"root location uses root", config.LocationConfig{Location: "/"}, false, "www"},
		{"derived from location", config.LocationConfig{Location: "/cgi/"}, false, "www/cgi"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := baseDir("www", &tc.loc, tc.allowUploadDir)
			if got != tc.want {
				t.Errorf("baseDir() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestResolveTraversalForbidden(t *testing.T) {
	cfg := &config.ServerConfig{Root: "www", Locations: []config.LocationConfig{{Location: "/"}}}
	req := &Request{Path: "/../etc/passwd"}
	_, errResp := resolve(cfg, req, "GET", false, 404)
	if errResp == nil || errResp.Status != 403 {
		t.Fatalf("expected 403, got %+v", errResp)
	}
}

func TestResolveMethodNotAllowed(t *testing.T) {
	cfg := &config.ServerConfig{Root: "www", Locations: []config.LocationConfig{
		{Location: "/", AllowedMethods: []string{"GET"}},
	}}
	req := &Request{Path: "/"}
	_, errResp := resolve(cfg, req, "POST", false, 404)
	if errResp == nil || errResp.Status != 405 {
		t.Fatalf("expected 405, got %+v", errResp)
	}
	if errResp.Headers["Allow"] != "GET" {
		t.Errorf("Allow header = %q, want GET", errResp.Headers["Allow"])
	}
}

func TestResolveNoLocationUsesCallerStatus(t *testing.T) {
	cfg := &config.ServerConfig{Root: "www"}
	req := &Request{Path: "/anything"}
	_, errResp := resolve(cfg, req, "POST", true, 405)
	if errResp == nil || errResp.Status != 405 {
		t.Fatalf("expected 405, got %+v", errResp)
	}
	_, errResp = resolve(cfg, req, "GET", false, 404)
	if errResp == nil || errResp.Status != 404 {
		t.Fatalf("expected 404, got %+v", errResp)
	}
}
