package httpserver

import (
	"path"
	"strings"

	"github.com/webserv-go/webserv/internal/config"
)

// Match is the outcome of resolving a request path against a server's
// location table: the chosen location plus the derived base directory
// and path suffix a handler builds a filesystem target from.
type Match struct {
	Location *config.LocationConfig
	BaseDir  string
	Suffix   string
}

// hasTraversal reports whether path contains the literal ".." sequence.
func hasTraversal(p string) bool {
	return strings.Contains(p, "..")
}

// matchLocation returns the location whose prefix is the longest match
// for path, or nil if none match.
func matchLocation(locations []config.LocationConfig, p string) *config.LocationConfig {
	var best *config.LocationConfig
	for i := range locations {
		loc := &locations[i]
		if strings.HasPrefix(p, loc.Location) {
			if best == nil || len(loc.Location) > len(best.Location) {
				best = loc
			}
		}
	}
	return best
}

// baseDir resolves the filesystem base directory for loc per spec.md
// §4.5's precedence: an explicit path, else an explicit upload_dir
// (POST and DELETE pass allowUploadDir=true; GET passes false), else
// the server root when the location is "/", else root joined with the
// location prefix.
func baseDir(root string, loc *config.LocationConfig, allowUploadDir bool) string {
	if loc.Path != "" {
		return loc.Path
	}
	if allowUploadDir && loc.UploadDir != "" {
		return loc.UploadDir
	}
	if loc.Location == "/" {
		return root
	}
	return path.Join(root, strings.TrimPrefix(loc.Location, "/"))
}

// suffixOf strips the matched prefix from p and any leading slash.
func suffixOf(p string, loc *config.LocationConfig) string {
	s := strings.TrimPrefix(p, loc.Location)
	return strings.TrimPrefix(s, "/")
}

// resolve performs traversal guard, location match, method gate and base
// directory/suffix computation. noLocationStatus lets each handler choose
// its own disposition when nothing matches (POST uses 405 per spec.md
// §4.7; GET/DELETE use 404 — see DESIGN.md).
func resolve(cfg *config.ServerConfig, req *Request, method string, allowUploadDir bool, noLocationStatus int) (*Match, *errResponse) {
	if hasTraversal(req.Path) {
		return nil, newErrResponse(403, nil)
	}

	loc := matchLocation(cfg.Locations, req.Path)
	if loc == nil {
		return nil, newErrResponse(noLocationStatus, nil)
	}

	if !loc.MethodAllowed(method) {
		return nil, newErrResponse(405, map[string]string{"Allow": strings.Join(loc.Methods(), ", ")})
	}

	dir := baseDir(cfg.Root, loc, allowUploadDir)
	suffix := suffixOf(req.Path, loc)

	return &Match{Location: loc, BaseDir: dir, Suffix: suffix}, nil
}
