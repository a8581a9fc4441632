package httpserver

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/webserv-go/webserv/internal/config"
)

// handleGet implements spec.md §4.6.
func (e *Engine) handleGet(req *Request) []byte {
	match, errResp := resolve(e.cfg, req, "GET", false, 404)
	if errResp != nil {
		return errResp.render()
	}

	dirPath := filepath.Join(match.BaseDir, match.Suffix)
	isDirRequest := match.Suffix == "" || strings.HasSuffix(req.Path, "/")

	if isDirRequest {
		return e.serveDirectory(req, match, dirPath)
	}
	return e.serveFile(req, match, dirPath)
}

// serveDirectory resolves an index file, falls back to autoindex, or
// returns an error, per spec.md §4.6 steps 2-3.
func (e *Engine) serveDirectory(req *Request, match *Match, dirPath string) []byte {
	dirPath = ensureTrailingSlash(dirPath)

	dirInfo, statErr := os.Stat(dirPath)
	dirExists := statErr == nil && dirInfo.IsDir()

	if dirExists {
		for _, index := range e.cfg.IndexFiles {
			candidate := dirPath + index
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return e.serveFile(req, match, candidate)
			}
		}
	}

	if !dirExists {
		return newErrResponse(404, nil).render()
	}
	if match.Location.Autoindex {
		return compose(200,
			map[string]string{"Content-Type": "text/html; charset=UTF-8"},
			[]byte(renderAutoindex(req.Path, dirPath)))
	}
	return newErrResponse(403, nil).render()
}

// serveFile stats targetPath and either redirects (directory without
// trailing slash), dispatches to FastCGI, or serves the file's bytes.
func (e *Engine) serveFile(req *Request, match *Match, targetPath string) []byte {
	info, err := os.Stat(targetPath)
	if err != nil {
		return newErrResponse(404, nil).render()
	}
	if info.IsDir() {
		if !strings.HasSuffix(req.Path, "/") {
			return compose(301, map[string]string{"Location": req.Path + "/"}, nil)
		}
		return e.serveDirectory(req, match, targetPath)
	}

	if isCGITarget(match.Location, targetPath) {
		return e.dispatchFastCGI(req, match, targetPath, info.Size())
	}

	data, err := os.ReadFile(targetPath)
	if err != nil {
		return newErrResponse(403, nil).render()
	}
	return compose(200, map[string]string{"Content-Type": ContentTypeFor(targetPath)}, data)
}

// isCGITarget reports whether path's extension is configured for FastCGI
// dispatch at loc.
func isCGITarget(loc *config.LocationConfig, path string) bool {
	if loc.FastCGIPass == "" {
		return false
	}
	ext := filepath.Ext(path)
	for _, e := range loc.CGIExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

func ensureTrailingSlash(p string) string {
	if strings.HasSuffix(p, "/") {
		return p
	}
	return p + "/"
}

// renderAutoindex builds the directory listing HTML: one anchor per
// entry (spec.md §4.6) plus a humanized size/mtime and breadcrumb nav,
// additive supplements grounded in the original GET handler's
// buildAutoIndex/buildBreadcrumb.
func renderAutoindex(uri, dirPath string) string {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		entries = nil
	}

	type item struct {
		name  string
		isDir bool
		size  int64
		mtime time.Time
	}
	var items []item
	for _, ent := range entries {
		if ent.Name() == "." || ent.Name() == ".." {
			continue
		}
		info, err := ent.Info()
		var size int64
		var mtime time.Time
		if err == nil {
			size = info.Size()
			mtime = info.ModTime()
		}
		items = append(items, item{name: ent.Name(), isDir: ent.IsDir(), size: size, mtime: mtime})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].name < items[j].name })

	var b strings.Builder
	fmt.Fprintf(&b, "<!doctype html><html><head><meta charset=\"utf-8\">"+
		"<title>Index of %s</title></head><body>", uri)
	fmt.Fprintf(&b, "<h1>Index of %s</h1>", uri)
	b.WriteString(buildBreadcrumb(uri))
	b.WriteString("<ul>")

	if len(items) == 0 {
		b.WriteString("<li><em>This folder is empty.</em></li>")
	}
	for _, it := range items {
		href := uri
		if !strings.HasSuffix(href, "/") {
			href += "/"
		}
		href += it.name

		label := it.name
		sizeLabel := humanSize(it.size)
		if it.isDir {
			label += "/"
			sizeLabel = "Directory"
		}
		fmt.Fprintf(&b, "<li><a href=\"%s\">%s</a> <span>%s</span> <span>%s</span></li>",
			href, label, sizeLabel, formatTimestamp(it.mtime))
	}
	b.WriteString("</ul></body></html>")
	return b.String()
}

// buildBreadcrumb renders a trail of anchors for each path segment of
// uri, additive navigation over the anchors spec.md §4.6 requires.
func buildBreadcrumb(uri string) string {
	trimmed := strings.Trim(uri, "/")
	var b strings.Builder
	b.WriteString("<nav><a href=\"/\">root</a>")
	if trimmed == "" {
		b.WriteString("</nav>")
		return b.String()
	}
	href := ""
	for _, seg := range strings.Split(trimmed, "/") {
		if seg == "" {
			continue
		}
		href += "/" + seg
		fmt.Fprintf(&b, " / <a href=\"%s\">%s</a>", href, seg)
	}
	b.WriteString("</nav>")
	return b.String()
}

// humanSize renders n bytes as a short human-readable size string.
func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	units := "KMGTPE"
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), units[exp])
}

// formatTimestamp renders t in a fixed, locale-independent layout, or
// "-" for the zero value (stat failed).
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02 Jan 2006 15:04")
}
