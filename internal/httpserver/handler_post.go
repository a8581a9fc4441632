package httpserver

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// handlePost implements spec.md §4.7.
func (e *Engine) handlePost(req *Request) []byte {
	match, errResp := resolve(e.cfg, req, "POST", true, 405)
	if errResp != nil {
		return errResp.render()
	}

	declared, ok := req.Header("Content-Length")
	if !ok || declared == "" {
		return newErrResponse(411, nil).render()
	}
	declaredLen := parseNonNegative(declared)

	if e.cfg.ClientMaxBodySize > 0 {
		if int64(declaredLen) > e.cfg.ClientMaxBodySize || int64(len(req.Body)) > e.cfg.ClientMaxBodySize {
			return newErrResponse(413, nil).render()
		}
	}
	if len(req.Body) < declaredLen {
		return newErrResponse(400, nil).render()
	}
	body := req.Body[:declaredLen]

	if match.Suffix == "" || hasTraversal(match.Suffix) {
		return newErrResponse(400, nil).render()
	}

	targetPath := filepath.Join(match.BaseDir, match.Suffix)

	if isCGITarget(match.Location, targetPath) {
		info, err := os.Stat(targetPath)
		if err != nil || info.IsDir() {
			return newErrResponse(404, nil).render()
		}
		if f, err := os.Open(targetPath); err != nil {
			return newErrResponse(403, nil).render()
		} else {
			f.Close()
		}
		return e.dispatchFastCGI(req, match, targetPath, info.Size())
	}

	if err := writeFileExact(targetPath, body); err != nil {
		return newErrResponse(500, nil).render()
	}

	return compose(201, map[string]string{"Location": req.Path}, nil)
}

// parseNonNegative parses s as a non-negative decimal integer. Any
// non-digit content yields zero, per spec.md §4.7.
func parseNonNegative(s string) int {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// writeFileExact creates or truncates path at mode 0644 and writes body
// in full, unlinking the partial file on any failure.
func writeFileExact(path string, body []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	n, werr := f.Write(body)
	cerr := f.Close()
	if werr != nil || n != len(body) || cerr != nil {
		os.Remove(path)
		if werr != nil {
			return werr
		}
		if cerr != nil {
			return cerr
		}
		return os.ErrClosed
	}
	return nil
}
