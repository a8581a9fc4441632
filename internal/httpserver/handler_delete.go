package httpserver

import (
	"os"
	"path/filepath"
)

// deletedBody is the fixed confirmation page returned on a successful
// DELETE, an additive supplement over spec.md §4.8's bare "short HTML
// body" requirement.
const deletedBody = "<!DOCTYPE html><html><head><title>Deleted</title></head>" +
	"<body><h1>Deleted</h1></body></html>"

// handleDelete implements spec.md §4.8.
func (e *Engine) handleDelete(req *Request) []byte {
	match, errResp := resolve(e.cfg, req, "DELETE", true, 404)
	if errResp != nil {
		return errResp.render()
	}

	if hasTraversal(match.Suffix) {
		return newErrResponse(400, nil).render()
	}

	targetPath := filepath.Join(match.BaseDir, match.Suffix)

	info, err := os.Stat(targetPath)
	if err != nil {
		return newErrResponse(404, nil).render()
	}
	if info.IsDir() {
		return newErrResponse(403, nil).render()
	}
	if f, err := os.OpenFile(targetPath, os.O_WRONLY, 0); err != nil {
		return newErrResponse(403, nil).render()
	} else {
		f.Close()
	}

	if err := os.Remove(targetPath); err != nil {
		return newErrResponse(500, nil).render()
	}

	return compose(200, map[string]string{"Content-Type": "text/html; charset=UTF-8"}, []byte(deletedBody))
}
