// Package httpserver implements the per-connection request pipeline: the
// request assembler's completion test, the HTTP/1.1 parser, the location
// router, the GET/POST/DELETE handlers, and the response composer. None
// of it touches a socket directly — the worker event loop owns every fd
// and hands this package only complete request buffers.
package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/webserv-go/webserv/internal/config"
	"github.com/webserv-go/webserv/pkg/fastcgi"
)

// defaultUpstreamTimeout bounds a FastCGI exchange when the server block
// does not set client_timeout.
const defaultUpstreamTimeout = 30 * time.Second

// Engine ties one server's configuration to the handlers that answer its
// requests. A worker owns exactly one Engine per listening port.
type Engine struct {
	cfg    *config.ServerConfig
	log    *slog.Logger
	port   string
	onDone func(status int)
}

// New builds an Engine for cfg. onDone, if non-nil, is invoked with the
// final status code after every request — the worker uses it to count
// requests and 5xx responses, which it logs when it stops
// (internal/metrics stays supervisor-side only, per spec.md §5's
// single-purpose worker loop).
func New(cfg *config.ServerConfig, log *slog.Logger, onDone func(status int)) *Engine {
	return &Engine{
		cfg:    cfg,
		log:    log,
		port:   strconv.Itoa(cfg.Port),
		onDone: onDone,
	}
}

// Handle parses buf as one HTTP/1.1 request and returns the composed
// response bytes. The caller (the worker event loop) only invokes this
// once RequestComplete(buf) is true.
func (e *Engine) Handle(buf []byte) []byte {
	req, err := ParseRequest(buf)
	if err != nil {
		return e.finish(newErrResponse(400, nil).render())
	}

	e.log.Debug("request", "method", req.Method, "path", req.Path)

	var out []byte
	switch req.Method {
	case "GET":
		out = e.handleGet(req)
	case "POST":
		out = e.handlePost(req)
	case "DELETE":
		out = e.handleDelete(req)
	default:
		out = newErrResponse(405, map[string]string{"Allow": "GET, POST, DELETE"}).render()
	}
	return e.finish(out)
}

// finish reports the outcome status to onDone and returns out unchanged.
func (e *Engine) finish(out []byte) []byte {
	if e.onDone != nil {
		e.onDone(statusOf(out))
	}
	return out
}

// statusOf extracts the numeric status from a composed "HTTP/1.1 NNN ..."
// response's first line. Returns 0 if it cannot be parsed.
func statusOf(resp []byte) int {
	line := resp
	if idx := indexOf(resp, "\r\n"); idx >= 0 {
		line = resp[:idx]
	}
	fields := strings.Fields(string(line))
	if len(fields) < 2 {
		return 0
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0
	}
	return n
}

// upstreamTimeout returns the configured client_timeout as a duration, or
// defaultUpstreamTimeout if unset.
func (e *Engine) upstreamTimeout() time.Duration {
	if e.cfg.ClientTimeout > 0 {
		return time.Duration(e.cfg.ClientTimeout) * time.Second
	}
	return defaultUpstreamTimeout
}

// dispatchFastCGI builds the CGI parameter set for scriptPath and req,
// then performs the synchronous FastCGI exchange per spec.md §4.9. The
// upstream connection is opened and closed entirely inside fastcgi.Do;
// nothing here retains a reference to it once this returns.
func (e *Engine) dispatchFastCGI(req *Request, match *Match, scriptPath string, size int64) []byte {
	addr := match.Location.FastCGIPass

	contentType, _ := req.Header("Content-Type")
	contentLength, _ := req.Header("Content-Length")
	if contentLength == "" {
		contentLength = strconv.FormatInt(int64(len(req.Body)), 10)
	}

	// QUERY_STRING is sliced straight off the raw URI rather than
	// reassembled from req.Query (a map): map iteration order is
	// randomized, which would make this pass-through value nondeterministic
	// across otherwise-identical requests, and reassembly loses repeated
	// keys a map can't hold — original_source's FastCgiClient::buildParams
	// slices the same way.
	_, query := strings.Cut(req.URI, "?")

	params := map[string]string{
		"GATEWAY_INTERFACE": "CGI/1.1",
		"REQUEST_METHOD":    req.Method,
		"SERVER_PROTOCOL":   req.Version,
		"SERVER_NAME":       e.cfg.ServerName,
		"SERVER_PORT":       e.port,
		"QUERY_STRING":      query,
		"SCRIPT_NAME":       req.Path,
		"PATH_INFO":         req.Path,
		"SCRIPT_FILENAME":   scriptPath,
		"DOCUMENT_ROOT":     e.cfg.Root,
		"CONTENT_TYPE":      contentType,
		"CONTENT_LENGTH":    contentLength,
		"REDIRECT_STATUS":   "200",
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.upstreamTimeout())
	defer cancel()

	resp, err := fastcgi.Do(ctx, addr, params, req.Body, e.upstreamTimeout())
	if err != nil {
		e.log.Warn("fastcgi exchange failed", "addr", addr, "err", err)
		if errors.Is(err, fastcgi.ErrConnect) {
			return newErrResponse(504, nil).render()
		}
		return newErrResponse(502, nil).render()
	}

	headers := make(map[string]string, len(resp.Headers)+1)
	for k, v := range resp.Headers {
		headers[k] = v
	}
	return compose(resp.Status, headers, resp.Body)
}
