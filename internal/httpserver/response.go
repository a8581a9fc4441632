package httpserver

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// reasonPhrases covers every status this server ever emits, per spec.md
// §4.10. An unlisted code renders as "Unknown".
var reasonPhrases = map[int]string{
	200: "OK",
	201: "Created",
	204: "No Content",
	301: "Moved Permanently",
	302: "Found",
	304: "Not Modified",
	400: "Bad Request",
	401: "Unauthorized",
	403: "Forbidden",
	404: "Not Found",
	405: "Method Not Allowed",
	408: "Request Timeout",
	411: "Length Required",
	413: "Payload Too Large",
	414: "URI Too Long",
	500: "Internal Server Error",
	501: "Not Implemented",
	502: "Bad Gateway",
	503: "Service Unavailable",
	504: "Gateway Timeout",
	505: "HTTP Version Not Supported",
}

// ReasonPhrase returns the reason phrase for code, or "Unknown".
func ReasonPhrase(code int) string {
	if r, ok := reasonPhrases[code]; ok {
		return r
	}
	return "Unknown"
}

// contentTypeByExt is the minimum extension table from spec.md §4.6.
var contentTypeByExt = map[string]string{
	".html": "text/html; charset=UTF-8",
	".htm":  "text/html; charset=UTF-8",
	".css":  "text/css",
	".js":   "application/javascript",
	".json": "application/json",
	".png":  "image/png",
	".svg":  "image/svg+xml",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
}

// ContentTypeFor returns the content type for a file name by extension,
// defaulting to application/octet-stream.
func ContentTypeFor(name string) string {
	if ct, ok := contentTypeByExt[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// compose serializes status, headers, and body into an HTTP/1.1
// response. Content-Length and Connection: close are always present,
// per spec.md §4.10, even if the caller already set them.
func compose(status int, headers map[string]string, body []byte) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "HTTP/1.1 %d %s\r\n", status, ReasonPhrase(status))

	for name, value := range headers {
		if strings.EqualFold(name, "Content-Length") || strings.EqualFold(name, "Connection") {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\r\n", name, value)
	}
	fmt.Fprintf(&b, "Content-Length: %s\r\n", strconv.Itoa(len(body)))
	b.WriteString("Connection: close\r\n\r\n")

	out := make([]byte, 0, b.Len()+len(body))
	out = append(out, []byte(b.String())...)
	out = append(out, body...)
	return out
}

// errResponse is a handler's short-circuit outcome: a status and extra
// headers (e.g. Allow) to apply on top of the standard error body.
type errResponse struct {
	Status  int
	Headers map[string]string
}

func newErrResponse(status int, headers map[string]string) *errResponse {
	if headers == nil {
		headers = map[string]string{}
	}
	return &errResponse{Status: status, Headers: headers}
}

// errorBody renders a minimal HTML document naming the status and
// reason, per spec.md §4.10.
func errorBody(status int) []byte {
	reason := ReasonPhrase(status)
	return []byte(fmt.Sprintf(
		"<!DOCTYPE html><html><head><title>%d %s</title></head>"+
			"<body><h1>%d %s</h1></body></html>",
		status, reason, status, reason))
}

// render turns an errResponse into composed response bytes. Content-Type is
// always text/html, matching HttpResponseCommon.cpp's createErrorResponse.
func (e *errResponse) render() []byte {
	headers := make(map[string]string, len(e.Headers)+1)
	for k, v := range e.Headers {
		headers[k] = v
	}
	headers["Content-Type"] = "text/html; charset=UTF-8"
	return compose(e.Status, headers, errorBody(e.Status))
}
