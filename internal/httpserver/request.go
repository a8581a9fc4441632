package httpserver

import (
	"strings"
)

// Request is the structured form of one complete HTTP/1.1 request.
type Request struct {
	Method  string
	URI     string
	Path    string
	Query   map[string]string
	Version string

	Headers       map[string]string
	headersLower  map[string]string
	Body          []byte
}

// Header looks up name case-sensitively first, falling back to a
// lowercase match, per spec.md §4.4's case-handling rule.
func (r *Request) Header(name string) (string, bool) {
	if v, ok := r.Headers[name]; ok {
		return v, true
	}
	v, ok := r.headersLower[strings.ToLower(name)]
	return v, ok
}

// ParseRequest turns a complete request buffer (as determined by
// RequestComplete) into a structured Request.
func ParseRequest(buf []byte) (*Request, error) {
	headerEnd, bodyStart, ok := findHeaderTerminator(buf)
	if !ok {
		return nil, errMalformedRequest("missing header terminator")
	}
	headerBlock := buf[:headerEnd]

	lines := splitCRLFLines(headerBlock)
	if len(lines) == 0 {
		return nil, errMalformedRequest("empty request")
	}

	method, uri, version, err := parseRequestLine(lines[0])
	if err != nil {
		return nil, err
	}

	path, query := parseURI(uri)

	headers := make(map[string]string, len(lines)-1)
	headersLower := make(map[string]string, len(lines)-1)
	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		name, value, ok := cutOnce(line, ':')
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(strings.TrimRight(value, "\r"))
		headers[name] = value
		headersLower[strings.ToLower(name)] = value
	}

	return &Request{
		Method:       method,
		URI:          uri,
		Path:         path,
		Query:        query,
		Version:      version,
		Headers:      headers,
		headersLower: headersLower,
		Body:         buf[bodyStart:],
	}, nil
}

// errMalformedRequest marks a request-line/header parsing failure; the
// caller (the engine) maps it to ClientProtocol / 400.
type errMalformedRequest string

func (e errMalformedRequest) Error() string { return "malformed request: " + string(e) }

func parseRequestLine(line string) (method, uri, version string, err error) {
	line = strings.TrimRight(line, "\r")
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return "", "", "", errMalformedRequest("request line must have 3 fields: " + line)
	}
	return fields[0], fields[1], fields[2], nil
}

// parseURI splits uri into its path and query_params, per spec.md §4.4:
// split once on '?'; '&'-delimited key[=value] pairs; missing '=' yields
// empty value; missing key is skipped.
func parseURI(uri string) (path string, query map[string]string) {
	query = make(map[string]string)
	path = uri
	qs := ""
	if i := strings.IndexByte(uri, '?'); i >= 0 {
		path, qs = uri[:i], uri[i+1:]
	}
	if qs == "" {
		return path, query
	}
	for _, pair := range strings.Split(qs, "&") {
		if pair == "" {
			continue
		}
		key, value, ok := cutOnce(pair, '=')
		if key == "" {
			continue
		}
		if !ok {
			value = ""
		}
		query[key] = value
	}
	return path, query
}

// cutOnce splits s at the first occurrence of sep, mirroring
// strings.Cut but for a byte separator; present for readability at call
// sites that already think in terms of a single delimiter byte.
func cutOnce(s string, sep byte) (before, after string, found bool) {
	i := strings.IndexByte(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+1:], true
}

// splitCRLFLines splits a header block into lines on "\n", leaving any
// trailing "\r" for callers to trim — matches the original's
// line-by-line header parse.
func splitCRLFLines(block []byte) []string {
	return strings.Split(string(block), "\n")
}

// findHeaderTerminator locates "\r\n\r\n" in buf, returning the offset of
// the terminator's start (end of the header block) and the offset where
// the body begins.
func findHeaderTerminator(buf []byte) (headerEnd, bodyStart int, ok bool) {
	const term = "\r\n\r\n"
	idx := indexOf(buf, term)
	if idx < 0 {
		return 0, 0, false
	}
	return idx, idx + len(term), true
}

func indexOf(buf []byte, sub string) int {
	return strings.Index(string(buf), sub)
}
