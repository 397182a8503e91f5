package http

import "strings"

// Request is a parsed HTTP/1.1 request. It is immutable after parse:
// nothing in the server mutates a Request once ParseRequest returns it.
type Request struct {
	Method string
	Path   string
	Proto  string

	// Headers holds every header with a lowercased, trimmed key.
	// Duplicate keys are last-write-wins.
	Headers map[string]string

	// Request body, exactly Content-Length bytes, or empty.
	Body []byte
}

// Header returns the value for a header key, case-insensitively.
func (r *Request) Header(key string) string {
	if r.Headers == nil {
		return ""
	}
	return r.Headers[strings.ToLower(key)]
}
