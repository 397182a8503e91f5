package http

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

var (
	// ErrInvalidRequest is returned for a malformed or empty request head.
	ErrInvalidRequest = errors.New("invalid HTTP request")

	// ErrUnexpectedEOF is returned when the peer closes the connection
	// before a complete request head has been received.
	ErrUnexpectedEOF = errors.New("connection closed before complete request")
)

const defaultReadBufferSize = 4096

var readerPool = sync.Pool{
	New: func() any {
		return bufio.NewReaderSize(nil, defaultReadBufferSize)
	},
}

// ParseRequest reads a single HTTP/1.1 request from r.
//
// It reads newline-terminated lines until the blank line that ends the
// header section, then reads exactly Content-Length body bytes if that
// header is present and parses as a non-negative integer. No other body
// framing is supported.
func ParseRequest(r io.Reader) (*Request, error) {
	br := readerPool.Get().(*bufio.Reader)
	br.Reset(r)
	defer readerPool.Put(br)

	var lines []string
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil, ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("read request head: %w", err)
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		lines = append(lines, line)
	}

	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: empty request", ErrInvalidRequest)
	}

	parts := strings.Fields(lines[0])
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: bad request line %q", ErrInvalidRequest, lines[0])
	}

	req := &Request{
		Method:  parts[0],
		Path:    parts[1],
		Proto:   parts[2],
		Headers: make(map[string]string, len(lines)-1),
	}

	for _, line := range lines[1:] {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		req.Headers[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}

	if lengthStr, ok := req.Headers["content-length"]; ok {
		if length, err := strconv.Atoi(lengthStr); err == nil && length >= 0 {
			req.Body = make([]byte, length)
			if _, err := io.ReadFull(br, req.Body); err != nil {
				return nil, fmt.Errorf("read request body: %w", err)
			}
		}
	}

	return req, nil
}
