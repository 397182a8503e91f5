package http

import (
	"io"
	"strconv"
)

// ServerName is the value of the default Server response header.
const ServerName = "quickserv/1.0"

// Response is an HTTP/1.1 response. Header iteration order is
// unspecified; clients must not rely on header ordering.
type Response struct {
	Status     int
	StatusText string
	Proto      string
	Headers    map[string]string
	Body       []byte
}

// NewResponse creates a response with the default Server and
// Content-Type headers attached.
func NewResponse(status int, statusText string) *Response {
	return &Response{
		Status:     status,
		StatusText: statusText,
		Proto:      "HTTP/1.1",
		Headers: map[string]string{
			"Server":       ServerName,
			"Content-Type": "application/json",
		},
	}
}

// SetHeader sets a response header, replacing any previous value.
func (r *Response) SetHeader(key, value string) {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
}

// SetBody attaches body bytes and computes the Content-Length header.
func (r *Response) SetBody(body []byte) *Response {
	r.Body = body
	r.SetHeader("Content-Length", strconv.Itoa(len(body)))
	return r
}

// SetBodyString attaches a string body.
func (r *Response) SetBodyString(body string) *Response {
	return r.SetBody([]byte(body))
}

// Bytes serializes the response: status line, header lines in map
// iteration order, a blank line, then the raw body bytes.
func (r *Response) Bytes() []byte {
	buf := make([]byte, 0, 128+len(r.Body))

	buf = append(buf, r.Proto...)
	buf = append(buf, ' ')
	buf = strconv.AppendInt(buf, int64(r.Status), 10)
	buf = append(buf, ' ')
	buf = append(buf, r.StatusText...)
	buf = append(buf, "\r\n"...)

	for key, value := range r.Headers {
		buf = append(buf, key...)
		buf = append(buf, ": "...)
		buf = append(buf, value...)
		buf = append(buf, "\r\n"...)
	}

	buf = append(buf, "\r\n"...)
	buf = append(buf, r.Body...)

	return buf
}

// WriteTo implements io.WriterTo.
func (r *Response) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.Bytes())
	return int64(n), err
}

// OK builds a 200 response with a JSON body.
func OK(body string) *Response {
	return NewResponse(200, StatusText(200)).SetBodyString(body)
}

// Created builds a 201 response with a JSON body.
func Created(body string) *Response {
	return NewResponse(201, StatusText(201)).SetBodyString(body)
}

// BadRequest builds a 400 response with a JSON body.
func BadRequest(body string) *Response {
	return NewResponse(400, StatusText(400)).SetBodyString(body)
}

// Unauthorized builds a 401 response with a JSON body.
func Unauthorized(body string) *Response {
	return NewResponse(401, StatusText(401)).SetBodyString(body)
}

// NotFound builds a 404 response with a JSON body.
func NotFound(body string) *Response {
	return NewResponse(404, StatusText(404)).SetBodyString(body)
}

// InternalError builds a 500 response with a JSON body.
func InternalError(body string) *Response {
	return NewResponse(500, StatusText(500)).SetBodyString(body)
}

// StatusText returns the default reason phrase for an HTTP status code.
func StatusText(code int) string {
	switch code {
	case 200:
		return "OK"
	case 201:
		return "Created"
	case 204:
		return "No Content"
	case 400:
		return "Bad Request"
	case 401:
		return "Unauthorized"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 405:
		return "Method Not Allowed"
	case 429:
		return "Too Many Requests"
	case 500:
		return "Internal Server Error"
	case 503:
		return "Service Unavailable"
	default:
		return "Unknown"
	}
}
