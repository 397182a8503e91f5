package middleware

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-kit/log"

	"github.com/quickserv/quickserv/core/http"
	"github.com/quickserv/quickserv/core/router"
)

func newRequest(method, path string, headers map[string]string) *router.Request {
	return &router.Request{
		Method:  method,
		Path:    path,
		Proto:   "HTTP/1.1",
		Headers: headers,
		Params:  map[string]string{},
	}
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	m := Logging(log.NewLogfmtLogger(&buf))

	res := http.OK("{}")
	if got := m.Handle(newRequest("GET", "/api/users", nil), res); got != router.Continue {
		t.Errorf("expected Continue, got %v", got)
	}
	if !strings.Contains(buf.String(), "path=/api/users") {
		t.Errorf("request not logged: %q", buf.String())
	}
}

func TestAuthLenient(t *testing.T) {
	m := Auth(log.NewNopLogger(), "/api/", false)

	res := http.OK("{}")
	got := m.Handle(newRequest("GET", "/api/users", nil), res)
	if got != router.Continue {
		t.Errorf("lenient auth must continue, got %v", got)
	}
	if res.Status != 200 {
		t.Errorf("lenient auth must not mutate status, got %d", res.Status)
	}
}

func TestAuthStrict(t *testing.T) {
	m := Auth(log.NewNopLogger(), "/api/", true)

	res := http.OK("{}")
	if got := m.Handle(newRequest("GET", "/api/users", nil), res); got != router.Stop {
		t.Errorf("strict auth without header must stop, got %v", got)
	}
	if res.Status != 401 {
		t.Errorf("expected 401, got %d", res.Status)
	}

	res = http.OK("{}")
	req := newRequest("GET", "/api/users", map[string]string{"authorization": "Bearer x"})
	if got := m.Handle(req, res); got != router.Continue {
		t.Errorf("strict auth with header must continue, got %v", got)
	}

	// Paths outside the prefix are never checked.
	res = http.OK("{}")
	if got := m.Handle(newRequest("GET", "/public", nil), res); got != router.Continue {
		t.Errorf("non-prefixed path must continue, got %v", got)
	}
}

func TestCORS(t *testing.T) {
	m := CORS()

	res := http.OK("{}")
	if got := m.Handle(newRequest("GET", "/", nil), res); got != router.Continue {
		t.Errorf("GET must continue, got %v", got)
	}
	if res.Headers["Access-Control-Allow-Origin"] != "*" {
		t.Error("missing CORS origin header")
	}

	res = http.OK("{}")
	if got := m.Handle(newRequest("OPTIONS", "/", nil), res); got != router.Stop {
		t.Errorf("OPTIONS preflight must stop, got %v", got)
	}
	if res.Status != 204 {
		t.Errorf("expected 204 for preflight, got %d", res.Status)
	}
}

func TestRequestID(t *testing.T) {
	m := RequestID()

	first := http.OK("{}")
	second := http.OK("{}")
	m.Handle(newRequest("GET", "/", nil), first)
	m.Handle(newRequest("GET", "/", nil), second)

	if first.Headers["X-Request-ID"] == "" || first.Headers["X-Request-ID"] == second.Headers["X-Request-ID"] {
		t.Errorf("request IDs not unique: %q vs %q",
			first.Headers["X-Request-ID"], second.Headers["X-Request-ID"])
	}
}

func TestRateLimiter(t *testing.T) {
	m := RateLimiter(2)

	for i := 0; i < 2; i++ {
		res := http.OK("{}")
		if got := m.Handle(newRequest("GET", "/", nil), res); got != router.Continue {
			t.Fatalf("request %d should pass the limiter, got %v", i, got)
		}
	}

	res := http.OK("{}")
	if got := m.Handle(newRequest("GET", "/", nil), res); got != router.Stop {
		t.Error("third request in the window should be limited")
	}
	if res.Status != 429 {
		t.Errorf("expected 429, got %d", res.Status)
	}
}
