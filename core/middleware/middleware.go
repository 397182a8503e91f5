// Package middleware provides common middleware implementations for the
// router's Continue/Stop chain.
package middleware

import (
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/quickserv/quickserv/core/http"
	"github.com/quickserv/quickserv/core/router"
)

// Logging logs every request's method and path through the injected
// logger.
func Logging(logger log.Logger) router.Middleware {
	return router.MiddlewareFunc(func(req *router.Request, res *http.Response) router.Result {
		level.Info(logger).Log("method", req.Method, "path", req.Path)
		return router.Continue
	})
}

// Auth checks for an Authorization header on paths under prefix. Requests
// without one are logged and allowed through; set strict to reject them
// with a 401 instead.
func Auth(logger log.Logger, prefix string, strict bool) router.Middleware {
	return router.MiddlewareFunc(func(req *router.Request, res *http.Response) router.Result {
		if !strings.HasPrefix(req.Path, prefix) {
			return router.Continue
		}
		if auth := req.Header("authorization"); auth != "" {
			level.Debug(logger).Log("event", "auth header found", "path", req.Path)
			return router.Continue
		}
		if strict {
			res.Status = 401
			res.StatusText = http.StatusText(401)
			res.SetBodyString(`{"error": "Unauthorized"}`)
			return router.Stop
		}
		level.Warn(logger).Log("event", "missing authorization header", "path", req.Path)
		return router.Continue
	})
}

// CORS adds permissive CORS headers and answers OPTIONS preflights
// directly with 204.
func CORS() router.Middleware {
	return router.MiddlewareFunc(func(req *router.Request, res *http.Response) router.Result {
		res.SetHeader("Access-Control-Allow-Origin", "*")
		res.SetHeader("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		res.SetHeader("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if req.Method == "OPTIONS" {
			res.Status = 204
			res.StatusText = http.StatusText(204)
			res.SetBody(nil)
			return router.Stop
		}
		return router.Continue
	})
}

// RequestID stamps each response with a unique X-Request-ID.
func RequestID() router.Middleware {
	var counter atomic.Uint64

	return router.MiddlewareFunc(func(req *router.Request, res *http.Response) router.Result {
		res.SetHeader("X-Request-ID", strconv.FormatUint(counter.Add(1), 10))
		return router.Continue
	})
}

// RateLimiter allows at most requestsPerSecond requests per one-second
// window, answering the rest with 429.
func RateLimiter(requestsPerSecond int) router.Middleware {
	var (
		mu         sync.Mutex
		tokens     = requestsPerSecond
		lastRefill = time.Now()
	)

	return router.MiddlewareFunc(func(req *router.Request, res *http.Response) router.Result {
		mu.Lock()
		now := time.Now()
		if now.Sub(lastRefill) > time.Second {
			tokens = requestsPerSecond
			lastRefill = now
		}
		if tokens > 0 {
			tokens--
			mu.Unlock()
			return router.Continue
		}
		mu.Unlock()

		res.Status = 429
		res.StatusText = http.StatusText(429)
		res.SetBodyString(`{"error": "Too Many Requests"}`)
		return router.Stop
	})
}
