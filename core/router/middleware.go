package router

import "github.com/quickserv/quickserv/core/http"

// Result controls middleware chain execution.
type Result int

const (
	// Continue proceeds to the next middleware or to route dispatch.
	Continue Result = iota
	// Stop returns the current response immediately, skipping all
	// remaining middleware and route dispatch.
	Stop
)

// Middleware intercepts a request before route dispatch. It may inspect
// the request, mutate the response, and short-circuit the chain. A
// Middleware implementation can carry captured state.
type Middleware interface {
	Handle(req *Request, res *http.Response) Result
}

// MiddlewareFunc adapts a plain function to the Middleware interface.
type MiddlewareFunc func(req *Request, res *http.Response) Result

// Handle calls f(req, res).
func (f MiddlewareFunc) Handle(req *Request, res *http.Response) Result {
	return f(req, res)
}
