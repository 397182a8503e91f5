// Package router dispatches parsed HTTP requests to handlers.
//
// Routes are matched in registration order: the first route whose method
// and pattern match wins. Patterns may contain :name segments that bind
// positionally to path segments. A Router is built once before the server
// starts accepting connections and is shared read-only across workers.
package router

import (
	"strings"

	"github.com/quickserv/quickserv/core/http"
)

// Request is the working copy handed to middleware and handlers: the
// parsed request fields plus the path parameters bound at match time.
type Request struct {
	Method  string
	Path    string
	Proto   string
	Headers map[string]string
	Body    []byte
	Params  map[string]string
}

// Header returns the value for a header key, case-insensitively.
func (r *Request) Header(key string) string {
	if r.Headers == nil {
		return ""
	}
	return r.Headers[strings.ToLower(key)]
}

// Param returns the value bound to a path parameter, or "".
func (r *Request) Param(name string) string {
	if r.Params == nil {
		return ""
	}
	return r.Params[name]
}

// Handler produces a response for a request. Handlers run on a pool
// worker and occupy it for their entire execution, so they must return
// promptly.
type Handler func(*Request) *http.Response

type route struct {
	method     string
	pattern    string
	paramNames []string
	handler    Handler
}

// Router holds the ordered route table, the ordered middleware chain and
// an optional not-found handler.
type Router struct {
	routes      []route
	middlewares []Middleware
	notFound    Handler
}

// New creates an empty router.
func New() *Router {
	return &Router{
		routes: make([]route, 0, 16),
	}
}

// Add registers a route for an arbitrary method. Parameter names are
// extracted from the pattern once, at registration time.
func (r *Router) Add(method, pattern string, handler Handler) {
	r.routes = append(r.routes, route{
		method:     method,
		pattern:    pattern,
		paramNames: extractParamNames(pattern),
		handler:    handler,
	})
}

// GET registers a GET route.
func (r *Router) GET(pattern string, handler Handler) {
	r.Add("GET", pattern, handler)
}

// POST registers a POST route.
func (r *Router) POST(pattern string, handler Handler) {
	r.Add("POST", pattern, handler)
}

// PUT registers a PUT route.
func (r *Router) PUT(pattern string, handler Handler) {
	r.Add("PUT", pattern, handler)
}

// DELETE registers a DELETE route.
func (r *Router) DELETE(pattern string, handler Handler) {
	r.Add("DELETE", pattern, handler)
}

// PATCH registers a PATCH route.
func (r *Router) PATCH(pattern string, handler Handler) {
	r.Add("PATCH", pattern, handler)
}

// HEAD registers a HEAD route.
func (r *Router) HEAD(pattern string, handler Handler) {
	r.Add("HEAD", pattern, handler)
}

// OPTIONS registers an OPTIONS route.
func (r *Router) OPTIONS(pattern string, handler Handler) {
	r.Add("OPTIONS", pattern, handler)
}

// Use appends a middleware to the chain. Middleware run in registration
// order before route dispatch.
func (r *Router) Use(m Middleware) {
	r.middlewares = append(r.middlewares, m)
}

// UseFunc appends a middleware function to the chain.
func (r *Router) UseFunc(f MiddlewareFunc) {
	r.Use(f)
}

// NotFound sets the fallback handler invoked when no route matches.
func (r *Router) NotFound(handler Handler) {
	r.notFound = handler
}

// Handle dispatches a parsed request and returns the response.
//
// Middleware run first, in order; a Stop result returns the response as
// of that point, skipping remaining middleware and route dispatch. The
// first route with equal method and matching pattern wins.
func (r *Router) Handle(httpReq *http.Request) *http.Response {
	req := &Request{
		Method:  httpReq.Method,
		Path:    httpReq.Path,
		Proto:   httpReq.Proto,
		Headers: httpReq.Headers,
		Body:    httpReq.Body,
		Params:  make(map[string]string),
	}

	res := http.OK(`{"status": "ok"}`)

	for _, m := range r.middlewares {
		if m.Handle(req, res) == Stop {
			return res
		}
	}

	for i := range r.routes {
		rt := &r.routes[i]
		if rt.method != req.Method {
			continue
		}
		params, ok := matchPath(rt.pattern, rt.paramNames, req.Path)
		if !ok {
			continue
		}
		req.Params = params
		return rt.handler(req)
	}

	if r.notFound != nil {
		return r.notFound(req)
	}
	return http.NotFound(`{"error": "Not Found"}`)
}

// extractParamNames pulls parameter names out of a pattern.
// "/users/:id/posts/:post_id" -> ["id", "post_id"]
func extractParamNames(pattern string) []string {
	var names []string
	for _, seg := range strings.Split(pattern, "/") {
		if strings.HasPrefix(seg, ":") {
			names = append(names, seg[1:])
		}
	}
	return names
}

// matchPath checks a path against a pattern segment by segment. Segment
// counts must be equal; :name segments accept any value and bind
// positionally to paramNames; literal segments must be exactly equal.
func matchPath(pattern string, paramNames []string, path string) (map[string]string, bool) {
	patternSegs := strings.Split(pattern, "/")
	pathSegs := strings.Split(path, "/")

	if len(patternSegs) != len(pathSegs) {
		return nil, false
	}

	params := make(map[string]string, len(paramNames))
	paramIndex := 0

	for i, patternSeg := range patternSegs {
		if strings.HasPrefix(patternSeg, ":") {
			if paramIndex < len(paramNames) {
				params[paramNames[paramIndex]] = pathSegs[i]
				paramIndex++
			}
			continue
		}
		if patternSeg != pathSegs[i] {
			return nil, false
		}
	}

	return params, true
}
