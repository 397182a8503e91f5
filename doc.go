/*
Package quickserv provides a minimal concurrent HTTP/1.1 server built
directly on raw TCP sockets.

Quickserv handles one request per connection with a fixed-size worker pool
instead of a goroutine per connection. The accept loop is the sole producer
into a shared FIFO job queue; workers are the sole consumers. Routing is
ordered, first-match-wins, with :param path segments and an ordered
middleware chain that can short-circuit dispatch.

Quick Start

Basic usage example:

	package main

	import (
	    "github.com/quickserv/quickserv/app"
	    "github.com/quickserv/quickserv/config"
	    "github.com/quickserv/quickserv/core/http"
	    "github.com/quickserv/quickserv/core/router"
	)

	func main() {
	    cfg := config.New()
	    application := app.New(cfg)

	    r := application.Router()
	    r.GET("/hello", func(req *router.Request) *http.Response {
	        return http.OK(`{"message": "hello"}`)
	    })

	    application.Run()
	}

Modules

The server is organized into several modules:

  - app: Application lifecycle management and signal handling
  - config: Configuration loading (flags, environment, YAML)
  - core: Connection acceptor and server loop
  - core/http: HTTP/1.1 request parsing and response serialization
  - core/router: Ordered routing with path parameters
  - core/middleware: Common middleware implementations
  - core/pools: Fixed-size worker pool with a shared job queue
  - core/observability: Request metrics and structured logging

Scope

Quickserv deliberately omits TLS, keep-alive connections, request
pipelining, chunked transfer encoding, and HTTP/2. Connections are closed
after a single response is written.
*/
package quickserv
