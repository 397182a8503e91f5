// Package core implements the connection acceptor: it binds the listening
// socket, accepts connections in a loop, and hands each one to the worker
// pool as a job running parse -> dispatch -> serialize -> write.
package core

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/net/netutil"

	"github.com/quickserv/quickserv/core/http"
	"github.com/quickserv/quickserv/core/observability"
	"github.com/quickserv/quickserv/core/pools"
	"github.com/quickserv/quickserv/core/router"
)

// Config configures a server.
type Config struct {
	// Workers is the fixed worker pool size. Defaults to 4.
	Workers int
	// QueueCapacity bounds the shared job queue.
	QueueCapacity int
	// Policy selects the pool backpressure behavior.
	Policy pools.Backpressure
	// MaxConns caps concurrently accepted connections; 0 means no cap.
	MaxConns int
	// TCPNoDelay disables Nagle's algorithm on accepted sockets.
	TCPNoDelay bool
	// Logger receives lifecycle and per-connection events. Defaults to
	// a nop logger.
	Logger log.Logger
	// Monitor records per-route request metrics. Nil disables metrics.
	Monitor *observability.Monitor
}

// Server accepts connections and serves one request per connection. The
// router must be fully constructed before Serve is called; it is shared
// read-only across all workers.
type Server struct {
	router  *router.Router
	pool    *pools.WorkerPool
	logger  log.Logger
	monitor *observability.Monitor

	maxConns int
	noDelay  bool

	mu sync.Mutex
	ln net.Listener
}

// NewServer creates a server and starts its worker pool.
func NewServer(r *router.Router, cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.NewNopLogger()
	}

	return &Server{
		router: r,
		pool: pools.NewWorkerPool(pools.Config{
			Workers:       cfg.Workers,
			QueueCapacity: cfg.QueueCapacity,
			Policy:        cfg.Policy,
			Logger:        cfg.Logger,
		}),
		logger:   cfg.Logger,
		monitor:  cfg.Monitor,
		maxConns: cfg.MaxConns,
		noDelay:  cfg.TCPNoDelay,
	}
}

// ListenAndServe binds addr and serves until the listener is closed.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections from ln until it is closed. Accept errors
// are transient: they are logged and the loop continues. Each accepted
// connection becomes exactly one pool job.
func (s *Server) Serve(ln net.Listener) error {
	if s.maxConns > 0 {
		ln = netutil.LimitListener(ln, s.maxConns)
	}

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	level.Info(s.logger).Log("event", "listening", "addr", ln.Addr().String(),
		"workers", s.pool.Stats().Workers)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			level.Warn(s.logger).Log("event", "accept failed", "err", err)
			continue
		}

		if err := s.pool.Submit(func() {
			s.handleConn(conn)
		}); err != nil {
			level.Error(s.logger).Log("event", "submit failed", "err", err)
			conn.Close()
			if errors.Is(err, pools.ErrPoolClosed) {
				return err
			}
		}
	}
}

// Shutdown stops accepting, then closes the pool. In-flight and queued
// jobs drain before Shutdown returns.
func (s *Server) Shutdown() error {
	s.mu.Lock()
	ln := s.ln
	s.ln = nil
	s.mu.Unlock()

	var err error
	if ln != nil {
		err = ln.Close()
	}
	s.pool.Close()

	level.Info(s.logger).Log("event", "shutdown complete")
	return err
}

// PoolStats returns a snapshot of the worker pool counters.
func (s *Server) PoolStats() pools.Stats {
	return s.pool.Stats()
}

// handleConn runs the full lifecycle of one connection: parse the
// request, dispatch through the router, write the response, close. The
// connection is owned exclusively by this worker and never reused.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	if s.noDelay {
		if err := setTCPNoDelay(conn); err != nil {
			level.Debug(s.logger).Log("event", "setsockopt failed", "err", err)
		}
	}

	start := time.Now()

	req, err := http.ParseRequest(conn)
	if err != nil {
		s.handleParseError(conn, err)
		return
	}

	res := s.dispatch(req)

	if _, err := res.WriteTo(conn); err != nil {
		level.Warn(s.logger).Log("event", "write failed",
			"remote", conn.RemoteAddr().String(), "err", err)
		return
	}

	level.Debug(s.logger).Log("method", req.Method, "path", req.Path,
		"status", res.Status, "duration", time.Since(start))
	s.monitor.RecordRequest(req.Method+" "+req.Path, time.Since(start), res.Status >= 500)
}

// handleParseError responds 400 to malformed requests. A peer that
// closed early gets no response; there is no one left to read it.
func (s *Server) handleParseError(conn net.Conn, err error) {
	if errors.Is(err, http.ErrInvalidRequest) {
		res := http.BadRequest(`{"error": "Bad Request"}`)
		if _, werr := res.WriteTo(conn); werr != nil {
			level.Debug(s.logger).Log("event", "write failed", "err", werr)
		}
	}
	level.Debug(s.logger).Log("event", "parse failed",
		"remote", conn.RemoteAddr().String(), "err", err)
}

// dispatch routes the request under panic recovery: a faulty handler or
// middleware yields a 500 response instead of killing the worker.
func (s *Server) dispatch(req *http.Request) (res *http.Response) {
	defer func() {
		if r := recover(); r != nil {
			level.Error(s.logger).Log("event", "handler panic",
				"method", req.Method, "path", req.Path, "panic", r)
			res = http.InternalError(`{"error": "Internal Server Error"}`)
		}
	}()

	return s.router.Handle(req)
}
