// Package app wires configuration, logging, metrics and the server
// together and manages process lifecycle.
package app

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/quickserv/quickserv/config"
	"github.com/quickserv/quickserv/core"
	"github.com/quickserv/quickserv/core/observability"
	"github.com/quickserv/quickserv/core/router"
)

// App is the application instance.
type App struct {
	cfg     *config.Config
	logger  log.Logger
	router  *router.Router
	monitor *observability.Monitor
	server  *core.Server
}

// New creates an application instance from configuration. The route
// table must be fully registered through Router before Run is called.
func New(cfg *config.Config) *App {
	logger := observability.NewLogger(cfg.LogLevel)
	monitor := observability.NewMonitor()
	r := router.New()

	server := core.NewServer(r, core.Config{
		Workers:       cfg.Workers,
		QueueCapacity: cfg.QueueCapacity,
		Policy:        cfg.Policy(),
		MaxConns:      cfg.MaxConns,
		TCPNoDelay:    cfg.TCPNoDelay,
		Logger:        logger,
		Monitor:       monitor,
	})

	return &App{
		cfg:     cfg,
		logger:  logger,
		router:  r,
		monitor: monitor,
		server:  server,
	}
}

// Router returns the router for route and middleware registration.
func (a *App) Router() *router.Router {
	return a.router
}

// Logger returns the application logger.
func (a *App) Logger() log.Logger {
	return a.logger
}

// Monitor returns the request metrics monitor.
func (a *App) Monitor() *observability.Monitor {
	return a.monitor
}

// Run starts the server and blocks until the listener fails or a
// shutdown signal arrives.
func (a *App) Run() error {
	go a.awaitSignal()

	level.Info(a.logger).Log("event", "starting", "addr", a.cfg.Addr,
		"env", a.cfg.Env, "workers", a.cfg.Workers)

	return a.server.ListenAndServe(a.cfg.Addr)
}

// Shutdown stops the server gracefully: the listener closes first, then
// queued jobs drain and the workers exit.
func (a *App) Shutdown() error {
	return a.server.Shutdown()
}

func (a *App) awaitSignal() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	level.Info(a.logger).Log("event", "signal received", "signal", sig.String())

	if err := a.server.Shutdown(); err != nil {
		level.Error(a.logger).Log("event", "shutdown failed", "err", err)
	}
}
