// Package config loads application configuration from flags, an optional
// YAML file, and environment variable overrides, in that order of
// increasing precedence for the file and environment.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/quickserv/quickserv/core/pools"
)

// EnvPrefix is the prefix for environment variable overrides,
// e.g. QUICKSERV_ADDR or QUICKSERV_WORKERS.
const EnvPrefix = "QUICKSERV_"

// Config holds all application configuration.
type Config struct {
	// Addr is the listen address, host:port.
	Addr string `yaml:"addr"`
	// Workers is the fixed worker pool size.
	Workers int `yaml:"workers"`
	// QueueCapacity bounds the shared job queue.
	QueueCapacity int `yaml:"queue_capacity"`
	// Backpressure is the full-queue policy: block, reject or drop.
	Backpressure string `yaml:"backpressure"`
	// MaxConns caps concurrently accepted connections; 0 means no cap.
	MaxConns int `yaml:"max_conns"`
	// TCPNoDelay disables Nagle's algorithm on accepted sockets.
	TCPNoDelay bool `yaml:"tcp_nodelay"`
	// LogLevel is one of debug, info, warn, error, none.
	LogLevel string `yaml:"log_level"`
	// Env names the runtime environment (development/production).
	Env string `yaml:"env"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Addr:          "127.0.0.1:8080",
		Workers:       4,
		QueueCapacity: 1024,
		Backpressure:  "block",
		MaxConns:      0,
		TCPNoDelay:    true,
		LogLevel:      "info",
		Env:           "development",
	}
}

// New loads configuration from command-line flags, an optional YAML
// config file (-config), and environment overrides.
func New() *Config {
	cfg, err := FromArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return cfg
}

// FromArgs parses configuration from the given argument list.
func FromArgs(args []string) (*Config, error) {
	cfg := Default()

	fs := flag.NewFlagSet("quickserv", flag.ContinueOnError)
	file := fs.String("config", "", "YAML config file path")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "worker pool size")
	fs.IntVar(&cfg.QueueCapacity, "queue-capacity", cfg.QueueCapacity, "job queue capacity")
	fs.StringVar(&cfg.Backpressure, "backpressure", cfg.Backpressure, "full-queue policy (block/reject/drop)")
	fs.IntVar(&cfg.MaxConns, "max-conns", cfg.MaxConns, "max concurrent connections (0 = unlimited)")
	fs.BoolVar(&cfg.TCPNoDelay, "tcp-nodelay", cfg.TCPNoDelay, "set TCP_NODELAY on accepted sockets")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug/info/warn/error/none)")
	fs.StringVar(&cfg.Env, "env", cfg.Env, "environment (development/production)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *file != "" {
		if err := cfg.loadFile(*file); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads a YAML config file over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// applyEnv overrides fields from QUICKSERV_* environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvPrefix + "ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv(EnvPrefix + "WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
	if v := os.Getenv(EnvPrefix + "QUEUE_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.QueueCapacity = n
		}
	}
	if v := os.Getenv(EnvPrefix + "BACKPRESSURE"); v != "" {
		c.Backpressure = v
	}
	if v := os.Getenv(EnvPrefix + "MAX_CONNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxConns = n
		}
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvPrefix + "ENV"); v != "" {
		c.Env = v
	}
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr must not be empty")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.QueueCapacity <= 0 {
		return fmt.Errorf("queue_capacity must be positive, got %d", c.QueueCapacity)
	}
	if c.MaxConns < 0 {
		return fmt.Errorf("max_conns must not be negative, got %d", c.MaxConns)
	}
	switch c.Backpressure {
	case "block", "reject", "drop":
	default:
		return fmt.Errorf("backpressure must be block, reject or drop, got %q", c.Backpressure)
	}
	return nil
}

// Policy maps the configured backpressure name to the pool policy.
func (c *Config) Policy() pools.Backpressure {
	switch c.Backpressure {
	case "reject":
		return pools.Reject
	case "drop":
		return pools.Drop
	default:
		return pools.Block
	}
}
