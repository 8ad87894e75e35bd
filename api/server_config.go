package api

import (
	"log/slog"
	"time"
)

// Defaults applied by HTTPServerConfig.ApplyDefaults.
const (
	DefaultGracefulShutdownDuration = 30 * time.Second
	DefaultReadHeaderTimeout        = 10 * time.Second
	DefaultMaxHeaderBytes           = 64 << 10
)

// HTTPServerConfig configures the registry API server.
type HTTPServerConfig struct {
	// ListenAddr serves the registry API and health endpoints.
	ListenAddr string

	// MetricsAddr serves Prometheus metrics. When empty no metrics listener
	// is started, but collectors are still updated.
	MetricsAddr string

	// EnablePprof mounts net/http/pprof under /debug.
	EnablePprof bool

	Log *slog.Logger

	// DrainDuration is how long Drain keeps serving after /readyz starts
	// failing.
	DrainDuration time.Duration

	// GracefulShutdownDuration bounds how long Shutdown waits for in-flight
	// requests. Open event streams are cut when it expires.
	GracefulShutdownDuration time.Duration

	// ReadTimeout covers reading a whole request, uploads included.
	ReadTimeout time.Duration

	// ReadHeaderTimeout covers reading request headers only.
	ReadHeaderTimeout time.Duration

	// WriteTimeout applies to request/response routes. The event stream
	// clears its own write deadline.
	WriteTimeout time.Duration

	MaxHeaderBytes int
}

// ApplyDefaults fills zero durations and limits and a missing logger.
func (cfg *HTTPServerConfig) ApplyDefaults() {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.GracefulShutdownDuration <= 0 {
		cfg.GracefulShutdownDuration = DefaultGracefulShutdownDuration
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = DefaultReadHeaderTimeout
	}
	if cfg.MaxHeaderBytes <= 0 {
		cfg.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
}
