package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MeKo-Tech/hullrect/internal/config"
	"github.com/MeKo-Tech/hullrect/internal/pipeline"
	"github.com/MeKo-Tech/hullrect/internal/render"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	pipeline     *pipeline.Pipeline
	corsOrigin   string
	maxBodyBytes int64
	maxPoints    int
	timeout      time.Duration
	render       render.Options
	rateLimiter  *RateLimiter
}

// Config holds server configuration.
type Config struct {
	Host            string
	Port            int
	CORSOrigin      string
	MaxPoints       int
	MaxBodyMB       int64
	TimeoutSec      int
	ShutdownTimeout int
	PipelineConfig  pipeline.Config
	RenderOptions   render.Options
	RateLimit       *RateLimitConfig // nil disables rate limiting
}

// RateLimitConfig holds per-client limits. Zero disables a single limit.
type RateLimitConfig struct {
	RequestsPerMinute int
	RequestsPerHour   int
	MaxRequestsPerDay int
	MaxDataPerDay     int64 // bytes
}

// ConfigFromSettings builds a server Config from the loaded application
// configuration.
func ConfigFromSettings(c *config.Config) (Config, error) {
	ro, err := c.ToRenderOptions()
	if err != nil {
		return Config{}, fmt.Errorf("render options: %w", err)
	}
	cfg := Config{
		Host:            c.Server.Host,
		Port:            c.Server.Port,
		CORSOrigin:      c.Server.CORSOrigin,
		MaxPoints:       c.Server.MaxPoints,
		MaxBodyMB:       int64(c.Server.MaxBodyMB),
		TimeoutSec:      c.Server.TimeoutSec,
		ShutdownTimeout: c.Server.ShutdownTimeout,
		PipelineConfig:  c.ToPipelineConfig(),
		RenderOptions:   ro,
	}
	if rl := c.Server.RateLimit; rl.Enabled {
		cfg.RateLimit = &RateLimitConfig{
			RequestsPerMinute: rl.RequestsPerMinute,
			RequestsPerHour:   rl.RequestsPerHour,
			MaxRequestsPerDay: rl.MaxRequestsPerDay,
			MaxDataPerDay:     int64(rl.MaxDataPerDayMB) * 1024 * 1024,
		}
	}
	return cfg, nil
}

// Address returns host:port.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version,omitempty"`
	GitCommit string `json:"git_commit,omitempty"`
	Time      string `json:"time"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

// HullResponse is returned by POST /hull.
type HullResponse struct {
	Success bool                 `json:"success"`
	Hull    *pipeline.HullResult `json:"hull"`
}

// ContainsResponse is returned by POST /contains.
type ContainsResponse struct {
	Success     bool                         `json:"success"`
	Hull        *pipeline.HullResult         `json:"hull"`
	Containment []pipeline.ContainmentResult `json:"containment"`
	InsideCount int                          `json:"inside_count"`
}

// RectangleResponse is returned by POST /rectangle. A failed solve still
// carries the hull it was attempted on.
type RectangleResponse struct {
	Success   bool                      `json:"success"`
	Hull      *pipeline.HullResult      `json:"hull,omitempty"`
	Rectangle *pipeline.RectangleResult `json:"rectangle,omitempty"`
	Error     string                    `json:"error,omitempty"`
	Code      string                    `json:"code,omitempty"`
}

// NewServer creates a server with its own pipeline.
func NewServer(config Config) (*Server, error) {
	if config.MaxPoints <= 0 {
		return nil, fmt.Errorf("invalid max points: %d", config.MaxPoints)
	}
	if config.MaxBodyMB <= 0 {
		return nil, fmt.Errorf("invalid max body size: %d", config.MaxBodyMB)
	}
	if config.TimeoutSec <= 0 {
		return nil, fmt.Errorf("invalid timeout: %d", config.TimeoutSec)
	}
	if err := config.RenderOptions.Validate(); err != nil {
		return nil, fmt.Errorf("invalid render options: %w", err)
	}

	pl, err := pipeline.NewBuilder().WithConfig(config.PipelineConfig).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}

	s := &Server{
		pipeline:     pl,
		corsOrigin:   config.CORSOrigin,
		maxBodyBytes: config.MaxBodyMB * 1024 * 1024,
		maxPoints:    config.MaxPoints,
		timeout:      time.Duration(config.TimeoutSec) * time.Second,
		render:       config.RenderOptions,
	}
	if rl := config.RateLimit; rl != nil {
		s.rateLimiter = NewRateLimiter(rl.RequestsPerMinute, rl.RequestsPerHour, rl.MaxRequestsPerDay, rl.MaxDataPerDay)
	}
	return s, nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/hull", s.corsMiddleware(s.rateLimitMiddleware(s.hullHandler)))
	mux.HandleFunc("/contains", s.corsMiddleware(s.rateLimitMiddleware(s.containsHandler)))
	mux.HandleFunc("/rectangle", s.corsMiddleware(s.rateLimitMiddleware(s.rectangleHandler)))
	mux.HandleFunc("/render", s.corsMiddleware(s.rateLimitMiddleware(s.renderHandler)))
	mux.HandleFunc("/ws", s.rateLimitMiddleware(s.webSocketHandler))
	mux.Handle("/metrics", promhttp.Handler())
}

// Handler returns the routed handler of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return mux
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
// within shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.timeout,
	}

	if s.rateLimiter != nil {
		go s.pruneClients(ctx, 10*time.Minute, 24*time.Hour)
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting hullrect server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down server", "timeout", shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	slog.Info("Server stopped")
	return nil
}

// pruneClients drops idle rate limiter entries every interval until ctx ends.
func (s *Server) pruneClients(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.rateLimiter.Prune(maxIdle); n > 0 {
				slog.Debug("Pruned idle rate limit clients", "count", n)
			}
		}
	}
}
