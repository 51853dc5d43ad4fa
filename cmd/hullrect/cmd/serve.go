package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/hullrect/internal/config"
	"github.com/MeKo-Tech/hullrect/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start an HTTP server exposing the hull, containment and rectangle
operations.

Endpoints:
  GET  /health      service status and version
  POST /hull        convex hull (?steps=true for the scan stack)
  POST /contains    containment queries
  POST /rectangle   maximum inscribed rectangle (?orientation=t)
  POST /render      PNG or JPEG of the scene (?format=png|jpeg)
  GET  /ws          WebSocket streaming of hull steps and solves
  GET  /metrics     Prometheus metrics

Request bodies are point sets in JSON (default), YAML or text, chosen by
Content-Type.

Examples:
  hullrect serve
  hullrect serve --host 0.0.0.0 --port 9000
  hullrect serve --rate-limit --requests-per-minute 60`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("host", "H", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().String("cors-origin", "*", "CORS allowed origins")
	serveCmd.Flags().Int("max-points", 100000, "maximum points plus queries per request")
	serveCmd.Flags().Int("max-body-mb", 16, "maximum request body size in MB")
	serveCmd.Flags().Int("timeout", 30, "request timeout in seconds")
	serveCmd.Flags().Int("shutdown-timeout", 10, "shutdown timeout in seconds")
	serveCmd.Flags().String("algorithm", "", "hull algorithm: graham or monotone (default from config)")
	serveCmd.Flags().Bool("flip-y", false, "treat request points as screen coordinates")

	// Rate limiting
	serveCmd.Flags().Bool("rate-limit", false, "enable per-client rate limiting")
	serveCmd.Flags().Int("requests-per-minute", 120, "requests per minute per client")
	serveCmd.Flags().Int("requests-per-hour", 3000, "requests per hour per client")
	serveCmd.Flags().Int("max-requests-per-day", 20000, "requests per day per client (0 = unlimited)")
	serveCmd.Flags().Int("max-data-per-day-mb", 512, "upload volume per day per client in MB (0 = unlimited)")
}

// applyServeFlags copies explicitly set flags onto the server section.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) error {
	s := &cfg.Server
	intFlags := []struct {
		name string
		dst  *int
	}{
		{"port", &s.Port},
		{"max-points", &s.MaxPoints},
		{"max-body-mb", &s.MaxBodyMB},
		{"timeout", &s.TimeoutSec},
		{"shutdown-timeout", &s.ShutdownTimeout},
		{"requests-per-minute", &s.RateLimit.RequestsPerMinute},
		{"requests-per-hour", &s.RateLimit.RequestsPerHour},
		{"max-requests-per-day", &s.RateLimit.MaxRequestsPerDay},
		{"max-data-per-day-mb", &s.RateLimit.MaxDataPerDayMB},
	}
	for _, f := range intFlags {
		if cmd.Flags().Changed(f.name) {
			*f.dst, _ = cmd.Flags().GetInt(f.name)
		}
	}
	if cmd.Flags().Changed("host") {
		s.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("cors-origin") {
		s.CORSOrigin, _ = cmd.Flags().GetString("cors-origin")
	}
	if cmd.Flags().Changed("rate-limit") {
		s.RateLimit.Enabled, _ = cmd.Flags().GetBool("rate-limit")
	}
	if cmd.Flags().Changed("algorithm") {
		cfg.Hull.Algorithm, _ = cmd.Flags().GetString("algorithm")
	}
	if cmd.Flags().Changed("flip-y") {
		cfg.Hull.FlipY, _ = cmd.Flags().GetBool("flip-y")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid server configuration: %w", err)
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := *GetConfig()
	if err := applyServeFlags(cmd, &cfg); err != nil {
		return err
	}

	serverConfig, err := server.ConfigFromSettings(&cfg)
	if err != nil {
		return err
	}
	srv, err := server.NewServer(serverConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	slog.Info("Server configuration",
		"address", serverConfig.Address(),
		"max_points", serverConfig.MaxPoints,
		"rate_limit", serverConfig.RateLimit != nil)

	return srv.Run(ctx, serverConfig.Address(), time.Duration(serverConfig.ShutdownTimeout)*time.Second)
}
