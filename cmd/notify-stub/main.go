// Command notify-stub serves a local notify API from a YAML fixtures file so
// the notifier can be exercised without the hosted service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"notifier/internal/api"
	"notifier/internal/config"
	"notifier/internal/logger"
	"notifier/internal/observability"
	"notifier/internal/ratelimit"
	"notifier/internal/version"
	"os"
	"os/signal"
	"syscall"
	"time"
)

var (
	configFile   = flag.String("config", "", "Path to configuration file")
	fixturesFile = flag.String("fixtures", "", "Path to fixtures file (overrides stub.fixtures_path)")
	port         = flag.Int("port", 0, "Listen port (overrides stub.port)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *fixturesFile != "" {
		cfg.Stub.FixturesPath = *fixturesFile
	}
	if *port != 0 {
		cfg.Stub.Port = *port
	}

	ver := version.GetInfo()

	log, closer, err := logger.Setup(cfg.Logging, ver)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}
	slog.SetDefault(logger.Component(log, "notify-stub"))

	otelProvider, err := observability.Setup(cfg, ver)
	if err != nil {
		slog.Error("Failed to initialize observability", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelProvider.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown observability", "error", err)
		}
	}()

	fixtures, err := api.LoadFixtures(cfg.Stub.FixturesPath)
	if err != nil {
		slog.Error("Failed to load fixtures", "path", cfg.Stub.FixturesPath, "error", err)
		os.Exit(1)
	}

	handlers := api.NewHandlers(fixtures, ver.Version)

	routeOpts := []api.RouteOption{}
	if cfg.Observability.Tracing.Enabled {
		routeOpts = append(routeOpts, api.WithOTelMiddleware(cfg.Observability.ServiceName))
	}

	if cfg.Stub.RequireAuth {
		if cfg.Client.AppID == "" || cfg.Client.APIKey == "" {
			slog.Error("stub.require_auth needs client.app_id and client.api_key")
			os.Exit(1)
		}
		routeOpts = append(routeOpts, api.WithAuth(cfg.Client.AppID, cfg.Client.APIKey))
	}

	if rl := cfg.Stub.RateLimit; rl.Enabled {
		anonymous := ratelimit.NewMemoryLimiter(rl.AnonymousPerMin, rl.Burst, rl.CleanupInterval)
		devices := ratelimit.NewMemoryLimiter(rl.RequestsPerMinute, rl.Burst, rl.CleanupInterval)
		defer anonymous.Close()
		defer devices.Close()

		routeOpts = append(routeOpts, api.WithRateLimiter(ratelimit.Middleware(anonymous, devices)))
	}

	router := api.SetupRoutes(handlers, routeOpts...)

	stopMetrics := otelProvider.Serve(slog.Default())

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Stub.Host, cfg.Stub.Port),
		Handler:      router,
		ReadTimeout:  cfg.Stub.ReadTimeout,
		WriteTimeout: cfg.Stub.WriteTimeout,
	}

	go func() {
		slog.Info("Starting stub notify API", "addr", server.Addr, "fixtures", cfg.Stub.FixturesPath,
			"auth", cfg.Stub.RequireAuth, "rate_limit", cfg.Stub.RateLimit.Enabled)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server", "views_recorded", len(handlers.Views()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := stopMetrics(ctx); err != nil {
		slog.Error("Metrics server forced to shutdown", "error", err)
	}

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server shutdown complete")
}
