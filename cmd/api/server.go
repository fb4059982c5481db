// Package api assembles and runs the pocket-ledger HTTP server: the import
// pipeline endpoints, the in-process queue consumer for pdf imports, the
// stale-import sweep and the Prometheus endpoint.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/auth"
	"github.com/FACorreiaa/pocket-ledger/pkg/config"
	"github.com/FACorreiaa/pocket-ledger/pkg/middleware"
)

// Run boots the server and blocks until SIGINT or SIGTERM.
func Run() error {
	// .env is optional outside local development
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := InitDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Cleanup()

	// Queued pdf imports are consumed in-process.
	if err := deps.Queue.Start(ctx, deps.ImportConsumer.Handle); err != nil {
		return fmt.Errorf("failed to start queue consumer: %w", err)
	}

	if err := deps.Scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      buildHandler(cfg, deps, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var metricsServer *http.Server
	if cfg.Observability.MetricsEnabled {
		metricsServer = startMetricsServer(cfg.Observability.MetricsPort, deps, logger)
	}

	go func() {
		logger.Info("api server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Worker.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	if metricsServer != nil {
		_ = metricsServer.Shutdown(shutdownCtx)
	}

	select {
	case <-deps.Scheduler.Stop().Done():
	case <-shutdownCtx.Done():
	}

	if err := deps.Queue.Stop(shutdownCtx); err != nil {
		logger.Warn("queue did not drain before deadline", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// buildHandler wires routing and the middleware chain. The health endpoint
// stays outside auth; everything under /v1 requires a bearer token.
func buildHandler(cfg *config.Config, deps *Dependencies, logger *slog.Logger) http.Handler {
	apiMux := http.NewServeMux()
	deps.ImportHandler.Register(apiMux)
	deps.BalanceHandler.Register(apiMux)

	root := http.NewServeMux()
	root.Handle("/v1/", auth.Middleware(deps.TokenManager, logger)(apiMux))
	root.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	})

	limited := middleware.RateLimit(
		rate.Limit(cfg.Server.RateLimitPerSecond),
		cfg.Server.RateLimitBurst,
		clientIP,
	)

	return middleware.Recovery(logger)(
		middleware.RequestID(
			middleware.Logging(logger)(
				limited(
					c.Handler(root),
				),
			),
		),
	)
}

// startMetricsServer serves /metrics on its own port so the scrape target
// never competes with uploads.
func startMetricsServer(port int, deps *Dependencies, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", deps.Metrics.Handler())

	server := &http.Server{
		Addr:        fmt.Sprintf(":%d", port),
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("metrics server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	return server
}

// clientIP keys the global rate limiter by remote host.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
