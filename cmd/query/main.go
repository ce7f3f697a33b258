// Command query starts the completion-check and aggregation HTTP service.
//
// GET  /api/v1/requests/{id}/status     reports completed/incomplete.
// POST /api/v1/requests/{id}/artifacts  builds the aggregated JSON artifact
// and returns a time-limited download URL.
//
// Liveness and readiness probes are served at /health/live and
// /health/ready; readiness checks Redis, PostgreSQL, and the artifact
// bucket.
//
// Usage:
//
//	go run ./cmd/query [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/enrichkit/contact-pipeline/internal/aggregate"
	"github.com/enrichkit/contact-pipeline/internal/query/handler"
	"github.com/enrichkit/contact-pipeline/internal/records"
	"github.com/enrichkit/contact-pipeline/internal/tracking"
	"github.com/enrichkit/contact-pipeline/pkg/config"
	"github.com/enrichkit/contact-pipeline/pkg/health"
	"github.com/enrichkit/contact-pipeline/pkg/logger"
	"github.com/enrichkit/contact-pipeline/pkg/metrics"
	"github.com/enrichkit/contact-pipeline/pkg/middleware"
	"github.com/enrichkit/contact-pipeline/pkg/objectstore"
	"github.com/enrichkit/contact-pipeline/pkg/postgres"
	"github.com/enrichkit/contact-pipeline/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting query service", "port", cfg.Server.Port)

	redisClient, err := redis.NewClient(cfg.Redis)
	if err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	store, err := objectstore.NewClient(cfg.ObjectStore)
	if err != nil {
		slog.Error("failed to create object store client", "error", err)
		os.Exit(1)
	}
	if err := store.EnsureBucket(context.Background()); err != nil {
		slog.Error("failed to ensure artifact bucket", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to redis, postgres, and object store")

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	tracker := tracking.NewRedisStore(redisClient)
	aggregator := aggregate.New(records.NewPostgresStore(db), store, cfg.ObjectStore.PresignTTL, m)
	h := handler.New(tracker, aggregator)

	checker := health.NewChecker(2 * time.Second)
	checker.Register("redis", redisClient.Ping)
	checker.Register("postgres", db.DB.PingContext)
	checker.Register("objectstore", store.Ping)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/requests/{id}/status", h.Status)
	mux.HandleFunc("POST /api/v1/requests/{id}/artifacts", h.Aggregate)
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var root http.Handler = mux
	root = middleware.Timeout(cfg.Server.RequestTimeout)(root)
	if m != nil {
		root = middleware.Metrics(m)(root)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      root,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()
	slog.Info("query service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("query service stopped")
}
