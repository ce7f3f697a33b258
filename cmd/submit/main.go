// Command submit starts the contact submission HTTP service.
//
// The service accepts contact lists via POST /api/v1/requests, splits them
// into fixed-size batches, initializes the per-request control record in
// Redis, and publishes one Kafka message per batch for the workers. It
// provides a health endpoint at GET /health.
//
// Usage:
//
//	go run ./cmd/submit [-config configs/development.yaml]
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

	"github.com/enrichkit/contact-pipeline/internal/submission/handler"
	"github.com/enrichkit/contact-pipeline/internal/submission/processor"
	"github.com/enrichkit/contact-pipeline/internal/tracking"
	"github.com/enrichkit/contact-pipeline/pkg/config"
	"github.com/enrichkit/contact-pipeline/pkg/kafka"
	"github.com/enrichkit/contact-pipeline/pkg/logger"
	"github.com/enrichkit/contact-pipeline/pkg/metrics"
	"github.com/enrichkit/contact-pipeline/pkg/middleware"
	"github.com/enrichkit/contact-pipeline/pkg/redis"
)

// main loads configuration, connects to Redis, creates the Kafka producer,
// wires up the submission handler, and starts the HTTP server. Graceful
// shutdown is triggered by SIGINT/SIGTERM.
func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting submission service", "port", cfg.Server.Port, "batch_size", cfg.Pipeline.BatchSize)

	redisClient, err := redis.NewClient(cfg.Redis)
	if err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.Info("connected to redis")

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.ContactBatches)
	defer producer.Close()
	slog.Info("kafka producer initialized", "topic", cfg.Kafka.Topics.ContactBatches)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	tracker := tracking.NewRedisStore(redisClient)
	proc := processor.New(producer, tracker, cfg.Pipeline.BatchSize, m)
	h := handler.New(proc)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/requests", h.Submit)
	mux.HandleFunc("GET /health", h.Health)

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
	slog.Info("submission service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("submission service stopped")
}
