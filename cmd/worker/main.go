// Command worker starts the batch enrichment workers.
//
// Each worker instance consumes batch messages from Kafka, applies the
// configured enrichment strategy to every contact in the batch, persists the
// enriched records to PostgreSQL, and increments the request's completion
// counter in Redis exactly once per batch. Multiple consumer instances run
// in one consumer group, so batches fan out across them.
//
// Usage:
//
//	go run ./cmd/worker [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/enrichkit/contact-pipeline/internal/enrich"
	"github.com/enrichkit/contact-pipeline/internal/records"
	"github.com/enrichkit/contact-pipeline/internal/tracking"
	"github.com/enrichkit/contact-pipeline/internal/worker"
	"github.com/enrichkit/contact-pipeline/pkg/config"
	"github.com/enrichkit/contact-pipeline/pkg/kafka"
	"github.com/enrichkit/contact-pipeline/pkg/logger"
	"github.com/enrichkit/contact-pipeline/pkg/metrics"
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
	slog.Info("starting batch workers",
		"concurrency", cfg.Pipeline.WorkerConcurrency,
		"strategy", cfg.Pipeline.DefaultStrategy,
	)

	strategy, err := enrich.DefaultRegistry().Get(cfg.Pipeline.DefaultStrategy)
	if err != nil {
		slog.Error("failed to resolve enrichment strategy", "error", err)
		os.Exit(1)
	}

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to postgres")

	redisClient, err := redis.NewClient(cfg.Redis)
	if err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.Info("connected to redis")

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	bp := worker.NewBatchProcessor(
		strategy,
		records.NewPostgresStore(db),
		tracking.NewRedisStore(redisClient),
		m,
	)
	handler := worker.Handler(bp)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("workers consuming from kafka",
		"topic", cfg.Kafka.Topics.ContactBatches,
		"group", cfg.Kafka.ConsumerGroup,
	)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Pipeline.WorkerConcurrency; i++ {
		consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.ContactBatches, handler)
		g.Go(func() error {
			return consumer.Start(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		slog.Error("consumer error", "error", err)
		os.Exit(1)
	}
	slog.Info("batch workers stopped")
}
