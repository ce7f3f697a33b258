package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() err = %v", err)
	}
	if cfg.Pipeline.BatchSize != 100 {
		t.Errorf("default batch size = %d, want 100", cfg.Pipeline.BatchSize)
	}
	if cfg.Pipeline.DefaultStrategy != "professional-email" {
		t.Errorf("default strategy = %s", cfg.Pipeline.DefaultStrategy)
	}
	if cfg.ObjectStore.PresignTTL != time.Hour {
		t.Errorf("default presign TTL = %v, want 1h", cfg.ObjectStore.PresignTTL)
	}
	if cfg.Kafka.Topics.ContactBatches != "contact-batches" {
		t.Errorf("default topic = %s", cfg.Kafka.Topics.ContactBatches)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
pipeline:
  batchSize: 25
kafka:
  brokers:
    - kafka-1:9092
    - kafka-2:9092
objectStore:
  presignTTL: 30m
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() err = %v", err)
	}
	if cfg.Pipeline.BatchSize != 25 {
		t.Errorf("batch size = %d, want 25", cfg.Pipeline.BatchSize)
	}
	if len(cfg.Kafka.Brokers) != 2 {
		t.Errorf("brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.ObjectStore.PresignTTL != 30*time.Minute {
		t.Errorf("presign TTL = %v, want 30m", cfg.ObjectStore.PresignTTL)
	}
	// Untouched sections keep their defaults.
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("redis addr = %s", cfg.Redis.Addr)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CE_PIPELINE_BATCH_SIZE", "7")
	t.Setenv("CE_KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("CE_REDIS_ADDR", "redis.internal:6379")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() err = %v", err)
	}
	if cfg.Pipeline.BatchSize != 7 {
		t.Errorf("batch size = %d, want 7", cfg.Pipeline.BatchSize)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "b:9092" {
		t.Errorf("brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.Redis.Addr != "redis.internal:6379" {
		t.Errorf("redis addr = %s", cfg.Redis.Addr)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero batch size", func(c *Config) { c.Pipeline.BatchSize = 0 }},
		{"negative concurrency", func(c *Config) { c.Pipeline.WorkerConcurrency = -1 }},
		{"zero presign ttl", func(c *Config) { c.ObjectStore.PresignTTL = 0 }},
		{"endpoint with scheme", func(c *Config) { c.ObjectStore.Endpoint = "http://localhost:9000" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}
