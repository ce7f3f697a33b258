// Package worker consumes batch messages from the queue, enriches every
// contact in the batch, persists the results, and counts the batch toward
// request completion exactly once.
package worker

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/enrichkit/contact-pipeline/internal/contact"
	"github.com/enrichkit/contact-pipeline/internal/enrich"
	"github.com/enrichkit/contact-pipeline/internal/records"
	"github.com/enrichkit/contact-pipeline/internal/submission"
	"github.com/enrichkit/contact-pipeline/internal/tracking"
	"github.com/enrichkit/contact-pipeline/pkg/metrics"
)

// BatchProcessor handles one delivered batch end to end. Delivery is
// at-least-once, so every step tolerates reprocessing: persistence upserts
// by (request_id, record_id) and the completion increment is guarded by a
// per-batch idempotency marker.
type BatchProcessor struct {
	strategy enrich.Strategy
	store    records.Store
	tracker  tracking.Store
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewBatchProcessor creates a BatchProcessor. metrics may be nil in tests.
func NewBatchProcessor(strategy enrich.Strategy, store records.Store, tracker tracking.Store, m *metrics.Metrics) *BatchProcessor {
	return &BatchProcessor{
		strategy: strategy,
		store:    store,
		tracker:  tracker,
		metrics:  m,
		logger:   slog.Default().With("component", "batch-processor"),
	}
}

// ProcessBatch enriches every record in the batch, persists them in one
// transaction, and marks the batch processed. Any failure aborts the whole
// batch before the counter moves, leaving the message uncommitted for
// redelivery.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, msg submission.BatchMessage) error {
	start := time.Now()

	enriched := make([]records.Enriched, 0, len(msg.Batch))
	for i, rec := range msg.Batch {
		out, err := bp.strategy.Enrich(rec)
		if err != nil {
			bp.countFailure("enrich_failed")
			bp.countEnrichFailure(err)
			return fmt.Errorf("enriching record %d of batch %d: %w", i, msg.BatchID, err)
		}
		enriched = append(enriched, records.Enriched{
			RequestID: msg.RequestID,
			RecordID:  recordID(msg.RequestID, msg.BatchID, i, rec),
			BatchID:   msg.BatchID,
			Fields:    out,
		})
	}

	if err := bp.store.SaveAll(ctx, enriched); err != nil {
		bp.countFailure("persist_failed")
		return fmt.Errorf("persisting batch %d: %w", msg.BatchID, err)
	}

	counted, err := bp.tracker.MarkBatchProcessed(ctx, msg.RequestID, msg.BatchID)
	if err != nil {
		bp.countFailure("track_failed")
		return fmt.Errorf("marking batch %d processed: %w", msg.BatchID, err)
	}
	if !counted {
		if bp.metrics != nil {
			bp.metrics.DuplicateBatchesTotal.Inc()
		}
		bp.logger.Info("redelivered batch, completion count unchanged",
			"request_id", msg.RequestID,
			"batch_id", msg.BatchID,
		)
	}

	if bp.metrics != nil {
		bp.metrics.BatchesProcessedTotal.WithLabelValues("ok").Inc()
		bp.metrics.RecordsEnrichedTotal.Add(float64(len(enriched)))
		bp.metrics.BatchProcessDuration.Observe(time.Since(start).Seconds())
	}
	bp.logger.Info("batch processed",
		"request_id", msg.RequestID,
		"batch_id", msg.BatchID,
		"records", len(enriched),
		"counted", counted,
	)
	return nil
}

func (bp *BatchProcessor) countFailure(outcome string) {
	if bp.metrics != nil {
		bp.metrics.BatchesProcessedTotal.WithLabelValues(outcome).Inc()
	}
}

func (bp *BatchProcessor) countEnrichFailure(err error) {
	if bp.metrics == nil {
		return
	}
	var missing *enrich.MissingFieldError
	if errors.As(err, &missing) {
		bp.metrics.EnrichFailuresTotal.WithLabelValues(missing.Field).Inc()
		return
	}
	bp.metrics.EnrichFailuresTotal.WithLabelValues("other").Inc()
}

// recordID picks the storage key for one record: the record's own id field
// when it has one, otherwise a digest of (request, batch, position) so that
// redelivered batches regenerate the same keys.
func recordID(requestID string, batchID, index int, rec contact.Record) string {
	if id, ok := rec.StringField("id"); ok {
		return id
	}
	sum := sha256.Sum256(fmt.Appendf(nil, "%s:%d:%d", requestID, batchID, index))
	return hex.EncodeToString(sum[:12])
}
