// Package processor orchestrates request intake: split the contact list,
// create the control record, then publish one queue message per batch. The
// control record is always written before the first message becomes visible,
// so a worker can never observe a request it knows nothing about.
package processor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/enrichkit/contact-pipeline/internal/submission"
	"github.com/enrichkit/contact-pipeline/internal/submission/splitter"
	"github.com/enrichkit/contact-pipeline/internal/tracking"
	apperrors "github.com/enrichkit/contact-pipeline/pkg/errors"
	"github.com/enrichkit/contact-pipeline/pkg/kafka"
	"github.com/enrichkit/contact-pipeline/pkg/metrics"
)

// Enqueuer publishes one batch message to the queue.
type Enqueuer interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// Processor splits submissions into batches and queues them.
type Processor struct {
	queue     Enqueuer
	tracker   tracking.Store
	batchSize int
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New creates a Processor. metrics may be nil in tests.
func New(queue Enqueuer, tracker tracking.Store, batchSize int, m *metrics.Metrics) *Processor {
	return &Processor{
		queue:     queue,
		tracker:   tracker,
		batchSize: batchSize,
		metrics:   m,
		logger:    slog.Default().With("component", "request-processor"),
	}
}

// Process accepts a submission, initializes its control record, and enqueues
// every batch. A request with zero contacts gets a control record with zero
// expected batches and no messages; it is complete from the start.
func (p *Processor) Process(ctx context.Context, req submission.SubmitRequest) (submission.SubmitResponse, error) {
	if req.Contacts == nil {
		return submission.SubmitResponse{}, apperrors.New(apperrors.ErrInvalidInput, 400, "missing contacts field")
	}

	requestID := uuid.NewString()
	totalBatches := splitter.Count(len(req.Contacts), p.batchSize)

	if err := p.tracker.Init(ctx, requestID, totalBatches); err != nil {
		return submission.SubmitResponse{}, fmt.Errorf("initializing control record: %w", err)
	}

	for batchID, batch := range splitter.Split(req.Contacts, p.batchSize) {
		msg := submission.BatchMessage{
			RequestID: requestID,
			BatchID:   batchID,
			Batch:     batch,
		}
		if err := p.queue.Publish(ctx, kafka.Event{Key: requestID, Value: msg}); err != nil {
			return submission.SubmitResponse{}, fmt.Errorf("enqueuing batch %d of %d: %w", batchID, totalBatches, err)
		}
		if p.metrics != nil {
			p.metrics.BatchesEnqueuedTotal.Inc()
		}
	}

	if p.metrics != nil {
		p.metrics.RequestsSubmittedTotal.Inc()
	}
	p.logger.Info("request queued",
		"request_id", requestID,
		"contacts", len(req.Contacts),
		"total_batches", totalBatches,
	)
	return submission.SubmitResponse{
		RequestID:    requestID,
		TotalBatches: totalBatches,
	}, nil
}
