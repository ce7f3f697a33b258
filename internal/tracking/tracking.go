// Package tracking implements the per-request control record: how many
// batches a request was split into and how many a worker has finished.
// Completion is always derived from the two counters, never stored.
package tracking

import "context"

// Control is the per-request batch counter pair.
type Control struct {
	ExpectedBatches  int
	ProcessedBatches int
}

// Completed reports whether every expected batch has been processed. A
// request split into zero batches is complete from the moment it is created.
func (c Control) Completed() bool {
	return c.ProcessedBatches >= c.ExpectedBatches
}

// Store persists control records. Implementations must make
// MarkBatchProcessed atomic with respect to concurrent workers: the
// idempotency marker and the counter increment may never diverge.
type Store interface {
	// Init creates the control record with the expected batch count and a
	// processed count of zero. It must complete before any batch for the
	// request becomes visible to workers.
	Init(ctx context.Context, requestID string, expectedBatches int) error

	// MarkBatchProcessed records that the given batch finished. It returns
	// true if the counter was incremented, false if this batch was already
	// counted (a redelivery).
	MarkBatchProcessed(ctx context.Context, requestID string, batchID int) (bool, error)

	// Get returns the control record, or errors.ErrRequestNotFound if the
	// request id is unknown.
	Get(ctx context.Context, requestID string) (Control, error)
}
