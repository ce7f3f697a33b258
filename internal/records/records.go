// Package records persists enriched contacts. Each row is keyed by
// (request_id, record_id) so redelivered batches overwrite their own rows
// instead of duplicating them, and the request id doubles as the join key
// for aggregation.
package records

import (
	"context"

	"github.com/enrichkit/contact-pipeline/internal/contact"
)

// Enriched is one enriched contact as stored.
type Enriched struct {
	RequestID string         `json:"request_id"`
	RecordID  string         `json:"record_id"`
	BatchID   int            `json:"batch_id"`
	Fields    contact.Record `json:"fields"`
}

// Store persists and retrieves enriched contacts.
type Store interface {
	// SaveAll writes every record in one transaction: either the whole
	// batch is durable or none of it is.
	SaveAll(ctx context.Context, recs []Enriched) error

	// ListByRequest returns every enriched record for a request, ordered by
	// batch id then record id. An unknown request id yields an empty slice,
	// not an error.
	ListByRequest(ctx context.Context, requestID string) ([]Enriched, error)
}
