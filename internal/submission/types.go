// Package submission defines the request/response types and queue message
// schema used by the contact submission pipeline.
package submission

import "github.com/enrichkit/contact-pipeline/internal/contact"

// SubmitRequest is the JSON body accepted by the submission HTTP endpoint.
// A missing or null contacts field is a validation error; an empty list is a
// valid request that is complete immediately.
type SubmitRequest struct {
	Contacts []contact.Record `json:"contacts"`
}

// SubmitResponse is returned to the caller after the batches are queued.
type SubmitResponse struct {
	Message      string `json:"message,omitempty"`
	RequestID    string `json:"request_id"`
	TotalBatches int    `json:"total_batches"`
}

// BatchMessage is the queue payload carrying one batch. BatchID is a 1-based
// index unique within the request; the batch itself is immutable once
// published.
type BatchMessage struct {
	RequestID string           `json:"request_id"`
	BatchID   int              `json:"batch_id"`
	Batch     []contact.Record `json:"batch"`
}
