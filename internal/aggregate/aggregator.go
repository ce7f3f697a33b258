// Package aggregate collects every enriched record for a request into one
// JSON artifact and publishes it behind a time-limited URL. It does not
// check completion itself; callers are expected to poll the status endpoint
// first, and aggregating an incomplete request yields a partial artifact.
package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/enrichkit/contact-pipeline/internal/contact"
	"github.com/enrichkit/contact-pipeline/internal/records"
	apperrors "github.com/enrichkit/contact-pipeline/pkg/errors"
	"github.com/enrichkit/contact-pipeline/pkg/metrics"
)

// ArtifactPublisher stores the aggregated artifact and issues retrieval URLs.
type ArtifactPublisher interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Result is the outcome of one aggregation.
type Result struct {
	URL string
}

// Aggregator builds and publishes result artifacts.
type Aggregator struct {
	store      records.Store
	publisher  ArtifactPublisher
	presignTTL time.Duration
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// New creates an Aggregator. metrics may be nil in tests.
func New(store records.Store, publisher ArtifactPublisher, presignTTL time.Duration, m *metrics.Metrics) *Aggregator {
	return &Aggregator{
		store:      store,
		publisher:  publisher,
		presignTTL: presignTTL,
		metrics:    m,
		logger:     slog.Default().With("component", "aggregator"),
	}
}

// ArtifactKey returns the object name for a request's aggregated artifact.
func ArtifactKey(requestID string) string {
	return requestID + "_aggregated.json"
}

// Aggregate reads every enriched record for the request, serializes the set
// as JSON, uploads it (overwriting any earlier artifact for the same
// request), and returns a presigned URL valid for the configured TTL.
func (a *Aggregator) Aggregate(ctx context.Context, requestID string) (Result, error) {
	recs, err := a.store.ListByRequest(ctx, requestID)
	if err != nil {
		a.countOutcome("error")
		return Result{}, fmt.Errorf("fetching records for %s: %w", requestID, err)
	}
	if len(recs) == 0 {
		a.countOutcome("empty")
		return Result{}, apperrors.Newf(apperrors.ErrNoRecords, 404, "no enriched records for request %q", requestID)
	}

	contacts := make([]contact.Record, len(recs))
	for i, rec := range recs {
		contacts[i] = rec.Fields
	}
	body, err := json.MarshalIndent(contacts, "", "    ")
	if err != nil {
		a.countOutcome("error")
		return Result{}, fmt.Errorf("serializing artifact for %s: %w", requestID, err)
	}

	key := ArtifactKey(requestID)
	if err := a.publisher.Upload(ctx, key, body, "application/json"); err != nil {
		a.countOutcome("error")
		return Result{}, fmt.Errorf("publishing artifact %s: %w", key, err)
	}

	url, err := a.publisher.PresignGet(ctx, key, a.presignTTL)
	if err != nil {
		a.countOutcome("error")
		return Result{}, fmt.Errorf("presigning artifact %s: %w", key, err)
	}

	a.countOutcome("ok")
	a.logger.Info("artifact published",
		"request_id", requestID,
		"records", len(recs),
		"key", key,
		"url_ttl", a.presignTTL,
	)
	return Result{URL: url}, nil
}

func (a *Aggregator) countOutcome(outcome string) {
	if a.metrics != nil {
		a.metrics.AggregationsTotal.WithLabelValues(outcome).Inc()
	}
}
