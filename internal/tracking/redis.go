package tracking

import (
	"context"
	"fmt"
	"strconv"

	apperrors "github.com/enrichkit/contact-pipeline/pkg/errors"
	"github.com/enrichkit/contact-pipeline/pkg/redis"
)

const (
	fieldExpected  = "expected_batches"
	fieldProcessed = "processed_batches"
)

// markBatchScript sets the per-batch idempotency marker and increments the
// processed counter in one server-side step. Returns the new counter value,
// or -1 when the marker was already set (redelivered batch).
var markBatchScript = redis.NewScript(`
if redis.call("SETNX", KEYS[2], 1) == 1 then
	return redis.call("HINCRBY", KEYS[1], "processed_batches", 1)
end
return -1
`)

// RedisStore keeps control records as Redis hashes, one per request, with a
// per-(request, batch) marker key guarding the counter increment.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a RedisStore backed by the given client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func controlKey(requestID string) string {
	return "request:" + requestID
}

func batchMarkerKey(requestID string, batchID int) string {
	return fmt.Sprintf("request:%s:batch:%d", requestID, batchID)
}

// Init writes the control record hash. Re-initialising an existing request
// id would reset its counters; ids are random UUIDs, so collisions are not
// handled here.
func (s *RedisStore) Init(ctx context.Context, requestID string, expectedBatches int) error {
	err := s.client.HSet(ctx, controlKey(requestID),
		fieldExpected, expectedBatches,
		fieldProcessed, 0,
	)
	if err != nil {
		return fmt.Errorf("initializing control record for %s: %w", requestID, err)
	}
	return nil
}

// MarkBatchProcessed runs the marker-and-increment script.
func (s *RedisStore) MarkBatchProcessed(ctx context.Context, requestID string, batchID int) (bool, error) {
	res, err := s.client.RunScript(ctx, markBatchScript,
		[]string{controlKey(requestID), batchMarkerKey(requestID, batchID)})
	if err != nil {
		return false, fmt.Errorf("marking batch %d of %s: %w", batchID, requestID, err)
	}
	n, ok := res.(int64)
	if !ok {
		return false, fmt.Errorf("marking batch %d of %s: unexpected script result %T", batchID, requestID, res)
	}
	return n != -1, nil
}

// Get reads and parses the control record hash.
func (s *RedisStore) Get(ctx context.Context, requestID string) (Control, error) {
	fields, err := s.client.HGetAll(ctx, controlKey(requestID))
	if err != nil {
		return Control{}, fmt.Errorf("reading control record for %s: %w", requestID, err)
	}
	if len(fields) == 0 {
		return Control{}, apperrors.Newf(apperrors.ErrRequestNotFound, 404, "request %q not found", requestID)
	}

	expected, err := strconv.Atoi(fields[fieldExpected])
	if err != nil {
		return Control{}, fmt.Errorf("parsing %s for %s: %w", fieldExpected, requestID, err)
	}
	processed, err := strconv.Atoi(fields[fieldProcessed])
	if err != nil {
		return Control{}, fmt.Errorf("parsing %s for %s: %w", fieldProcessed, requestID, err)
	}
	return Control{ExpectedBatches: expected, ProcessedBatches: processed}, nil
}
