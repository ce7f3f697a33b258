package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/enrichkit/contact-pipeline/internal/contact"
	"github.com/enrichkit/contact-pipeline/internal/submission"
	"github.com/enrichkit/contact-pipeline/internal/tracking"
	apperrors "github.com/enrichkit/contact-pipeline/pkg/errors"
	"github.com/enrichkit/contact-pipeline/pkg/kafka"
)

// fakeQueue and fakeTracker share an op log so tests can assert that the
// control record is initialized before the first message is published.
type fakeQueue struct {
	ops    *[]string
	events []kafka.Event
	err    error
}

func (q *fakeQueue) Publish(ctx context.Context, event kafka.Event) error {
	if q.err != nil {
		return q.err
	}
	*q.ops = append(*q.ops, "publish")
	q.events = append(q.events, event)
	return nil
}

type fakeTracker struct {
	ops      *[]string
	inits    map[string]int
	initErr  error
	controls map[string]tracking.Control
}

func newFakeTracker(ops *[]string) *fakeTracker {
	return &fakeTracker{ops: ops, inits: make(map[string]int)}
}

func (f *fakeTracker) Init(ctx context.Context, requestID string, expected int) error {
	if f.initErr != nil {
		return f.initErr
	}
	*f.ops = append(*f.ops, "init")
	f.inits[requestID] = expected
	return nil
}

func (f *fakeTracker) MarkBatchProcessed(ctx context.Context, requestID string, batchID int) (bool, error) {
	return false, errors.New("not used")
}

func (f *fakeTracker) Get(ctx context.Context, requestID string) (tracking.Control, error) {
	return f.controls[requestID], nil
}

func makeContacts(n int) []contact.Record {
	recs := make([]contact.Record, n)
	for i := range recs {
		recs[i] = contact.Record{"id": fmt.Sprintf("c%d", i)}
	}
	return recs
}

func TestProcessSplitsAndQueues(t *testing.T) {
	var ops []string
	queue := &fakeQueue{ops: &ops}
	tracker := newFakeTracker(&ops)
	p := New(queue, tracker, 100, nil)

	resp, err := p.Process(context.Background(), submission.SubmitRequest{Contacts: makeContacts(250)})
	if err != nil {
		t.Fatalf("Process() err = %v", err)
	}
	if resp.RequestID == "" {
		t.Error("Process() returned empty request id")
	}
	if resp.TotalBatches != 3 {
		t.Errorf("TotalBatches = %d, want 3", resp.TotalBatches)
	}
	if got := tracker.inits[resp.RequestID]; got != 3 {
		t.Errorf("control record expected_batches = %d, want 3", got)
	}
	if len(queue.events) != 3 {
		t.Fatalf("published %d messages, want 3", len(queue.events))
	}

	// The control record must exist before any message is visible.
	if len(ops) == 0 || ops[0] != "init" {
		t.Errorf("op order = %v, want init first", ops)
	}

	wantSizes := []int{100, 100, 50}
	for i, event := range queue.events {
		if event.Key != resp.RequestID {
			t.Errorf("message %d key = %s, want %s", i, event.Key, resp.RequestID)
		}
		msg, ok := event.Value.(submission.BatchMessage)
		if !ok {
			t.Fatalf("message %d value is %T", i, event.Value)
		}
		if msg.BatchID != i+1 {
			t.Errorf("message %d batch_id = %d, want %d", i, msg.BatchID, i+1)
		}
		if len(msg.Batch) != wantSizes[i] {
			t.Errorf("message %d batch size = %d, want %d", i, len(msg.Batch), wantSizes[i])
		}
	}
}

func TestProcessMessageRoundTrips(t *testing.T) {
	var ops []string
	queue := &fakeQueue{ops: &ops}
	p := New(queue, newFakeTracker(&ops), 2, nil)

	_, err := p.Process(context.Background(), submission.SubmitRequest{Contacts: makeContacts(3)})
	if err != nil {
		t.Fatalf("Process() err = %v", err)
	}

	// Queue payloads must survive JSON encoding the way the producer and
	// the worker see them.
	data, err := json.Marshal(queue.events[0].Value)
	if err != nil {
		t.Fatalf("marshal err = %v", err)
	}
	var msg submission.BatchMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal err = %v", err)
	}
	if msg.BatchID != 1 || len(msg.Batch) != 2 {
		t.Errorf("decoded message = %+v", msg)
	}
}

func TestProcessMissingContacts(t *testing.T) {
	var ops []string
	queue := &fakeQueue{ops: &ops}
	tracker := newFakeTracker(&ops)
	p := New(queue, tracker, 100, nil)

	_, err := p.Process(context.Background(), submission.SubmitRequest{})
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("Process() err = %v, want ErrInvalidInput", err)
	}
	if len(ops) != 0 {
		t.Errorf("ops = %v, want none for rejected request", ops)
	}
}

func TestProcessEmptyContacts(t *testing.T) {
	var ops []string
	queue := &fakeQueue{ops: &ops}
	tracker := newFakeTracker(&ops)
	p := New(queue, tracker, 100, nil)

	resp, err := p.Process(context.Background(), submission.SubmitRequest{Contacts: []contact.Record{}})
	if err != nil {
		t.Fatalf("Process() err = %v", err)
	}
	if resp.TotalBatches != 0 {
		t.Errorf("TotalBatches = %d, want 0", resp.TotalBatches)
	}
	if got, ok := tracker.inits[resp.RequestID]; !ok || got != 0 {
		t.Errorf("control record = %d (present=%v), want 0 expected batches", got, ok)
	}
	if len(queue.events) != 0 {
		t.Errorf("published %d messages, want 0", len(queue.events))
	}

	// A zero-batch request is complete from the start.
	ctrl := tracking.Control{ExpectedBatches: 0, ProcessedBatches: 0}
	if !ctrl.Completed() {
		t.Error("zero-batch control record should be completed")
	}
}

func TestProcessPublishFailure(t *testing.T) {
	var ops []string
	queue := &fakeQueue{ops: &ops, err: errors.New("broker down")}
	p := New(queue, newFakeTracker(&ops), 100, nil)

	_, err := p.Process(context.Background(), submission.SubmitRequest{Contacts: makeContacts(10)})
	if err == nil {
		t.Fatal("Process() err = nil, want publish failure")
	}
}
