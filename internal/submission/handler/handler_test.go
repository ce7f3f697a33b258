package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/enrichkit/contact-pipeline/internal/submission"
	"github.com/enrichkit/contact-pipeline/internal/submission/processor"
	"github.com/enrichkit/contact-pipeline/internal/tracking"
	"github.com/enrichkit/contact-pipeline/pkg/kafka"
)

type fakeQueue struct {
	published int
}

func (q *fakeQueue) Publish(ctx context.Context, event kafka.Event) error {
	q.published++
	return nil
}

type fakeTracker struct {
	inits map[string]int
}

func (f *fakeTracker) Init(ctx context.Context, requestID string, expected int) error {
	f.inits[requestID] = expected
	return nil
}

func (f *fakeTracker) MarkBatchProcessed(ctx context.Context, requestID string, batchID int) (bool, error) {
	return false, errors.New("not used")
}

func (f *fakeTracker) Get(ctx context.Context, requestID string) (tracking.Control, error) {
	return tracking.Control{}, errors.New("not used")
}

func newServer(queue *fakeQueue) *httptest.Server {
	p := processor.New(queue, &fakeTracker{inits: make(map[string]int)}, 100, nil)
	h := New(p)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/requests", h.Submit)
	mux.HandleFunc("GET /health", h.Health)
	return httptest.NewServer(mux)
}

func TestSubmit(t *testing.T) {
	queue := &fakeQueue{}
	srv := newServer(queue)
	defer srv.Close()

	payload := `{"contacts":[
		{"first_name":"John","last_name":"Doe","company_domain":"example.com"},
		{"first_name":"Jane","last_name":"Roe","company_domain":"example.com"}
	]}`
	resp, err := http.Post(srv.URL+"/api/v1/requests", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("POST err = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status code = %d, want 202", resp.StatusCode)
	}
	var body submission.SubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body.RequestID == "" {
		t.Error("response has empty request_id")
	}
	if body.TotalBatches != 1 {
		t.Errorf("total_batches = %d, want 1", body.TotalBatches)
	}
	if queue.published != 1 {
		t.Errorf("published %d messages, want 1", queue.published)
	}
}

func TestSubmitMissingContacts(t *testing.T) {
	srv := newServer(&fakeQueue{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/requests", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("POST err = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status code = %d, want 400", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body["error"] == "" {
		t.Error("400 response has no error body")
	}
}

func TestSubmitInvalidJSON(t *testing.T) {
	srv := newServer(&fakeQueue{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/requests", "application/json", strings.NewReader(`{"contacts": [`))
	if err != nil {
		t.Fatalf("POST err = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status code = %d, want 400", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	srv := newServer(&fakeQueue{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET err = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status code = %d, want 200", resp.StatusCode)
	}
}
