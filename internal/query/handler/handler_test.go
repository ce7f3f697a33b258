package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/enrichkit/contact-pipeline/internal/aggregate"
	"github.com/enrichkit/contact-pipeline/internal/contact"
	"github.com/enrichkit/contact-pipeline/internal/records"
	"github.com/enrichkit/contact-pipeline/internal/tracking"
	apperrors "github.com/enrichkit/contact-pipeline/pkg/errors"
)

type fakeTracker struct {
	controls map[string]tracking.Control
	err      error
}

func (f *fakeTracker) Init(ctx context.Context, requestID string, expected int) error {
	return errors.New("not used")
}

func (f *fakeTracker) MarkBatchProcessed(ctx context.Context, requestID string, batchID int) (bool, error) {
	return false, errors.New("not used")
}

func (f *fakeTracker) Get(ctx context.Context, requestID string) (tracking.Control, error) {
	if f.err != nil {
		return tracking.Control{}, f.err
	}
	ctrl, ok := f.controls[requestID]
	if !ok {
		return tracking.Control{}, apperrors.Newf(apperrors.ErrRequestNotFound, 404, "request %q not found", requestID)
	}
	return ctrl, nil
}

type fakeRecordStore struct {
	recs []records.Enriched
}

func (f *fakeRecordStore) SaveAll(ctx context.Context, recs []records.Enriched) error {
	return errors.New("not used")
}

func (f *fakeRecordStore) ListByRequest(ctx context.Context, requestID string) ([]records.Enriched, error) {
	return f.recs, nil
}

type fakePublisher struct{}

func (fakePublisher) Upload(ctx context.Context, key string, body []byte, contentType string) error {
	return nil
}

func (fakePublisher) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://artifacts.local/" + key, nil
}

func newServer(tracker tracking.Store, store records.Store) *httptest.Server {
	aggregator := aggregate.New(store, fakePublisher{}, time.Hour, nil)
	h := New(tracker, aggregator)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/requests/{id}/status", h.Status)
	mux.HandleFunc("POST /api/v1/requests/{id}/artifacts", h.Aggregate)
	return httptest.NewServer(mux)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]string {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
	return body
}

func TestStatus(t *testing.T) {
	tracker := &fakeTracker{controls: map[string]tracking.Control{
		"done":    {ExpectedBatches: 3, ProcessedBatches: 3},
		"pending": {ExpectedBatches: 3, ProcessedBatches: 1},
		"empty":   {ExpectedBatches: 0, ProcessedBatches: 0},
	}}
	srv := newServer(tracker, &fakeRecordStore{})
	defer srv.Close()

	cases := []struct {
		id         string
		wantStatus int
		wantBody   string
	}{
		{"done", http.StatusOK, "completed"},
		{"pending", http.StatusOK, "incomplete"},
		{"empty", http.StatusOK, "completed"},
	}
	for _, tc := range cases {
		t.Run(tc.id, func(t *testing.T) {
			resp, err := http.Get(srv.URL + "/api/v1/requests/" + tc.id + "/status")
			if err != nil {
				t.Fatalf("GET err = %v", err)
			}
			if resp.StatusCode != tc.wantStatus {
				t.Errorf("status code = %d, want %d", resp.StatusCode, tc.wantStatus)
			}
			if body := decodeBody(t, resp); body["status"] != tc.wantBody {
				t.Errorf("status = %q, want %q", body["status"], tc.wantBody)
			}
		})
	}
}

func TestStatusUnknownRequest(t *testing.T) {
	srv := newServer(&fakeTracker{controls: map[string]tracking.Control{}}, &fakeRecordStore{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/requests/nope/status")
	if err != nil {
		t.Fatalf("GET err = %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status code = %d, want 404", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["error"] == "" {
		t.Error("404 response has no error body")
	}
}

func TestStatusStoreFailure(t *testing.T) {
	srv := newServer(&fakeTracker{err: errors.New("redis down")}, &fakeRecordStore{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/requests/any/status")
	if err != nil {
		t.Fatalf("GET err = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status code = %d, want 500", resp.StatusCode)
	}
}

func TestAggregateEndpoint(t *testing.T) {
	store := &fakeRecordStore{recs: []records.Enriched{{
		RequestID: "req-1",
		RecordID:  "a",
		BatchID:   1,
		Fields:    contact.Record{"professional_email": "john.doe@example.com"},
	}}}
	srv := newServer(&fakeTracker{}, store)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/requests/req-1/artifacts", "application/json", nil)
	if err != nil {
		t.Fatalf("POST err = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code = %d, want 200", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["message"] != "Aggregation successful" {
		t.Errorf("message = %q", body["message"])
	}
	if body["url"] == "" {
		t.Error("response has empty url")
	}
}

func TestAggregateEndpointNoData(t *testing.T) {
	srv := newServer(&fakeTracker{}, &fakeRecordStore{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/requests/req-1/artifacts", "application/json", nil)
	if err != nil {
		t.Fatalf("POST err = %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status code = %d, want 404", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["error"] == "" {
		t.Error("404 response has no error body")
	}
}
