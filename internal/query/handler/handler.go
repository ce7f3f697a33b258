// Package handler exposes the read side of the pipeline over HTTP: the
// completion check and the artifact aggregation endpoints.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/enrichkit/contact-pipeline/internal/aggregate"
	"github.com/enrichkit/contact-pipeline/internal/tracking"
	apperrors "github.com/enrichkit/contact-pipeline/pkg/errors"
)

const (
	statusCompleted  = "completed"
	statusIncomplete = "incomplete"
)

type Handler struct {
	tracker    tracking.Store
	aggregator *aggregate.Aggregator
	logger     *slog.Logger
}

func New(tracker tracking.Store, aggregator *aggregate.Aggregator) *Handler {
	return &Handler{
		tracker:    tracker,
		aggregator: aggregator,
		logger:     slog.Default().With("component", "query-handler"),
	}
}

// Status reports whether every batch of a request has been processed. The
// status is derived from the counters on every call, never cached.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	requestID := r.PathValue("id")
	if requestID == "" {
		h.writeError(w, http.StatusBadRequest, "missing request id")
		return
	}

	ctrl, err := h.tracker.Get(r.Context(), requestID)
	if err != nil {
		statusCode := apperrors.HTTPStatusCode(err)
		if statusCode >= 500 {
			h.logger.Error("status check failed", "request_id", requestID, "error", err)
			h.writeError(w, statusCode, "internal server error")
			return
		}
		h.writeError(w, statusCode, err.Error())
		return
	}

	status := statusIncomplete
	if ctrl.Completed() {
		status = statusCompleted
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

// Aggregate builds the result artifact for a request and returns its
// time-limited URL.
func (h *Handler) Aggregate(w http.ResponseWriter, r *http.Request) {
	requestID := r.PathValue("id")
	if requestID == "" {
		h.writeError(w, http.StatusBadRequest, "missing request id")
		return
	}

	result, err := h.aggregator.Aggregate(r.Context(), requestID)
	if err != nil {
		statusCode := apperrors.HTTPStatusCode(err)
		if statusCode >= 500 {
			h.logger.Error("aggregation failed", "request_id", requestID, "error", err)
			h.writeError(w, statusCode, "internal server error")
			return
		}
		h.writeError(w, statusCode, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"message": "Aggregation successful",
		"url":     result.URL,
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
