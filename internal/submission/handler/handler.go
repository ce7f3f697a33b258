package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/enrichkit/contact-pipeline/internal/submission"
	"github.com/enrichkit/contact-pipeline/internal/submission/processor"
	apperrors "github.com/enrichkit/contact-pipeline/pkg/errors"
	"github.com/enrichkit/contact-pipeline/pkg/logger"
)

type Handler struct {
	processor *processor.Processor
	logger    *slog.Logger
}

func New(p *processor.Processor) *Handler {
	return &Handler{
		processor: p,
		logger:    slog.Default().With("component", "submission-handler"),
	}
}

// Submit accepts a contact list, queues it for enrichment, and returns the
// request id to poll for completion.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req submission.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resp, err := h.processor.Process(ctx, req)
	if err != nil {
		statusCode := apperrors.HTTPStatusCode(err)
		if statusCode >= 500 {
			h.logger.Error("submission failed", "error", err)
			h.writeError(w, statusCode, "internal server error")
			return
		}
		h.writeError(w, statusCode, err.Error())
		return
	}

	log := logger.FromContext(logger.WithRequestID(ctx, resp.RequestID))
	log.Info("contacts queued", "total_batches", resp.TotalBatches)

	resp.Message = "Contacts successfully split into batches and queued."
	h.writeJSON(w, http.StatusAccepted, resp)
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
