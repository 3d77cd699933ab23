package handler

import (
	"encoding/json"
	"net/http"

	"cfp-backend/internal/domain"
	"cfp-backend/internal/service"
	"cfp-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BulkHandler serves bulk deliberation and publication
type BulkHandler struct {
	bulk   *service.BulkService
	logger *zap.Logger
}

// NewBulkHandler creates a new bulk handler
func NewBulkHandler(bulk *service.BulkService, logger *zap.Logger) *BulkHandler {
	return &BulkHandler{bulk: bulk, logger: logger}
}

// BulkDeliberateRequest applies one outcome to a whole selection
type BulkDeliberateRequest struct {
	Selection domain.Selection          `json:"selection"`
	Outcome   domain.DeliberationStatus `json:"outcome"`
	Force     bool                      `json:"force,omitempty"`
}

// Deliberate handles POST /api/v1/events/{slug}/proposals/deliberate
func (h *BulkHandler) Deliberate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrFail(w, r, h.logger)
	if !ok {
		return
	}

	var req BulkDeliberateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, h.logger, errors.NewValidationError("Invalid request body", nil))
		return
	}

	result, err := h.bulk.BulkDeliberate(r.Context(), caller, chi.URLParam(r, "slug"), req.Selection, req.Outcome, req.Force)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// PublishRequest publishes the selection's current outcomes
type PublishRequest struct {
	Selection domain.Selection `json:"selection"`
	Notify    bool             `json:"notify"`
}

// Publish handles POST /api/v1/events/{slug}/proposals/publish. An
// optional Idempotency-Key header guards against double submission of
// the same publish request.
func (h *BulkHandler) Publish(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrFail(w, r, h.logger)
	if !ok {
		return
	}

	var req PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, h.logger, errors.NewValidationError("Invalid request body", nil))
		return
	}

	idempotencyKey := r.Header.Get("Idempotency-Key")

	result, err := h.bulk.PublishResults(r.Context(), caller, chi.URLParam(r, "slug"), req.Selection, req.Notify, idempotencyKey)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
