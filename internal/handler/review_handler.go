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

// ReviewHandler serves per-proposal review reads and writes
type ReviewHandler struct {
	reviews *service.ReviewService
	logger  *zap.Logger
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviews *service.ReviewService, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, logger: logger}
}

// ReviewRequest is the caller's rating of a proposal
type ReviewRequest struct {
	Feeling domain.Feeling `json:"feeling"`
	Note    *int           `json:"note,omitempty"`
}

// Put handles PUT /api/v1/proposals/{id}/review. Submitting twice
// updates the existing review; the response is the fresh summary.
func (h *ReviewHandler) Put(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrFail(w, r, h.logger)
	if !ok {
		return
	}

	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, h.logger, errors.NewValidationError("Invalid request body", nil))
		return
	}

	summary, err := h.reviews.RecordReview(r.Context(), caller, chi.URLParam(r, "id"), req.Feeling, req.Note)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// Delete handles DELETE /api/v1/proposals/{id}/review
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrFail(w, r, h.logger)
	if !ok {
		return
	}

	summary, err := h.reviews.RemoveReview(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// GetMine handles GET /api/v1/proposals/{id}/review
func (h *ReviewHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrFail(w, r, h.logger)
	if !ok {
		return
	}

	review, err := h.reviews.ReviewOf(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if review == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{"reviewed": false})
		return
	}

	respondJSON(w, http.StatusOK, review)
}

// List handles GET /api/v1/proposals/{id}/reviews (organizer only)
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrFail(w, r, h.logger)
	if !ok {
		return
	}

	reviews, err := h.reviews.AllReviews(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, reviews)
}

// Summary handles GET /api/v1/proposals/{id}/summary
func (h *ReviewHandler) Summary(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrFail(w, r, h.logger)
	if !ok {
		return
	}

	summary, err := h.reviews.Summary(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}
