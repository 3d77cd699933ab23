package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"cfp-backend/internal/domain"
	"cfp-backend/internal/service"
	"cfp-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProposalHandler serves proposal search, submission and lifecycle
// transitions.
type ProposalHandler struct {
	lifecycle *service.LifecycleService
	search    *service.SearchService
	logger    *zap.Logger
}

// NewProposalHandler creates a new proposal handler
func NewProposalHandler(lifecycle *service.LifecycleService, search *service.SearchService, logger *zap.Logger) *ProposalHandler {
	return &ProposalHandler{lifecycle: lifecycle, search: search, logger: logger}
}

// Search handles GET /api/v1/events/{slug}/proposals
func (h *ProposalHandler) Search(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrFail(w, r, h.logger)
	if !ok {
		return
	}
	slug := chi.URLParam(r, "slug")

	q := r.URL.Query()
	filters := domain.SearchFilters{
		Query:        q.Get("query"),
		Status:       domain.DeliberationStatus(q.Get("status")),
		FormatID:     q.Get("format"),
		CategoryID:   q.Get("category"),
		TagID:        q.Get("tag"),
		ReviewedByMe: domain.ReviewedFilter(q.Get("reviewed")),
		Sort:         domain.SortOrder(q.Get("sort")),
	}

	page := 1
	if raw := q.Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondError(w, r, h.logger, errors.NewValidationError("Invalid page number", nil))
			return
		}
		page = parsed
	}

	result, err := h.search.Search(r.Context(), caller, slug, filters, page)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Get handles GET /api/v1/proposals/{id}
func (h *ProposalHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrFail(w, r, h.logger)
	if !ok {
		return
	}

	proposal, err := h.search.Get(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, proposal)
}

// Submit handles POST /api/v1/events/{slug}/proposals
func (h *ProposalHandler) Submit(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrFail(w, r, h.logger)
	if !ok {
		return
	}

	var req service.SubmitProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, h.logger, errors.NewValidationError("Invalid request body", nil))
		return
	}

	proposal, err := h.lifecycle.SubmitProposal(r.Context(), caller, chi.URLParam(r, "slug"), &req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, proposal)
}

// DeliberateRequest carries one deliberation decision
type DeliberateRequest struct {
	Outcome domain.DeliberationStatus `json:"outcome"`
	Force   bool                      `json:"force,omitempty"`
}

// Deliberate handles PATCH /api/v1/proposals/{id}/deliberation
func (h *ProposalHandler) Deliberate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrFail(w, r, h.logger)
	if !ok {
		return
	}

	var req DeliberateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, h.logger, errors.NewValidationError("Invalid request body", nil))
		return
	}

	proposal, err := h.lifecycle.Deliberate(r.Context(), caller, chi.URLParam(r, "id"), req.Outcome, req.Force)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, proposal)
}

// ConfirmRequest carries the speaker's answer
type ConfirmRequest struct {
	Answer domain.ConfirmationStatus `json:"answer"`
}

// Confirm handles POST /api/v1/proposals/{id}/confirmation
func (h *ProposalHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrFail(w, r, h.logger)
	if !ok {
		return
	}

	var req ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, h.logger, errors.NewValidationError("Invalid request body", nil))
		return
	}

	proposal, err := h.lifecycle.Confirm(r.Context(), caller, chi.URLParam(r, "id"), req.Answer)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, proposal)
}
