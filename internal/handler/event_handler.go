package handler

import (
	"net/http"

	"cfp-backend/internal/service"
	"cfp-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// EventHandler serves the public event surface
type EventHandler struct {
	lifecycle *service.LifecycleService
	logger    *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler(lifecycle *service.LifecycleService, logger *zap.Logger) *EventHandler {
	return &EventHandler{lifecycle: lifecycle, logger: logger}
}

// GetCFPStatus handles GET /api/v1/events/{slug}/cfp. Public: speakers
// check whether submissions are open before authenticating.
func (h *EventHandler) GetCFPStatus(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		respondError(w, r, h.logger, errors.NewValidationError("Event slug is required", nil))
		return
	}

	window, err := h.lifecycle.CFPStatus(r.Context(), slug)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, window)
}
