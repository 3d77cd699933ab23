package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"cfp-backend/internal/domain"
	"cfp-backend/internal/middleware"
	"cfp-backend/pkg/errors"

	"go.uber.org/zap"
)

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError maps an application error onto the wire format. Anything
// that is not an AppError becomes an opaque 500.
func respondError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	appErr, ok := err.(*errors.AppError)
	if !ok {
		appErr = errors.NewInternalError("Internal server error", err)
	}

	if appErr.StatusCode >= http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.String("type", string(appErr.Type)),
			zap.Error(appErr))
	}

	response := &errors.ErrorResponse{}
	response.Error.Type = appErr.Type
	response.Error.Message = appErr.Message
	response.Error.Details = appErr.Details
	response.Error.Timestamp = time.Now().UTC().Format(time.RFC3339)
	if requestID, ok := r.Context().Value(middleware.RequestIDContextKey).(string); ok {
		response.Error.RequestID = requestID
	}

	respondJSON(w, appErr.StatusCode, response)
}

// callerOrFail pulls the authenticated caller off the context
func callerOrFail(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (domain.Caller, bool) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok || caller.UserID == "" {
		respondError(w, r, logger, errors.NewAuthenticationError("Authentication required"))
		return domain.Caller{}, false
	}
	return caller, true
}
