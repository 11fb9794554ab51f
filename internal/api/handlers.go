package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/divu-hq/module-builder/internal/builder"
	"github.com/divu-hq/module-builder/internal/models"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// respondBuilderError maps builder errors onto the response envelope.
// Validation failures carry the user-facing message verbatim.
func respondBuilderError(w http.ResponseWriter, err error, fallback string) {
	var ve *builder.ValidationError
	switch {
	case errors.As(err, &ve):
		respondError(w, http.StatusUnprocessableEntity, "validation_error", ve.Message)
	case errors.Is(err, builder.ErrDraftNotFound):
		respondError(w, http.StatusNotFound, "not_found", "draft not found")
	case errors.Is(err, builder.ErrPageNotFound):
		respondError(w, http.StatusNotFound, "not_found", "page not found")
	case errors.Is(err, builder.ErrSectionNotFound):
		respondError(w, http.StatusNotFound, "not_found", "section not found")
	case errors.Is(err, builder.ErrBlueprintNotFound):
		respondError(w, http.StatusNotFound, "blueprint_not_found", "blueprint not found")
	case errors.Is(err, builder.ErrInvalidStep):
		respondError(w, http.StatusBadRequest, "validation_error", "step must be 0 (info), 1 (pages) or 2 (review)")
	case errors.Is(err, builder.ErrInvalidDirection):
		respondError(w, http.StatusBadRequest, "validation_error", "direction must be \"up\" or \"down\"")
	case errors.Is(err, builder.ErrInvalidToken):
		respondError(w, http.StatusConflict, "invalid_token", "confirmation token invalid or expired")
	default:
		slog.Error(fallback, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", fallback)
	}
}

// actorFromRequest identifies the editing session behind a mutation. The
// hosting app forwards the signed-in user through these headers; without
// them the authenticated client itself is the actor.
func actorFromRequest(r *http.Request) models.Actor {
	actor := models.Actor{
		ID:          r.Header.Get("X-Actor-ID"),
		DisplayName: r.Header.Get("X-Actor-Name"),
	}
	if actor.ID == "" {
		if client := ClientFromContext(r.Context()); client != nil {
			actor.ID = client.Name
		}
	}
	return actor
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "not_ready", "service not ready")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
