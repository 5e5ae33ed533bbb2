package event

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/evertill/pos-api/internal/common"
)

// Handler exposes event settings endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// NewHandler constructs an event settings handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc, Validate: validator.New()}
}

// Get returns the active event settings.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Svc.Get(r.Context())
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "event not configured", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load event settings", nil)
		return
	}
	common.JSONData(w, http.StatusOK, settings)
}

// Update replaces the event settings (admin).
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var payload UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION", "payload validation failed", err.Error())
			return
		}
	}
	if err := h.Svc.Update(r.Context(), chi.URLParam(r, "id"), payload); err != nil {
		if errors.Is(err, ErrNotConfigured) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "event not configured", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to update event settings", nil)
		return
	}
	common.JSONData(w, http.StatusOK, map[string]any{"id": chi.URLParam(r, "id")})
}
