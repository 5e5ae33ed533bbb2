package transaction

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/evertill/pos-api/internal/common"
	"github.com/evertill/pos-api/internal/event"
	"github.com/evertill/pos-api/internal/session"
)

// Recorder is the service surface the HTTP handlers need.
type Recorder interface {
	Complete(ctx context.Context, operatorID string, in CompleteInput) (Transaction, error)
	List(ctx context.Context, operatorID string, limit, offset int) ([]Transaction, error)
	Get(ctx context.Context, id string) (Transaction, error)
}

// Handler exposes transaction endpoints.
type Handler struct {
	Svc      Recorder
	Validate *validator.Validate
}

// NewHandler constructs a transaction handler.
func NewHandler(svc Recorder) *Handler {
	return &Handler{Svc: svc, Validate: validator.New()}
}

// Complete records the sale for a session.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	var payload CompleteInput
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
	operatorID, _ := common.OperatorID(r.Context())
	recorded, err := h.Svc.Complete(r.Context(), operatorID, payload)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, recorded)
}

// List returns the operator's transaction history.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	operatorID, _ := common.OperatorID(r.Context())
	limit := common.QueryInt(r, "limit", 20)
	offset := common.QueryInt(r, "offset", 0)
	items, err := h.Svc.List(r.Context(), operatorID, limit, offset)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, items)
}

// Get returns one transaction with its items.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	recorded, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, recorded)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "transaction not found", nil)
	case errors.Is(err, session.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "session not found", nil)
	case errors.Is(err, ErrEmptyCart):
		common.JSONError(w, http.StatusUnprocessableEntity, "EMPTY_CART", "cart is empty", nil)
	case errors.Is(err, event.ErrLocked):
		common.JSONError(w, http.StatusLocked, "EVENT_LOCKED", "event is locked for payments", nil)
	case errors.Is(err, event.ErrNotConfigured):
		common.JSONError(w, http.StatusConflict, "NOT_CONFIGURED", "event not configured", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "transaction failed", nil)
	}
}
