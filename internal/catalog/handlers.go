package catalog

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/evertill/pos-api/internal/common"
)

const pgUniqueViolation = "23505"

// Handler exposes catalog read and admin endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// NewHandler constructs a catalog handler with payload validation.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc, Validate: validator.New()}
}

// Snapshot returns the full catalog: types, products, promotions.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Svc.Snapshot(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load catalog", nil)
		return
	}
	common.JSONData(w, http.StatusOK, snap)
}

// CreateType inserts a product type.
func (h *Handler) CreateType(w http.ResponseWriter, r *http.Request) {
	var payload TypeInput
	if !h.decode(w, r, &payload) {
		return
	}
	id, err := h.Svc.CreateType(r.Context(), payload)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, map[string]any{"id": id})
}

// UpdateType updates a product type.
func (h *Handler) UpdateType(w http.ResponseWriter, r *http.Request) {
	var payload TypeInput
	if !h.decode(w, r, &payload) {
		return
	}
	if err := h.Svc.UpdateType(r.Context(), chi.URLParam(r, "id"), payload); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, map[string]any{"id": chi.URLParam(r, "id")})
}

// CreateProduct inserts a product.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var payload ProductInput
	if !h.decode(w, r, &payload) {
		return
	}
	id, err := h.Svc.CreateProduct(r.Context(), payload)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, map[string]any{"id": id})
}

// UpdateProduct updates a product.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var payload ProductInput
	if !h.decode(w, r, &payload) {
		return
	}
	if err := h.Svc.UpdateProduct(r.Context(), chi.URLParam(r, "id"), payload); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, map[string]any{"id": chi.URLParam(r, "id")})
}

// UpsertPromotion creates or replaces the type_list promotion for a type.
func (h *Handler) UpsertPromotion(w http.ResponseWriter, r *http.Request) {
	var payload PromotionInput
	if !h.decode(w, r, &payload) {
		return
	}
	if err := h.Svc.UpsertPromotion(r.Context(), payload); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, map[string]any{"typeId": payload.TypeID})
}

// DeletePromotion removes the promotion for a type.
func (h *Handler) DeletePromotion(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.DeletePromotion(r.Context(), chi.URLParam(r, "typeId")); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, nil)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return false
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(dst); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION", "payload validation failed", err.Error())
			return false
		}
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "catalog record not found", nil)
	case errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation:
		common.JSONError(w, http.StatusConflict, "CONFLICT", "catalog record already exists", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog operation failed", nil)
	}
}
