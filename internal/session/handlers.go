package session

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/evertill/pos-api/internal/common"
	"github.com/evertill/pos-api/internal/event"
	"github.com/evertill/pos-api/internal/obs"
	"github.com/evertill/pos-api/internal/pricing"
)

// Handler wires session and cart operations to HTTP.
type Handler struct {
	Store   *Store
	Totals  *TotalsService
	Catalog SnapshotProvider
	Events  SettingsProvider
}

// Create opens a new sales session for the authenticated operator.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		DisplayCurrency string `json:"displayCurrency"`
	}
	_ = json.NewDecoder(r.Body).Decode(&payload)

	settings, err := h.Events.Get(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	display := strings.TrimSpace(payload.DisplayCurrency)
	if display == "" {
		display = settings.BaseCurrency
	}
	operatorID, _ := common.OperatorID(r.Context())
	state, err := h.Store.Create(r.Context(), operatorID, display)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, state)
}

// Get returns session state together with freshly computed totals.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	summary, state, err := h.Totals.Totals(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, state, summary)
}

// Totals returns only the computed totals for a session.
func (h *Handler) TotalsOnly(w http.ResponseWriter, r *http.Request) {
	summary, _, err := h.Totals.Totals(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, summaryPayload(summary))
}

// AddItem adds or increments a cart line.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ProductID string `json:"productId"`
		Qty       int    `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if payload.ProductID == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "productId is required", nil)
		return
	}
	if payload.Qty == 0 {
		payload.Qty = 1
	}
	if payload.Qty < 0 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "qty must be positive", nil)
		return
	}
	snap, err := h.Catalog.Snapshot(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if _, ok := snap.Product(payload.ProductID); !ok {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "unknown product", nil)
		return
	}
	h.mutate(w, r, func(state *State) error {
		state.AddItem(payload.ProductID, payload.Qty)
		return nil
	})
}

// RemoveItem decrements a cart line, flooring at zero.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	qty := common.QueryInt(r, "qty", 1)
	if qty <= 0 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "qty must be positive", nil)
		return
	}
	productID := chi.URLParam(r, "productId")
	h.mutate(w, r, func(state *State) error {
		state.RemoveItem(productID, qty)
		return nil
	})
}

// SetQty pins a cart line quantity.
func (h *Handler) SetQty(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Qty int `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if payload.Qty < 0 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "qty must not be negative", nil)
		return
	}
	productID := chi.URLParam(r, "productId")
	h.mutate(w, r, func(state *State) error {
		return state.SetQty(productID, payload.Qty)
	})
}

// ClearCart empties the cart and drops the order override with it.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(state *State) error {
		state.Clear()
		return nil
	})
}

// SetItemOverride stores a manual unit price entered in the display currency.
func (h *Handler) SetItemOverride(w http.ResponseWriter, r *http.Request) {
	if !h.requireUnlocked(w, r) {
		return
	}
	var payload struct {
		Price float64 `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	settings, err := h.Events.Get(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	productID := chi.URLParam(r, "productId")
	h.mutate(w, r, func(state *State) error {
		if err := state.SetItemOverride(productID, payload.Price, settings.CurrencyTable()); err != nil {
			return err
		}
		if obs.OverrideTotal != nil {
			obs.OverrideTotal.WithLabelValues("item").Inc()
		}
		return nil
	})
}

// ClearItemOverride restores the catalog price for a line.
func (h *Handler) ClearItemOverride(w http.ResponseWriter, r *http.Request) {
	if !h.requireUnlocked(w, r) {
		return
	}
	productID := chi.URLParam(r, "productId")
	h.mutate(w, r, func(state *State) error {
		return state.ClearItemOverride(productID)
	})
}

// SetOrderOverride stores a manual order total entered in the display
// currency.
func (h *Handler) SetOrderOverride(w http.ResponseWriter, r *http.Request) {
	if !h.requireUnlocked(w, r) {
		return
	}
	var payload struct {
		Total float64 `json:"total"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	settings, err := h.Events.Get(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.mutate(w, r, func(state *State) error {
		if err := state.SetOrderOverride(payload.Total, settings.CurrencyTable()); err != nil {
			return err
		}
		if obs.OverrideTotal != nil {
			obs.OverrideTotal.WithLabelValues("order").Inc()
		}
		return nil
	})
}

// ClearOrderOverride resets the displayed total to the computed value.
func (h *Handler) ClearOrderOverride(w http.ResponseWriter, r *http.Request) {
	if !h.requireUnlocked(w, r) {
		return
	}
	h.mutate(w, r, func(state *State) error {
		state.ClearOrderOverride()
		return nil
	})
}

// SetCurrency selects the display currency for the session.
func (h *Handler) SetCurrency(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Currency string `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	code := strings.ToUpper(strings.TrimSpace(payload.Currency))
	if len(code) != 3 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "currency must be a 3-letter code", nil)
		return
	}
	h.mutate(w, r, func(state *State) error {
		state.DisplayCurrency = code
		return nil
	})
}

// mutate applies fn to the session and responds with the updated state plus
// recomputed totals.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, fn func(*State) error) {
	state, err := h.Store.Update(r.Context(), chi.URLParam(r, "id"), fn)
	if err != nil {
		h.writeError(w, err)
		return
	}
	summary, err := h.Totals.Compute(r.Context(), state)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, state, summary)
}

func (h *Handler) respond(w http.ResponseWriter, status int, state State, summary pricing.Summary) {
	common.JSONData(w, status, map[string]any{
		"session": state,
		"totals":  summaryPayload(summary),
	})
}

func summaryPayload(summary pricing.Summary) map[string]any {
	subtotals := make([]map[string]any, 0, len(summary.Subtotals))
	for _, row := range summary.Subtotals {
		entry := map[string]any{
			"typeId":       row.TypeID,
			"typeName":     row.TypeName,
			"color":        row.Color,
			"amount":       row.Amount,
			"promoApplied": row.PromoApplied,
		}
		if row.PromoName != "" {
			entry["promoName"] = row.PromoName
		}
		if row.Warning != "" {
			entry["warning"] = row.Warning
		}
		subtotals = append(subtotals, entry)
	}
	return map[string]any{
		"subtotals":  subtotals,
		"computed":   summary.Computed,
		"total":      summary.Total,
		"overridden": summary.Overridden,
		"currency":   summary.Currency,
	}
}

func (h *Handler) requireUnlocked(w http.ResponseWriter, r *http.Request) bool {
	settings, err := h.Events.Get(r.Context())
	if err != nil {
		h.writeError(w, err)
		return false
	}
	if settings.Locked {
		common.JSONError(w, http.StatusLocked, "EVENT_LOCKED", "event is locked for edits", nil)
		return false
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "session not found", nil)
	case errors.Is(err, ErrItemNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart item not found", nil)
	case errors.Is(err, ErrInvalidOverride):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid override value", nil)
	case errors.Is(err, event.ErrLocked):
		common.JSONError(w, http.StatusLocked, "EVENT_LOCKED", "event is locked for edits", nil)
	case errors.Is(err, event.ErrNotConfigured):
		common.JSONError(w, http.StatusConflict, "NOT_CONFIGURED", "event not configured", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
	}
}
