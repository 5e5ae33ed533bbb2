package session

import (
	"errors"
	"time"
)

// ErrNotFound indicates the requested session could not be located.
var ErrNotFound = errors.New("session not found")

// ErrItemNotFound indicates the cart holds no line for the product.
var ErrItemNotFound = errors.New("cart item not found")

// Item is one cart line. Override, when present, replaces the catalog price
// for every unit of the line and is stored in the base currency.
type Item struct {
	ProductID string   `json:"productId"`
	Qty       int      `json:"qty"`
	Override  *float64 `json:"override,omitempty"`
}

// State is the full sales-session state: the cart, the selected display
// currency, and the order-level override (base currency). It is owned by one
// operator and serialised as a single JSON document.
type State struct {
	ID              string    `json:"id"`
	OperatorID      string    `json:"operatorId,omitempty"`
	DisplayCurrency string    `json:"displayCurrency"`
	Items           []Item    `json:"items"`
	OrderOverride   *float64  `json:"orderOverride,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (s *State) find(productID string) *Item {
	for i := range s.Items {
		if s.Items[i].ProductID == productID {
			return &s.Items[i]
		}
	}
	return nil
}

// AddItem increments the quantity for a product, creating the line at the
// given quantity when absent.
func (s *State) AddItem(productID string, qty int) {
	if qty <= 0 {
		return
	}
	if item := s.find(productID); item != nil {
		item.Qty += qty
		return
	}
	s.Items = append(s.Items, Item{ProductID: productID, Qty: qty})
}

// RemoveItem decrements the quantity for a product. The quantity never drops
// below zero; the line is deleted once it reaches zero.
func (s *State) RemoveItem(productID string, qty int) {
	if qty <= 0 {
		return
	}
	item := s.find(productID)
	if item == nil {
		return
	}
	item.Qty -= qty
	if item.Qty <= 0 {
		s.deleteLine(productID)
	}
}

// SetQty pins the quantity for a product. Zero deletes the line.
func (s *State) SetQty(productID string, qty int) error {
	if qty < 0 {
		qty = 0
	}
	item := s.find(productID)
	if item == nil {
		if qty == 0 {
			return nil
		}
		s.Items = append(s.Items, Item{ProductID: productID, Qty: qty})
		return nil
	}
	if qty == 0 {
		s.deleteLine(productID)
		return nil
	}
	item.Qty = qty
	return nil
}

// Clear empties the cart. The order override is cleared with it: an override
// for a cart that no longer exists is incompatible state.
func (s *State) Clear() {
	s.Items = nil
	s.OrderOverride = nil
}

// Empty reports whether the cart holds no units.
func (s *State) Empty() bool {
	for _, item := range s.Items {
		if item.Qty > 0 {
			return false
		}
	}
	return true
}

func (s *State) deleteLine(productID string) {
	out := s.Items[:0]
	for _, item := range s.Items {
		if item.ProductID != productID {
			out = append(out, item)
		}
	}
	s.Items = out
}
