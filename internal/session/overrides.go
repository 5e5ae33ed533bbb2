package session

import (
	"errors"
	"math"

	"github.com/evertill/pos-api/internal/currency"
)

// ErrInvalidOverride is returned when an override value is rejected. Prior
// state is always left unchanged.
var ErrInvalidOverride = errors.New("invalid override value")

// SetItemOverride stores a manual unit price for a product. The value is
// entered in the display currency and converted back to the base currency via
// the inverse rate ratio. Non-finite and non-positive prices are rejected.
func (s *State) SetItemOverride(productID string, priceInDisplay float64, rates currency.Table) error {
	if !isFinite(priceInDisplay) || priceInDisplay <= 0 {
		return ErrInvalidOverride
	}
	item := s.find(productID)
	if item == nil {
		return ErrItemNotFound
	}
	base := rates.ToBase(priceInDisplay, s.DisplayCurrency)
	item.Override = &base
	return nil
}

// ClearItemOverride removes the manual unit price for a product, restoring
// the catalog price.
func (s *State) ClearItemOverride(productID string) error {
	item := s.find(productID)
	if item == nil {
		return ErrItemNotFound
	}
	item.Override = nil
	return nil
}

// SetOrderOverride stores a manual order total entered in the display
// currency, converted to base. Zero is allowed (a free order); negative and
// non-finite values are rejected.
func (s *State) SetOrderOverride(totalInDisplay float64, rates currency.Table) error {
	if !isFinite(totalInDisplay) || totalInDisplay < 0 {
		return ErrInvalidOverride
	}
	base := rates.ToBase(totalInDisplay, s.DisplayCurrency)
	s.OrderOverride = &base
	return nil
}

// ClearOrderOverride resets the displayed total to the computed value.
func (s *State) ClearOrderOverride() {
	s.OrderOverride = nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
