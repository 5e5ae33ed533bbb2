package catalog

import (
	"github.com/evertill/pos-api/internal/pricing"
	"github.com/evertill/pos-api/internal/promo"
)

// Product is catalog reference data: immutable for the duration of a session.
// Price is in the event's base currency.
type Product struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	TypeID        string  `json:"typeId"`
	Price         float64 `json:"price"`
	PromoEligible bool    `json:"promoEligible"`
}

// Snapshot is the read-only catalog view a totals computation runs over.
type Snapshot struct {
	Types    []pricing.ProductType   `json:"types"`
	Products map[string]Product      `json:"products"`
	Promos   map[string]*promo.Table `json:"promos"`
}

// Product resolves a product by id.
func (s Snapshot) Product(id string) (Product, bool) {
	p, ok := s.Products[id]
	return p, ok
}
