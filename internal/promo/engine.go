package promo

import (
	"errors"
	"fmt"
)

var (
	// ErrIncompleteConfig marks a promotion whose price table cannot cover the
	// quantity it was asked to price. Callers fall back to natural pricing and
	// should warn rather than silently undercharge.
	ErrIncompleteConfig = errors.New("incomplete promotion configuration")
)

// lowStepSpan is the number of units beyond MaxQuantity priced at the lower
// incremental rate before the 10-plus rate takes over.
const lowStepSpan = 5

// Table describes a type_list volume promotion scoped to one product type.
// Prices maps an aggregate promo-eligible quantity (2..MaxQuantity) to a fixed
// bundle price in the base currency.
type Table struct {
	TypeID                 string
	Name                   string
	Prices                 map[int]float64
	MaxQuantity            int
	IncrementalPrice       *float64
	IncrementalPrice10Plus *float64
}

// TierState classifies the outcome of a tier table lookup.
type TierState int

const (
	// TierFound means the table holds an entry for the quantity.
	TierFound TierState = iota
	// TierOutOfRange means the quantity exceeds MaxQuantity and incremental
	// pricing applies.
	TierOutOfRange
	// TierMissing means the quantity is inside the table range but has no
	// entry, which is a catalog configuration gap.
	TierMissing
)

// TierPrice looks up the bundle price for an aggregate quantity.
func (t *Table) TierPrice(qty int) (float64, TierState) {
	if qty > t.MaxQuantity {
		return 0, TierOutOfRange
	}
	if price, ok := t.Prices[qty]; ok {
		return price, TierFound
	}
	return 0, TierMissing
}

// Item is one cart line seen by the resolver. Override, when set, replaces the
// catalog unit price for every unit of the line.
type Item struct {
	Qty       int
	UnitPrice float64
	Override  *float64
}

func (it Item) effectivePrice() float64 {
	if it.Override != nil {
		return *it.Override
	}
	return it.UnitPrice
}

// Natural sums effective unit price times quantity across the provided items.
func Natural(items []Item) float64 {
	var total float64
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		total += float64(it.Qty) * it.effectivePrice()
	}
	return total
}

// Result carries the priced eligible group plus promotion metadata.
type Result struct {
	Amount  float64
	Applied bool
	Name    string
}

// Resolve prices the promo-eligible items of one product type. With no
// promotion, fewer than two aggregate units, or no eligible items it returns
// the natural price. Configuration gaps (a missing tier entry for a reached
// quantity, or a missing incremental price when the quantity exceeds the
// table) return the natural price together with an error wrapping
// ErrIncompleteConfig so the caller can warn without undercharging.
func Resolve(items []Item, table *Table) (Result, error) {
	natural := Result{Amount: Natural(items)}
	if table == nil || len(items) == 0 {
		return natural, nil
	}
	qty := 0
	for _, it := range items {
		if it.Qty > 0 {
			qty += it.Qty
		}
	}
	if qty < 2 {
		return natural, nil
	}

	if qty <= table.MaxQuantity {
		price, state := table.TierPrice(qty)
		if state == TierMissing {
			return natural, fmt.Errorf("promotion %q has no tier price for quantity %d: %w", table.Name, qty, ErrIncompleteConfig)
		}
		return Result{Amount: price, Applied: true, Name: table.Name}, nil
	}

	base, state := table.TierPrice(table.MaxQuantity)
	if state != TierFound {
		return natural, fmt.Errorf("promotion %q has no tier price for its own max quantity %d: %w", table.Name, table.MaxQuantity, ErrIncompleteConfig)
	}
	extra := qty - table.MaxQuantity
	if table.IncrementalPrice == nil {
		return natural, fmt.Errorf("promotion %q reached quantity %d without an incremental price: %w", table.Name, qty, ErrIncompleteConfig)
	}
	if extra <= lowStepSpan {
		amount := base + float64(extra)**table.IncrementalPrice
		return Result{Amount: amount, Applied: true, Name: table.Name}, nil
	}
	if table.IncrementalPrice10Plus == nil {
		return natural, fmt.Errorf("promotion %q reached quantity %d without a 10-plus incremental price: %w", table.Name, qty, ErrIncompleteConfig)
	}
	amount := base + lowStepSpan**table.IncrementalPrice + float64(extra-lowStepSpan)**table.IncrementalPrice10Plus
	return Result{Amount: amount, Applied: true, Name: table.Name}, nil
}
