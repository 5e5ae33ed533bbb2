package pricing

import (
	"sort"

	"github.com/evertill/pos-api/internal/currency"
	"github.com/evertill/pos-api/internal/promo"
)

// ProductType is a named category producing one subtotal row.
type ProductType struct {
	ID        string
	Name      string
	SortOrder int
	Enabled   bool
	Color     string
}

// Line is one cart line resolved against the catalog. UnitPrice and Override
// are base-currency amounts.
type Line struct {
	ProductID     string
	TypeID        string
	Qty           int
	UnitPrice     float64
	Override      *float64
	PromoEligible bool
}

// Input is the full snapshot a totals computation runs over. Promos is keyed
// by product type id. OrderOverride, when set, is a base-currency amount that
// supersedes the computed grand total.
type Input struct {
	Types         []ProductType
	Lines         []Line
	Promos        map[string]*promo.Table
	Currency      currency.Table
	Display       string
	OrderOverride *float64
}

// TypeSubtotal is one per-type row of the totals breakdown, already converted
// into the display currency.
type TypeSubtotal struct {
	TypeID       string
	TypeName     string
	Color        string
	Amount       float64
	PromoApplied bool
	PromoName    string
	Warning      string
}

// Summary aggregates the totals computation. Computed is always the freshly
// derived grand total; Total equals Computed unless an order override is set,
// in which case the override (converted like any other amount) wins and
// Overridden reports it.
type Summary struct {
	Subtotals  []TypeSubtotal
	Computed   float64
	Total      float64
	Overridden bool
	Currency   string
}

// Compute derives per-type subtotals and the grand total for a cart snapshot.
// It is a pure function: same input, same summary, no I/O.
func Compute(in Input) Summary {
	types := enabledTypes(in.Types)
	byType := make(map[string][]Line, len(types))
	for _, line := range in.Lines {
		if line.Qty <= 0 {
			continue
		}
		byType[line.TypeID] = append(byType[line.TypeID], line)
	}

	summary := Summary{
		Subtotals: make([]TypeSubtotal, 0, len(types)),
		Currency:  in.Display,
	}
	for _, pt := range types {
		row := computeType(pt, byType[pt.ID], in.Promos[pt.ID], in.Currency, in.Display)
		summary.Subtotals = append(summary.Subtotals, row)
		summary.Computed += row.Amount
	}
	summary.Total = summary.Computed
	if in.OrderOverride != nil {
		summary.Total = in.Currency.ToDisplay(*in.OrderOverride, in.Display)
		summary.Overridden = true
	}
	return summary
}

func computeType(pt ProductType, lines []Line, table *promo.Table, rates currency.Table, display string) TypeSubtotal {
	row := TypeSubtotal{TypeID: pt.ID, TypeName: pt.Name, Color: pt.Color}

	var eligible, rest []promo.Item
	for _, line := range lines {
		item := promo.Item{Qty: line.Qty, UnitPrice: line.UnitPrice, Override: line.Override}
		if line.PromoEligible {
			eligible = append(eligible, item)
		} else {
			rest = append(rest, item)
		}
	}

	res, err := promo.Resolve(eligible, table)
	if err != nil {
		row.Warning = err.Error()
	}
	row.PromoApplied = res.Applied
	row.PromoName = res.Name

	base := res.Amount + promo.Natural(rest)
	row.Amount = rates.ToDisplay(base, display)
	return row
}

func enabledTypes(types []ProductType) []ProductType {
	out := make([]ProductType, 0, len(types))
	for _, pt := range types {
		if pt.Enabled {
			out = append(out, pt)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}
