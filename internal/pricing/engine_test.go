package pricing

import (
	"math"
	"testing"

	"github.com/evertill/pos-api/internal/currency"
	"github.com/evertill/pos-api/internal/promo"
)

func floatPtr(v float64) *float64 { return &v }

func baseInput() Input {
	return Input{
		Types: []ProductType{
			{ID: "food", Name: "Food", SortOrder: 2, Enabled: true},
			{ID: "drinks", Name: "Drinks", SortOrder: 1, Enabled: true, Color: "#1e90ff"},
			{ID: "merch", Name: "Merch", SortOrder: 3, Enabled: false},
		},
		Promos: map[string]*promo.Table{
			"drinks": {
				TypeID:                 "drinks",
				Name:                   "Drinks bundle",
				Prices:                 map[int]float64{2: 10, 3: 14, 4: 18},
				MaxQuantity:            4,
				IncrementalPrice:       floatPtr(4),
				IncrementalPrice10Plus: floatPtr(10),
			},
		},
		Currency: currency.Table{Base: "EUR", Rates: map[string]float64{"EUR": 1, "CHF": 0.95}},
		Display:  "EUR",
	}
}

func TestComputeNaturalSubtotals(t *testing.T) {
	in := baseInput()
	in.Lines = []Line{
		{ProductID: "p1", TypeID: "food", Qty: 2, UnitPrice: 7.5},
		{ProductID: "p2", TypeID: "food", Qty: 1, UnitPrice: 3, Override: floatPtr(2.5)},
	}
	sum := Compute(in)
	if len(sum.Subtotals) != 2 {
		t.Fatalf("expected 2 enabled type rows, got %d", len(sum.Subtotals))
	}
	// Rows follow configured sort order: drinks first, then food.
	if sum.Subtotals[0].TypeID != "drinks" || sum.Subtotals[1].TypeID != "food" {
		t.Fatalf("rows out of order: %+v", sum.Subtotals)
	}
	if sum.Subtotals[0].Amount != 0 {
		t.Fatalf("empty type must still produce a zero row, got %v", sum.Subtotals[0].Amount)
	}
	if sum.Subtotals[1].Amount != 17.5 {
		t.Fatalf("expected food subtotal 17.5 honouring the override, got %v", sum.Subtotals[1].Amount)
	}
	if sum.Total != 17.5 || sum.Overridden {
		t.Fatalf("unexpected total: %+v", sum)
	}
}

func TestComputePromoWithNonEligibleItems(t *testing.T) {
	in := baseInput()
	in.Lines = []Line{
		{ProductID: "beer", TypeID: "drinks", Qty: 6, UnitPrice: 5, PromoEligible: true},
		{ProductID: "wine", TypeID: "drinks", Qty: 1, UnitPrice: 12},
	}
	sum := Compute(in)
	row := sum.Subtotals[0]
	if !row.PromoApplied || row.PromoName != "Drinks bundle" {
		t.Fatalf("expected promo metadata, got %+v", row)
	}
	// 6 eligible units: 18 + 2*4 = 26, plus the non-eligible bottle at 12.
	if row.Amount != 38 {
		t.Fatalf("expected 38, got %v", row.Amount)
	}
}

func TestComputeDisabledTypeExcluded(t *testing.T) {
	in := baseInput()
	in.Lines = []Line{{ProductID: "shirt", TypeID: "merch", Qty: 2, UnitPrice: 20}}
	sum := Compute(in)
	for _, row := range sum.Subtotals {
		if row.TypeID == "merch" {
			t.Fatalf("disabled type must not produce a row")
		}
	}
	if sum.Total != 0 {
		t.Fatalf("lines of disabled types do not contribute, got %v", sum.Total)
	}
}

func TestComputeCurrencyConversionWithRoundUp(t *testing.T) {
	in := baseInput()
	in.Currency.RoundUp = true
	in.Display = "CHF"
	in.Lines = []Line{{ProductID: "p1", TypeID: "food", Qty: 1, UnitPrice: 10}}
	sum := Compute(in)
	want := math.Ceil(10 * 0.95)
	var food TypeSubtotal
	for _, row := range sum.Subtotals {
		if row.TypeID == "food" {
			food = row
		}
	}
	if food.Amount != want {
		t.Fatalf("expected ceiling-converted subtotal %v, got %v", want, food.Amount)
	}
	if sum.Currency != "CHF" {
		t.Fatalf("summary must carry the display currency, got %q", sum.Currency)
	}
}

func TestComputeOrderOverride(t *testing.T) {
	in := baseInput()
	in.Lines = []Line{{ProductID: "p1", TypeID: "food", Qty: 3, UnitPrice: 4}}
	in.OrderOverride = floatPtr(10)
	sum := Compute(in)
	if !sum.Overridden || sum.Total != 10 {
		t.Fatalf("override must supersede the computed total, got %+v", sum)
	}
	if sum.Computed != 12 {
		t.Fatalf("computed total must be retained for reset, got %v", sum.Computed)
	}

	in.OrderOverride = nil
	reset := Compute(in)
	if reset.Overridden || reset.Total != 12 {
		t.Fatalf("clearing the override must restore the computed value, got %+v", reset)
	}
}

func TestComputeIncompletePromotionWarns(t *testing.T) {
	in := baseInput()
	in.Promos["drinks"].IncrementalPrice = nil
	in.Lines = []Line{{ProductID: "beer", TypeID: "drinks", Qty: 6, UnitPrice: 5, PromoEligible: true}}
	sum := Compute(in)
	row := sum.Subtotals[0]
	if row.Warning == "" {
		t.Fatalf("incomplete promotion must surface a warning")
	}
	if row.PromoApplied {
		t.Fatalf("fallback pricing must not report the promotion as applied")
	}
	if row.Amount != 30 {
		t.Fatalf("expected natural fallback 6*5=30, got %v", row.Amount)
	}
}
