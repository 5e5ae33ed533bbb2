package currency

import "math"

// Table holds exchange rates anchored to a base currency. Rates express how
// many units of a currency correspond to one unit of the base, so the base
// itself always has rate 1.
type Table struct {
	Base    string
	Rates   map[string]float64
	RoundUp bool
}

// Rate returns the effective rate for a currency code. Unknown codes and the
// base currency resolve to 1, which degrades a stale display selection to
// base-currency amounts instead of failing the computation.
func (t Table) Rate(code string) float64 {
	if code == "" || code == t.Base {
		return 1
	}
	if r, ok := t.Rates[code]; ok && r > 0 {
		return r
	}
	return 1
}

// Convert translates an amount between two currencies with a single ratio
// multiply through the base rate. No rounding is applied here.
func (t Table) Convert(amount float64, from, to string) float64 {
	if from == to {
		return amount
	}
	return amount * (t.Rate(to) / t.Rate(from))
}

// ToDisplay converts a base-currency amount into the display currency,
// applying the round-up policy. Ceiling only ever applies when the target
// differs from the base; identical currencies are returned untouched.
func (t Table) ToDisplay(amount float64, display string) float64 {
	out := t.Convert(amount, t.Base, display)
	if t.RoundUp && display != t.Base {
		return math.Ceil(out)
	}
	return out
}

// ToBase converts a display-currency amount back into the base currency using
// the inverse ratio. Overrides are entered in the display currency and stored
// canonically, so this path never rounds.
func (t Table) ToBase(amount float64, display string) float64 {
	return t.Convert(amount, display, t.Base)
}
