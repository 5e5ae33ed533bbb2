package currency

import (
	"math"
	"testing"
)

func table(roundUp bool) Table {
	return Table{
		Base:    "EUR",
		Rates:   map[string]float64{"EUR": 1, "CHF": 0.95, "USD": 1.1},
		RoundUp: roundUp,
	}
}

func TestConvertRoundTrip(t *testing.T) {
	tab := table(false)
	amount := 123.45
	there := tab.Convert(amount, "EUR", "CHF")
	back := tab.Convert(there, "CHF", "EUR")
	if math.Abs(back-amount) > 1e-9 {
		t.Fatalf("round trip drifted: got %v want %v", back, amount)
	}
}

func TestConvertRatio(t *testing.T) {
	tab := table(false)
	got := tab.Convert(10, "EUR", "CHF")
	if math.Abs(got-9.5) > 1e-9 {
		t.Fatalf("expected 9.5 CHF, got %v", got)
	}
}

func TestToDisplayCeilsOnlyCrossCurrency(t *testing.T) {
	tab := table(true)
	if got := tab.ToDisplay(10.2, "CHF"); got != math.Ceil(10.2*0.95) {
		t.Fatalf("expected ceiling on cross-currency conversion, got %v", got)
	}
	if got := tab.ToDisplay(10.2, "EUR"); got != 10.2 {
		t.Fatalf("identical currencies must never round, got %v", got)
	}
}

func TestToDisplayNoPolicy(t *testing.T) {
	tab := table(false)
	got := tab.ToDisplay(10.2, "CHF")
	if math.Abs(got-10.2*0.95) > 1e-9 {
		t.Fatalf("expected exact conversion without policy, got %v", got)
	}
}

func TestToBaseNeverRounds(t *testing.T) {
	tab := table(true)
	got := tab.ToBase(9.5, "CHF")
	if math.Abs(got-10) > 1e-9 {
		t.Fatalf("expected 10 EUR, got %v", got)
	}
}

func TestUnknownCurrencyFallsBackToBaseRate(t *testing.T) {
	tab := table(false)
	if got := tab.Rate("XXX"); got != 1 {
		t.Fatalf("unknown code should resolve to rate 1, got %v", got)
	}
	if got := tab.Convert(42, "EUR", "XXX"); got != 42 {
		t.Fatalf("conversion to unknown code should be identity, got %v", got)
	}
}
