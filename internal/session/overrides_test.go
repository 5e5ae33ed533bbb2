package session

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evertill/pos-api/internal/currency"
)

func chfTable() currency.Table {
	return currency.Table{
		Base:    "EUR",
		Rates:   map[string]float64{"EUR": 1, "CHF": 2},
		RoundUp: true,
	}
}

func TestSetItemOverrideConvertsDisplayToBase(t *testing.T) {
	s := State{DisplayCurrency: "CHF"}
	s.AddItem("beer", 1)

	require.NoError(t, s.SetItemOverride("beer", 10, chfTable()))
	require.NotNil(t, s.Items[0].Override)
	// 10 CHF at rate 2 is 5 EUR; overrides are stored in base currency.
	assert.InDelta(t, 5, *s.Items[0].Override, 1e-9)
}

func TestSetItemOverrideRejectsBadValues(t *testing.T) {
	s := State{DisplayCurrency: "EUR"}
	s.AddItem("beer", 1)

	for _, price := range []float64{0, -3, math.NaN(), math.Inf(1)} {
		err := s.SetItemOverride("beer", price, chfTable())
		require.ErrorIs(t, err, ErrInvalidOverride)
		assert.Nil(t, s.Items[0].Override)
	}
}

func TestSetItemOverrideUnknownLine(t *testing.T) {
	s := State{DisplayCurrency: "EUR"}
	err := s.SetItemOverride("ghost", 5, chfTable())
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestClearItemOverride(t *testing.T) {
	s := State{DisplayCurrency: "EUR"}
	s.AddItem("beer", 1)
	require.NoError(t, s.SetItemOverride("beer", 4, chfTable()))

	require.NoError(t, s.ClearItemOverride("beer"))
	assert.Nil(t, s.Items[0].Override)

	assert.ErrorIs(t, s.ClearItemOverride("ghost"), ErrItemNotFound)
}

func TestSetOrderOverrideAllowsZero(t *testing.T) {
	s := State{DisplayCurrency: "EUR"}
	require.NoError(t, s.SetOrderOverride(0, chfTable()))
	require.NotNil(t, s.OrderOverride)
	assert.Zero(t, *s.OrderOverride)
}

func TestSetOrderOverrideRejectsNegativeAndNonFinite(t *testing.T) {
	s := State{DisplayCurrency: "EUR"}
	for _, total := range []float64{-1, math.NaN(), math.Inf(-1)} {
		require.ErrorIs(t, s.SetOrderOverride(total, chfTable()), ErrInvalidOverride)
		assert.Nil(t, s.OrderOverride)
	}
}

func TestClearOrderOverride(t *testing.T) {
	s := State{DisplayCurrency: "CHF"}
	require.NoError(t, s.SetOrderOverride(20, chfTable()))
	s.ClearOrderOverride()
	assert.Nil(t, s.OrderOverride)
}
