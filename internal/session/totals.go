package session

import (
	"context"
	"errors"

	"github.com/evertill/pos-api/internal/catalog"
	"github.com/evertill/pos-api/internal/event"
	"github.com/evertill/pos-api/internal/obs"
	"github.com/evertill/pos-api/internal/pricing"
)

// SnapshotProvider supplies the read-only catalog view for a computation.
type SnapshotProvider interface {
	Snapshot(ctx context.Context) (catalog.Snapshot, error)
}

// SettingsProvider supplies the active event settings.
type SettingsProvider interface {
	Get(ctx context.Context) (event.Settings, error)
}

// TotalsService derives cart totals for a session. Totals are never stored:
// every call recomputes from the current session, catalog, and settings
// snapshots.
type TotalsService struct {
	Store   *Store
	Catalog SnapshotProvider
	Events  SettingsProvider
}

// Totals recomputes the summary for a session.
func (s *TotalsService) Totals(ctx context.Context, sessionID string) (pricing.Summary, State, error) {
	if s == nil || s.Store == nil || s.Catalog == nil || s.Events == nil {
		return pricing.Summary{}, State{}, errors.New("totals service not configured")
	}
	state, err := s.Store.Get(ctx, sessionID)
	if err != nil {
		return pricing.Summary{}, State{}, err
	}
	summary, err := s.Compute(ctx, state)
	return summary, state, err
}

// Compute derives the summary for an already-loaded session state.
func (s *TotalsService) Compute(ctx context.Context, state State) (pricing.Summary, error) {
	snap, err := s.Catalog.Snapshot(ctx)
	if err != nil {
		return pricing.Summary{}, err
	}
	settings, err := s.Events.Get(ctx)
	if err != nil {
		return pricing.Summary{}, err
	}

	display := state.DisplayCurrency
	if display == "" {
		display = settings.BaseCurrency
	}
	summary := pricing.Compute(pricing.Input{
		Types:         snap.Types,
		Lines:         buildLines(state, snap),
		Promos:        snap.Promos,
		Currency:      settings.CurrencyTable(),
		Display:       display,
		OrderOverride: state.OrderOverride,
	})

	result := "ok"
	for _, row := range summary.Subtotals {
		if row.Warning != "" {
			result = "incomplete_promo"
			break
		}
	}
	if obs.TotalsComputed != nil {
		obs.TotalsComputed.WithLabelValues(result).Inc()
	}
	return summary, nil
}

// buildLines resolves cart items against the catalog. Lines whose product no
// longer exists are skipped rather than failing the whole computation.
func buildLines(state State, snap catalog.Snapshot) []pricing.Line {
	lines := make([]pricing.Line, 0, len(state.Items))
	for _, item := range state.Items {
		product, ok := snap.Product(item.ProductID)
		if !ok {
			continue
		}
		lines = append(lines, pricing.Line{
			ProductID:     product.ID,
			TypeID:        product.TypeID,
			Qty:           item.Qty,
			UnitPrice:     product.Price,
			Override:      item.Override,
			PromoEligible: product.PromoEligible,
		})
	}
	return lines
}
