package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evertill/pos-api/internal/catalog"
	"github.com/evertill/pos-api/internal/currency"
)

// ErrNotConfigured indicates no event settings row exists yet.
var ErrNotConfigured = errors.New("event not configured")

// ErrLocked indicates the event is read-only: no price edits, no payments.
var ErrLocked = errors.New("event locked")

const settingsCacheKey = "event:settings"

// Settings is the per-event configuration the pricing core depends on: the
// canonical base currency, the rate table, the round-up policy, and the lock
// flag gating edits and payments.
type Settings struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	BaseCurrency string             `json:"baseCurrency"`
	Rates        map[string]float64 `json:"rates"`
	RoundUp      bool               `json:"roundUp"`
	Locked       bool               `json:"locked"`
}

// CurrencyTable adapts the settings into the conversion table the pricing
// engine consumes.
func (s Settings) CurrencyTable() currency.Table {
	return currency.Table{Base: s.BaseCurrency, Rates: s.Rates, RoundUp: s.RoundUp}
}

// Service loads and manages event settings.
type Service struct {
	Pool  *pgxpool.Pool
	Cache *catalog.Cache
}

// NewService constructs an event settings service.
func NewService(pool *pgxpool.Pool, cache *catalog.Cache) *Service {
	return &Service{Pool: pool, Cache: cache}
}

// Get loads the active event settings, served from cache when warm.
func (s *Service) Get(ctx context.Context) (Settings, error) {
	if s == nil || s.Pool == nil {
		return Settings{}, errors.New("event service not configured")
	}
	var settings Settings
	if ok, err := s.Cache.GetJSON(ctx, settingsCacheKey, &settings); err == nil && ok {
		return settings, nil
	}
	var rawRates []byte
	err := s.Pool.QueryRow(ctx, `
		SELECT id, name, base_currency, rates, round_up, locked
		FROM event_settings
		ORDER BY created_at DESC
		LIMIT 1`).
		Scan(&settings.ID, &settings.Name, &settings.BaseCurrency, &rawRates, &settings.RoundUp, &settings.Locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Settings{}, ErrNotConfigured
		}
		return Settings{}, fmt.Errorf("load event settings: %w", err)
	}
	if len(rawRates) > 0 {
		if err := json.Unmarshal(rawRates, &settings.Rates); err != nil {
			return Settings{}, fmt.Errorf("decode event rates: %w", err)
		}
	}
	_ = s.Cache.SetJSON(ctx, settingsCacheKey, settings)
	return settings, nil
}

// CheckUnlocked returns ErrLocked when the active event refuses edits.
func (s *Service) CheckUnlocked(ctx context.Context) error {
	settings, err := s.Get(ctx)
	if err != nil {
		return err
	}
	if settings.Locked {
		return ErrLocked
	}
	return nil
}

// UpdateInput is the payload for replacing event settings.
type UpdateInput struct {
	Name         string             `json:"name" validate:"required"`
	BaseCurrency string             `json:"baseCurrency" validate:"required,len=3"`
	Rates        map[string]float64 `json:"rates"`
	RoundUp      bool               `json:"roundUp"`
	Locked       bool               `json:"locked"`
}

// Update replaces the active event settings row.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) error {
	rates, err := json.Marshal(in.Rates)
	if err != nil {
		return err
	}
	tag, err := s.Pool.Exec(ctx, `
		UPDATE event_settings
		SET name = $2, base_currency = $3, rates = $4, round_up = $5, locked = $6
		WHERE id = $1`,
		id, in.Name, in.BaseCurrency, rates, in.RoundUp, in.Locked)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotConfigured
	}
	_ = s.Cache.Invalidate(ctx, settingsCacheKey)
	return nil
}
