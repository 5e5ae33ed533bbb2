package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evertill/pos-api/internal/pricing"
	"github.com/evertill/pos-api/internal/promo"
)

// ErrNotFound indicates the requested catalog record does not exist.
var ErrNotFound = errors.New("catalog record not found")

const snapshotCacheKey = "catalog:snapshot"

// Service reads and manages the event catalog: product types, products, and
// type_list promotions.
type Service struct {
	Pool  *pgxpool.Pool
	Cache *Cache
}

// NewService constructs a catalog service.
func NewService(pool *pgxpool.Pool, cache *Cache) *Service {
	return &Service{Pool: pool, Cache: cache}
}

// Snapshot loads the full catalog view, served from cache when warm.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	if s == nil || s.Pool == nil {
		return Snapshot{}, errors.New("catalog service not configured")
	}
	var snap Snapshot
	if ok, err := s.Cache.GetJSON(ctx, snapshotCacheKey, &snap); err == nil && ok {
		return snap, nil
	}
	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	_ = s.Cache.SetJSON(ctx, snapshotCacheKey, snap)
	return snap, nil
}

func (s *Service) loadSnapshot(ctx context.Context) (Snapshot, error) {
	types, err := s.listTypes(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	products, err := s.listProducts(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	promos, err := s.listPromotions(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Types: types, Products: products, Promos: promos}, nil
}

func (s *Service) listTypes(ctx context.Context) ([]pricing.ProductType, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, name, sort_order, enabled, COALESCE(color, '')
		FROM product_types
		ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("list product types: %w", err)
	}
	defer rows.Close()
	var out []pricing.ProductType
	for rows.Next() {
		var pt pricing.ProductType
		if err := rows.Scan(&pt.ID, &pt.Name, &pt.SortOrder, &pt.Enabled, &pt.Color); err != nil {
			return nil, err
		}
		out = append(out, pt)
	}
	return out, rows.Err()
}

func (s *Service) listProducts(ctx context.Context) (map[string]Product, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, name, type_id, price, promo_eligible
		FROM products`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	out := make(map[string]Product)
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.TypeID, &p.Price, &p.PromoEligible); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (s *Service) listPromotions(ctx context.Context) (map[string]*promo.Table, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT type_id, name, prices, max_quantity, incremental_price, incremental_price_10plus
		FROM promotions`)
	if err != nil {
		return nil, fmt.Errorf("list promotions: %w", err)
	}
	defer rows.Close()
	out := make(map[string]*promo.Table)
	for rows.Next() {
		var (
			table     promo.Table
			rawPrices []byte
		)
		if err := rows.Scan(&table.TypeID, &table.Name, &rawPrices, &table.MaxQuantity, &table.IncrementalPrice, &table.IncrementalPrice10Plus); err != nil {
			return nil, err
		}
		prices, err := decodePrices(rawPrices)
		if err != nil {
			return nil, fmt.Errorf("decode promotion prices for type %s: %w", table.TypeID, err)
		}
		table.Prices = prices
		out[table.TypeID] = &table
	}
	return out, rows.Err()
}

// decodePrices converts the stored JSON object (string keys) into the
// resolver's integer-keyed table.
func decodePrices(raw []byte) (map[int]float64, error) {
	if len(raw) == 0 {
		return map[int]float64{}, nil
	}
	var byKey map[string]float64
	if err := json.Unmarshal(raw, &byKey); err != nil {
		return nil, err
	}
	out := make(map[int]float64, len(byKey))
	for key, price := range byKey {
		qty, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("non-integer quantity key %q", key)
		}
		out[qty] = price
	}
	return out, nil
}

// TypeInput is the payload for creating or updating a product type.
type TypeInput struct {
	Name      string `json:"name" validate:"required"`
	SortOrder int    `json:"sortOrder"`
	Enabled   bool   `json:"enabled"`
	Color     string `json:"color"`
}

// CreateType inserts a product type and invalidates the snapshot cache.
func (s *Service) CreateType(ctx context.Context, in TypeInput) (string, error) {
	id := uuid.NewString()
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO product_types (id, name, sort_order, enabled, color)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))`,
		id, in.Name, in.SortOrder, in.Enabled, in.Color)
	if err != nil {
		return "", err
	}
	_ = s.Cache.Invalidate(ctx, snapshotCacheKey)
	return id, nil
}

// UpdateType updates a product type.
func (s *Service) UpdateType(ctx context.Context, id string, in TypeInput) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE product_types
		SET name = $2, sort_order = $3, enabled = $4, color = NULLIF($5, '')
		WHERE id = $1`,
		id, in.Name, in.SortOrder, in.Enabled, in.Color)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	_ = s.Cache.Invalidate(ctx, snapshotCacheKey)
	return nil
}

// ProductInput is the payload for creating or updating a product.
type ProductInput struct {
	Name          string  `json:"name" validate:"required"`
	TypeID        string  `json:"typeId" validate:"required,uuid"`
	Price         float64 `json:"price" validate:"gte=0"`
	PromoEligible bool    `json:"promoEligible"`
}

// CreateProduct inserts a product.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (string, error) {
	id := uuid.NewString()
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO products (id, name, type_id, price, promo_eligible)
		VALUES ($1, $2, $3, $4, $5)`,
		id, in.Name, in.TypeID, in.Price, in.PromoEligible)
	if err != nil {
		return "", err
	}
	_ = s.Cache.Invalidate(ctx, snapshotCacheKey)
	return id, nil
}

// UpdateProduct updates a product.
func (s *Service) UpdateProduct(ctx context.Context, id string, in ProductInput) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE products
		SET name = $2, type_id = $3, price = $4, promo_eligible = $5
		WHERE id = $1`,
		id, in.Name, in.TypeID, in.Price, in.PromoEligible)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	_ = s.Cache.Invalidate(ctx, snapshotCacheKey)
	return nil
}

// PromotionInput is the payload for creating or replacing a type_list
// promotion. Prices keys are aggregate quantities serialised as strings.
type PromotionInput struct {
	TypeID                 string             `json:"typeId" validate:"required,uuid"`
	Name                   string             `json:"name" validate:"required"`
	Prices                 map[string]float64 `json:"prices" validate:"required,min=1"`
	MaxQuantity            int                `json:"maxQuantity" validate:"gte=2"`
	IncrementalPrice       *float64           `json:"incrementalPrice"`
	IncrementalPrice10Plus *float64           `json:"incrementalPrice10Plus"`
}

// UpsertPromotion creates or replaces the promotion for a product type. One
// promotion per type: the type id is the conflict key.
func (s *Service) UpsertPromotion(ctx context.Context, in PromotionInput) error {
	prices, err := json.Marshal(in.Prices)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO promotions (id, type_id, name, prices, max_quantity, incremental_price, incremental_price_10plus)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (type_id) DO UPDATE
		SET name = EXCLUDED.name,
		    prices = EXCLUDED.prices,
		    max_quantity = EXCLUDED.max_quantity,
		    incremental_price = EXCLUDED.incremental_price,
		    incremental_price_10plus = EXCLUDED.incremental_price_10plus`,
		uuid.NewString(), in.TypeID, in.Name, prices, in.MaxQuantity, in.IncrementalPrice, in.IncrementalPrice10Plus)
	if err != nil {
		return err
	}
	_ = s.Cache.Invalidate(ctx, snapshotCacheKey)
	return nil
}

// DeletePromotion removes the promotion for a product type.
func (s *Service) DeletePromotion(ctx context.Context, typeID string) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM promotions WHERE type_id = $1`, typeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	_ = s.Cache.Invalidate(ctx, snapshotCacheKey)
	return nil
}

// GetProduct loads a single product.
func (s *Service) GetProduct(ctx context.Context, id string) (Product, error) {
	var p Product
	err := s.Pool.QueryRow(ctx, `
		SELECT id, name, type_id, price, promo_eligible
		FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.TypeID, &p.Price, &p.PromoEligible)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}
