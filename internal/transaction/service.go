package transaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/evertill/pos-api/internal/event"
	"github.com/evertill/pos-api/internal/export"
	"github.com/evertill/pos-api/internal/lock"
	"github.com/evertill/pos-api/internal/obs"
	"github.com/evertill/pos-api/internal/session"
)

// ErrEmptyCart indicates a completion attempt on a cart with no units.
var ErrEmptyCart = errors.New("cart is empty")

// ErrNotFound indicates the requested transaction does not exist.
var ErrNotFound = errors.New("transaction not found")

// Item is one recorded transaction line. UnitPrice and Override are base
// currency; LineTotal is the natural line amount in the display currency.
type Item struct {
	ProductID   string   `json:"productId"`
	ProductName string   `json:"productName"`
	TypeID      string   `json:"typeId"`
	Qty         int      `json:"qty"`
	UnitPrice   float64  `json:"unitPrice"`
	Override    *float64 `json:"override,omitempty"`
	LineTotal   float64  `json:"lineTotal"`
}

// Transaction is a completed sale. Amounts are in the display currency the
// sale was settled in.
type Transaction struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"sessionId"`
	OperatorID    string    `json:"operatorId"`
	Currency      string    `json:"currency"`
	Computed      float64   `json:"computed"`
	Total         float64   `json:"total"`
	Overridden    bool      `json:"overridden"`
	PaymentMethod string    `json:"paymentMethod"`
	Note          string    `json:"note,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	Items         []Item    `json:"items,omitempty"`
}

// CompleteInput is the payload for completing a sale.
type CompleteInput struct {
	SessionID     string `json:"sessionId" validate:"required"`
	PaymentMethod string `json:"paymentMethod" validate:"required,oneof=cash card other"`
	Note          string `json:"note" validate:"max=500"`
}

// Service records completed sales. Completion recomputes totals from the
// live session, writes the transaction and its items atomically, clears the
// cart, and hands the record to the export queue.
type Service struct {
	Pool     *pgxpool.Pool
	Sessions *session.Store
	Totals   *session.TotalsService
	Catalog  session.SnapshotProvider
	Events   session.SettingsProvider
	Enqueuer *export.Enqueuer
	Locker   lock.Locker
	LockTTL  time.Duration
	Logger   zerolog.Logger
}

// Complete records the sale for a session. The per-session lock prevents a
// double-tapped pay button from recording the sale twice.
func (s *Service) Complete(ctx context.Context, operatorID string, in CompleteInput) (Transaction, error) {
	if s == nil || s.Pool == nil || s.Sessions == nil || s.Totals == nil {
		return Transaction{}, errors.New("transaction service not configured")
	}
	settings, err := s.Events.Get(ctx)
	if err != nil {
		return Transaction{}, err
	}
	if settings.Locked {
		return Transaction{}, event.ErrLocked
	}

	var recorded Transaction
	err = s.Locker.WithLock(ctx, "txn:session:"+in.SessionID, s.lockTTL(), func(ctx context.Context) error {
		recorded, err = s.complete(ctx, operatorID, in)
		return err
	})
	if err != nil {
		s.count(in.PaymentMethod, "failed")
		return Transaction{}, err
	}
	s.count(in.PaymentMethod, "ok")
	return recorded, nil
}

func (s *Service) complete(ctx context.Context, operatorID string, in CompleteInput) (Transaction, error) {
	state, err := s.Sessions.Get(ctx, in.SessionID)
	if err != nil {
		return Transaction{}, err
	}
	if state.Empty() {
		return Transaction{}, ErrEmptyCart
	}
	summary, err := s.Totals.Compute(ctx, state)
	if err != nil {
		return Transaction{}, err
	}
	snap, err := s.Catalog.Snapshot(ctx)
	if err != nil {
		return Transaction{}, err
	}
	settings, err := s.Events.Get(ctx)
	if err != nil {
		return Transaction{}, err
	}
	rates := settings.CurrencyTable()

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return Transaction{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	recorded := Transaction{
		SessionID:     state.ID,
		OperatorID:    operatorID,
		Currency:      summary.Currency,
		Computed:      summary.Computed,
		Total:         summary.Total,
		Overridden:    summary.Overridden,
		PaymentMethod: in.PaymentMethod,
		Note:          in.Note,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO transactions (session_id, operator_id, currency, computed, total, overridden, payment_method, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		recorded.SessionID, nullable(recorded.OperatorID), recorded.Currency, recorded.Computed,
		recorded.Total, recorded.Overridden, recorded.PaymentMethod, recorded.Note).
		Scan(&recorded.ID, &recorded.CreatedAt)
	if err != nil {
		return Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	for _, cartItem := range state.Items {
		if cartItem.Qty <= 0 {
			continue
		}
		product, ok := snap.Product(cartItem.ProductID)
		if !ok {
			continue
		}
		unit := product.Price
		if cartItem.Override != nil {
			unit = *cartItem.Override
		}
		item := Item{
			ProductID:   product.ID,
			ProductName: product.Name,
			TypeID:      product.TypeID,
			Qty:         cartItem.Qty,
			UnitPrice:   product.Price,
			Override:    cartItem.Override,
			LineTotal:   rates.ToDisplay(unit*float64(cartItem.Qty), summary.Currency),
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO transaction_items (transaction_id, product_id, product_name, type_id, qty, unit_price, override, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			recorded.ID, item.ProductID, item.ProductName, item.TypeID, item.Qty,
			item.UnitPrice, item.Override, item.LineTotal); err != nil {
			return Transaction{}, fmt.Errorf("insert transaction item: %w", err)
		}
		recorded.Items = append(recorded.Items, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return Transaction{}, fmt.Errorf("commit transaction: %w", err)
	}

	if _, err := s.Sessions.Update(ctx, state.ID, func(st *session.State) error {
		st.Clear()
		return nil
	}); err != nil {
		// The sale is recorded; a stale cart is recoverable, losing the
		// transaction is not.
		s.Logger.Warn().Err(err).Str("session_id", state.ID).Msg("clear cart after completion failed")
	}

	if s.Enqueuer != nil {
		if err := s.Enqueuer.EnqueueTransaction(ctx, recorded.ID); err != nil {
			s.Logger.Error().Err(err).Str("transaction_id", recorded.ID).Msg("enqueue export failed")
		}
	}
	return recorded, nil
}

// List returns the operator's transaction history, newest first.
func (s *Service) List(ctx context.Context, operatorID string, limit, offset int) ([]Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT id, session_id, COALESCE(operator_id::text, ''), currency, computed, total, overridden, payment_method, COALESCE(note, ''), created_at
		FROM transactions
		WHERE ($1 = '' OR operator_id::text = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, operatorID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]Transaction, 0, limit)
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.SessionID, &t.OperatorID, &t.Currency, &t.Computed, &t.Total,
			&t.Overridden, &t.PaymentMethod, &t.Note, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Get loads one transaction with its items.
func (s *Service) Get(ctx context.Context, id string) (Transaction, error) {
	var t Transaction
	err := s.Pool.QueryRow(ctx, `
		SELECT id, session_id, COALESCE(operator_id::text, ''), currency, computed, total, overridden, payment_method, COALESCE(note, ''), created_at
		FROM transactions
		WHERE id = $1`, id).
		Scan(&t.ID, &t.SessionID, &t.OperatorID, &t.Currency, &t.Computed, &t.Total,
			&t.Overridden, &t.PaymentMethod, &t.Note, &t.CreatedAt)
	if err != nil {
		return Transaction{}, ErrNotFound
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT product_id, product_name, type_id, qty, unit_price, override, line_total
		FROM transaction_items
		WHERE transaction_id = $1
		ORDER BY product_name`, id)
	if err != nil {
		return Transaction{}, fmt.Errorf("load transaction items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.TypeID, &item.Qty,
			&item.UnitPrice, &item.Override, &item.LineTotal); err != nil {
			return Transaction{}, fmt.Errorf("scan transaction item: %w", err)
		}
		t.Items = append(t.Items, item)
	}
	return t, rows.Err()
}

// ExportRows builds the spreadsheet rows for a recorded transaction.
func (s *Service) ExportRows(ctx context.Context, id string) ([]export.Row, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rows := make([]export.Row, 0, len(t.Items))
	for _, item := range t.Items {
		rows = append(rows, export.Row{
			RecordedAt:    t.CreatedAt,
			TransactionID: t.ID,
			Operator:      t.OperatorID,
			PaymentMethod: t.PaymentMethod,
			Currency:      t.Currency,
			Product:       item.ProductName,
			Qty:           item.Qty,
			LineTotal:     item.LineTotal,
			OrderTotal:    t.Total,
			Overridden:    t.Overridden,
		})
	}
	return rows, nil
}

func (s *Service) lockTTL() time.Duration {
	if s.LockTTL <= 0 {
		return 15 * time.Second
	}
	return s.LockTTL
}

func (s *Service) count(method, result string) {
	if obs.TransactionsTotal != nil {
		obs.TransactionsTotal.WithLabelValues(method, result).Inc()
	}
}

// nullable maps an empty string to NULL for uuid columns.
func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
