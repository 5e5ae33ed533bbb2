package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/evertill/pos-api/internal/obs"
)

// RowSource loads the spreadsheet rows for a recorded transaction.
type RowSource interface {
	ExportRows(ctx context.Context, transactionID string) ([]Row, error)
}

// Worker handles export tasks: load the recorded rows, append them to the
// spreadsheet service, count the outcome. Failures are returned to asynq,
// which owns the retry schedule.
type Worker struct {
	Source RowSource
	Sheet  *SheetClient
	Logger zerolog.Logger
}

// HandleTransaction processes one export:transaction task.
func (w *Worker) HandleTransaction(ctx context.Context, task *asynq.Task) error {
	if w == nil || w.Source == nil || w.Sheet == nil {
		return errors.New("export worker not configured")
	}
	var payload TransactionPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		// A malformed payload never becomes valid; skip retries.
		return fmt.Errorf("decode export payload: %w: %w", err, asynq.SkipRetry)
	}

	start := time.Now()
	rows, err := w.Source.ExportRows(ctx, payload.TransactionID)
	if err != nil {
		w.observe("load_failed", start)
		return fmt.Errorf("load export rows for %s: %w", payload.TransactionID, err)
	}
	if len(rows) == 0 {
		w.observe("empty", start)
		w.Logger.Warn().Str("transaction_id", payload.TransactionID).Msg("export task had no rows")
		return nil
	}
	if err := w.Sheet.Append(ctx, rows); err != nil {
		w.observe("failed", start)
		return fmt.Errorf("append rows for %s: %w", payload.TransactionID, err)
	}
	w.observe("delivered", start)
	w.Logger.Info().
		Str("transaction_id", payload.TransactionID).
		Int("rows", len(rows)).
		Msg("transaction exported")
	return nil
}

// Register attaches the worker's handlers to an asynq mux.
func (w *Worker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskTypeTransaction, w.HandleTransaction)
}

func (w *Worker) observe(result string, start time.Time) {
	if obs.ExportDeliveriesTotal != nil {
		obs.ExportDeliveriesTotal.WithLabelValues(result).Inc()
	}
	if obs.ExportAttemptLatency != nil {
		obs.ExportAttemptLatency.WithLabelValues(result).Observe(obs.DurationMillis(time.Since(start)))
	}
}
