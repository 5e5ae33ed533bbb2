package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// TaskTypeTransaction is the asynq task type for exporting one recorded
// transaction to the spreadsheet service.
const TaskTypeTransaction = "export:transaction"

// TransactionPayload is the asynq payload: just the id, the worker reloads
// the rows so the queue never carries stale amounts.
type TransactionPayload struct {
	TransactionID string `json:"transactionId"`
}

// NewTransactionTask builds the asynq task for a recorded transaction.
func NewTransactionTask(transactionID string) (*asynq.Task, error) {
	payload, err := json.Marshal(TransactionPayload{TransactionID: transactionID})
	if err != nil {
		return nil, fmt.Errorf("encode export payload: %w", err)
	}
	return asynq.NewTask(TaskTypeTransaction, payload), nil
}

// Enqueuer schedules export tasks on the asynq queue.
type Enqueuer struct {
	Client   *asynq.Client
	MaxRetry int
	Timeout  time.Duration
}

// EnqueueTransaction schedules the export of a recorded transaction. Retries
// and per-attempt timeouts are delegated to asynq.
func (e *Enqueuer) EnqueueTransaction(ctx context.Context, transactionID string) error {
	if e == nil || e.Client == nil {
		return errors.New("export enqueuer not configured")
	}
	task, err := NewTransactionTask(transactionID)
	if err != nil {
		return err
	}
	opts := []asynq.Option{}
	if e.MaxRetry > 0 {
		opts = append(opts, asynq.MaxRetry(e.MaxRetry))
	}
	if e.Timeout > 0 {
		opts = append(opts, asynq.Timeout(e.Timeout))
	}
	if _, err := e.Client.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("enqueue export task: %w", err)
	}
	return nil
}
