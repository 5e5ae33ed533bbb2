package export_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evertill/pos-api/internal/export"
	"github.com/evertill/pos-api/internal/resilience"
)

type stubSource struct {
	rows []export.Row
	err  error
}

func (s stubSource) ExportRows(context.Context, string) ([]export.Row, error) {
	return s.rows, s.err
}

func sampleRows() []export.Row {
	return []export.Row{{
		RecordedAt:    time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
		TransactionID: "txn-1",
		Operator:      "op-1",
		PaymentMethod: "cash",
		Currency:      "EUR",
		Product:       "Beer",
		Qty:           3,
		LineTotal:     18,
		OrderTotal:    23,
	}}
}

func sheetClient(url string) *export.SheetClient {
	return &export.SheetClient{
		URL:   url,
		Token: "secret-token",
		Client: resilience.HTTPClient{
			Client:      export.NewHTTPClient(time.Second),
			MaxAttempts: 1,
		},
	}
}

func transactionTask(t *testing.T, id string) *asynq.Task {
	t.Helper()
	task, err := export.NewTransactionTask(id)
	require.NoError(t, err)
	return task
}

func TestHandleTransactionDeliversRows(t *testing.T) {
	var gotAuth string
	var gotBody struct {
		Rows []export.Row `json:"rows"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	w := &export.Worker{
		Source: stubSource{rows: sampleRows()},
		Sheet:  sheetClient(srv.URL),
		Logger: zerolog.Nop(),
	}
	err := w.HandleTransaction(context.Background(), transactionTask(t, "txn-1"))
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret-token", gotAuth)
	require.Len(t, gotBody.Rows, 1)
	assert.Equal(t, "txn-1", gotBody.Rows[0].TransactionID)
	assert.Equal(t, "Beer", gotBody.Rows[0].Product)
}

func TestHandleTransactionReturnsErrorOnServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	w := &export.Worker{
		Source: stubSource{rows: sampleRows()},
		Sheet:  sheetClient(srv.URL),
		Logger: zerolog.Nop(),
	}
	err := w.HandleTransaction(context.Background(), transactionTask(t, "txn-1"))
	assert.Error(t, err)
}

func TestHandleTransactionSkipsRetryOnBadPayload(t *testing.T) {
	w := &export.Worker{
		Source: stubSource{},
		Sheet:  sheetClient("http://example.invalid"),
		Logger: zerolog.Nop(),
	}
	task := asynq.NewTask(export.TaskTypeTransaction, []byte("not-json"))
	err := w.HandleTransaction(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleTransactionEmptyRowsIsTerminal(t *testing.T) {
	w := &export.Worker{
		Source: stubSource{},
		Sheet:  sheetClient("http://example.invalid"),
		Logger: zerolog.Nop(),
	}
	err := w.HandleTransaction(context.Background(), transactionTask(t, "txn-1"))
	assert.NoError(t, err)
}

func TestHandleTransactionPropagatesSourceError(t *testing.T) {
	w := &export.Worker{
		Source: stubSource{err: errors.New("db down")},
		Sheet:  sheetClient("http://example.invalid"),
		Logger: zerolog.Nop(),
	}
	err := w.HandleTransaction(context.Background(), transactionTask(t, "txn-1"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}
