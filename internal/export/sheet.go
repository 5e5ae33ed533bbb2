package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/evertill/pos-api/internal/resilience"
)

// NewHTTPClient returns an HTTP client for sheet delivery with a traced
// transport, so export attempts show up as client spans alongside the task
// span.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// Row is one spreadsheet line: a transaction item with its transaction
// context, ready to append as-is.
type Row struct {
	RecordedAt    time.Time `json:"recordedAt"`
	TransactionID string    `json:"transactionId"`
	Operator      string    `json:"operator"`
	PaymentMethod string    `json:"paymentMethod"`
	Currency      string    `json:"currency"`
	Product       string    `json:"product"`
	Qty           int       `json:"qty"`
	LineTotal     float64   `json:"lineTotal"`
	OrderTotal    float64   `json:"orderTotal"`
	Overridden    bool      `json:"overridden"`
}

// SheetClient appends rows to the external spreadsheet service. The service
// expects a bearer token and a JSON body of rows.
type SheetClient struct {
	URL    string
	Token  string
	Client resilience.HTTPClient
}

// Append delivers rows to the spreadsheet service.
func (c *SheetClient) Append(ctx context.Context, rows []Row) error {
	if c == nil || c.URL == "" {
		return errors.New("sheet client not configured")
	}
	if len(rows) == 0 {
		return nil
	}
	body, err := json.Marshal(map[string]any{"rows": rows})
	if err != nil {
		return fmt.Errorf("encode sheet rows: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.Client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("append sheet rows: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sheet service returned %d: %s", resp.StatusCode, string(snippet))
	}
	return nil
}
