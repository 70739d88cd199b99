package cryptopay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Client talks to a NOWPayments-compatible crypto payment gateway over its
// REST API. Amounts cross the wire in major units, the rest of the code
// works in minor units.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

type Option func(*Client)

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func NewClient(baseURL, apiKey string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(5), 1),
		logger:     logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type createInvoiceRequest struct {
	PriceAmount      float64 `json:"price_amount"`
	PriceCurrency    string  `json:"price_currency"`
	OrderID          string  `json:"order_id"`
	OrderDescription string  `json:"order_description"`
}

type invoiceResponse struct {
	ID            json.Number `json:"id"`
	InvoiceURL    string      `json:"invoice_url"`
	PaymentStatus string      `json:"payment_status"`
}

func (c *Client) CreateInvoice(ctx context.Context, amount int64, currency, description string) (string, string, error) {
	body := createInvoiceRequest{
		PriceAmount:      float64(amount) / 100,
		PriceCurrency:    currency,
		OrderID:          uuid.New().String(),
		OrderDescription: description,
	}

	var resp invoiceResponse
	if err := c.do(ctx, http.MethodPost, "/invoice", body, &resp); err != nil {
		return "", "", fmt.Errorf("cryptopay: create invoice: %w", err)
	}

	c.logger.Info("crypto invoice created",
		slog.String("invoice_id", resp.ID.String()),
		slog.Int64("amount", amount))

	return resp.ID.String(), resp.InvoiceURL, nil
}

func (c *Client) GetInvoiceStatus(ctx context.Context, invoiceID string) (string, error) {
	var resp invoiceResponse
	if err := c.do(ctx, http.MethodGet, "/payment/"+invoiceID, nil, &resp); err != nil {
		return "", fmt.Errorf("cryptopay: get invoice status: %w", err)
	}

	return resp.PaymentStatus, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiting: %w", err)
	}

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("crypto gateway error",
			slog.String("path", path),
			slog.String("status", strconv.Itoa(resp.StatusCode)),
			slog.String("body", string(raw)))
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}
