// Package payment talks to the hosted payment gateway and verifies its
// signed confirmations.
package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/example/reshoe/pkg/config"
)

// Gateway is the surface the bridge and settlement code consume; the
// Razorpay client implements it.
type Gateway interface {
	CreateOrder(ctx context.Context, params CreateOrderParams) (*GatewayOrder, error)
	FetchPayment(ctx context.Context, paymentID string) (*Payment, error)
	VerifySignature(orderID, paymentID, signature string) bool
	KeyID() string
}

type CreateOrderParams struct {
	Amount   int64             `json:"amount"` // minor currency units
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type Payment struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Method   string `json:"method"`
}

type RazorpayClient struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
}

func NewRazorpayClient(cfg *config.RazorpayConfig) *RazorpayClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.razorpay.com/v1"
	}
	return &RazorpayClient{
		baseURL:   baseURL,
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *RazorpayClient) KeyID() string { return c.keyID }

func (c *RazorpayClient) CreateOrder(ctx context.Context, params CreateOrderParams) (*GatewayOrder, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode gateway order: %w", err)
	}

	var order GatewayOrder
	if err := c.do(ctx, http.MethodPost, "/orders", bytes.NewReader(body), &order); err != nil {
		return nil, fmt.Errorf("create gateway order: %w", err)
	}
	return &order, nil
}

func (c *RazorpayClient) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	var payment Payment
	if err := c.do(ctx, http.MethodGet, "/payments/"+paymentID, nil, &payment); err != nil {
		return nil, fmt.Errorf("fetch payment: %w", err)
	}
	return &payment, nil
}

// VerifySignature recomputes HMAC-SHA256 over "orderID|paymentID" with
// the key secret and compares it against the hex signature the client
// submitted. Malformed input simply fails the comparison.
func (c *RazorpayClient) VerifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.keySecret))
	fmt.Fprintf(mac, "%s|%s", orderID, paymentID)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (c *RazorpayClient) do(ctx context.Context, method, path string, body io.Reader, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, data)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}
