package gateways

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"storefront/internal/models"
)

// WalletGateway is the redirect-wallet processor adapter. Creating a payment
// yields an approval URL the customer is redirected to; the outcome arrives
// asynchronously via webhook. Webhook signatures are a plain hex HMAC of the
// body in the signature header.
type WalletGateway struct {
	apiKey        string
	webhookSecret []byte
	endpoint      string
	returnURL     string
	client        *http.Client
}

// WalletConfig holds wallet gateway connection details.
type WalletConfig struct {
	APIKey        string
	WebhookSecret string
	Endpoint      string
	ReturnURL     string
	Timeout       time.Duration
}

// NewWalletGateway creates a new WalletGateway.
func NewWalletGateway(cfg WalletConfig) *WalletGateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WalletGateway{
		apiKey:        cfg.APIKey,
		webhookSecret: []byte(cfg.WebhookSecret),
		endpoint:      cfg.Endpoint,
		returnURL:     cfg.ReturnURL,
		client:        &http.Client{Timeout: timeout},
	}
}

// Provider returns the provider name used in routes and payment records.
func (g *WalletGateway) Provider() string { return "wallet" }

// CreateIntent creates a wallet order and returns its approval URL.
func (g *WalletGateway) CreateIntent(ctx context.Context, orderID string, amount float64, currency string) (*Intent, error) {
	req := map[string]interface{}{
		"amount":       int64(math.Round(amount * 100)),
		"currency":     strings.ToUpper(currency),
		"reference_id": orderID,
		"return_url":   g.returnURL,
	}

	var resp struct {
		OrderID     string `json:"order_id"`
		ApprovalURL string `json:"approval_url"`
	}
	if err := postJSON(ctx, g.client, g.endpoint+"/v2/orders", g.apiKey, req, &resp); err != nil {
		return nil, fmt.Errorf("wallet order for order %s: %w", orderID, err)
	}
	if resp.OrderID == "" || resp.ApprovalURL == "" {
		return nil, fmt.Errorf("wallet order for order %s: provider response incomplete", orderID)
	}

	return &Intent{
		ProviderRef:   resp.OrderID,
		ClientPayload: map[string]string{"approval_url": resp.ApprovalURL},
	}, nil
}

// Refund returns a captured wallet payment.
func (g *WalletGateway) Refund(ctx context.Context, providerRef string, amount float64, currency string) error {
	req := map[string]interface{}{
		"capture_id": providerRef,
		"amount":     int64(math.Round(amount * 100)),
		"currency":   strings.ToUpper(currency),
	}
	var resp struct {
		RefundID string `json:"refund_id"`
	}
	if err := postJSON(ctx, g.client, g.endpoint+"/v2/refunds", g.apiKey, req, &resp); err != nil {
		return fmt.Errorf("wallet refund for %s: %w", providerRef, err)
	}
	return nil
}

// VerifyWebhook authenticates a wallet webhook delivery.
func (g *WalletGateway) VerifyWebhook(rawBody []byte, signatureHeader string) (*VerifiedEvent, error) {
	if signatureHeader == "" || !verifyHex(g.webhookSecret, rawBody, signatureHeader) {
		return nil, fmt.Errorf("%w: wallet signature mismatch", models.ErrSignature)
	}
	return decodeEvent(rawBody)
}

// SignWebhook produces the signature header for a body. Exposed for the
// provider simulator and tests.
func (g *WalletGateway) SignWebhook(rawBody []byte) string {
	return signHex(g.webhookSecret, rawBody)
}
