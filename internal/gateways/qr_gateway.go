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

// QRGateway is the scan-to-pay processor adapter. Creating a payment yields
// a QR code payload the storefront renders; the customer scans it in their
// wallet app and the outcome arrives asynchronously via webhook while the
// client polls the order status.
type QRGateway struct {
	apiKey        string
	webhookSecret []byte
	endpoint      string
	client        *http.Client
}

// QRConfig holds QR gateway connection details.
type QRConfig struct {
	APIKey        string
	WebhookSecret string
	Endpoint      string
	Timeout       time.Duration
}

// NewQRGateway creates a new QRGateway.
func NewQRGateway(cfg QRConfig) *QRGateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &QRGateway{
		apiKey:        cfg.APIKey,
		webhookSecret: []byte(cfg.WebhookSecret),
		endpoint:      cfg.Endpoint,
		client:        &http.Client{Timeout: timeout},
	}
}

// Provider returns the provider name used in routes and payment records.
func (g *QRGateway) Provider() string { return "qr" }

// CreateIntent creates a QR payment and returns the code payload to render.
func (g *QRGateway) CreateIntent(ctx context.Context, orderID string, amount float64, currency string) (*Intent, error) {
	req := map[string]interface{}{
		"total_fee":    int64(math.Round(amount * 100)),
		"currency":     strings.ToUpper(currency),
		"out_trade_no": orderID,
	}

	var resp struct {
		TransactionID string `json:"transaction_id"`
		CodeURL       string `json:"code_url"`
	}
	if err := postJSON(ctx, g.client, g.endpoint+"/pay/unifiedorder", g.apiKey, req, &resp); err != nil {
		return nil, fmt.Errorf("qr payment for order %s: %w", orderID, err)
	}
	if resp.TransactionID == "" || resp.CodeURL == "" {
		return nil, fmt.Errorf("qr payment for order %s: provider response incomplete", orderID)
	}

	return &Intent{
		ProviderRef:   resp.TransactionID,
		ClientPayload: map[string]string{"qr_code": resp.CodeURL},
	}, nil
}

// Refund returns a captured QR payment.
func (g *QRGateway) Refund(ctx context.Context, providerRef string, amount float64, currency string) error {
	req := map[string]interface{}{
		"transaction_id": providerRef,
		"refund_fee":     int64(math.Round(amount * 100)),
		"currency":       strings.ToUpper(currency),
	}
	var resp struct {
		RefundID string `json:"refund_id"`
	}
	if err := postJSON(ctx, g.client, g.endpoint+"/pay/refund", g.apiKey, req, &resp); err != nil {
		return fmt.Errorf("qr refund for %s: %w", providerRef, err)
	}
	return nil
}

// VerifyWebhook authenticates a QR webhook delivery.
func (g *QRGateway) VerifyWebhook(rawBody []byte, signatureHeader string) (*VerifiedEvent, error) {
	if signatureHeader == "" || !verifyHex(g.webhookSecret, rawBody, signatureHeader) {
		return nil, fmt.Errorf("%w: qr signature mismatch", models.ErrSignature)
	}
	return decodeEvent(rawBody)
}

// SignWebhook produces the signature header for a body. Exposed for the
// provider simulator and tests.
func (g *QRGateway) SignWebhook(rawBody []byte) string {
	return signHex(g.webhookSecret, rawBody)
}
