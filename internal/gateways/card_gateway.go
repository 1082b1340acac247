package gateways

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"storefront/internal/models"
)

// signatureTolerance bounds how old a timestamped card webhook signature may
// be before it is rejected as a possible replay.
const signatureTolerance = 5 * time.Minute

// CardGateway is the direct-capture card processor adapter. Intents return a
// client secret for synchronous confirmation in the storefront; webhooks
// carry a timestamped signature header "t=<unix>,v1=<hex hmac>" where the
// signed message is "<t>.<body>".
type CardGateway struct {
	apiKey        string
	webhookSecret []byte
	endpoint      string
	client        *http.Client
	now           func() time.Time // swapped in tests
}

// CardConfig holds card gateway connection details.
type CardConfig struct {
	APIKey        string
	WebhookSecret string
	Endpoint      string
	Timeout       time.Duration
}

// NewCardGateway creates a new CardGateway.
func NewCardGateway(cfg CardConfig) *CardGateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CardGateway{
		apiKey:        cfg.APIKey,
		webhookSecret: []byte(cfg.WebhookSecret),
		endpoint:      cfg.Endpoint,
		client:        &http.Client{Timeout: timeout},
		now:           time.Now,
	}
}

// Provider returns the provider name used in routes and payment records.
func (g *CardGateway) Provider() string { return "card" }

// CreateIntent requests a payment intent for the order total. The order ID
// doubles as the idempotency key, so a retried checkout cannot double-charge.
func (g *CardGateway) CreateIntent(ctx context.Context, orderID string, amount float64, currency string) (*Intent, error) {
	req := map[string]interface{}{
		"amount":          int64(math.Round(amount * 100)), // smallest currency unit
		"currency":        strings.ToLower(currency),
		"idempotency_key": orderID,
		"metadata":        map[string]string{"order_id": orderID},
	}

	var resp struct {
		ID           string `json:"id"`
		ClientSecret string `json:"client_secret"`
	}
	if err := postJSON(ctx, g.client, g.endpoint+"/v1/payment_intents", g.apiKey, req, &resp); err != nil {
		return nil, fmt.Errorf("card intent for order %s: %w", orderID, err)
	}
	if resp.ID == "" || resp.ClientSecret == "" {
		return nil, fmt.Errorf("card intent for order %s: provider response incomplete", orderID)
	}

	return &Intent{
		ProviderRef:   resp.ID,
		ClientPayload: map[string]string{"client_secret": resp.ClientSecret},
	}, nil
}

// Refund returns a captured card payment.
func (g *CardGateway) Refund(ctx context.Context, providerRef string, amount float64, currency string) error {
	req := map[string]interface{}{
		"payment_intent": providerRef,
		"amount":         int64(math.Round(amount * 100)),
		"currency":       strings.ToLower(currency),
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := postJSON(ctx, g.client, g.endpoint+"/v1/refunds", g.apiKey, req, &resp); err != nil {
		return fmt.Errorf("card refund for %s: %w", providerRef, err)
	}
	return nil
}

// VerifyWebhook authenticates a card webhook delivery.
func (g *CardGateway) VerifyWebhook(rawBody []byte, signatureHeader string) (*VerifiedEvent, error) {
	var ts, sig string
	for _, part := range strings.Split(signatureHeader, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts = v
		case "v1":
			sig = v
		}
	}
	if ts == "" || sig == "" {
		return nil, fmt.Errorf("%w: malformed card signature header", models.ErrSignature)
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad timestamp in card signature header", models.ErrSignature)
	}
	age := g.now().Sub(time.Unix(unix, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return nil, fmt.Errorf("%w: card signature timestamp outside tolerance", models.ErrSignature)
	}

	signed := append([]byte(ts+"."), rawBody...)
	if !verifyHex(g.webhookSecret, signed, sig) {
		return nil, fmt.Errorf("%w: card signature mismatch", models.ErrSignature)
	}

	return decodeEvent(rawBody)
}

// SignWebhook produces the signature header for a body at the given time.
// Exposed for the provider simulator and tests.
func (g *CardGateway) SignWebhook(rawBody []byte, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	signed := append([]byte(ts+"."), rawBody...)
	return fmt.Sprintf("t=%s,v1=%s", ts, signHex(g.webhookSecret, signed))
}
