package gateways

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"storefront/internal/models"
)

// Outcome is the normalized result of a payment attempt.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)

// Intent is the normalized result of creating a payment with a provider.
// ClientPayload carries whatever the storefront client needs to continue:
// a client secret for card capture, an approval URL for wallet redirects,
// or a QR code payload for scan-to-pay.
type Intent struct {
	ProviderRef   string            `json:"provider_ref"`
	ClientPayload map[string]string `json:"client_payload"`
}

// VerifiedEvent is a payment-provider callback that passed signature
// verification. All provider families converge on this shape before it is
// fed into the order confirmation path.
type VerifiedEvent struct {
	EventID     string  `json:"event_id"`
	OrderID     string  `json:"order_id"`
	Outcome     Outcome `json:"outcome"`
	ProviderRef string  `json:"provider_ref"`
	Raw         []byte  `json:"-"`
}

// PaymentGateway is the provider-neutral contract implemented per provider
// family. CreateIntent must time out rather than hang; webhook payloads must
// never be trusted before VerifyWebhook accepts them.
type PaymentGateway interface {
	Provider() string
	CreateIntent(ctx context.Context, orderID string, amount float64, currency string) (*Intent, error)
	VerifyWebhook(rawBody []byte, signatureHeader string) (*VerifiedEvent, error)
	// Refund returns a captured payment. Used by the post-confirmation
	// cancellation flow; inventory is not touched by refunds.
	Refund(ctx context.Context, providerRef string, amount float64, currency string) error
}

// Registry resolves gateways by provider name for payment creation and
// webhook dispatch.
type Registry struct {
	gateways map[string]PaymentGateway
}

// NewRegistry creates a registry over the given gateways.
func NewRegistry(gws ...PaymentGateway) *Registry {
	r := &Registry{gateways: make(map[string]PaymentGateway)}
	for _, gw := range gws {
		r.gateways[gw.Provider()] = gw
	}
	return r
}

// Get returns the gateway registered under the provider name.
func (r *Registry) Get(provider string) (PaymentGateway, error) {
	gw, ok := r.gateways[provider]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported payment provider %q", models.ErrValidation, provider)
	}
	return gw, nil
}

// signHex computes the hex HMAC-SHA256 of message under secret.
func signHex(secret []byte, message []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}

// verifyHex compares a hex HMAC-SHA256 signature in constant time.
func verifyHex(secret []byte, message []byte, signature string) bool {
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(message)
	return hmac.Equal(got, mac.Sum(nil))
}

// postJSON sends a JSON request to a provider endpoint and decodes the JSON
// response into out. Timeouts, connection errors and 5xx responses map to
// models.ErrProviderUnavailable; other non-2xx responses are plain errors.
func postJSON(ctx context.Context, client *http.Client, url string, apiKey string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal provider request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return fmt.Errorf("%w: request to %s timed out", models.ErrProviderUnavailable, url)
		}
		return fmt.Errorf("%w: %v", models.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: provider returned %d", models.ErrProviderUnavailable, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("provider rejected request with status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode provider response: %w", err)
	}
	return nil
}

// webhookEnvelope is the JSON body all three provider families deliver.
type webhookEnvelope struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"` // "payment.succeeded" or "payment.failed"
	OrderID   string `json:"order_id"`
	Reference string `json:"reference"` // provider payment reference
}

// decodeEvent turns a verified envelope into a VerifiedEvent.
func decodeEvent(rawBody []byte) (*VerifiedEvent, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(rawBody, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed webhook body: %v", models.ErrValidation, err)
	}

	var outcome Outcome
	switch env.EventType {
	case "payment.succeeded":
		outcome = OutcomeSucceeded
	case "payment.failed":
		outcome = OutcomeFailed
	default:
		return nil, fmt.Errorf("%w: unsupported webhook event type %q", models.ErrValidation, env.EventType)
	}

	if env.EventID == "" || env.OrderID == "" || env.Reference == "" {
		return nil, fmt.Errorf("%w: webhook event missing required fields", models.ErrValidation)
	}

	return &VerifiedEvent{
		EventID:     env.EventID,
		OrderID:     env.OrderID,
		Outcome:     outcome,
		ProviderRef: env.Reference,
		Raw:         rawBody,
	}, nil
}
