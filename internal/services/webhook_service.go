package services

import (
	"context"
	"fmt"
	"log"

	"storefront/internal/gateways"
	"storefront/internal/models"
	"storefront/internal/repositories"
)

// FailurePolicy controls what happens to an order whose payment attempt
// fails: keep it pending so the customer can retry with a new attempt, or
// cancel it outright.
type FailurePolicy string

const (
	FailurePolicyRetry  FailurePolicy = "retry"
	FailurePolicyCancel FailurePolicy = "cancel"
)

// WebhookService applies verified payment-provider events to orders. Every
// event passes the idempotency guard before any mutation, so provider
// redeliveries and out-of-order duplicates are safe.
type WebhookService struct {
	orderRepo     repositories.OrderRepository
	inventoryRepo repositories.InventoryRepository
	paymentRepo   repositories.PaymentRepository
	guard         repositories.IdempotencyGuard
	registry      *gateways.Registry
	publisher     EventPublisher
	failurePolicy FailurePolicy
}

// NewWebhookService creates a new WebhookService.
func NewWebhookService(
	orderRepo repositories.OrderRepository,
	inventoryRepo repositories.InventoryRepository,
	paymentRepo repositories.PaymentRepository,
	guard repositories.IdempotencyGuard,
	registry *gateways.Registry,
	publisher EventPublisher,
	failurePolicy FailurePolicy,
) *WebhookService {
	if failurePolicy == "" {
		failurePolicy = FailurePolicyRetry
	}
	return &WebhookService{
		orderRepo:     orderRepo,
		inventoryRepo: inventoryRepo,
		paymentRepo:   paymentRepo,
		guard:         guard,
		registry:      registry,
		publisher:     publisher,
		failurePolicy: failurePolicy,
	}
}

// HandleDelivery verifies a raw webhook delivery for a provider and applies
// the resulting event. Verification happens before anything else: unverified
// payloads are never trusted.
func (s *WebhookService) HandleDelivery(ctx context.Context, provider string, rawBody []byte, signatureHeader string) error {
	gateway, err := s.registry.Get(provider)
	if err != nil {
		return err
	}
	event, err := gateway.VerifyWebhook(rawBody, signatureHeader)
	if err != nil {
		return err
	}
	return s.Apply(ctx, provider, event)
}

// Apply applies a verified event at most once. Errors after the guard was
// acquired release the guard again so the provider's redelivery can retry.
func (s *WebhookService) Apply(ctx context.Context, provider string, event *gateways.VerifiedEvent) error {
	record, err := s.paymentRepo.GetByProviderRef(event.ProviderRef)
	if err != nil {
		return fmt.Errorf("payment for webhook event %s: %w", event.EventID, err)
	}

	// Fast no-op for redeliveries that already took effect.
	if record.Status == models.PaymentSucceeded || record.Status == models.PaymentRefunded {
		return nil
	}
	if record.Status == models.PaymentFailed && event.Outcome == gateways.OutcomeFailed {
		return nil
	}

	key := fmt.Sprintf("%s:%s:%s", provider, event.ProviderRef, event.Outcome)
	acquired, err := s.guard.Acquire(ctx, key)
	if err != nil {
		return fmt.Errorf("idempotency guard for event %s: %w", event.EventID, err)
	}
	if !acquired {
		return nil
	}

	if err := s.apply(ctx, record, event); err != nil {
		if forgetErr := s.guard.Forget(ctx, key); forgetErr != nil {
			log.Printf("ALERT: failed to release idempotency key %s after error: %v", key, forgetErr)
		}
		return err
	}
	return nil
}

func (s *WebhookService) apply(ctx context.Context, record *models.PaymentRecord, event *gateways.VerifiedEvent) error {
	order, err := s.orderRepo.GetByID(record.OrderID)
	if err != nil {
		return err
	}

	switch event.Outcome {
	case gateways.OutcomeSucceeded:
		return s.applySuccess(ctx, order, record, event)
	case gateways.OutcomeFailed:
		return s.applyFailure(order, record, event)
	default:
		return fmt.Errorf("%w: unknown outcome %q", models.ErrValidation, event.Outcome)
	}
}

// applySuccess marks the payment succeeded, confirms the order and converts
// every line's reservation into a permanent deduction.
func (s *WebhookService) applySuccess(ctx context.Context, order *models.Order, record *models.PaymentRecord, event *gateways.VerifiedEvent) error {
	// The customer may have cancelled while the charge was in flight. The
	// capture is real but nothing can be confirmed anymore, so the money
	// goes straight back instead.
	if !order.CanTransition(models.OrderConfirmed) {
		return s.applyStaleSuccess(ctx, order, record, event)
	}

	record.Status = models.PaymentSucceeded
	record.RawResponse = string(event.Raw)
	if err := s.paymentRepo.Update(record); err != nil {
		return fmt.Errorf("failed to mark payment %s succeeded: %w", record.ProviderRef, err)
	}

	if err := order.TransitionPayment(models.PaymentSucceeded); err != nil {
		return err
	}
	if err := order.Transition(models.OrderConfirmed); err != nil {
		return err
	}
	if err := s.orderRepo.Update(order); err != nil {
		return fmt.Errorf("failed to confirm order %s: %w", order.ID, err)
	}

	for _, line := range order.Lines {
		if err := s.inventoryRepo.Confirm(line.ProductID, line.Quantity); err != nil {
			// A confirm failure here means the ledger and the order
			// disagree, which is a bug, not an operational condition.
			log.Printf("ALERT: failed to confirm %d x product %s for order %s: %v",
				line.Quantity, line.ProductID, order.ID, err)
		}
	}

	publishOrderEvent(s.publisher, EventOrderConfirmed, order)
	return nil
}

// applyStaleSuccess refunds a capture that landed after its order already
// left the pending state. The refund runs before the record goes terminal:
// if the provider call fails the guard is released and the redelivery
// retries the refund.
func (s *WebhookService) applyStaleSuccess(ctx context.Context, order *models.Order, record *models.PaymentRecord, event *gateways.VerifiedEvent) error {
	gateway, err := s.registry.Get(record.Provider)
	if err != nil {
		return err
	}
	if err := gateway.Refund(ctx, record.ProviderRef, record.Amount, record.Currency); err != nil {
		return fmt.Errorf("failed to refund stale capture %s on order %s: %w", record.ProviderRef, order.ID, err)
	}

	record.Status = models.PaymentRefunded
	record.RawResponse = string(event.Raw)
	if err := s.paymentRepo.Update(record); err != nil {
		log.Printf("ALERT: refunded stale capture %s on order %s but failed to persist the record: %v",
			record.ProviderRef, order.ID, err)
		return nil
	}

	if order.TransitionPayment(models.PaymentSucceeded) == nil &&
		order.TransitionPayment(models.PaymentRefunded) == nil {
		if err := s.orderRepo.Update(order); err != nil {
			log.Printf("ALERT: failed to persist refunded payment status on order %s: %v", order.ID, err)
		}
	}

	log.Printf("refunded capture %s that arrived after order %s was already %s",
		record.ProviderRef, order.ID, order.Status)
	return nil
}

// applyFailure marks the payment failed and, since the order has no other
// path to completion, releases the reserved inventory. The order itself
// stays pending for a retry or is cancelled, per the configured policy.
func (s *WebhookService) applyFailure(order *models.Order, record *models.PaymentRecord, event *gateways.VerifiedEvent) error {
	record.Status = models.PaymentFailed
	record.RawResponse = string(event.Raw)
	if err := s.paymentRepo.Update(record); err != nil {
		return fmt.Errorf("failed to mark payment %s failed: %w", record.ProviderRef, err)
	}

	if err := order.TransitionPayment(models.PaymentFailed); err != nil {
		return err
	}

	for i := len(order.Lines) - 1; i >= 0; i-- {
		line := order.Lines[i]
		if err := s.inventoryRepo.Release(line.ProductID, line.Quantity); err != nil {
			log.Printf("ALERT: failed to release %d x product %s after failed payment on order %s: %v",
				line.Quantity, line.ProductID, order.ID, err)
		}
	}

	if s.failurePolicy == FailurePolicyCancel {
		if err := order.Transition(models.OrderCancelled); err != nil {
			return err
		}
	}

	if err := s.orderRepo.Update(order); err != nil {
		return fmt.Errorf("failed to persist failed payment on order %s: %w", order.ID, err)
	}

	publishOrderEvent(s.publisher, EventPaymentFailed, order)
	return nil
}
