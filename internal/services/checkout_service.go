package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"storefront/internal/gateways"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// CheckoutRequest is a cart snapshot plus everything needed to place an
// order: addresses, payment provider choice and optional customer identity
// (nil UserID means guest checkout).
type CheckoutRequest struct {
	Lines           []models.CartLine `json:"lines" validate:"required,min=1,dive"`
	UserID          *string           `json:"user_id" validate:"omitempty,uuid"`
	ShippingAddress models.Address    `json:"shipping_address"`
	BillingAddress  models.Address    `json:"billing_address"`
	Provider        string            `json:"payment_provider" validate:"required"`
	Notes           string            `json:"notes" validate:"omitempty,max=1000"`
}

// CheckoutResult is the order plus the provider payload the storefront needs
// to continue the payment (client secret, approval URL or QR code). Checkout
// does not block on payment completion; the outcome arrives via webhook.
type CheckoutResult struct {
	Order    *models.Order    `json:"order"`
	Provider string           `json:"payment_provider"`
	Payment  *gateways.Intent `json:"payment"`
}

// CartValidation is the informational availability check result. The true
// guarantee happens at reserve time.
type CartValidation struct {
	Valid            bool                     `json:"valid"`
	Lines            []models.OrderLine       `json:"lines,omitempty"`
	UnavailableLines []models.UnavailableLine `json:"unavailable_lines,omitempty"`
}

// CheckoutService orchestrates checkout: validate cart, compute pricing,
// reserve inventory, create the order, create a payment intent. Any failure
// after partial reservation releases every reservation taken so far before
// returning, so inventory is never left held against an order that cannot
// proceed to payment.
type CheckoutService struct {
	orderRepo     repositories.OrderRepository
	productRepo   repositories.ProductRepository
	inventoryRepo repositories.InventoryRepository
	paymentRepo   repositories.PaymentRepository
	pricing       *PricingService
	registry      *gateways.Registry
	publisher     EventPublisher
	validate      *validator.Validate
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(
	orderRepo repositories.OrderRepository,
	productRepo repositories.ProductRepository,
	inventoryRepo repositories.InventoryRepository,
	paymentRepo repositories.PaymentRepository,
	pricing *PricingService,
	registry *gateways.Registry,
	publisher EventPublisher,
) *CheckoutService {
	return &CheckoutService{
		orderRepo:     orderRepo,
		productRepo:   productRepo,
		inventoryRepo: inventoryRepo,
		paymentRepo:   paymentRepo,
		pricing:       pricing,
		registry:      registry,
		publisher:     publisher,
		validate:      validator.New(),
	}
}

// ValidateCart checks every cart line against the catalog and the inventory
// ledger without mutating anything. A line fails when its product is missing,
// inactive, or has fewer units available than requested.
func (s *CheckoutService) ValidateCart(lines []models.CartLine) (*CartValidation, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", models.ErrValidation)
	}
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive for product %s", models.ErrValidation, line.ProductID)
		}
	}

	snapshots, unavailable := s.snapshotLines(lines)
	if len(unavailable) > 0 {
		return &CartValidation{Valid: false, UnavailableLines: unavailable}, nil
	}
	return &CartValidation{Valid: true, Lines: snapshots}, nil
}

// Quote prices a cart snapshot for a destination without placing an order.
func (s *CheckoutService) Quote(lines []models.CartLine, destination models.Address) (*Quote, error) {
	validation, err := s.ValidateCart(lines)
	if err != nil {
		return nil, err
	}
	if !validation.Valid {
		return nil, fmt.Errorf("%w: %d cart lines unavailable", models.ErrValidation, len(validation.UnavailableLines))
	}
	quote := s.pricing.Calculate(validation.Lines, destination)
	return &quote, nil
}

// Checkout runs the full checkout sequence and returns the pending order
// together with the provider payment payload.
func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	gateway, err := s.registry.Get(req.Provider)
	if err != nil {
		return nil, err
	}

	// Step 1: informational availability check, no mutation yet.
	validation, err := s.ValidateCart(req.Lines)
	if err != nil {
		return nil, err
	}
	if !validation.Valid {
		return nil, fmt.Errorf("%w: %d cart lines unavailable", models.ErrInsufficientInventory, len(validation.UnavailableLines))
	}
	lines := validation.Lines

	// Step 2: pricing.
	quote := s.pricing.Calculate(lines, req.ShippingAddress)
	currency := s.currencyFor(lines)

	// Step 3: reserve inventory, line by line. A later failure releases
	// every reservation already taken, in reverse order of acquisition.
	reserved := 0
	for i, line := range lines {
		if err := s.inventoryRepo.Reserve(line.ProductID, line.Quantity); err != nil {
			s.releaseLines(lines[:i])
			return nil, fmt.Errorf("failed to reserve product %s: %w", line.ProductID, err)
		}
		reserved = i + 1
	}

	// Step 4: create the order in pending status with snapshots of lines,
	// addresses and computed totals.
	order := &models.Order{
		ID:              uuid.New().String(),
		OrderNumber:     newOrderNumber(),
		UserID:          req.UserID,
		Lines:           lines,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		Subtotal:        quote.Subtotal,
		TaxAmount:       quote.TaxAmount,
		ShippingAmount:  quote.ShippingAmount,
		TotalAmount:     quote.TotalAmount,
		Currency:        currency,
		Status:          models.OrderPending,
		PaymentStatus:   models.PaymentPending,
		PaymentMethod:   req.Provider,
		Notes:           req.Notes,
		CreatedAt:       time.Now().UTC(),
		UpdatedAt:       time.Now().UTC(),
	}
	if err := s.orderRepo.Create(order); err != nil {
		s.releaseLines(lines[:reserved])
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// Step 5: create the payment intent, tagged with the order ID as the
	// idempotency/correlation key. On failure the reservations are released
	// and the never-visible order row is removed, restoring the
	// pre-checkout state exactly.
	intent, err := gateway.CreateIntent(ctx, order.ID, order.TotalAmount, currency)
	if err != nil {
		s.rollbackOrder(order, lines)
		return nil, fmt.Errorf("failed to create payment intent for order %s: %w", order.ID, err)
	}

	record := &models.PaymentRecord{
		ID:          uuid.New().String(),
		OrderID:     order.ID,
		Provider:    req.Provider,
		ProviderRef: intent.ProviderRef,
		Amount:      order.TotalAmount,
		Currency:    currency,
		Status:      models.PaymentPending,
	}
	if err := s.paymentRepo.Create(record); err != nil {
		s.rollbackOrder(order, lines)
		return nil, fmt.Errorf("failed to create payment record for order %s: %w", order.ID, err)
	}

	order.PaymentRef = intent.ProviderRef
	if err := s.orderRepo.Update(order); err != nil {
		return nil, fmt.Errorf("failed to attach payment reference to order %s: %w", order.ID, err)
	}

	publishOrderEvent(s.publisher, EventOrderCreated, order)

	return &CheckoutResult{
		Order:    order,
		Provider: req.Provider,
		Payment:  intent,
	}, nil
}

// CreatePaymentAttempt starts a fresh payment attempt for an order whose
// previous attempt failed. The inventory released on failure is re-reserved
// first; if the new intent cannot be created the re-reservation is undone
// and the order stays retryable.
func (s *CheckoutService) CreatePaymentAttempt(ctx context.Context, orderID, provider string) (*CheckoutResult, error) {
	gateway, err := s.registry.Get(provider)
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderPending {
		return nil, fmt.Errorf("%w: order %s is %s, not pending", models.ErrInvalidTransition, orderID, order.Status)
	}
	if order.PaymentStatus != models.PaymentFailed {
		return nil, fmt.Errorf("%w: order %s payment status is %s, only failed attempts can be retried",
			models.ErrInvalidTransition, orderID, order.PaymentStatus)
	}

	reserved := 0
	for i, line := range order.Lines {
		if err := s.inventoryRepo.Reserve(line.ProductID, line.Quantity); err != nil {
			s.releaseLines(order.Lines[:i])
			return nil, fmt.Errorf("failed to re-reserve product %s: %w", line.ProductID, err)
		}
		reserved = i + 1
	}

	intent, err := gateway.CreateIntent(ctx, order.ID, order.TotalAmount, order.Currency)
	if err != nil {
		s.releaseLines(order.Lines[:reserved])
		return nil, fmt.Errorf("failed to create payment intent for order %s: %w", order.ID, err)
	}

	record := &models.PaymentRecord{
		ID:          uuid.New().String(),
		OrderID:     order.ID,
		Provider:    provider,
		ProviderRef: intent.ProviderRef,
		Amount:      order.TotalAmount,
		Currency:    order.Currency,
		Status:      models.PaymentPending,
	}
	if err := s.paymentRepo.Create(record); err != nil {
		s.releaseLines(order.Lines[:reserved])
		return nil, fmt.Errorf("failed to create payment record for order %s: %w", order.ID, err)
	}

	// A new attempt resets payment status for the new record.
	if err := order.TransitionPayment(models.PaymentPending); err != nil {
		return nil, err
	}
	order.PaymentMethod = provider
	order.PaymentRef = intent.ProviderRef
	if err := s.orderRepo.Update(order); err != nil {
		return nil, fmt.Errorf("failed to update order %s for new payment attempt: %w", order.ID, err)
	}

	return &CheckoutResult{
		Order:    order,
		Provider: provider,
		Payment:  intent,
	}, nil
}

// snapshotLines resolves cart lines against the catalog and the ledger,
// producing order-line snapshots of name, sku, price and weight.
func (s *CheckoutService) snapshotLines(lines []models.CartLine) ([]models.OrderLine, []models.UnavailableLine) {
	var snapshots []models.OrderLine
	var unavailable []models.UnavailableLine

	for _, line := range lines {
		product, err := s.productRepo.GetByID(line.ProductID)
		if err != nil {
			unavailable = append(unavailable, models.UnavailableLine{
				ProductID: line.ProductID, Requested: line.Quantity, Reason: "not_found",
			})
			continue
		}
		if !product.IsActive {
			unavailable = append(unavailable, models.UnavailableLine{
				ProductID: line.ProductID, Requested: line.Quantity, Reason: "inactive",
			})
			continue
		}

		record, err := s.inventoryRepo.GetByProductID(line.ProductID)
		available := 0
		if err == nil {
			available = record.QuantityAvailable
		}
		if available < line.Quantity {
			unavailable = append(unavailable, models.UnavailableLine{
				ProductID: line.ProductID, Requested: line.Quantity, Available: available, Reason: "insufficient_stock",
			})
			continue
		}

		snapshots = append(snapshots, models.OrderLine{
			ProductID:   product.ID,
			ProductName: product.Name,
			ProductSKU:  product.SKU,
			Quantity:    line.Quantity,
			UnitPrice:   product.Price,
			LineTotal:   product.Price * float64(line.Quantity),
			Weight:      product.Weight,
		})
	}

	return snapshots, unavailable
}

// releaseLines is the compensating action for partial reservation: it
// releases the given lines in reverse order of acquisition. Release errors
// are logged; there is nothing more the orchestrator can do about them here.
func (s *CheckoutService) releaseLines(lines []models.OrderLine) {
	for i := len(lines) - 1; i >= 0; i-- {
		if err := s.inventoryRepo.Release(lines[i].ProductID, lines[i].Quantity); err != nil {
			log.Printf("ALERT: failed to release reservation of %d x product %s during rollback: %v",
				lines[i].Quantity, lines[i].ProductID, err)
		}
	}
}

// rollbackOrder undoes a checkout that got as far as creating the order row:
// all reservations are released and the row, which never became visible to
// the customer, is deleted.
func (s *CheckoutService) rollbackOrder(order *models.Order, lines []models.OrderLine) {
	s.releaseLines(lines)
	if err := s.orderRepo.Delete(order.ID); err != nil {
		log.Printf("ALERT: failed to delete order %s during rollback: %v", order.ID, err)
	}
}

// currencyFor picks the order currency from the snapshotted products,
// defaulting to USD.
func (s *CheckoutService) currencyFor(lines []models.OrderLine) string {
	for _, line := range lines {
		if product, err := s.productRepo.GetByID(line.ProductID); err == nil && product.Currency != "" {
			return product.Currency
		}
	}
	return "USD"
}

// newOrderNumber generates a short human-referenceable order number.
func newOrderNumber() string {
	return "ORD-" + strings.ToUpper(uuid.New().String()[:8])
}
