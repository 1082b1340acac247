package services

import (
	"context"
	"fmt"
	"log"

	"storefront/internal/gateways"
	"storefront/internal/models"
	"storefront/internal/repositories"
)

// OrderService handles order retrieval, admin status transitions and
// cancellation. Fulfillment itself is external; shipped/delivered are
// admin-driven forward transitions only.
type OrderService struct {
	orderRepo     repositories.OrderRepository
	inventoryRepo repositories.InventoryRepository
	paymentRepo   repositories.PaymentRepository
	registry      *gateways.Registry
	publisher     EventPublisher
}

// NewOrderService creates a new OrderService.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	inventoryRepo repositories.InventoryRepository,
	paymentRepo repositories.PaymentRepository,
	registry *gateways.Registry,
	publisher EventPublisher,
) *OrderService {
	return &OrderService{
		orderRepo:     orderRepo,
		inventoryRepo: inventoryRepo,
		paymentRepo:   paymentRepo,
		registry:      registry,
		publisher:     publisher,
	}
}

// GetAllOrders retrieves all orders.
func (s *OrderService) GetAllOrders() ([]models.Order, error) {
	return s.orderRepo.GetAll()
}

// GetOrdersByUser retrieves the orders placed by a user.
func (s *OrderService) GetOrdersByUser(userID string) ([]models.Order, error) {
	return s.orderRepo.GetByUserID(userID)
}

// GetOrderByID retrieves a single order by its ID.
func (s *OrderService) GetOrderByID(id string) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// AdvanceStatus moves an order forward through the fulfillment states
// (confirmed -> processing -> shipped -> delivered). The aggregate rejects
// illegal moves; cancellation goes through Cancel, not here.
func (s *OrderService) AdvanceStatus(id string, to models.OrderStatus) (*models.Order, error) {
	if to == models.OrderCancelled {
		return nil, fmt.Errorf("%w: use the cancellation flow to cancel an order", models.ErrInvalidTransition)
	}

	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := order.Transition(to); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Update(order); err != nil {
		return nil, fmt.Errorf("failed to persist status of order %s: %w", id, err)
	}
	return order, nil
}

// Cancel cancels an order. Before payment confirmation the reservations are
// released synchronously. After confirmation the reserved stock was already
// converted to a sale, so cancellation instead refunds the payment through
// the provider; inventory is untouched (returns are an external fulfillment
// concern).
func (s *OrderService) Cancel(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !order.CanTransition(models.OrderCancelled) {
		return nil, fmt.Errorf("%w: order %s in status %s cannot be cancelled", models.ErrInvalidTransition, id, order.Status)
	}

	switch order.PaymentStatus {
	case models.PaymentSucceeded:
		if err := s.refund(ctx, order); err != nil {
			return nil, err
		}
	case models.PaymentPending:
		// Reservation is still held; give it back before the status write.
		for i := len(order.Lines) - 1; i >= 0; i-- {
			line := order.Lines[i]
			if err := s.inventoryRepo.Release(line.ProductID, line.Quantity); err != nil {
				log.Printf("ALERT: failed to release %d x product %s cancelling order %s: %v",
					line.Quantity, line.ProductID, id, err)
			}
		}
	case models.PaymentFailed:
		// Inventory was already released when the payment failed.
	}

	if err := order.Transition(models.OrderCancelled); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Update(order); err != nil {
		return nil, fmt.Errorf("failed to persist cancellation of order %s: %w", id, err)
	}

	publishOrderEvent(s.publisher, EventOrderCancelled, order)
	return order, nil
}

// refund runs the provider refund call and marks the succeeded payment
// record refunded, the mirror image of the confirmation path.
func (s *OrderService) refund(ctx context.Context, order *models.Order) error {
	records, err := s.paymentRepo.GetByOrderID(order.ID)
	if err != nil {
		return err
	}

	var succeeded *models.PaymentRecord
	for i := range records {
		if records[i].Status == models.PaymentSucceeded {
			succeeded = &records[i]
			break
		}
	}
	if succeeded == nil {
		return fmt.Errorf("%w: no succeeded payment to refund for order %s", models.ErrNotFound, order.ID)
	}

	gateway, err := s.registry.Get(succeeded.Provider)
	if err != nil {
		return err
	}
	if err := gateway.Refund(ctx, succeeded.ProviderRef, succeeded.Amount, succeeded.Currency); err != nil {
		return fmt.Errorf("failed to refund payment %s: %w", succeeded.ProviderRef, err)
	}

	succeeded.Status = models.PaymentRefunded
	if err := s.paymentRepo.Update(succeeded); err != nil {
		return fmt.Errorf("failed to mark payment %s refunded: %w", succeeded.ProviderRef, err)
	}
	return order.TransitionPayment(models.PaymentRefunded)
}
