package repositories

import (
	"storefront/internal/models"
)

// OrderRepository defines the interface for order data access. Create and
// GetByID include order lines; payments live in PaymentRepository.
type OrderRepository interface {
	GetAll() ([]models.Order, error)
	GetByUserID(userID string) ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
	Create(order *models.Order) error
	// Update persists status, payment status and payment reference changes.
	Update(order *models.Order) error
	// Delete removes a pending order that never became visible. Only the
	// checkout rollback path uses this; visible orders are cancelled, not
	// deleted.
	Delete(id string) error
}
