package repositories

import (
	"storefront/internal/models"
)

// PaymentRepository defines the interface for payment record access.
// Records are append-only; Update only ever moves status forward and
// refreshes the raw provider response snapshot.
type PaymentRepository interface {
	Create(record *models.PaymentRecord) error
	GetByProviderRef(providerRef string) (*models.PaymentRecord, error)
	GetByOrderID(orderID string) ([]models.PaymentRecord, error)
	Update(record *models.PaymentRecord) error
}
