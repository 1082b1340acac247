package repositories

import (
	"errors"
	"fmt"

	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMPaymentRepository is a GORM implementation of PaymentRepository.
type GORMPaymentRepository struct {
	db *gorm.DB
}

// NewGORMPaymentRepository creates a new instance of GORMPaymentRepository.
func NewGORMPaymentRepository(db *gorm.DB) *GORMPaymentRepository {
	return &GORMPaymentRepository{
		db: db,
	}
}

// Create persists a new payment record.
func (r *GORMPaymentRepository) Create(record *models.PaymentRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if err := r.db.Create(record).Error; err != nil {
		return fmt.Errorf("failed to create payment record: %w", err)
	}
	return nil
}

// GetByProviderRef retrieves a payment record by its provider reference id.
// This is the lookup key for inbound webhooks.
func (r *GORMPaymentRepository) GetByProviderRef(providerRef string) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	if err := r.db.First(&record, "provider_ref = ?", providerRef).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: payment with provider ref %s", models.ErrNotFound, providerRef)
		}
		return nil, fmt.Errorf("failed to get payment by provider ref %s: %w", providerRef, err)
	}
	return &record, nil
}

// GetByOrderID retrieves all payment attempts for an order, oldest first.
func (r *GORMPaymentRepository) GetByOrderID(orderID string) ([]models.PaymentRecord, error) {
	var records []models.PaymentRecord
	if err := r.db.Where("order_id = ?", orderID).Order("created_at ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to get payments for order %s: %w", orderID, err)
	}
	return records, nil
}

// Update persists a status change on an existing payment record.
func (r *GORMPaymentRepository) Update(record *models.PaymentRecord) error {
	res := r.db.Save(record)
	if res.Error != nil {
		return fmt.Errorf("failed to update payment record %s: %w", record.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: payment record %s for update", models.ErrNotFound, record.ID)
	}
	return nil
}
