package repositories

import (
	"errors"
	"fmt"

	"storefront/internal/models"

	"gorm.io/gorm"
)

// GORMInventoryRepository is a GORM implementation of InventoryRepository.
// Reserve/release/confirm are single conditional UPDATE statements with a
// balance guard in the WHERE clause, so two concurrent checkouts competing
// for the last unit cannot both succeed: the database serializes the row
// update and the loser's guard no longer matches.
type GORMInventoryRepository struct {
	db *gorm.DB
}

// NewGORMInventoryRepository creates a new instance of GORMInventoryRepository.
func NewGORMInventoryRepository(db *gorm.DB) *GORMInventoryRepository {
	return &GORMInventoryRepository{
		db: db,
	}
}

// Reserve moves quantity from available to reserved for a product.
func (r *GORMInventoryRepository) Reserve(productID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: reserve quantity must be positive, got %d", models.ErrValidation, quantity)
	}

	res := r.db.Model(&models.InventoryRecord{}).
		Where("product_id = ? AND quantity_available >= ?", productID, quantity).
		Updates(map[string]interface{}{
			"quantity_available": gorm.Expr("quantity_available - ?", quantity),
			"quantity_reserved":  gorm.Expr("quantity_reserved + ?", quantity),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to reserve %d of product %s: %w", quantity, productID, res.Error)
	}
	if res.RowsAffected == 0 {
		// Either the row does not exist or the guard failed; both mean the
		// requested quantity is not available.
		return fmt.Errorf("%w: product %s, requested %d", models.ErrInsufficientInventory, productID, quantity)
	}
	return nil
}

// Release moves quantity from reserved back to available for a product.
func (r *GORMInventoryRepository) Release(productID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: release quantity must be positive, got %d", models.ErrValidation, quantity)
	}

	res := r.db.Model(&models.InventoryRecord{}).
		Where("product_id = ? AND quantity_reserved >= ?", productID, quantity).
		Updates(map[string]interface{}{
			"quantity_available": gorm.Expr("quantity_available + ?", quantity),
			"quantity_reserved":  gorm.Expr("quantity_reserved - ?", quantity),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to release %d of product %s: %w", quantity, productID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: releasing %d of product %s", models.ErrNegativeBalance, quantity, productID)
	}
	return nil
}

// Confirm converts a reservation into a permanent deduction after payment.
func (r *GORMInventoryRepository) Confirm(productID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: confirm quantity must be positive, got %d", models.ErrValidation, quantity)
	}

	res := r.db.Model(&models.InventoryRecord{}).
		Where("product_id = ? AND quantity_reserved >= ?", productID, quantity).
		Update("quantity_reserved", gorm.Expr("quantity_reserved - ?", quantity))
	if res.Error != nil {
		return fmt.Errorf("failed to confirm %d of product %s: %w", quantity, productID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: confirming %d of product %s", models.ErrNegativeBalance, quantity, productID)
	}
	return nil
}

// GetByProductID retrieves the ledger row for a product.
func (r *GORMInventoryRepository) GetByProductID(productID string) (*models.InventoryRecord, error) {
	var record models.InventoryRecord
	if err := r.db.First(&record, "product_id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: inventory for product %s", models.ErrNotFound, productID)
		}
		return nil, fmt.Errorf("failed to get inventory for product %s: %w", productID, err)
	}
	return &record, nil
}

// Upsert creates or replaces a ledger row.
func (r *GORMInventoryRepository) Upsert(record *models.InventoryRecord) error {
	if record.QuantityAvailable < 0 || record.QuantityReserved < 0 {
		return fmt.Errorf("%w: inventory quantities must be non-negative", models.ErrValidation)
	}
	if err := r.db.Save(record).Error; err != nil {
		return fmt.Errorf("failed to upsert inventory for product %s: %w", record.ProductID, err)
	}
	return nil
}
