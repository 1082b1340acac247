package repositories

import (
	"fmt"
	"sync"

	"storefront/internal/models"
)

// MockInventoryRepository is an in-memory implementation of
// InventoryRepository. The mutex gives the same serialized-per-update
// guarantee the GORM implementation gets from its conditional UPDATE.
type MockInventoryRepository struct {
	records map[string]models.InventoryRecord
	mu      sync.Mutex
}

// NewMockInventoryRepository creates a new instance of MockInventoryRepository.
func NewMockInventoryRepository() *MockInventoryRepository {
	return &MockInventoryRepository{
		records: make(map[string]models.InventoryRecord),
	}
}

// Reserve moves quantity from available to reserved.
func (r *MockInventoryRepository) Reserve(productID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: reserve quantity must be positive, got %d", models.ErrValidation, quantity)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[productID]
	if !ok || record.QuantityAvailable < quantity {
		return fmt.Errorf("%w: product %s, requested %d", models.ErrInsufficientInventory, productID, quantity)
	}
	record.QuantityAvailable -= quantity
	record.QuantityReserved += quantity
	r.records[productID] = record
	return nil
}

// Release moves quantity from reserved back to available.
func (r *MockInventoryRepository) Release(productID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: release quantity must be positive, got %d", models.ErrValidation, quantity)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[productID]
	if !ok || record.QuantityReserved < quantity {
		return fmt.Errorf("%w: releasing %d of product %s", models.ErrNegativeBalance, quantity, productID)
	}
	record.QuantityAvailable += quantity
	record.QuantityReserved -= quantity
	r.records[productID] = record
	return nil
}

// Confirm moves quantity out of reserved after payment success.
func (r *MockInventoryRepository) Confirm(productID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: confirm quantity must be positive, got %d", models.ErrValidation, quantity)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[productID]
	if !ok || record.QuantityReserved < quantity {
		return fmt.Errorf("%w: confirming %d of product %s", models.ErrNegativeBalance, quantity, productID)
	}
	record.QuantityReserved -= quantity
	r.records[productID] = record
	return nil
}

// GetByProductID returns the ledger row for a product.
func (r *MockInventoryRepository) GetByProductID(productID string) (*models.InventoryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[productID]
	if !ok {
		return nil, fmt.Errorf("%w: inventory for product %s", models.ErrNotFound, productID)
	}
	return &record, nil
}

// Upsert creates or replaces a ledger row.
func (r *MockInventoryRepository) Upsert(record *models.InventoryRecord) error {
	if record.QuantityAvailable < 0 || record.QuantityReserved < 0 {
		return fmt.Errorf("%w: inventory quantities must be non-negative", models.ErrValidation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[record.ProductID] = *record
	return nil
}
