package repositories

import (
	"storefront/internal/models"
)

// InventoryRepository is the inventory ledger. Each operation is a single
// per-product atomic move between the available and reserved counters;
// implementations must be safe under concurrent callers for the same product.
type InventoryRepository interface {
	// Reserve atomically moves quantity from available to reserved.
	// Returns models.ErrInsufficientInventory when available < quantity;
	// no partial reservation occurs.
	Reserve(productID string, quantity int) error
	// Release moves quantity from reserved back to available. Returns
	// models.ErrNegativeBalance if reserved would go below zero. Callers
	// are responsible for not releasing the same reservation twice.
	Release(productID string, quantity int) error
	// Confirm moves quantity from reserved to permanently sold (available
	// was already decremented at reserve time). Returns
	// models.ErrNegativeBalance if reserved would go below zero.
	Confirm(productID string, quantity int) error
	// GetByProductID returns the current ledger row for a product.
	GetByProductID(productID string) (*models.InventoryRecord, error)
	// Upsert creates or replaces a ledger row. Used for seeding and admin
	// stock adjustments, never by the checkout path.
	Upsert(record *models.InventoryRecord) error
}
