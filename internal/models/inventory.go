package models

import "time"

// InventoryRecord tracks stock for a single product. The invariant
// available + reserved == total on hand holds at all times and neither field
// may go negative. Rows are mutated only through the inventory ledger
// operations (reserve/release/confirm), never written directly.
type InventoryRecord struct {
	ProductID         string    `json:"product_id" gorm:"primaryKey;type:varchar(36)"`
	QuantityAvailable int       `json:"quantity_available" gorm:"not null;default:0" validate:"gte=0"`
	QuantityReserved  int       `json:"quantity_reserved" gorm:"not null;default:0" validate:"gte=0"`
	UpdatedAt         time.Time `json:"updated_at"`
}
