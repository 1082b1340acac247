package models

import "gorm.io/gorm"

// Product represents a catalog product. The order core treats the catalog as
// read-only and snapshots price/name/sku into order lines at checkout time;
// stock is tracked separately by the inventory ledger.
type Product struct {
	ID          string  `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string  `json:"name" validate:"required,min=3,max=100"`
	SKU         string  `json:"sku" gorm:"uniqueIndex;type:varchar(64)" validate:"required,max=64"`
	Description string  `json:"description" validate:"omitempty,max=500"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	Currency    string  `json:"currency" gorm:"type:varchar(3);default:USD" validate:"omitempty,len=3"`
	Weight      float64 `json:"weight" validate:"gte=0"` // shipping weight per unit
	IsActive    bool    `json:"is_active" gorm:"default:true"`
	gorm.Model          // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
