package models

import "time"

// PaymentRecord is one payment attempt against an order. An order may
// accumulate several records across retries but holds at most one in a
// non-terminal state at a time. Records are append-only.
type PaymentRecord struct {
	ID          string        `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID     string        `json:"order_id" gorm:"index;type:varchar(36)"`
	Provider    string        `json:"provider" gorm:"type:varchar(32)"`
	ProviderRef string        `json:"provider_ref" gorm:"uniqueIndex;type:varchar(128)"`
	Amount      float64       `json:"amount"`
	Currency    string        `json:"currency" gorm:"type:varchar(3)"`
	Status      PaymentStatus `json:"status" gorm:"type:varchar(16)"`
	RawResponse string        `json:"-" gorm:"type:text"` // provider response snapshot for audit
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
