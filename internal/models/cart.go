package models

// CartLine is a single item in a cart snapshot submitted at checkout.
// The unit price is the price observed at add-time; checkout re-reads the
// catalog and snapshots the current price into the order line.
type CartLine struct {
	ProductID string  `json:"product_id" validate:"required,uuid"`
	Quantity  int     `json:"quantity" validate:"required,gt=0"`
	UnitPrice float64 `json:"unit_price" validate:"gte=0"`
}

// UnavailableLine describes a cart line that failed checkout validation.
type UnavailableLine struct {
	ProductID string `json:"product_id"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
	Reason    string `json:"reason"` // "inactive", "not_found" or "insufficient_stock"
}
