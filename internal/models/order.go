package models

import (
	"fmt"
	"time"
)

// OrderStatus is the fulfillment status of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// PaymentStatus is the payment lifecycle status of an order.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// validNextStatus encodes the order status state machine. Terminal states
// (delivered, cancelled) have no outgoing edges. Cancellation is reachable
// from pending/confirmed/processing only: once goods have shipped the order
// can no longer be cancelled, only refunded through the payment flow.
var validNextStatus = map[OrderStatus]map[OrderStatus]bool{
	OrderPending:    {OrderConfirmed: true, OrderCancelled: true},
	OrderConfirmed:  {OrderProcessing: true, OrderCancelled: true},
	OrderProcessing: {OrderShipped: true, OrderCancelled: true},
	OrderShipped:    {OrderDelivered: true},
	OrderDelivered:  {},
	OrderCancelled:  {},
}

// validNextPayment encodes the payment status state machine. A failed
// payment may return to pending when a new payment attempt is attached.
var validNextPayment = map[PaymentStatus]map[PaymentStatus]bool{
	PaymentPending:   {PaymentSucceeded: true, PaymentFailed: true},
	PaymentSucceeded: {PaymentRefunded: true},
	PaymentFailed:    {PaymentPending: true},
	PaymentRefunded:  {},
}

// OrderLine is a single item within an order. Name, SKU and unit price are
// snapshots taken at checkout time: catalog changes after order placement
// must not alter historical orders.
type OrderLine struct {
	ID          uint    `json:"-" gorm:"primaryKey;autoIncrement"`
	OrderID     string  `json:"-" gorm:"index;type:varchar(36)"`
	ProductID   string  `json:"product_id" gorm:"type:varchar(36)"`
	ProductName string  `json:"product_name"`
	ProductSKU  string  `json:"product_sku"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	LineTotal   float64 `json:"line_total"` // unit price x quantity
	Weight      float64 `json:"weight"`     // per-unit shipping weight snapshot
}

// Order is the order aggregate. It owns its lines and payment records and
// enforces the status state machines through Transition/TransitionPayment.
// Orders are never physically deleted once visible; cancellation is a status.
type Order struct {
	ID              string        `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderNumber     string        `json:"order_number" gorm:"uniqueIndex;type:varchar(32)"`
	UserID          *string       `json:"user_id" gorm:"type:varchar(36)"` // nil for guest checkout
	Lines           []OrderLine   `json:"lines" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ShippingAddress Address       `json:"shipping_address" gorm:"embedded;embeddedPrefix:ship_"`
	BillingAddress  Address       `json:"billing_address" gorm:"embedded;embeddedPrefix:bill_"`
	Subtotal        float64       `json:"subtotal"`
	TaxAmount       float64       `json:"tax_amount"`
	ShippingAmount  float64       `json:"shipping_amount"`
	TotalAmount     float64       `json:"total_amount"` // subtotal + tax + shipping
	Currency        string        `json:"currency" gorm:"type:varchar(3)"`
	Status          OrderStatus   `json:"status" gorm:"type:varchar(16);index"`
	PaymentStatus   PaymentStatus `json:"payment_status" gorm:"type:varchar(16)"`
	PaymentMethod   string        `json:"payment_method" gorm:"type:varchar(32)"`
	PaymentRef      string        `json:"payment_ref" gorm:"type:varchar(128);index"` // provider intent/order id
	Notes           string        `json:"notes"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// CanTransition reports whether the order status may move from its current
// state to the target state. Advancing to confirmed additionally requires
// that payment has succeeded.
func (o *Order) CanTransition(to OrderStatus) bool {
	if !validNextStatus[o.Status][to] {
		return false
	}
	if to == OrderConfirmed && o.PaymentStatus != PaymentSucceeded {
		return false
	}
	return true
}

// Transition moves the order status to the target state, or returns
// ErrInvalidTransition leaving the order unchanged.
func (o *Order) Transition(to OrderStatus) error {
	if !o.CanTransition(to) {
		return fmt.Errorf("%w: order status %s -> %s", ErrInvalidTransition, o.Status, to)
	}
	o.Status = to
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// TransitionPayment moves the payment status to the target state, or returns
// ErrInvalidTransition leaving the order unchanged.
func (o *Order) TransitionPayment(to PaymentStatus) error {
	if !validNextPayment[o.PaymentStatus][to] {
		return fmt.Errorf("%w: payment status %s -> %s", ErrInvalidTransition, o.PaymentStatus, to)
	}
	o.PaymentStatus = to
	o.UpdatedAt = time.Now().UTC()
	return nil
}
