package services

import (
	"encoding/json"
	"log"

	"storefront/internal/models"
)

// Routing keys for order lifecycle events published to the broker.
const (
	EventOrderCreated   = "order.created"
	EventOrderConfirmed = "order.confirmed"
	EventOrderCancelled = "order.cancelled"
	EventPaymentFailed  = "payment.failed"

	orderExchange = "order"
)

// EventPublisher publishes order lifecycle events. Implemented by
// pkg/rabbitmq; a nil publisher disables publishing so the core runs without
// a broker.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// orderEvent is the payload consumers (e.g. the notification sender) receive.
type orderEvent struct {
	OrderID       string  `json:"order_id"`
	OrderNumber   string  `json:"order_number"`
	UserID        *string `json:"user_id,omitempty"`
	Status        string  `json:"status"`
	PaymentStatus string  `json:"payment_status"`
	TotalAmount   float64 `json:"total_amount"`
	Currency      string  `json:"currency"`
}

// publishOrderEvent publishes an order lifecycle event. Publish failures are
// logged and never propagate: notification delivery must not roll back or
// fail an order operation.
func publishOrderEvent(publisher EventPublisher, routingKey string, order *models.Order) {
	if publisher == nil {
		return
	}

	body, err := json.Marshal(orderEvent{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		UserID:        order.UserID,
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		TotalAmount:   order.TotalAmount,
		Currency:      order.Currency,
	})
	if err != nil {
		log.Printf("Failed to marshal %s event for order %s: %v", routingKey, order.ID, err)
		return
	}

	if err := publisher.Publish(orderExchange, routingKey, body); err != nil {
		log.Printf("Warning: Failed to publish %s event for order %s: %v", routingKey, order.ID, err)
	}
}
