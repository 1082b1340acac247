package handlers

import (
	"errors"
	"log"

	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders: retrieval, customer
// cancellation, and the admin-only fulfillment transitions.
type OrderHandler struct {
	service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service: service,
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Post("/:id/cancel", h.HandleCancelOrder)
}

// RegisterAdminRoutes registers the admin-only fulfillment routes.
func (h *OrderHandler) RegisterAdminRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Patch("/:id/status", h.HandleUpdateOrderStatus)
}

// HandleGetOrders retrieves the caller's orders, or all orders for admins.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	role, _ := c.Locals("role").(string)
	userID, _ := c.Locals("user_id").(string)

	var orders []models.Order
	var err error
	if role == "admin" {
		orders, err = h.service.GetAllOrders()
	} else {
		orders, err = h.service.GetOrdersByUser(userID)
	}
	if err != nil {
		log.Printf("Error getting orders: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(orders)
}

// canAccessOrder reports whether the caller may act on an order. Admins see
// everything; customers only their own orders. Guest orders have no owner
// and are admin-only once placed.
func canAccessOrder(c *fiber.Ctx, order *models.Order) bool {
	if role, _ := c.Locals("role").(string); role == "admin" {
		return true
	}
	userID, _ := c.Locals("user_id").(string)
	return order.UserID != nil && *order.UserID == userID
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	orderID := c.Params("id")
	order, err := h.service.GetOrderByID(orderID)
	if err != nil {
		log.Printf("Error getting order by ID %s: %v", orderID, err)
		if errors.Is(err, models.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Order not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve order",
			"error":   err.Error(),
		})
	}
	if !canAccessOrder(c, order) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "You do not have access to this order",
		})
	}
	return c.JSON(order)
}

// HandleCancelOrder cancels an order, releasing inventory or refunding the
// payment depending on how far the order got.
func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	orderID := c.Params("id")
	existing, err := h.service.GetOrderByID(orderID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Order not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve order",
			"error":   err.Error(),
		})
	}
	if !canAccessOrder(c, existing) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "You do not have access to this order",
		})
	}

	order, err := h.service.Cancel(c.UserContext(), orderID)
	if err != nil {
		log.Printf("Error cancelling order %s: %v", orderID, err)
		switch {
		case errors.Is(err, models.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Order not found",
			})
		case errors.Is(err, models.ErrInvalidTransition):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Order cannot be cancelled in its current status",
				"error":   err.Error(),
			})
		case errors.Is(err, models.ErrProviderUnavailable):
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"message": "Refund provider unavailable, try again later",
				"error":   err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not cancel order",
			"error":   err.Error(),
		})
	}
	return c.JSON(order)
}

// statusUpdateRequest is the body for the admin status transition route.
type statusUpdateRequest struct {
	Status models.OrderStatus `json:"status"`
}

// HandleUpdateOrderStatus advances an order through the fulfillment states.
// Admin only; the aggregate rejects illegal moves.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	orderID := c.Params("id")
	var req statusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body for status update",
			"error":   err.Error(),
		})
	}
	if req.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Status is required for order status update.",
		})
	}

	order, err := h.service.AdvanceStatus(orderID, req.Status)
	if err != nil {
		log.Printf("Error updating order status for order %s: %v", orderID, err)
		switch {
		case errors.Is(err, models.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Order not found",
			})
		case errors.Is(err, models.ErrInvalidTransition):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Illegal status transition",
				"error":   err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update order status",
			"error":   err.Error(),
		})
	}
	return c.JSON(order)
}
