package handlers

import (
	"errors"
	"log"

	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CheckoutHandler handles HTTP requests for the checkout pipeline: cart
// validation, pricing, order creation, payment attempts and provider
// webhooks.
type CheckoutHandler struct {
	checkoutService *services.CheckoutService
	webhookService  *services.WebhookService
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(checkoutService *services.CheckoutService, webhookService *services.WebhookService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		webhookService:  webhookService,
	}
}

// RegisterRoutes registers the checkout routes with the Fiber app.
func (h *CheckoutHandler) RegisterRoutes(router fiber.Router) {
	checkoutRoutes := router.Group("/checkout")
	checkoutRoutes.Post("/validate", h.HandleValidate)
	checkoutRoutes.Post("/calculate", h.HandleCalculate)
	checkoutRoutes.Post("/order", h.HandleCreateOrder)
	checkoutRoutes.Post("/payment", h.HandleCreatePayment)
	checkoutRoutes.Post("/webhook/:provider", h.HandleWebhook)
}

// validateRequest is the body for /checkout/validate.
type validateRequest struct {
	Lines []models.CartLine `json:"lines"`
}

// HandleValidate checks cart lines against the catalog and ledger without
// mutating anything.
func (h *CheckoutHandler) HandleValidate(c *fiber.Ctx) error {
	var req validateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	validation, err := h.checkoutService.ValidateCart(req.Lines)
	if err != nil {
		return h.renderError(c, "Could not validate cart", err)
	}
	if !validation.Valid {
		return c.Status(fiber.StatusBadRequest).JSON(validation)
	}
	return c.JSON(validation)
}

// calculateRequest is the body for /checkout/calculate.
type calculateRequest struct {
	Lines   []models.CartLine `json:"lines"`
	Address models.Address    `json:"address"`
}

// HandleCalculate prices a cart snapshot for a destination.
func (h *CheckoutHandler) HandleCalculate(c *fiber.Ctx) error {
	var req calculateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	quote, err := h.checkoutService.Quote(req.Lines, req.Address)
	if err != nil {
		return h.renderError(c, "Could not calculate totals", err)
	}
	return c.JSON(quote)
}

// HandleCreateOrder runs the full checkout sequence.
func (h *CheckoutHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req services.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	result, err := h.checkoutService.Checkout(c.UserContext(), req)
	if err != nil {
		log.Printf("Checkout failed: %v", err)
		return h.renderError(c, "Could not complete checkout", err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// paymentRequest is the body for /checkout/payment.
type paymentRequest struct {
	OrderID  string `json:"order_id"`
	Provider string `json:"payment_provider"`
}

// HandleCreatePayment starts a fresh payment attempt for an order whose
// previous attempt failed.
func (h *CheckoutHandler) HandleCreatePayment(c *fiber.Ctx) error {
	var req paymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if req.OrderID == "" || req.Provider == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "order_id and payment_provider are required",
		})
	}

	result, err := h.checkoutService.CreatePaymentAttempt(c.UserContext(), req.OrderID, req.Provider)
	if err != nil {
		log.Printf("Payment attempt for order %s failed: %v", req.OrderID, err)
		return h.renderError(c, "Could not create payment attempt", err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// HandleWebhook receives a payment-provider callback. The raw body and the
// provider's signature header are handed to the webhook service, which
// verifies before trusting anything. Responding non-2xx makes the provider
// redeliver, which the idempotency guard makes safe.
func (h *CheckoutHandler) HandleWebhook(c *fiber.Ctx) error {
	provider := c.Params("provider")
	signature := c.Get("X-Webhook-Signature")

	if err := h.webhookService.HandleDelivery(c.UserContext(), provider, c.Body(), signature); err != nil {
		log.Printf("Webhook from provider %s rejected: %v", provider, err)
		return h.renderError(c, "Webhook rejected", err)
	}
	return c.JSON(fiber.Map{"received": true})
}

// renderError maps the core error taxonomy onto HTTP status codes.
func (h *CheckoutHandler) renderError(c *fiber.Ctx, message string, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrValidation):
		status = fiber.StatusBadRequest
	case errors.Is(err, models.ErrInsufficientInventory):
		status = fiber.StatusConflict
	case errors.Is(err, models.ErrInvalidTransition):
		status = fiber.StatusConflict
	case errors.Is(err, models.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, models.ErrSignature):
		status = fiber.StatusBadRequest
	case errors.Is(err, models.ErrProviderUnavailable):
		status = fiber.StatusBadGateway
	}
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}
