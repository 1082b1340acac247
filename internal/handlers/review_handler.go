package handlers

import (
	"errors"
	"fmt"
	"log"

	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ReviewHandler handles HTTP requests for customer product reviews.
type ReviewHandler struct {
	service  *services.ReviewService
	validate *validator.Validate
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(service *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the public review routes with the Fiber app.
func (h *ReviewHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/products/:id/reviews", h.HandleGetProductReviews)
}

// RegisterAuthRoutes registers the authenticated review routes.
func (h *ReviewHandler) RegisterAuthRoutes(router fiber.Router) {
	router.Get("/my-reviews", h.HandleGetMyReviews)
	router.Post("/products/:id/reviews", h.HandleCreateReview)
	router.Put("/reviews/:id", h.HandleUpdateReview)
	router.Delete("/reviews/:id", h.HandleDeleteReview)
}

// HandleGetProductReviews retrieves a product's reviews with their rating
// summary.
func (h *ReviewHandler) HandleGetProductReviews(c *fiber.Ctx) error {
	productID := c.Params("id")
	reviews, summary, err := h.service.GetProductReviews(productID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Product not found",
			})
		}
		log.Printf("Error getting reviews for product %s: %v", productID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve reviews",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"reviews": reviews,
		"summary": summary,
	})
}

// HandleGetMyReviews retrieves the caller's reviews.
func (h *ReviewHandler) HandleGetMyReviews(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	reviews, err := h.service.GetUserReviews(userID)
	if err != nil {
		log.Printf("Error getting reviews for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve reviews",
			"error":   err.Error(),
		})
	}
	return c.JSON(reviews)
}

// reviewRequest is the body for creating or editing a review. On edit,
// omitted fields keep their current content.
type reviewRequest struct {
	Rating  int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Title   string `json:"title" validate:"omitempty,max=200"`
	Content string `json:"content" validate:"omitempty,max=2000"`
}

// HandleCreateReview creates a review of a product by the caller.
func (h *ReviewHandler) HandleCreateReview(c *fiber.Ctx) error {
	var req reviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}

	userID, _ := c.Locals("user_id").(string)
	review := models.Review{
		ProductID: c.Params("id"),
		Rating:    req.Rating,
		Title:     req.Title,
		Content:   req.Content,
	}
	if err := h.service.CreateReview(userID, &review); err != nil {
		log.Printf("Error creating review for product %s: %v", review.ProductID, err)
		switch {
		case errors.Is(err, models.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Product not found",
			})
		case errors.Is(err, models.ErrConflict):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "You have already reviewed this product",
			})
		case errors.Is(err, models.ErrValidation):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid review",
				"error":   err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create review",
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}

// HandleUpdateReview edits one of the caller's reviews.
func (h *ReviewHandler) HandleUpdateReview(c *fiber.Ctx) error {
	var req reviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	reviewID := c.Params("id")
	userID, _ := c.Locals("user_id").(string)
	review, err := h.service.UpdateReview(userID, reviewID, req.Rating, req.Title, req.Content)
	if err != nil {
		log.Printf("Error updating review %s: %v", reviewID, err)
		switch {
		case errors.Is(err, models.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Review not found",
			})
		case errors.Is(err, models.ErrForbidden):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "You can only edit your own reviews",
			})
		case errors.Is(err, models.ErrValidation):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid review",
				"error":   err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update review",
			"error":   err.Error(),
		})
	}
	return c.JSON(review)
}

// HandleDeleteReview removes one of the caller's reviews.
func (h *ReviewHandler) HandleDeleteReview(c *fiber.Ctx) error {
	reviewID := c.Params("id")
	userID, _ := c.Locals("user_id").(string)
	if err := h.service.DeleteReview(userID, reviewID); err != nil {
		log.Printf("Error deleting review %s: %v", reviewID, err)
		switch {
		case errors.Is(err, models.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Review not found",
			})
		case errors.Is(err, models.ErrForbidden):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "You can only delete your own reviews",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not delete review",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": "Review deleted",
	})
}
