package repositories

import (
	"storefront/internal/models"
)

// ReviewRepository defines the interface for customer review data access.
type ReviewRepository interface {
	GetByProductID(productID string) ([]models.Review, error)
	GetByUserID(userID string) ([]models.Review, error)
	GetByID(id string) (*models.Review, error)
	GetByProductAndUser(productID, userID string) (*models.Review, error)
	Create(review *models.Review) error
	Update(review *models.Review) error
	Delete(id string) error
}
