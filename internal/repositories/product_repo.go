package repositories

import (
	"storefront/internal/models"
)

// ProductRepository defines the interface for catalog data access. The
// checkout path only reads; writes belong to the admin surface.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
}
