package services

import (
	"fmt"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

// ProductService handles business logic related to catalog products and
// their stock levels. Stock writes go through the inventory ledger's admin
// upsert, never through direct field updates.
type ProductService struct {
	repo          repositories.ProductRepository
	inventoryRepo repositories.InventoryRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, inventoryRepo repositories.InventoryRepository) *ProductService {
	return &ProductService{
		repo:          repo,
		inventoryRepo: inventoryRepo,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	return s.repo.GetAll()
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// GetStock retrieves the ledger row for a product.
func (s *ProductService) GetStock(productID string) (*models.InventoryRecord, error) {
	return s.inventoryRepo.GetByProductID(productID)
}

// CreateProduct creates a new product together with an empty ledger row.
func (s *ProductService) CreateProduct(product *models.Product, initialStock int) error {
	if initialStock < 0 {
		return fmt.Errorf("%w: initial stock must be non-negative", models.ErrValidation)
	}
	if err := s.repo.Create(product); err != nil {
		return err
	}
	return s.inventoryRepo.Upsert(&models.InventoryRecord{
		ProductID:         product.ID,
		QuantityAvailable: initialStock,
	})
}

// UpdateProduct updates an existing product's catalog fields.
func (s *ProductService) UpdateProduct(product *models.Product) error {
	return s.repo.Update(product)
}

// SetStock replaces the available quantity for a product, preserving any
// outstanding reservations. Admin surface only.
func (s *ProductService) SetStock(productID string, available int) error {
	if available < 0 {
		return fmt.Errorf("%w: stock must be non-negative", models.ErrValidation)
	}
	record, err := s.inventoryRepo.GetByProductID(productID)
	if err != nil {
		record = &models.InventoryRecord{ProductID: productID}
	}
	record.QuantityAvailable = available
	return s.inventoryRepo.Upsert(record)
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(id string) error {
	return s.repo.Delete(id)
}
