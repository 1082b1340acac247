package repositories

import (
	"errors"
	"fmt"

	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMReviewRepository is a GORM implementation of ReviewRepository.
type GORMReviewRepository struct {
	db *gorm.DB
}

// NewGORMReviewRepository creates a new instance of GORMReviewRepository.
func NewGORMReviewRepository(db *gorm.DB) *GORMReviewRepository {
	return &GORMReviewRepository{
		db: db,
	}
}

// GetByProductID retrieves all reviews for a product, newest first.
func (r *GORMReviewRepository) GetByProductID(productID string) ([]models.Review, error) {
	var reviews []models.Review
	if err := r.db.Where("product_id = ?", productID).Order("created_at DESC").Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to get reviews for product %s: %w", productID, err)
	}
	return reviews, nil
}

// GetByUserID retrieves all reviews written by a user, newest first.
func (r *GORMReviewRepository) GetByUserID(userID string) ([]models.Review, error) {
	var reviews []models.Review
	if err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to get reviews for user %s: %w", userID, err)
	}
	return reviews, nil
}

// GetByID retrieves a single review by its ID.
func (r *GORMReviewRepository) GetByID(id string) (*models.Review, error) {
	var review models.Review
	if err := r.db.First(&review, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: review %s", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get review by ID %s: %w", id, err)
	}
	return &review, nil
}

// GetByProductAndUser retrieves a user's review of a product, if any.
func (r *GORMReviewRepository) GetByProductAndUser(productID, userID string) (*models.Review, error) {
	var review models.Review
	if err := r.db.First(&review, "product_id = ? AND user_id = ?", productID, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: review of product %s by user %s", models.ErrNotFound, productID, userID)
		}
		return nil, fmt.Errorf("failed to get review of product %s by user %s: %w", productID, userID, err)
	}
	return &review, nil
}

// Create creates a new review in the database.
func (r *GORMReviewRepository) Create(review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	if err := r.db.Create(review).Error; err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// Update updates an existing review in the database.
func (r *GORMReviewRepository) Update(review *models.Review) error {
	res := r.db.Save(review)
	if res.Error != nil {
		return fmt.Errorf("failed to update review: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: review %s for update", models.ErrNotFound, review.ID)
	}
	return nil
}

// Delete deletes a review by its ID from the database.
func (r *GORMReviewRepository) Delete(id string) error {
	res := r.db.Delete(&models.Review{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete review: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: review %s for deletion", models.ErrNotFound, id)
	}
	return nil
}
