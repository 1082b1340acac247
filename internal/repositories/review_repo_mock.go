package repositories

import (
	"fmt"
	"sync"

	"storefront/internal/models"

	"github.com/google/uuid"
)

// MockReviewRepository is an in-memory implementation of ReviewRepository.
type MockReviewRepository struct {
	reviews map[string]models.Review
	mu      sync.RWMutex
}

// NewMockReviewRepository creates a new instance of MockReviewRepository.
func NewMockReviewRepository() *MockReviewRepository {
	return &MockReviewRepository{
		reviews: make(map[string]models.Review),
	}
}

// GetByProductID returns all reviews for a product.
func (r *MockReviewRepository) GetByProductID(productID string) ([]models.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var reviewList []models.Review
	for _, review := range r.reviews {
		if review.ProductID == productID {
			reviewList = append(reviewList, review)
		}
	}
	return reviewList, nil
}

// GetByUserID returns all reviews written by a user.
func (r *MockReviewRepository) GetByUserID(userID string) ([]models.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var reviewList []models.Review
	for _, review := range r.reviews {
		if review.UserID == userID {
			reviewList = append(reviewList, review)
		}
	}
	return reviewList, nil
}

// GetByID returns a review by its ID.
func (r *MockReviewRepository) GetByID(id string) (*models.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	review, ok := r.reviews[id]
	if !ok {
		return nil, fmt.Errorf("%w: review %s", models.ErrNotFound, id)
	}
	return &review, nil
}

// GetByProductAndUser returns a user's review of a product, if any.
func (r *MockReviewRepository) GetByProductAndUser(productID, userID string) (*models.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, review := range r.reviews {
		if review.ProductID == productID && review.UserID == userID {
			found := review
			return &found, nil
		}
	}
	return nil, fmt.Errorf("%w: review of product %s by user %s", models.ErrNotFound, productID, userID)
}

// Create adds a new review.
func (r *MockReviewRepository) Create(review *models.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	r.reviews[review.ID] = *review
	return nil
}

// Update modifies an existing review.
func (r *MockReviewRepository) Update(review *models.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.reviews[review.ID]
	if !ok {
		return fmt.Errorf("%w: review %s for update", models.ErrNotFound, review.ID)
	}
	r.reviews[review.ID] = *review
	return nil
}

// Delete removes a review by its ID.
func (r *MockReviewRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.reviews[id]
	if !ok {
		return fmt.Errorf("%w: review %s for deletion", models.ErrNotFound, id)
	}
	delete(r.reviews, id)
	return nil
}
