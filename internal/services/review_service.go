package services

import (
	"fmt"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

// ReviewService handles customer product reviews. One review per customer
// per product; only the author may edit or delete a review.
type ReviewService struct {
	reviewRepo  repositories.ReviewRepository
	productRepo repositories.ProductRepository
	orderRepo   repositories.OrderRepository
}

// NewReviewService creates a new ReviewService.
func NewReviewService(
	reviewRepo repositories.ReviewRepository,
	productRepo repositories.ProductRepository,
	orderRepo repositories.OrderRepository,
) *ReviewService {
	return &ReviewService{
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
	}
}

// GetProductReviews retrieves a product's reviews together with their
// rating summary.
func (s *ReviewService) GetProductReviews(productID string) ([]models.Review, *models.ReviewSummary, error) {
	if _, err := s.productRepo.GetByID(productID); err != nil {
		return nil, nil, err
	}
	reviews, err := s.reviewRepo.GetByProductID(productID)
	if err != nil {
		return nil, nil, err
	}

	summary := &models.ReviewSummary{RatingCounts: make(map[int]int)}
	for _, review := range reviews {
		summary.TotalReviews++
		summary.RatingCounts[review.Rating]++
		summary.AverageRating += float64(review.Rating)
	}
	if summary.TotalReviews > 0 {
		summary.AverageRating /= float64(summary.TotalReviews)
	}
	return reviews, summary, nil
}

// GetUserReviews retrieves the reviews written by a user.
func (s *ReviewService) GetUserReviews(userID string) ([]models.Review, error) {
	return s.reviewRepo.GetByUserID(userID)
}

// CreateReview creates a review on behalf of a user. The product must
// exist and the user must not have reviewed it before.
func (s *ReviewService) CreateReview(userID string, review *models.Review) error {
	if review.Rating < 1 || review.Rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", models.ErrValidation)
	}
	if _, err := s.productRepo.GetByID(review.ProductID); err != nil {
		return err
	}
	if existing, err := s.reviewRepo.GetByProductAndUser(review.ProductID, userID); err == nil && existing != nil {
		return fmt.Errorf("%w: product %s already reviewed", models.ErrConflict, review.ProductID)
	}

	review.UserID = userID
	review.VerifiedPurchase = s.hasPurchased(userID, review.ProductID)
	return s.reviewRepo.Create(review)
}

// UpdateReview edits a review. Only the author may edit; zero-valued
// fields keep their current content.
func (s *ReviewService) UpdateReview(userID, id string, rating int, title, content string) (*models.Review, error) {
	review, err := s.reviewRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if review.UserID != userID {
		return nil, fmt.Errorf("%w: review %s belongs to another customer", models.ErrForbidden, id)
	}

	if rating != 0 {
		if rating < 1 || rating > 5 {
			return nil, fmt.Errorf("%w: rating must be between 1 and 5", models.ErrValidation)
		}
		review.Rating = rating
	}
	if title != "" {
		review.Title = title
	}
	if content != "" {
		review.Content = content
	}

	if err := s.reviewRepo.Update(review); err != nil {
		return nil, err
	}
	return review, nil
}

// DeleteReview removes a review. Only the author may delete.
func (s *ReviewService) DeleteReview(userID, id string) error {
	review, err := s.reviewRepo.GetByID(id)
	if err != nil {
		return err
	}
	if review.UserID != userID {
		return fmt.Errorf("%w: review %s belongs to another customer", models.ErrForbidden, id)
	}
	return s.reviewRepo.Delete(id)
}

// hasPurchased reports whether the user has an order containing the product
// that made it past payment.
func (s *ReviewService) hasPurchased(userID, productID string) bool {
	orders, err := s.orderRepo.GetByUserID(userID)
	if err != nil {
		return false
	}
	for _, order := range orders {
		switch order.Status {
		case models.OrderConfirmed, models.OrderProcessing, models.OrderShipped, models.OrderDelivered:
		default:
			continue
		}
		for _, line := range order.Lines {
			if line.ProductID == productID {
				return true
			}
		}
	}
	return false
}
