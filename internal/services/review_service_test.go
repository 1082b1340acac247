package services_test

import (
	"testing"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reviewFixture struct {
	reviews  *repositories.MockReviewRepository
	products *repositories.MockProductRepository
	orders   *repositories.MockOrderRepository
	service  *services.ReviewService

	productID string
	buyerID   string
}

// newReviewFixture seeds a product and a confirmed order so the buyer
// qualifies as a verified purchaser.
func newReviewFixture(t *testing.T) *reviewFixture {
	t.Helper()

	f := &reviewFixture{
		reviews:   repositories.NewMockReviewRepository(),
		products:  repositories.NewMockProductRepository(),
		orders:    repositories.NewMockOrderRepository(),
		productID: uuid.New().String(),
		buyerID:   uuid.New().String(),
	}
	f.service = services.NewReviewService(f.reviews, f.products, f.orders)

	require.NoError(t, f.products.Create(&models.Product{
		ID: f.productID, Name: "Espresso Grinder", SKU: "EG-01", Price: 129.00, Currency: "USD", IsActive: true,
	}))
	require.NoError(t, f.orders.Create(&models.Order{
		ID:     uuid.New().String(),
		UserID: &f.buyerID,
		Status: models.OrderConfirmed,
		Lines:  []models.OrderLine{{ProductID: f.productID, Quantity: 1}},
	}))
	return f
}

func (f *reviewFixture) review(rating int) *models.Review {
	return &models.Review{
		ProductID: f.productID,
		Rating:    rating,
		Title:     "Solid",
		Content:   "Grinds evenly, quiet enough.",
	}
}

func TestReviewService_CreateReview_VerifiedPurchase(t *testing.T) {
	f := newReviewFixture(t)

	review := f.review(5)
	require.NoError(t, f.service.CreateReview(f.buyerID, review))

	assert.NotEmpty(t, review.ID)
	assert.Equal(t, f.buyerID, review.UserID)
	assert.True(t, review.VerifiedPurchase)
}

func TestReviewService_CreateReview_UnverifiedWithoutPurchase(t *testing.T) {
	f := newReviewFixture(t)

	review := f.review(3)
	require.NoError(t, f.service.CreateReview(uuid.New().String(), review))

	assert.False(t, review.VerifiedPurchase)
}

func TestReviewService_CreateReview_PendingOrderDoesNotVerify(t *testing.T) {
	f := newReviewFixture(t)

	// An unpaid order is not a purchase yet.
	pendingBuyer := uuid.New().String()
	require.NoError(t, f.orders.Create(&models.Order{
		ID:     uuid.New().String(),
		UserID: &pendingBuyer,
		Status: models.OrderPending,
		Lines:  []models.OrderLine{{ProductID: f.productID, Quantity: 1}},
	}))

	review := f.review(4)
	require.NoError(t, f.service.CreateReview(pendingBuyer, review))
	assert.False(t, review.VerifiedPurchase)
}

func TestReviewService_CreateReview_DuplicateRejected(t *testing.T) {
	f := newReviewFixture(t)

	require.NoError(t, f.service.CreateReview(f.buyerID, f.review(5)))

	err := f.service.CreateReview(f.buyerID, f.review(2))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestReviewService_CreateReview_RatingBounds(t *testing.T) {
	f := newReviewFixture(t)

	for _, rating := range []int{0, -1, 6} {
		err := f.service.CreateReview(f.buyerID, f.review(rating))
		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrValidation)
	}
}

func TestReviewService_CreateReview_UnknownProduct(t *testing.T) {
	f := newReviewFixture(t)

	review := f.review(4)
	review.ProductID = uuid.New().String()
	err := f.service.CreateReview(f.buyerID, review)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestReviewService_UpdateReview_OwnerOnly(t *testing.T) {
	f := newReviewFixture(t)

	review := f.review(3)
	require.NoError(t, f.service.CreateReview(f.buyerID, review))

	updated, err := f.service.UpdateReview(f.buyerID, review.ID, 4, "", "Even better after a month.")
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Rating)
	assert.Equal(t, "Solid", updated.Title)
	assert.Equal(t, "Even better after a month.", updated.Content)

	_, err = f.service.UpdateReview(uuid.New().String(), review.ID, 1, "", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrForbidden)

	// The foreign edit attempt changed nothing.
	stored, err := f.reviews.GetByID(review.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.Rating)
}

func TestReviewService_UpdateReview_RatingBounds(t *testing.T) {
	f := newReviewFixture(t)

	review := f.review(3)
	require.NoError(t, f.service.CreateReview(f.buyerID, review))

	_, err := f.service.UpdateReview(f.buyerID, review.ID, 7, "", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestReviewService_DeleteReview_OwnerOnly(t *testing.T) {
	f := newReviewFixture(t)

	review := f.review(2)
	require.NoError(t, f.service.CreateReview(f.buyerID, review))

	err := f.service.DeleteReview(uuid.New().String(), review.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrForbidden)

	require.NoError(t, f.service.DeleteReview(f.buyerID, review.ID))
	_, err = f.reviews.GetByID(review.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestReviewService_GetProductReviews_Summary(t *testing.T) {
	f := newReviewFixture(t)

	for _, rating := range []int{5, 4, 4} {
		review := f.review(rating)
		require.NoError(t, f.service.CreateReview(uuid.New().String(), review))
	}

	reviews, summary, err := f.service.GetProductReviews(f.productID)
	require.NoError(t, err)
	assert.Len(t, reviews, 3)
	assert.Equal(t, 3, summary.TotalReviews)
	assert.InDelta(t, 4.333, summary.AverageRating, 0.001)
	assert.Equal(t, map[int]int{4: 2, 5: 1}, summary.RatingCounts)
}

func TestReviewService_GetProductReviews_UnknownProduct(t *testing.T) {
	f := newReviewFixture(t)

	_, _, err := f.service.GetProductReviews(uuid.New().String())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
