package models

import "time"

// Review is a customer's rating of a product. One review per customer per
// product; the verified-purchase flag is derived from the customer's order
// history when the review is created.
type Review struct {
	ID               string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProductID        string    `json:"product_id" gorm:"uniqueIndex:idx_reviews_product_user;type:varchar(36)" validate:"required,uuid"`
	UserID           string    `json:"user_id" gorm:"uniqueIndex:idx_reviews_product_user;type:varchar(36)"`
	Rating           int       `json:"rating" validate:"required,min=1,max=5"`
	Title            string    `json:"title" gorm:"type:varchar(200)" validate:"omitempty,max=200"`
	Content          string    `json:"content" gorm:"type:text" validate:"omitempty,max=2000"`
	VerifiedPurchase bool      `json:"verified_purchase"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ReviewSummary aggregates a product's reviews for the catalog page.
type ReviewSummary struct {
	TotalReviews  int         `json:"total_reviews"`
	AverageRating float64     `json:"average_rating"`
	RatingCounts  map[int]int `json:"rating_counts"`
}
