package review

import "time"

// Review is one user's rating of a product. A user reviews a product once.
type Review struct {
	ID                 string    `json:"id"`
	ProductID          string    `json:"productId"`
	UserID             string    `json:"userId"`
	UserName           string    `json:"userName"`
	UserAvatar         string    `json:"userAvatar,omitempty"`
	Rating             float64   `json:"rating"`
	Comment            string    `json:"comment"`
	CreatedAt          time.Time `json:"timestamp"`
	Images             []string  `json:"images"`
	IsVerifiedPurchase bool      `json:"isVerifiedPurchase"`
}

// ProductRating is the aggregate kept in product_ratings, keyed by product.
type ProductRating struct {
	ProductID     string  `json:"productId"`
	AverageRating float64 `json:"averageRating"`
	TotalReviews  int     `json:"totalReviews"`
	FiveStars     int     `json:"fiveStars"`
	FourStars     int     `json:"fourStars"`
	ThreeStars    int     `json:"threeStars"`
	TwoStars      int     `json:"twoStars"`
	OneStar       int     `json:"oneStar"`
}

// Count returns the number of reviews in the given star bucket.
func (r ProductRating) Count(stars int) int {
	switch stars {
	case 5:
		return r.FiveStars
	case 4:
		return r.FourStars
	case 3:
		return r.ThreeStars
	case 2:
		return r.TwoStars
	case 1:
		return r.OneStar
	}
	return 0
}

// Percentage is the share of reviews in the star bucket, 0..100.
func (r ProductRating) Percentage(stars int) float64 {
	if r.TotalReviews == 0 {
		return 0
	}
	return float64(r.Count(stars)) / float64(r.TotalReviews) * 100
}
