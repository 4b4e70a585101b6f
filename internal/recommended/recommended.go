package recommended

import "github.com/shopspring/decimal"

// RecommendedItem is the public DTO returned by the recommended API.
type RecommendedItem struct {
	ProductID     string          `json:"productId"`
	ProductName   string          `json:"productName"`
	ProductPrice  decimal.Decimal `json:"productPrice"`
	ImageURL      string          `json:"imageUrl,omitempty"`
	AverageRating float64         `json:"averageRating"`
	TotalReviews  int             `json:"totalReviews"`
}
