package product

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry stored in the `products` collection.
// JSON tags follow the camelCase convention used elsewhere in the project.
type Product struct {
	ID          string          `json:"productId"`
	Name        string          `json:"productName"`
	Price       decimal.Decimal `json:"productPrice"`
	Stock       int             `json:"stock"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	CategoryID  string          `json:"categoryId,omitempty"`
	Description string          `json:"productDesc,omitempty"`
	CreatedAt   time.Time       `json:"createdAt,omitempty"`
	UpdatedAt   time.Time       `json:"updatedAt,omitempty"`
}

// SampleProducts is the default dev seed. Category ids match
// category.SampleCategories.
func SampleProducts() []Product {
	return []Product{
		{ID: "p-headphones", Name: "Wireless Headphones", Price: decimal.NewFromInt(250000), Stock: 40, CategoryID: "electronics", Description: "Over-ear bluetooth headphones", ImageURL: "/images/headphones.png"},
		{ID: "p-keyboard", Name: "Mechanical Keyboard", Price: decimal.NewFromInt(550000), Stock: 15, CategoryID: "electronics", Description: "Hot-swappable 75% keyboard", ImageURL: "/images/keyboard.png"},
		{ID: "p-tee", Name: "Cotton T-Shirt", Price: decimal.NewFromInt(120000), Stock: 100, CategoryID: "fashion", Description: "Plain crew neck tee", ImageURL: "/images/tee.png"},
		{ID: "p-mug", Name: "Ceramic Mug", Price: decimal.NewFromInt(85000), Stock: 60, CategoryID: "home", Description: "350ml glazed mug", ImageURL: "/images/mug.png"},
	}
}
