package recommended

import (
	"context"
	"log"
	"sort"

	"github.com/wichananm65/shopper-backend/internal/product"
	"github.com/wichananm65/shopper-backend/internal/review"
)

type Catalog interface {
	List(ctx context.Context) ([]product.Product, error)
}

// Ratings is satisfied by *review.Service.
type Ratings interface {
	Rating(ctx context.Context, productID string) (review.ProductRating, error)
}

// Service ranks the catalog by review score.
type Service struct {
	catalog Catalog
	ratings Ratings
}

func NewService(catalog Catalog, ratings Ratings) *Service {
	return &Service{catalog: catalog, ratings: ratings}
}

// List returns up to `limit` items ordered by average rating, then review
// count, starting at `offset`. Out-of-stock products are left out.
func (s *Service) List(ctx context.Context, limit, offset int) []RecommendedItem {
	products, err := s.catalog.List(ctx)
	if err != nil {
		log.Printf("[recommended] WARN: list products: %v", err)
		return []RecommendedItem{}
	}
	items := make([]RecommendedItem, 0, len(products))
	for _, p := range products {
		if p.Stock <= 0 {
			continue
		}
		it := RecommendedItem{ProductID: p.ID, ProductName: p.Name, ProductPrice: p.Price, ImageURL: p.ImageURL}
		if pr, err := s.ratings.Rating(ctx, p.ID); err == nil {
			it.AverageRating = pr.AverageRating
			it.TotalReviews = pr.TotalReviews
		} else {
			log.Printf("[recommended] WARN: rating for %s: %v", p.ID, err)
		}
		items = append(items, it)
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.AverageRating != b.AverageRating {
			return a.AverageRating > b.AverageRating
		}
		if a.TotalReviews != b.TotalReviews {
			return a.TotalReviews > b.TotalReviews
		}
		return a.ProductName < b.ProductName
	})
	if offset >= len(items) {
		return []RecommendedItem{}
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
