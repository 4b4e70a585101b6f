package favorite

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/wichananm65/shopper-backend/internal/product"
)

var ErrInvalidProduct = errors.New("invalid productId")

type ProductLookup interface {
	GetByID(ctx context.Context, id string) (product.Product, error)
}

type Service struct {
	repo     Repository
	products ProductLookup
	now      func() time.Time
}

func NewService(repo Repository, products ProductLookup) *Service {
	return &Service{repo: repo, products: products, now: time.Now}
}

// AddFavorite returns the favorite product ids after the change.
func (s *Service) AddFavorite(ctx context.Context, userID, productID string) ([]string, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, ErrInvalidProduct
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	if err := s.repo.Add(ctx, userID, Entry{ProductID: productID, AddedAt: s.now().UTC()}); err != nil {
		return nil, err
	}
	return s.ids(ctx, userID)
}

func (s *Service) RemoveFavorite(ctx context.Context, userID, productID string) ([]string, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, ErrInvalidProduct
	}
	if err := s.repo.Remove(ctx, userID, productID); err != nil {
		return nil, err
	}
	return s.ids(ctx, userID)
}

func (s *Service) ids(ctx context.Context, userID string) ([]string, error) {
	entries, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ProductID)
	}
	return out, nil
}

// GetFavorites returns the favorited products in the order they were added.
// Products no longer in the catalog are skipped.
func (s *Service) GetFavorites(ctx context.Context, userID string) ([]product.Product, error) {
	entries, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]product.Product, 0, len(entries))
	for _, e := range entries {
		p, err := s.products.GetByID(ctx, e.ProductID)
		if errors.Is(err, product.ErrNotFound) {
			log.Printf("[favorite] %s: product %s no longer listed", userID, e.ProductID)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
