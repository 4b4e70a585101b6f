package banner

import (
	"context"
	"log"
)

// Service provides business logic for banners.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service {
	return &Service{repo: r}
}

// List returns up to `limit` banner items. Read failures yield an empty
// list so the home page can fall back to its own images.
func (s *Service) List(ctx context.Context, limit int) []BannerItem {
	items, err := s.repo.List(ctx, limit)
	if err != nil {
		log.Printf("[banner] WARN: list: %v", err)
		return []BannerItem{}
	}
	return items
}

// Reset replaces every banner with items (dev seeding).
func (s *Service) Reset(ctx context.Context, items []BannerItem) error {
	existing, err := s.repo.List(ctx, 0)
	if err != nil {
		return err
	}
	for _, b := range existing {
		if err := s.repo.Delete(ctx, b.ID); err != nil {
			return err
		}
	}
	for _, b := range items {
		if err := s.repo.Save(ctx, b); err != nil {
			return err
		}
	}
	return nil
}
