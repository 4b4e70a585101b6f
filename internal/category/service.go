package category

import (
	"context"
	"errors"
	"log"
	"strings"
)

var ErrInvalidCategory = errors.New("category id and name are required")

// Service provides business logic for categories.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service {
	return &Service{repo: r}
}

// List returns up to limit categories; limit <= 0 means all.
func (s *Service) List(ctx context.Context, limit int) ([]Category, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// Save creates or replaces the category under its id.
func (s *Service) Save(ctx context.Context, c Category) (Category, error) {
	c.ID = strings.TrimSpace(c.ID)
	c.Name = strings.TrimSpace(c.Name)
	if c.ID == "" || c.Name == "" {
		return Category{}, ErrInvalidCategory
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return Category{}, err
	}
	return c, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Reset replaces every category with items (dev seeding).
func (s *Service) Reset(ctx context.Context, items []Category) error {
	existing, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	for _, c := range existing {
		if err := s.repo.Delete(ctx, c.ID); err != nil {
			return err
		}
	}
	for _, c := range items {
		if err := s.repo.Save(ctx, c); err != nil {
			return err
		}
	}
	log.Printf("[category] reset with %d categories", len(items))
	return nil
}
