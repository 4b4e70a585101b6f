package favorite

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/wichananm65/shopper-backend/internal/docstore"
)

var (
	ErrAlreadyFavorite = errors.New("product already in favorites")
	ErrNotFavorite     = errors.New("product not in favorites")
)

// Entry is one favorited product id with the time it was added.
type Entry struct {
	ProductID string
	AddedAt   time.Time
}

// Repository provides access to a user's favorites.
type Repository interface {
	List(ctx context.Context, userID string) ([]Entry, error)
	Add(ctx context.Context, userID string, e Entry) error
	Remove(ctx context.Context, userID, productID string) error
}

// DocRepository stores favorites at users/{uid}/favorites/{productId}.
type DocRepository struct {
	store docstore.Store
}

func NewDocRepository(store docstore.Store) *DocRepository {
	return &DocRepository{store: store}
}

func collection(userID string) string {
	return docstore.Path("users", userID, "favorites")
}

// List returns entries oldest first.
func (r *DocRepository) List(ctx context.Context, userID string) ([]Entry, error) {
	docs, err := r.store.Query(ctx, collection(userID))
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(docs))
	for _, d := range docs {
		e := Entry{ProductID: d.ID}
		e.AddedAt, _ = docstore.Time(d.Data, "addedAt")
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AddedAt.Before(out[j].AddedAt) })
	return out, nil
}

// Add fails with ErrAlreadyFavorite when the product is already there.
func (r *DocRepository) Add(ctx context.Context, userID string, e Entry) error {
	_, err := r.store.Get(ctx, collection(userID), e.ProductID)
	switch {
	case err == nil:
		return ErrAlreadyFavorite
	case !errors.Is(err, docstore.ErrNotFound):
		return err
	}
	return r.store.Set(ctx, collection(userID), e.ProductID, map[string]any{
		"productId": e.ProductID,
		"addedAt":   e.AddedAt.UnixMilli(),
	})
}

func (r *DocRepository) Remove(ctx context.Context, userID, productID string) error {
	if _, err := r.store.Get(ctx, collection(userID), productID); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrNotFavorite
		}
		return err
	}
	return r.store.Delete(ctx, collection(userID), productID)
}
