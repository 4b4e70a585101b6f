package order

import (
	"context"
	"errors"

	"github.com/wichananm65/shopper-backend/internal/docstore"
)

const Collection = "orders"

// Repository defines persistence operations for orders.
type Repository interface {
	// Create stores a new order; ErrOrderExists when the id is taken.
	Create(ctx context.Context, o Order) error
	Get(ctx context.Context, id string) (Decoded, error)
	UpdateStatus(ctx context.Context, id string, st Status) error
	// ListByUser and ListAll return one Decoded per stored record, in no
	// particular order.
	ListByUser(ctx context.Context, userID string) ([]Decoded, error)
	ListAll(ctx context.Context) ([]Decoded, error)
}

type DocRepository struct {
	store docstore.Store
}

func NewDocRepository(store docstore.Store) *DocRepository {
	return &DocRepository{store: store}
}

func (r *DocRepository) Create(ctx context.Context, o Order) error {
	err := r.store.Create(ctx, Collection, o.ID, encodeOrder(o))
	if errors.Is(err, docstore.ErrAlreadyExists) {
		return ErrOrderExists
	}
	return err
}

func (r *DocRepository) Get(ctx context.Context, id string) (Decoded, error) {
	doc, err := r.store.Get(ctx, Collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return Decoded{}, ErrOrderNotFound
	}
	if err != nil {
		return Decoded{}, err
	}
	return decodeOrder(doc), nil
}

func (r *DocRepository) UpdateStatus(ctx context.Context, id string, st Status) error {
	err := r.store.Update(ctx, Collection, id, map[string]any{"status": string(st)})
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrOrderNotFound
	}
	return err
}

func (r *DocRepository) ListByUser(ctx context.Context, userID string) ([]Decoded, error) {
	docs, err := r.store.Query(ctx, Collection, docstore.Eq("userId", userID))
	if err != nil {
		return nil, err
	}
	return decodeAll(docs), nil
}

func (r *DocRepository) ListAll(ctx context.Context) ([]Decoded, error) {
	docs, err := r.store.Query(ctx, Collection)
	if err != nil {
		return nil, err
	}
	return decodeAll(docs), nil
}

func decodeAll(docs []docstore.Document) []Decoded {
	out := make([]Decoded, 0, len(docs))
	for _, doc := range docs {
		out = append(out, decodeOrder(doc))
	}
	return out
}
