package cart

import (
	"context"
	"errors"

	"github.com/wichananm65/shopper-backend/internal/docstore"
)

var (
	ErrLineNotFound = errors.New("cart line not found")
)

// Repository is the remote side of a cart. Lines live at
// users/{userID}/cart/{productID}.
type Repository interface {
	List(ctx context.Context, userID string) ([]Line, error)
	Put(ctx context.Context, userID string, line Line) error
	// UpdateQuantity returns ErrLineNotFound when the line does not exist remotely.
	UpdateQuantity(ctx context.Context, userID, productID string, qty int) error
	Delete(ctx context.Context, userID, productID string) error
	Watch(ctx context.Context, userID string, fn func(lines []Line, err error)) error
}

type DocRepository struct {
	store docstore.Store
}

func NewDocRepository(store docstore.Store) *DocRepository {
	return &DocRepository{store: store}
}

func CollectionFor(userID string) string {
	return docstore.Path("users", userID, "cart")
}

func (r *DocRepository) List(ctx context.Context, userID string) ([]Line, error) {
	docs, err := r.store.Query(ctx, CollectionFor(userID))
	if err != nil {
		return nil, err
	}
	return decodeLines(docs), nil
}

func (r *DocRepository) Put(ctx context.Context, userID string, line Line) error {
	return r.store.Set(ctx, CollectionFor(userID), line.ProductID, encodeLine(line))
}

func (r *DocRepository) UpdateQuantity(ctx context.Context, userID, productID string, qty int) error {
	err := r.store.Update(ctx, CollectionFor(userID), productID, map[string]any{"quantity": qty})
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrLineNotFound
	}
	return err
}

func (r *DocRepository) Delete(ctx context.Context, userID, productID string) error {
	return r.store.Delete(ctx, CollectionFor(userID), productID)
}

func (r *DocRepository) Watch(ctx context.Context, userID string, fn func([]Line, error)) error {
	return r.store.Watch(ctx, CollectionFor(userID), func(docs []docstore.Document, err error) {
		if err != nil {
			fn(nil, err)
			return
		}
		fn(decodeLines(docs), nil)
	})
}

func decodeLines(docs []docstore.Document) []Line {
	out := make([]Line, 0, len(docs))
	for _, d := range docs {
		if l, ok := decodeLine(d); ok {
			out = append(out, l)
		}
	}
	return out
}
