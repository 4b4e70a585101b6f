package category

import (
	"context"
	"errors"
	"sort"

	"github.com/wichananm65/shopper-backend/internal/docstore"
)

const Collection = "categories"

var ErrNotFound = errors.New("category not found")

// Repository provides access to category documents.
type Repository interface {
	List(ctx context.Context) ([]Category, error)
	Get(ctx context.Context, id string) (Category, error)
	Save(ctx context.Context, c Category) error
	Delete(ctx context.Context, id string) error
}

type DocRepository struct {
	store docstore.Store
}

func NewDocRepository(store docstore.Store) *DocRepository {
	return &DocRepository{store: store}
}

// List returns categories ordered by name.
func (r *DocRepository) List(ctx context.Context) ([]Category, error) {
	docs, err := r.store.Query(ctx, Collection)
	if err != nil {
		return nil, err
	}
	out := make([]Category, 0, len(docs))
	for _, d := range docs {
		out = append(out, decode(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *DocRepository) Get(ctx context.Context, id string) (Category, error) {
	doc, err := r.store.Get(ctx, Collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return Category{}, ErrNotFound
	}
	if err != nil {
		return Category{}, err
	}
	return decode(doc), nil
}

func (r *DocRepository) Save(ctx context.Context, c Category) error {
	return r.store.Set(ctx, Collection, c.ID, map[string]any{
		"name":        c.Name,
		"imageUrl":    c.ImageURL,
		"description": c.Description,
	})
}

func (r *DocRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, Collection, id)
}

func decode(doc docstore.Document) Category {
	c := Category{ID: doc.ID}
	c.Name, _ = docstore.String(doc.Data, "name")
	c.ImageURL, _ = docstore.String(doc.Data, "imageUrl")
	c.Description, _ = docstore.String(doc.Data, "description")
	return c
}
