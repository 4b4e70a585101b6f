package banner

import (
	"context"
	"sort"

	"github.com/wichananm65/shopper-backend/internal/docstore"
)

const Collection = "banners"

// Repository provides access to banner items.
type Repository interface {
	List(ctx context.Context, limit int) ([]BannerItem, error)
	Save(ctx context.Context, b BannerItem) error
	Delete(ctx context.Context, id string) error
}

type DocRepository struct {
	store docstore.Store
}

func NewDocRepository(store docstore.Store) *DocRepository {
	return &DocRepository{store: store}
}

// List returns banners ordered by ord descending, then id.
func (r *DocRepository) List(ctx context.Context, limit int) ([]BannerItem, error) {
	docs, err := r.store.Query(ctx, Collection)
	if err != nil {
		return nil, err
	}
	out := make([]BannerItem, 0, len(docs))
	for _, d := range docs {
		b := BannerItem{ID: d.ID}
		b.ImageURL, _ = docstore.String(d.Data, "imageUrl")
		b.Title, _ = docstore.String(d.Data, "title")
		b.Subtitle, _ = docstore.String(d.Data, "subtitle")
		b.Link, _ = docstore.String(d.Data, "link")
		b.Ord, _ = docstore.Int(d.Data, "ord")
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Ord != out[j].Ord {
			return out[i].Ord > out[j].Ord
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *DocRepository) Save(ctx context.Context, b BannerItem) error {
	return r.store.Set(ctx, Collection, b.ID, map[string]any{
		"imageUrl": b.ImageURL,
		"title":    b.Title,
		"subtitle": b.Subtitle,
		"link":     b.Link,
		"ord":      b.Ord,
	})
}

func (r *DocRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, Collection, id)
}
