package product

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wichananm65/shopper-backend/internal/docstore"
)

const Collection = "products"

var (
	ErrNotFound = errors.New("product not found")
)

type Repository interface {
	List(ctx context.Context) ([]Product, error)
	ListByCategory(ctx context.Context, categoryID string) ([]Product, error)
	GetByID(ctx context.Context, id string) (Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, id string, p Product) (Product, error)
	Delete(ctx context.Context, id string) error
	// Reset replaces all products with the provided list (used for dev / seeding)
	Reset(ctx context.Context, products []Product) error
}

// DocRepository stores products as documents keyed by product id.
type DocRepository struct {
	store docstore.Store
	now   func() time.Time
}

func NewDocRepository(store docstore.Store) *DocRepository {
	return &DocRepository{store: store, now: time.Now}
}

func (r *DocRepository) List(ctx context.Context) ([]Product, error) {
	docs, err := r.store.Query(ctx, Collection)
	if err != nil {
		return nil, err
	}
	return decodeAll(docs), nil
}

func (r *DocRepository) ListByCategory(ctx context.Context, categoryID string) ([]Product, error) {
	docs, err := r.store.Query(ctx, Collection, docstore.Eq("categoryId", categoryID))
	if err != nil {
		return nil, err
	}
	return decodeAll(docs), nil
}

func (r *DocRepository) GetByID(ctx context.Context, id string) (Product, error) {
	doc, err := r.store.Get(ctx, Collection, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	return decode(doc), nil
}

func (r *DocRepository) Create(ctx context.Context, p Product) (Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := r.now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if err := r.store.Set(ctx, Collection, p.ID, encode(p)); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (r *DocRepository) Update(ctx context.Context, id string, p Product) (Product, error) {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return Product{}, err
	}
	p.ID = id
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = r.now().UTC()
	if err := r.store.Set(ctx, Collection, id, encode(p)); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (r *DocRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return r.store.Delete(ctx, Collection, id)
}

func (r *DocRepository) Reset(ctx context.Context, products []Product) error {
	docs, err := r.store.Query(ctx, Collection)
	if err != nil {
		return err
	}
	for _, d := range docs {
		if err := r.store.Delete(ctx, Collection, d.ID); err != nil {
			return err
		}
	}
	for _, p := range products {
		if _, err := r.Create(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func encode(p Product) map[string]any {
	return map[string]any{
		"name":        p.Name,
		"price":       docstore.Money(p.Price),
		"stock":       p.Stock,
		"imageUrl":    p.ImageURL,
		"categoryId":  p.CategoryID,
		"description": p.Description,
		"createdAt":   p.CreatedAt.UnixMilli(),
		"updatedAt":   p.UpdatedAt.UnixMilli(),
	}
}

func decode(doc docstore.Document) Product {
	p := Product{ID: doc.ID}
	p.Name, _ = docstore.String(doc.Data, "name")
	p.Price, _ = docstore.Decimal(doc.Data, "price")
	p.Stock, _ = docstore.Int(doc.Data, "stock")
	p.ImageURL, _ = docstore.String(doc.Data, "imageUrl")
	p.CategoryID, _ = docstore.String(doc.Data, "categoryId")
	p.Description, _ = docstore.String(doc.Data, "description")
	p.CreatedAt, _ = docstore.Time(doc.Data, "createdAt")
	p.UpdatedAt, _ = docstore.Time(doc.Data, "updatedAt")
	if p.Price.IsNegative() || p.Stock < 0 {
		log.Printf("[product] WARN: %s has negative price or stock, clamping", doc.ID)
		if p.Price.IsNegative() {
			p.Price = decimal.Zero
		}
		if p.Stock < 0 {
			p.Stock = 0
		}
	}
	return p
}

func decodeAll(docs []docstore.Document) []Product {
	out := make([]Product, 0, len(docs))
	for _, d := range docs {
		out = append(out, decode(d))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
