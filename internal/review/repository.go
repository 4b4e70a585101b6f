package review

import (
	"context"
	"errors"

	"github.com/wichananm65/shopper-backend/internal/docstore"
)

const (
	Collection       = "reviews"
	RatingCollection = "product_ratings"
)

var ErrNotFound = errors.New("review not found")

type Repository interface {
	Get(ctx context.Context, id string) (Review, error)
	ListByProduct(ctx context.Context, productID string) ([]Review, error)
	FindByUser(ctx context.Context, productID, userID string) ([]Review, error)
	Save(ctx context.Context, r Review) error
	Delete(ctx context.Context, id string) error

	GetRating(ctx context.Context, productID string) (ProductRating, error)
	SaveRating(ctx context.Context, r ProductRating) error
	DeleteRating(ctx context.Context, productID string) error
}

type DocRepository struct {
	store docstore.Store
}

func NewDocRepository(store docstore.Store) *DocRepository {
	return &DocRepository{store: store}
}

func (r *DocRepository) Get(ctx context.Context, id string) (Review, error) {
	doc, err := r.store.Get(ctx, Collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return Review{}, ErrNotFound
	}
	if err != nil {
		return Review{}, err
	}
	return decode(doc), nil
}

func (r *DocRepository) ListByProduct(ctx context.Context, productID string) ([]Review, error) {
	return r.query(ctx, docstore.Eq("productId", productID))
}

func (r *DocRepository) FindByUser(ctx context.Context, productID, userID string) ([]Review, error) {
	return r.query(ctx, docstore.Eq("productId", productID), docstore.Eq("userId", userID))
}

func (r *DocRepository) query(ctx context.Context, filters ...docstore.Filter) ([]Review, error) {
	docs, err := r.store.Query(ctx, Collection, filters...)
	if err != nil {
		return nil, err
	}
	out := make([]Review, 0, len(docs))
	for _, d := range docs {
		out = append(out, decode(d))
	}
	return out, nil
}

func (r *DocRepository) Save(ctx context.Context, rv Review) error {
	images := rv.Images
	if images == nil {
		images = []string{}
	}
	return r.store.Set(ctx, Collection, rv.ID, map[string]any{
		"id":                 rv.ID,
		"productId":          rv.ProductID,
		"userId":             rv.UserID,
		"userName":           rv.UserName,
		"userAvatar":         rv.UserAvatar,
		"rating":             rv.Rating,
		"comment":            rv.Comment,
		"timestamp":          rv.CreatedAt.UnixMilli(),
		"images":             images,
		"isVerifiedPurchase": rv.IsVerifiedPurchase,
	})
}

func (r *DocRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, Collection, id)
}

func (r *DocRepository) GetRating(ctx context.Context, productID string) (ProductRating, error) {
	doc, err := r.store.Get(ctx, RatingCollection, productID)
	if errors.Is(err, docstore.ErrNotFound) {
		return ProductRating{ProductID: productID}, nil
	}
	if err != nil {
		return ProductRating{}, err
	}
	pr := ProductRating{ProductID: productID}
	avg, _ := docstore.Decimal(doc.Data, "averageRating")
	pr.AverageRating = avg.InexactFloat64()
	pr.TotalReviews, _ = docstore.Int(doc.Data, "totalReviews")
	pr.FiveStars, _ = docstore.Int(doc.Data, "fiveStars")
	pr.FourStars, _ = docstore.Int(doc.Data, "fourStars")
	pr.ThreeStars, _ = docstore.Int(doc.Data, "threeStars")
	pr.TwoStars, _ = docstore.Int(doc.Data, "twoStars")
	pr.OneStar, _ = docstore.Int(doc.Data, "oneStar")
	return pr, nil
}

func (r *DocRepository) SaveRating(ctx context.Context, pr ProductRating) error {
	return r.store.Set(ctx, RatingCollection, pr.ProductID, map[string]any{
		"productId":     pr.ProductID,
		"averageRating": pr.AverageRating,
		"totalReviews":  pr.TotalReviews,
		"fiveStars":     pr.FiveStars,
		"fourStars":     pr.FourStars,
		"threeStars":    pr.ThreeStars,
		"twoStars":      pr.TwoStars,
		"oneStar":       pr.OneStar,
	})
}

func (r *DocRepository) DeleteRating(ctx context.Context, productID string) error {
	return r.store.Delete(ctx, RatingCollection, productID)
}

func decode(doc docstore.Document) Review {
	rv := Review{ID: doc.ID}
	rv.ProductID, _ = docstore.String(doc.Data, "productId")
	rv.UserID, _ = docstore.String(doc.Data, "userId")
	rv.UserName, _ = docstore.String(doc.Data, "userName")
	rv.UserAvatar, _ = docstore.String(doc.Data, "userAvatar")
	rating, _ := docstore.Decimal(doc.Data, "rating")
	rv.Rating = rating.InexactFloat64()
	rv.Comment, _ = docstore.String(doc.Data, "comment")
	rv.CreatedAt, _ = docstore.Time(doc.Data, "timestamp")
	rv.Images, _ = docstore.Strings(doc.Data, "images")
	if rv.Images == nil {
		rv.Images = []string{}
	}
	rv.IsVerifiedPurchase, _ = docstore.Bool(doc.Data, "isVerifiedPurchase")
	return rv
}
