package review

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wichananm65/shopper-backend/internal/identity"
	"github.com/wichananm65/shopper-backend/internal/product"
)

var (
	ErrAlreadyReviewed = errors.New("already reviewed")
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
	ErrForbidden       = errors.New("not the author of this review")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// PurchaseChecker tells whether a user bought a product. *order.Manager
// satisfies it.
type PurchaseChecker interface {
	HasPurchased(ctx context.Context, userID, productID string) (bool, error)
}

type ProductLookup interface {
	GetByID(ctx context.Context, id string) (product.Product, error)
}

type Options struct {
	// Purchases marks reviews as verified purchases. Optional.
	Purchases PurchaseChecker
	// Products rejects reviews of unknown products. Optional.
	Products ProductLookup
	Now      func() time.Time
}

type Service struct {
	repo      Repository
	purchases PurchaseChecker
	products  ProductLookup
	now       func() time.Time
}

func NewService(repo Repository, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{repo: repo, purchases: opts.Purchases, products: opts.Products, now: opts.Now}
}

// Input is what a buyer submits.
type Input struct {
	ProductID string   `json:"productId"`
	Rating    float64  `json:"rating"`
	Comment   string   `json:"comment"`
	Images    []string `json:"images"`
}

func validRating(r float64) bool {
	return r >= 1 && r <= 5
}

// Add stores a new review and refreshes the product's rating. A user who
// already reviewed the product gets ErrAlreadyReviewed.
func (s *Service) Add(ctx context.Context, actor *identity.Identity, in Input) (Review, error) {
	if actor == nil {
		return Review{}, ErrUnauthenticated
	}
	if !validRating(in.Rating) {
		return Review{}, ErrInvalidRating
	}
	in.ProductID = strings.TrimSpace(in.ProductID)
	if s.products != nil {
		if _, err := s.products.GetByID(ctx, in.ProductID); err != nil {
			return Review{}, err
		}
	}

	existing, err := s.repo.FindByUser(ctx, in.ProductID, actor.ID)
	if err != nil {
		return Review{}, err
	}
	if len(existing) > 0 {
		return Review{}, ErrAlreadyReviewed
	}

	rv := Review{
		ID:        uuid.NewString(),
		ProductID: in.ProductID,
		UserID:    actor.ID,
		UserName:  actor.DisplayName,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
		CreatedAt: s.now().UTC(),
		Images:    in.Images,
	}
	if rv.Images == nil {
		rv.Images = []string{}
	}
	if s.purchases != nil {
		ok, err := s.purchases.HasPurchased(ctx, actor.ID, in.ProductID)
		if err != nil {
			log.Printf("[review] WARN: purchase check %s/%s: %v", actor.ID, in.ProductID, err)
		}
		rv.IsVerifiedPurchase = ok
	}
	if err := s.repo.Save(ctx, rv); err != nil {
		return Review{}, fmt.Errorf("add review: %w", err)
	}
	log.Printf("[review] added %s for product %s by %s", rv.ID, rv.ProductID, rv.UserID)
	s.refresh(ctx, rv.ProductID)
	return rv, nil
}

// List returns a product's reviews, newest first.
func (s *Service) List(ctx context.Context, productID string) ([]Review, error) {
	items, err := s.repo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, nil
}

func (s *Service) Rating(ctx context.Context, productID string) (ProductRating, error) {
	return s.repo.GetRating(ctx, productID)
}

// Update changes rating and comment of the caller's own review and bumps its
// timestamp.
func (s *Service) Update(ctx context.Context, actor *identity.Identity, id string, rating float64, comment string) (Review, error) {
	if actor == nil {
		return Review{}, ErrUnauthenticated
	}
	if !validRating(rating) {
		return Review{}, ErrInvalidRating
	}
	rv, err := s.repo.Get(ctx, id)
	if err != nil {
		return Review{}, err
	}
	if rv.UserID != actor.ID {
		return Review{}, ErrForbidden
	}
	rv.Rating = rating
	rv.Comment = strings.TrimSpace(comment)
	rv.CreatedAt = s.now().UTC()
	if err := s.repo.Save(ctx, rv); err != nil {
		return Review{}, fmt.Errorf("update review: %w", err)
	}
	s.refresh(ctx, rv.ProductID)
	return rv, nil
}

// Delete removes a review. Authors delete their own; admins delete any.
func (s *Service) Delete(ctx context.Context, actor *identity.Identity, id string) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	rv, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if rv.UserID != actor.ID && !actor.IsAdmin() {
		return ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	s.refresh(ctx, rv.ProductID)
	return nil
}

// refresh recomputes the aggregate after a write. The review itself is
// already stored, so a failure here is logged and fixed by the next write.
func (s *Service) refresh(ctx context.Context, productID string) {
	if _, err := s.Recompute(ctx, productID); err != nil {
		log.Printf("[review] WARN: recompute rating for %s: %v", productID, err)
	}
}

// Recompute rebuilds product_ratings/{productID} from the stored reviews.
// With no reviews left the aggregate is deleted.
func (s *Service) Recompute(ctx context.Context, productID string) (ProductRating, error) {
	reviews, err := s.repo.ListByProduct(ctx, productID)
	if err != nil {
		return ProductRating{}, err
	}
	if len(reviews) == 0 {
		return ProductRating{ProductID: productID}, s.repo.DeleteRating(ctx, productID)
	}
	pr := Aggregate(productID, reviews)
	if err := s.repo.SaveRating(ctx, pr); err != nil {
		return ProductRating{}, err
	}
	return pr, nil
}

// Aggregate computes the rating summary. Star buckets truncate, so 4.5
// counts as four stars.
func Aggregate(productID string, reviews []Review) ProductRating {
	pr := ProductRating{ProductID: productID, TotalReviews: len(reviews)}
	if len(reviews) == 0 {
		return pr
	}
	sum := decimal.Zero
	for _, rv := range reviews {
		sum = sum.Add(decimal.NewFromFloat(rv.Rating))
		switch int(rv.Rating) {
		case 5:
			pr.FiveStars++
		case 4:
			pr.FourStars++
		case 3:
			pr.ThreeStars++
		case 2:
			pr.TwoStars++
		case 1:
			pr.OneStar++
		}
	}
	pr.AverageRating = sum.Div(decimal.NewFromInt(int64(len(reviews)))).Round(2).InexactFloat64()
	return pr
}
