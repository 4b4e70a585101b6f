package review

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/shopper-backend/internal/docstore"
	"github.com/wichananm65/shopper-backend/internal/identity"
	"github.com/wichananm65/shopper-backend/internal/product"
)

var (
	alice = &identity.Identity{ID: "alice", DisplayName: "Alice"}
	bob   = &identity.Identity{ID: "bob", DisplayName: "Bob"}
	carol = &identity.Identity{ID: "carol", DisplayName: "Carol"}
	dave  = &identity.Identity{ID: "dave", DisplayName: "Dave"}
	admin = &identity.Identity{ID: "root", Role: identity.RoleAdmin}
)

type purchases map[string]bool

func (p purchases) HasPurchased(_ context.Context, userID, productID string) (bool, error) {
	if userID == "broken" {
		return false, errors.New("orders unavailable")
	}
	return p[userID+"/"+productID], nil
}

type tickClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestService(t *testing.T) (*Service, *DocRepository) {
	t.Helper()
	mem := docstore.NewMemoryStore()
	products := product.NewService(product.NewDocRepository(mem))
	require.NoError(t, products.ResetProducts(context.Background(), product.SampleProducts()))
	repo := NewDocRepository(mem)
	clock := &tickClock{now: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)}
	svc := NewService(repo, Options{
		Purchases: purchases{"alice/p-mug": true},
		Products:  products,
		Now:       clock.Now,
	})
	return svc, repo
}

func TestAdd_DuplicateGuardAndVerifiedPurchase(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rv, err := svc.Add(ctx, alice, Input{ProductID: "p-mug", Rating: 5, Comment: " great "})
	require.NoError(t, err)
	assert.True(t, rv.IsVerifiedPurchase)
	assert.Equal(t, "Alice", rv.UserName)
	assert.Equal(t, "great", rv.Comment)

	_, err = svc.Add(ctx, alice, Input{ProductID: "p-mug", Rating: 3})
	assert.ErrorIs(t, err, ErrAlreadyReviewed)

	rv, err = svc.Add(ctx, bob, Input{ProductID: "p-mug", Rating: 2})
	require.NoError(t, err)
	assert.False(t, rv.IsVerifiedPurchase)

	// a failing purchase lookup does not block the review
	rv, err = svc.Add(ctx, &identity.Identity{ID: "broken"}, Input{ProductID: "p-mug", Rating: 4})
	require.NoError(t, err)
	assert.False(t, rv.IsVerifiedPurchase)
}

func TestAdd_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, nil, Input{ProductID: "p-mug", Rating: 5})
	assert.ErrorIs(t, err, ErrUnauthenticated)
	for _, r := range []float64{0, 0.5, 5.5, -1} {
		_, err = svc.Add(ctx, alice, Input{ProductID: "p-mug", Rating: r})
		assert.ErrorIs(t, err, ErrInvalidRating, "rating %v", r)
	}
	_, err = svc.Add(ctx, alice, Input{ProductID: "nope", Rating: 5})
	assert.ErrorIs(t, err, product.ErrNotFound)
}

func TestRatingAggregate(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	for i, in := range []struct {
		who    *identity.Identity
		rating float64
	}{{alice, 5}, {bob, 4}, {carol, 4.5}, {dave, 1}} {
		_, err := svc.Add(ctx, in.who, Input{ProductID: "p-mug", Rating: in.rating})
		require.NoError(t, err, "review %d", i)
	}

	pr, err := svc.Rating(ctx, "p-mug")
	require.NoError(t, err)
	assert.Equal(t, 4, pr.TotalReviews)
	assert.InDelta(t, 3.63, pr.AverageRating, 0.001)
	assert.Equal(t, 1, pr.FiveStars)
	assert.Equal(t, 2, pr.FourStars, "4.5 truncates to four stars")
	assert.Equal(t, 0, pr.ThreeStars)
	assert.Equal(t, 1, pr.OneStar)
	assert.InDelta(t, 50.0, pr.Percentage(4), 0.001)
	assert.Zero(t, ProductRating{}.Percentage(5))

	list, err := svc.List(ctx, "p-mug")
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, "dave", list[0].UserID, "newest first")

	for _, rv := range list {
		require.NoError(t, svc.Delete(ctx, admin, rv.ID))
	}
	_, err = repo.store.Get(ctx, RatingCollection, "p-mug")
	assert.ErrorIs(t, err, docstore.ErrNotFound, "aggregate removed with the last review")
	pr, err = svc.Rating(ctx, "p-mug")
	require.NoError(t, err)
	assert.Zero(t, pr.TotalReviews)
}

func TestUpdateAndDelete_Ownership(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Add(ctx, alice, Input{ProductID: "p-mug", Rating: 2})
	require.NoError(t, err)
	_, err = svc.Add(ctx, bob, Input{ProductID: "p-mug", Rating: 4})
	require.NoError(t, err)

	_, err = svc.Update(ctx, bob, first.ID, 5, "hijack")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Update(ctx, alice, first.ID, 9, "")
	assert.ErrorIs(t, err, ErrInvalidRating)
	_, err = svc.Update(ctx, alice, "missing", 5, "")
	assert.ErrorIs(t, err, ErrNotFound)

	updated, err := svc.Update(ctx, alice, first.ID, 5, "changed my mind")
	require.NoError(t, err)
	assert.True(t, updated.CreatedAt.After(first.CreatedAt), "update bumps the timestamp")

	pr, err := svc.Rating(ctx, "p-mug")
	require.NoError(t, err)
	assert.InDelta(t, 4.5, pr.AverageRating, 0.001)
	assert.Equal(t, 1, pr.FiveStars)
	assert.Equal(t, 0, pr.TwoStars)

	assert.ErrorIs(t, svc.Delete(ctx, bob, first.ID), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, alice, first.ID))
	pr, err = svc.Rating(ctx, "p-mug")
	require.NoError(t, err)
	assert.Equal(t, 1, pr.TotalReviews)
	assert.InDelta(t, 4.0, pr.AverageRating, 0.001)

	// a new review is allowed again once the old one is gone
	_, err = svc.Add(ctx, alice, Input{ProductID: "p-mug", Rating: 3})
	assert.NoError(t, err)
}
