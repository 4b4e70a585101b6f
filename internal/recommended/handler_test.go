package recommended

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/shopper-backend/internal/docstore"
	"github.com/wichananm65/shopper-backend/internal/identity"
	"github.com/wichananm65/shopper-backend/internal/product"
	"github.com/wichananm65/shopper-backend/internal/review"
)

func TestRecommendedRoute(t *testing.T) {
	ctx := context.Background()
	mem := docstore.NewMemoryStore()
	products := product.NewService(product.NewDocRepository(mem))
	catalog := product.SampleProducts()
	catalog[2].Stock = 0 // p-tee
	if err := products.ResetProducts(ctx, catalog); err != nil {
		t.Fatalf("seed: %v", err)
	}
	reviews := review.NewService(review.NewDocRepository(mem), review.Options{Products: products})
	for _, r := range []struct {
		user, product string
		rating        float64
	}{
		{"a", "p-mug", 5}, {"b", "p-mug", 4},
		{"a", "p-keyboard", 5},
		{"a", "p-tee", 5},
	} {
		if _, err := reviews.Add(ctx, &identity.Identity{ID: r.user}, review.Input{ProductID: r.product, Rating: r.rating}); err != nil {
			t.Fatalf("review: %v", err)
		}
	}

	app := fiber.New()
	NewHandler(NewService(products, reviews)).RegisterPublicRoutes(app)
	product.NewHandler(products).RegisterPublicRoutes(app)

	get := func(path string) []RecommendedItem {
		res, err := app.Test(httptest.NewRequest("GET", path, nil))
		if err != nil || res.StatusCode != fiber.StatusOK {
			t.Fatalf("GET %s failed: %v", path, err)
		}
		b, _ := io.ReadAll(res.Body)
		var items []RecommendedItem
		if err := json.Unmarshal(b, &items); err != nil {
			t.Fatalf("decode %s: %v", b, err)
		}
		return items
	}

	items := get("/api/v1/products/recommended")
	if len(items) != 3 {
		t.Fatalf("expected 3 in-stock products, got %+v", items)
	}
	want := []string{"p-keyboard", "p-mug", "p-headphones"}
	for i, id := range want {
		if items[i].ProductID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, items[i].ProductID)
		}
	}
	if items[1].TotalReviews != 2 || items[1].AverageRating != 4.5 {
		t.Fatalf("unexpected mug rating %+v", items[1])
	}

	items = get("/api/v1/products/recommended?limit=1&offset=1")
	if len(items) != 1 || items[0].ProductID != "p-mug" {
		t.Fatalf("pagination broken: %+v", items)
	}
	if items := get("/api/v1/products/recommended?offset=10"); len(items) != 0 {
		t.Fatalf("expected empty page, got %+v", items)
	}
}
