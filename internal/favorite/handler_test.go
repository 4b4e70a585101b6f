package favorite

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/wichananm65/shopper-backend/internal/docstore"
	"github.com/wichananm65/shopper-backend/internal/product"
)

func makeAppWithFavoriteHandler(h *Handler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{"user_id": v}})
		}
		return c.Next()
	})
	h.RegisterProtectedRoutes(app)
	return app
}

func TestFavoriteRoutes(t *testing.T) {
	mem := docstore.NewMemoryStore()
	products := product.NewService(product.NewDocRepository(mem))
	if err := products.ResetProducts(context.Background(), product.SampleProducts()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	svc := NewService(NewDocRepository(mem), products)
	tick := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { tick = tick.Add(time.Second); return tick }
	app := makeAppWithFavoriteHandler(NewHandler(svc))

	do := func(method, body, user string) (int, string) {
		var r io.Reader
		if body != "" {
			r = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, "/api/v1/favorites", r)
		req.Header.Set("Content-Type", "application/json")
		if user != "" {
			req.Header.Set("X-User-ID", user)
		}
		res, err := app.Test(req, -1)
		if err != nil {
			t.Fatalf("%s failed: %v", method, err)
		}
		b, _ := io.ReadAll(res.Body)
		return res.StatusCode, string(b)
	}

	if code, _ := do("GET", "", ""); code != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
	if code, _ := do("POST", `{"productId":"p-mug"}`, "u1"); code != fiber.StatusOK {
		t.Fatalf("expected 200 on add, got %d", code)
	}
	code, body := do("POST", `{"productId":"p-tee"}`, "u1")
	if code != fiber.StatusOK || !strings.Contains(body, `["p-mug","p-tee"]`) {
		t.Fatalf("unexpected add response %d: %s", code, body)
	}
	if code, _ := do("POST", `{"productId":"p-mug"}`, "u1"); code != fiber.StatusConflict {
		t.Fatalf("expected 409 for duplicate, got %d", code)
	}
	if code, _ := do("POST", `{"productId":"ghost"}`, "u1"); code != fiber.StatusNotFound {
		t.Fatalf("expected 404 for unknown product, got %d", code)
	}
	if code, _ := do("POST", `{"productId":""}`, "u1"); code != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for empty product, got %d", code)
	}

	code, body = do("GET", "", "u1")
	if code != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	var favs []product.Product
	if err := json.Unmarshal([]byte(body), &favs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(favs) != 2 || favs[0].ID != "p-mug" || favs[1].ID != "p-tee" {
		t.Fatalf("unexpected favorites %s", body)
	}

	// delisted products drop out of the list
	if err := products.Delete(context.Background(), "p-tee"); err != nil {
		t.Fatalf("delete product: %v", err)
	}
	_, body = do("GET", "", "u1")
	if strings.Contains(body, "p-tee") {
		t.Fatalf("delisted product still listed: %s", body)
	}

	if code, _ := do("DELETE", `{"productId":"p-mug"}`, "u1"); code != fiber.StatusOK {
		t.Fatalf("expected 200 on remove, got %d", code)
	}
	if code, _ := do("DELETE", `{"productId":"p-mug"}`, "u1"); code != fiber.StatusBadRequest {
		t.Fatalf("expected 400 removing a non-favorite, got %d", code)
	}
	if _, body := do("GET", "", "u2"); body != "[]" {
		t.Fatalf("favorites must be per user, got %s", body)
	}
}
