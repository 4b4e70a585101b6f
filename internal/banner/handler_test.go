package banner

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/shopper-backend/internal/docstore"
)

func TestBannerRoute(t *testing.T) {
	svc := NewService(NewDocRepository(docstore.NewMemoryStore()))
	app := fiber.New()
	NewHandler(svc).RegisterPublicRoutes(app)

	res, _ := app.Test(httptest.NewRequest("GET", "/api/v1/banners", nil))
	b, _ := io.ReadAll(res.Body)
	if res.StatusCode != fiber.StatusOK || string(b) != "[]" {
		t.Fatalf("expected empty list, got %d: %s", res.StatusCode, b)
	}

	if err := svc.Reset(context.Background(), SampleBanners()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	res, _ = app.Test(httptest.NewRequest("GET", "/api/v1/banners?limit=2", nil))
	b, _ = io.ReadAll(res.Body)
	var items []BannerItem
	if err := json.Unmarshal(b, &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 2 || items[0].ID != "sale" || items[1].ID != "free-shipping" {
		t.Fatalf("expected the two highest ord banners, got %s", b)
	}
}
