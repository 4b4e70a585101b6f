package order

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
	"github.com/shopspring/decimal"
	"github.com/wichananm65/shopper-backend/internal/cart"
	"github.com/wichananm65/shopper-backend/internal/identity"
)

// makeAppWithOrderHandler injects a jwt.Token into locals when X-User-ID
// is present, with the role taken from X-Role.
func makeAppWithOrderHandler(h *Handler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			claims := jwt.MapClaims{"user_id": v, "name": v, "role": c.Get("X-Role")}
			c.Locals("user", &jwt.Token{Claims: claims})
		}
		return c.Next()
	})
	h.RegisterProtectedRoutes(app)
	return app
}

type orderTestApp struct {
	app      *fiber.App
	fixture  *fixture
	sessions *cart.Sessions
}

func newOrderTestApp(t *testing.T) *orderTestApp {
	t.Helper()
	f := newFixture(t)
	sessions := cart.NewSessions(cart.NewDocRepository(f.mem), cart.Options{Attempts: 1}, false)
	t.Cleanup(sessions.Close)
	return &orderTestApp{app: makeAppWithOrderHandler(NewHandler(f.manager, sessions)), fixture: f, sessions: sessions}
}

func (a *orderTestApp) do(t *testing.T, method, path, body, user, role string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("X-User-ID", user)
		req.Header.Set("X-Role", role)
	}
	res, err := a.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}
	b, _ := io.ReadAll(res.Body)
	return res.StatusCode, b
}

func (a *orderTestApp) fillCart(t *testing.T, user string) {
	t.Helper()
	store := a.sessions.For(context.Background(), &identity.Identity{ID: user})
	store.AddOrIncrement(a.fixture.product(t, "p-headphones"), 1)
	store.AddOrIncrement(a.fixture.product(t, "p-keyboard"), 1)
}

func TestOrderRoutes_Unauthorized(t *testing.T) {
	a := newOrderTestApp(t)
	for _, r := range []struct{ method, path string }{
		{"POST", "/api/v1/checkout"},
		{"GET", "/api/v1/orders"},
		{"GET", "/api/v1/orders/pending"},
		{"GET", "/api/v1/admin/orders"},
	} {
		if code, _ := a.do(t, r.method, r.path, "", "", ""); code != fiber.StatusUnauthorized {
			t.Fatalf("expected 401 for %s %s, got %d", r.method, r.path, code)
		}
	}
}

func TestOrderRoutes_CODCheckout(t *testing.T) {
	a := newOrderTestApp(t)
	a.fillCart(t, "u1")

	code, body := a.do(t, "POST", "/api/v1/checkout", `{"shippingAddress":"12 Le Loi","phoneNumber":"0901","paymentMethod":"cod"}`, "u1", "")
	if code != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", code, body)
	}
	var res checkoutResponse
	if err := json.Unmarshal(body, &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Order == nil || !res.Order.TotalAmount.Equal(decimal.NewFromInt(830000)) {
		t.Fatalf("expected committed order with total 830000, got %s", body)
	}

	code, body = a.do(t, "GET", "/api/v1/orders?status=pending", "", "u1", "")
	if code != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	var orders []Order
	_ = json.Unmarshal(body, &orders)
	if len(orders) != 1 || orders[0].ID != res.Order.ID {
		t.Fatalf("expected the new order, got %s", body)
	}

	if code, _ := a.do(t, "GET", "/api/v1/orders?status=bogus", "", "u1", ""); code != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for bad status filter, got %d", code)
	}

	// cart was emptied
	store := a.sessions.For(context.Background(), &identity.Identity{ID: "u1"})
	if len(store.Lines()) != 0 {
		t.Fatalf("expected empty cart after COD checkout")
	}
}

func TestOrderRoutes_CheckoutErrors(t *testing.T) {
	a := newOrderTestApp(t)
	if code, _ := a.do(t, "POST", "/api/v1/checkout", `{"shippingAddress":"a","phoneNumber":"b","paymentMethod":"COD"}`, "u1", ""); code != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for empty cart, got %d", code)
	}
	a.fillCart(t, "u1")
	if code, _ := a.do(t, "POST", "/api/v1/checkout", `{"shippingAddress":"a","phoneNumber":"b","paymentMethod":"PAYPAL"}`, "u1", ""); code != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for unknown method, got %d", code)
	}
	if code, _ := a.do(t, "POST", "/api/v1/checkout", `{"shippingAddress":"a","phoneNumber":"b","paymentMethod":"MOMO"}`, "u1", ""); code != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unavailable method, got %d", code)
	}
	if code, _ := a.do(t, "POST", "/api/v1/checkout", `{"phoneNumber":"b","paymentMethod":"COD"}`, "u1", ""); code != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for missing address, got %d", code)
	}
}

func TestOrderRoutes_BankTransferFlow(t *testing.T) {
	a := newOrderTestApp(t)
	a.fillCart(t, "u1")

	code, body := a.do(t, "POST", "/api/v1/checkout", `{"shippingAddress":"a","phoneNumber":"b","paymentMethod":"BANK_TRANSFER"}`, "u1", "")
	if code != fiber.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", code, body)
	}
	if code, _ := a.do(t, "GET", "/api/v1/orders/pending", "", "u1", ""); code != fiber.StatusOK {
		t.Fatalf("expected staged order, got %d", code)
	}
	if stored := a.fixture.storedOrders(t); len(stored) != 0 {
		t.Fatalf("expected nothing stored before confirmation, got %d", len(stored))
	}

	code, body = a.do(t, "POST", "/api/v1/orders/pending/confirm", "", "u1", "")
	if code != fiber.StatusCreated {
		t.Fatalf("expected 201 on confirm, got %d: %s", code, body)
	}
	if stored := a.fixture.storedOrders(t); len(stored) != 1 {
		t.Fatalf("expected one stored order, got %d", len(stored))
	}
	if code, _ := a.do(t, "POST", "/api/v1/orders/pending/confirm", "", "u1", ""); code != fiber.StatusNotFound {
		t.Fatalf("expected 404 with nothing staged, got %d", code)
	}

	a.fillCart(t, "u1")
	a.do(t, "POST", "/api/v1/checkout", `{"shippingAddress":"a","phoneNumber":"b","paymentMethod":"BANK_TRANSFER"}`, "u1", "")
	if code, _ := a.do(t, "DELETE", "/api/v1/orders/pending", "", "u1", ""); code != fiber.StatusNoContent {
		t.Fatalf("expected 204 on cancel, got %d", code)
	}
	if stored := a.fixture.storedOrders(t); len(stored) != 1 {
		t.Fatalf("cancel must not store anything, got %d", len(stored))
	}
}

func TestOrderRoutes_StatusTransitions(t *testing.T) {
	a := newOrderTestApp(t)
	o := commitFor(t, a.fixture, alice)

	if code, _ := a.do(t, "POST", "/api/v1/admin/orders/"+o.ID+"/approve", "", "alice", "user"); code != fiber.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", code)
	}
	if code, _ := a.do(t, "POST", "/api/v1/admin/orders/"+o.ID+"/deliver", "", "root", "admin"); code != fiber.StatusConflict {
		t.Fatalf("expected 409 skipping approval, got %d", code)
	}
	if code, _ := a.do(t, "POST", "/api/v1/admin/orders/"+o.ID+"/approve", "", "root", "admin"); code != fiber.StatusOK {
		t.Fatalf("expected 200 on approve, got %d", code)
	}
	if code, _ := a.do(t, "POST", "/api/v1/orders/"+o.ID+"/cancel", "", "alice", ""); code != fiber.StatusConflict {
		t.Fatalf("expected 409 canceling an approved order, got %d", code)
	}
	if code, _ := a.do(t, "POST", "/api/v1/admin/orders/"+o.ID+"/deliver", "", "root", "admin"); code != fiber.StatusOK {
		t.Fatalf("expected 200 on deliver, got %d", code)
	}
	if code, _ := a.do(t, "POST", "/api/v1/admin/orders/nope/approve", "", "root", "admin"); code != fiber.StatusNotFound {
		t.Fatalf("expected 404 for unknown order, got %d", code)
	}

	code, body := a.do(t, "GET", "/api/v1/admin/orders?status=DELIVERED", "", "root", "admin")
	if code != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	var orders []Order
	_ = json.Unmarshal(body, &orders)
	if len(orders) != 1 || orders[0].Status != StatusDelivered {
		t.Fatalf("expected one delivered order, got %s", body)
	}
}

func TestOrderRoutes_Reorder(t *testing.T) {
	a := newOrderTestApp(t)
	o := commitFor(t, a.fixture, alice)

	if code, _ := a.do(t, "POST", "/api/v1/orders/"+o.ID+"/reorder", "", "bob", ""); code != fiber.StatusForbidden {
		t.Fatalf("expected 403 reordering someone else's order, got %d", code)
	}
	code, body := a.do(t, "POST", "/api/v1/orders/"+o.ID+"/reorder", "", "alice", "")
	if code != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", code, body)
	}
	store := a.sessions.For(context.Background(), alice)
	if store.Quantity("p-mug") != 1 {
		t.Fatalf("expected mug back in the cart, got %v", store.Quantities())
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.sessions.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
}
