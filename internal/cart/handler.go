package cart

import (
	"context"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/wichananm65/shopper-backend/internal/identity"
	"github.com/wichananm65/shopper-backend/internal/product"
)

// ProductLookup resolves the product being added so its name, price and
// image can be snapshotted into the line.
type ProductLookup interface {
	GetByID(ctx context.Context, id string) (product.Product, error)
}

// Handler exposes the caller's cart over HTTP.
// This keeps cart-specific HTTP routing isolated.
type Handler struct {
	sessions *Sessions
	products ProductLookup
}

func NewHandler(sessions *Sessions, products ProductLookup) *Handler {
	return &Handler{sessions: sessions, products: products}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/cart", h.getCart)
	app.Delete("/api/v1/cart", h.clearCart)
	app.Post("/api/v1/cart/reload", h.reloadCart)
	app.Get("/api/v1/cart/sync", h.getSyncState)
	app.Post("/api/v1/cart/items", h.addItem)
	app.Put("/api/v1/cart/items/:productId", h.setQuantity)
	app.Delete("/api/v1/cart/items/:productId", h.removeItem)
	app.Post("/api/v1/cart/items/:productId/increment", h.increment)
	app.Post("/api/v1/cart/items/:productId/decrement", h.decrement)
}

type cartResponse struct {
	Items []Line          `json:"items"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
	Sync  SyncState       `json:"sync"`
}

func render(c *fiber.Ctx, s *Store) error {
	snap := s.Snapshot()
	count := 0
	for _, l := range snap.Lines {
		count += l.Quantity
	}
	return c.JSON(cartResponse{Items: snap.Lines, Total: snap.Total, Count: count, Sync: s.SyncState()})
}

// store resolves the caller's cart or writes a 401.
func (h *Handler) store(c *fiber.Ctx) (*Store, bool) {
	id := identity.FromFiber(c)
	if id == nil {
		_ = c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
		return nil, false
	}
	return h.sessions.For(c.UserContext(), id), true
}

func (h *Handler) getCart(c *fiber.Ctx) error {
	s, ok := h.store(c)
	if !ok {
		return nil
	}
	return render(c, s)
}

func (h *Handler) clearCart(c *fiber.Ctx) error {
	s, ok := h.store(c)
	if !ok {
		return nil
	}
	s.Clear()
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) reloadCart(c *fiber.Ctx) error {
	s, ok := h.store(c)
	if !ok {
		return nil
	}
	s.Load(c.UserContext())
	return render(c, s)
}

func (h *Handler) getSyncState(c *fiber.Ctx) error {
	s, ok := h.store(c)
	if !ok {
		return nil
	}
	return c.JSON(s.SyncState())
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  *int   `json:"quantity,omitempty"`
}

func (h *Handler) addItem(c *fiber.Ctx) error {
	payload := new(addItemRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.ProductID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid productId"})
	}
	// negative quantities are allowed and decrement an existing line
	delta := 1
	if payload.Quantity != nil {
		delta = *payload.Quantity
	}

	s, ok := h.store(c)
	if !ok {
		return nil
	}
	p, err := h.products.GetByID(c.UserContext(), payload.ProductID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "product not found"})
		}
		log.Printf("[cart] ERROR: product lookup %s: %v", payload.ProductID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	s.AddOrIncrement(p, delta)
	return render(c, s)
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *Handler) setQuantity(c *fiber.Ctx) error {
	payload := new(setQuantityRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.Quantity == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "quantity is required"})
	}
	s, ok := h.store(c)
	if !ok {
		return nil
	}
	s.SetQuantity(c.Params("productId"), *payload.Quantity)
	return render(c, s)
}

func (h *Handler) removeItem(c *fiber.Ctx) error {
	s, ok := h.store(c)
	if !ok {
		return nil
	}
	s.Remove(c.Params("productId"))
	return render(c, s)
}

func (h *Handler) increment(c *fiber.Ctx) error {
	s, ok := h.store(c)
	if !ok {
		return nil
	}
	s.Increment(c.Params("productId"))
	return render(c, s)
}

func (h *Handler) decrement(c *fiber.Ctx) error {
	s, ok := h.store(c)
	if !ok {
		return nil
	}
	s.Decrement(c.Params("productId"))
	return render(c, s)
}
