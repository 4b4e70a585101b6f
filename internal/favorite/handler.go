package favorite

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/shopper-backend/internal/identity"
	"github.com/wichananm65/shopper-backend/internal/product"
)

// Handler delegates favorite operations to the favorite service.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/favorites", h.getFavorites)
	app.Post("/api/v1/favorites", h.addFavorite)
	app.Delete("/api/v1/favorites", h.removeFavorite)
}

type favoriteRequest struct {
	ProductID string `json:"productId"`
}

func fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrInvalidProduct):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, product.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "product not found"})
	case errors.Is(err, ErrAlreadyFavorite):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, ErrNotFavorite):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
}

func (h *Handler) change(c *fiber.Ctx, op func(*fiber.Ctx, string, string) ([]string, error)) error {
	payload := new(favoriteRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	id := identity.FromFiber(c)
	if id == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	favs, err := op(c, id.ID, payload.ProductID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"productId": payload.ProductID, "favoriteProductId": favs})
}

func (h *Handler) addFavorite(c *fiber.Ctx) error {
	return h.change(c, func(c *fiber.Ctx, uid, pid string) ([]string, error) {
		return h.service.AddFavorite(c.UserContext(), uid, pid)
	})
}

func (h *Handler) removeFavorite(c *fiber.Ctx) error {
	return h.change(c, func(c *fiber.Ctx, uid, pid string) ([]string, error) {
		return h.service.RemoveFavorite(c.UserContext(), uid, pid)
	})
}

func (h *Handler) getFavorites(c *fiber.Ctx) error {
	id := identity.FromFiber(c)
	if id == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	favs, err := h.service.GetFavorites(c.UserContext(), id.ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(favs)
}
