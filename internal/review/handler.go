package review

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/shopper-backend/internal/identity"
	"github.com/wichananm65/shopper-backend/internal/product"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/products/:id/reviews", h.getReviews)
	app.Get("/api/v1/products/:id/rating", h.getRating)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/v1/products/:id/reviews", h.addReview)
	app.Put("/api/v1/reviews/:id", h.updateReview)
	app.Delete("/api/v1/reviews/:id", h.deleteReview)
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, product.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrAlreadyReviewed):
		return fiber.StatusConflict
	case errors.Is(err, ErrInvalidRating):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, ErrUnauthenticated):
		return fiber.StatusUnauthorized
	}
	return fiber.StatusInternalServerError
}

func fail(c *fiber.Ctx, err error) error {
	return c.Status(errorStatus(err)).JSON(fiber.Map{"message": err.Error()})
}

type ratingResponse struct {
	ProductRating
	Percentages map[int]float64 `json:"percentages"`
}

func (h *Handler) getReviews(c *fiber.Ctx) error {
	items, err := h.service.List(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(items)
}

func (h *Handler) getRating(c *fiber.Ctx) error {
	pr, err := h.service.Rating(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	res := ratingResponse{ProductRating: pr, Percentages: map[int]float64{}}
	for stars := 1; stars <= 5; stars++ {
		res.Percentages[stars] = pr.Percentage(stars)
	}
	return c.JSON(res)
}

func (h *Handler) addReview(c *fiber.Ctx) error {
	payload := new(Input)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	payload.ProductID = c.Params("id")
	rv, err := h.service.Add(c.UserContext(), identity.FromFiber(c), *payload)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(rv)
}

type updateRequest struct {
	Rating  float64 `json:"rating"`
	Comment string  `json:"comment"`
}

func (h *Handler) updateReview(c *fiber.Ctx) error {
	payload := new(updateRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	rv, err := h.service.Update(c.UserContext(), identity.FromFiber(c), c.Params("id"), payload.Rating, payload.Comment)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(rv)
}

func (h *Handler) deleteReview(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), identity.FromFiber(c), c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
