package payment

import "github.com/gofiber/fiber/v2"

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/payment-methods", h.listMethods)
}

func (h *Handler) listMethods(c *fiber.Ctx) error {
	return c.JSON(AvailableMethods())
}
