package address

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/shopper-backend/internal/identity"
)

// Handler delegates address operations to the address service.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/address", h.getAddresses)
	app.Get("/api/v1/address/default", h.getDefault)
	app.Post("/api/v1/address", h.addAddress)
	app.Patch("/api/v1/address/:id", h.updateAddress)
	app.Delete("/api/v1/address/:id", h.deleteAddress)
	app.Post("/api/v1/address/:id/default", h.setDefault)
}

func fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "address not found"})
	case errors.Is(err, ErrInvalidAddress):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
}

func userID(c *fiber.Ctx) (string, bool) {
	id := identity.FromFiber(c)
	if id == nil {
		_ = c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
		return "", false
	}
	return id.ID, true
}

func (h *Handler) getAddresses(c *fiber.Ctx) error {
	uid, ok := userID(c)
	if !ok {
		return nil
	}
	addrs, err := h.service.GetAddresses(c.UserContext(), uid)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toViews(addrs))
}

func (h *Handler) getDefault(c *fiber.Ctx) error {
	uid, ok := userID(c)
	if !ok {
		return nil
	}
	a, err := h.service.GetDefault(c.UserContext(), uid)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toView(a))
}

func (h *Handler) addAddress(c *fiber.Ctx) error {
	payload := new(Address)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	uid, ok := userID(c)
	if !ok {
		return nil
	}
	a, err := h.service.AddAddress(c.UserContext(), uid, *payload)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toView(a))
}

func (h *Handler) updateAddress(c *fiber.Ctx) error {
	payload := new(Address)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	uid, ok := userID(c)
	if !ok {
		return nil
	}
	payload.ID = c.Params("id")
	a, err := h.service.UpdateAddress(c.UserContext(), uid, *payload)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toView(a))
}

func (h *Handler) deleteAddress(c *fiber.Ctx) error {
	uid, ok := userID(c)
	if !ok {
		return nil
	}
	if err := h.service.DeleteAddress(c.UserContext(), uid, c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) setDefault(c *fiber.Ctx) error {
	uid, ok := userID(c)
	if !ok {
		return nil
	}
	a, err := h.service.SetDefault(c.UserContext(), uid, c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toView(a))
}
