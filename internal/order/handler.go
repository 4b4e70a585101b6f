package order

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/shopper-backend/internal/cart"
	"github.com/wichananm65/shopper-backend/internal/identity"
	"github.com/wichananm65/shopper-backend/internal/payment"
)

// Handler exposes checkout, the pending-order slot and order history.
// It needs the cart sessions to read and clear the caller's cart.
type Handler struct {
	manager  *Manager
	sessions *cart.Sessions
}

func NewHandler(m *Manager, sessions *cart.Sessions) *Handler {
	return &Handler{manager: m, sessions: sessions}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/v1/checkout", h.checkout)
	app.Get("/api/v1/orders/pending", h.getPending)
	app.Delete("/api/v1/orders/pending", h.cancelPending)
	app.Post("/api/v1/orders/pending/confirm", h.confirmPending)
	app.Get("/api/v1/orders", h.getOrders)
	app.Post("/api/v1/orders/:id/cancel", h.cancelOrder)
	app.Post("/api/v1/orders/:id/reorder", h.reorder)

	admin := app.Group("/api/v1/admin/orders", identity.RequireAdmin)
	admin.Get("", h.getAllOrders)
	admin.Post("/:id/approve", h.transition(StatusApproved))
	admin.Post("/:id/reject", h.transition(StatusRejected))
	admin.Post("/:id/deliver", h.transition(StatusDelivered))
}

// errorStatus maps manager errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, ErrOrderNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrOrderExists):
		return fiber.StatusConflict
	case errors.Is(err, ErrEmptyCart), errors.Is(err, ErrMissingAddress),
		errors.Is(err, ErrMissingPhone), errors.Is(err, ErrMissingPayment),
		errors.Is(err, payment.ErrUnknownMethod):
		return fiber.StatusBadRequest
	case errors.Is(err, payment.ErrMethodUnavailable):
		return fiber.StatusUnprocessableEntity
	}
	return fiber.StatusInternalServerError
}

func fail(c *fiber.Ctx, err error) error {
	return c.Status(errorStatus(err)).JSON(fiber.Map{"message": err.Error()})
}

func caller(c *fiber.Ctx) (*identity.Identity, bool) {
	id := identity.FromFiber(c)
	if id == nil {
		_ = c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
		return nil, false
	}
	return id, true
}

type checkoutRequest struct {
	ShippingAddress string `json:"shippingAddress"`
	PhoneNumber     string `json:"phoneNumber"`
	PaymentMethod   string `json:"paymentMethod"`
	Note            string `json:"note"`
}

type checkoutResponse struct {
	Status        payment.Status `json:"status"`
	TransactionID string         `json:"transactionId,omitempty"`
	Order         *Order         `json:"order,omitempty"`
	Pending       *PendingOrder  `json:"pendingOrder,omitempty"`
}

func (h *Handler) checkout(c *fiber.Ctx) error {
	payload := new(checkoutRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	id, ok := caller(c)
	if !ok {
		return nil
	}
	var method payment.MethodType
	if payload.PaymentMethod != "" {
		m, err := payment.ParseMethod(payload.PaymentMethod)
		if err != nil {
			return fail(c, err)
		}
		method = m
	}

	store := h.sessions.For(c.UserContext(), id)
	res, err := h.manager.Checkout(c.UserContext(), id, store, CheckoutRequest{
		ShippingAddress: payload.ShippingAddress,
		PhoneNumber:     payload.PhoneNumber,
		PaymentMethod:   method,
		Note:            payload.Note,
	})
	if err != nil {
		return fail(c, err)
	}
	status := fiber.StatusCreated
	if res.Pending != nil {
		status = fiber.StatusAccepted
	}
	return c.Status(status).JSON(checkoutResponse{
		Status:        res.Payment.Status,
		TransactionID: res.Payment.TransactionID,
		Order:         res.Order,
		Pending:       res.Pending,
	})
}

func (h *Handler) getPending(c *fiber.Ctx) error {
	id, ok := caller(c)
	if !ok {
		return nil
	}
	p, exists := h.manager.PendingOrder(id)
	if !exists {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "no pending order"})
	}
	return c.JSON(p)
}

func (h *Handler) cancelPending(c *fiber.Ctx) error {
	id, ok := caller(c)
	if !ok {
		return nil
	}
	if !h.manager.CancelPendingOrder(id) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "no pending order"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) confirmPending(c *fiber.Ctx) error {
	id, ok := caller(c)
	if !ok {
		return nil
	}
	store := h.sessions.For(c.UserContext(), id)
	o, exists, err := h.manager.ConfirmPayment(c.UserContext(), id, store)
	if err != nil {
		return fail(c, err)
	}
	if !exists {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "no pending order"})
	}
	return c.Status(fiber.StatusCreated).JSON(o)
}

func statusFilter(c *fiber.Ctx) (Status, bool) {
	raw := c.Query("status")
	if raw == "" {
		return StatusAll, true
	}
	return ParseStatus(raw)
}

// getOrders returns the caller's orders, newest first. ?status= filters.
func (h *Handler) getOrders(c *fiber.Ctx) error {
	id, ok := caller(c)
	if !ok {
		return nil
	}
	st, ok := statusFilter(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid status"})
	}
	orders, err := h.manager.LoadOrdersForUser(c.UserContext(), id.ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(FilterByStatus(orders, st))
}

func (h *Handler) getAllOrders(c *fiber.Ctx) error {
	st, ok := statusFilter(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid status"})
	}
	orders, err := h.manager.LoadAllOrders(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(FilterByStatus(orders, st))
}

func (h *Handler) cancelOrder(c *fiber.Ctx) error {
	id, ok := caller(c)
	if !ok {
		return nil
	}
	o, err := h.manager.Cancel(c.UserContext(), id, c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(o)
}

func (h *Handler) transition(st Status) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := caller(c)
		if !ok {
			return nil
		}
		o, err := h.manager.TransitionStatus(c.UserContext(), id, c.Params("id"), st)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(o)
	}
}

func (h *Handler) reorder(c *fiber.Ctx) error {
	id, ok := caller(c)
	if !ok {
		return nil
	}
	store := h.sessions.For(c.UserContext(), id)
	if _, err := h.manager.Reorder(c.UserContext(), id, c.Params("id"), store); err != nil {
		return fail(c, err)
	}
	snap := store.Snapshot()
	return c.JSON(fiber.Map{"items": snap.Lines, "total": snap.Total})
}
