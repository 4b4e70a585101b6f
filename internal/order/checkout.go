package order

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/wichananm65/shopper-backend/internal/cart"
	"github.com/wichananm65/shopper-backend/internal/identity"
	"github.com/wichananm65/shopper-backend/internal/payment"
	"github.com/wichananm65/shopper-backend/internal/product"
)

var (
	ErrEmptyCart      = errors.New("cart is empty")
	ErrMissingAddress = errors.New("shipping address is required")
	ErrMissingPhone   = errors.New("phone number is required")
	ErrMissingPayment = errors.New("payment method is required")
)

// Cart is the part of the cart store checkout needs. *cart.Store
// satisfies it.
type Cart interface {
	Snapshot() cart.Snapshot
	Clear()
	AddOrIncrement(p product.Product, delta int)
}

type ProductLookup interface {
	GetByID(ctx context.Context, id string) (product.Product, error)
}

type CheckoutRequest struct {
	ShippingAddress string
	PhoneNumber     string
	PaymentMethod   payment.MethodType
	Note            string
}

// CheckoutResult carries either the committed order or the staged one.
type CheckoutResult struct {
	Payment payment.Result
	Order   *Order
	Pending *PendingOrder
}

// Checkout places the cart as an order. Cash on delivery commits right away
// and empties the cart. Bank transfer stages the order and leaves the cart
// alone until ConfirmPayment. Without an actor it does nothing.
func (m *Manager) Checkout(ctx context.Context, actor *identity.Identity, c Cart, req CheckoutRequest) (CheckoutResult, error) {
	if actor == nil {
		return CheckoutResult{}, nil
	}
	req.ShippingAddress = strings.TrimSpace(req.ShippingAddress)
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	switch {
	case req.ShippingAddress == "":
		return CheckoutResult{}, ErrMissingAddress
	case req.PhoneNumber == "":
		return CheckoutResult{}, ErrMissingPhone
	case req.PaymentMethod == "":
		return CheckoutResult{}, ErrMissingPayment
	}

	snap := c.Snapshot()
	if snap.Empty() {
		return CheckoutResult{}, ErrEmptyCart
	}
	total := snap.Total.Add(m.shippingFee)
	orderID := uuid.NewString()

	res := payment.Process(orderID, total, req.PaymentMethod, m.now())
	switch res.Status {
	case payment.StatusSuccess:
		o, err := m.CommitOrder(ctx, actor, CommitRequest{
			OrderID:         orderID,
			Items:           ItemsFromLines(snap.Lines),
			Total:           total,
			PaymentMethod:   req.PaymentMethod,
			ShippingAddress: req.ShippingAddress,
			PhoneNumber:     req.PhoneNumber,
			Note:            req.Note,
		})
		if err != nil {
			return CheckoutResult{Payment: res}, err
		}
		c.Clear()
		return CheckoutResult{Payment: res, Order: &o}, nil

	case payment.StatusPending:
		p := PendingOrder{
			OrderID:         orderID,
			Items:           ItemsFromLines(snap.Lines),
			Total:           total,
			PaymentMethod:   req.PaymentMethod,
			ShippingAddress: req.ShippingAddress,
			PhoneNumber:     req.PhoneNumber,
			Note:            req.Note,
		}
		m.StagePendingOrder(actor, p)
		p, _ = m.PendingOrder(actor)
		return CheckoutResult{Payment: res, Pending: &p}, nil
	}
	return CheckoutResult{Payment: res}, res.Err
}

// ConfirmPayment is the buyer's "I have paid": the staged order is
// committed and the cart emptied.
func (m *Manager) ConfirmPayment(ctx context.Context, actor *identity.Identity, c Cart) (Order, bool, error) {
	o, ok, err := m.ConfirmPendingOrder(ctx, actor)
	if err != nil || !ok {
		return o, ok, err
	}
	c.Clear()
	return o, true, nil
}

// Reorder puts every item of a past order back in the cart. Name, price
// and image come from the current catalog; items whose product is gone are
// re-added from the order's own copy. A product already in the cart only
// gains quantity and keeps the price its line was added at.
func (m *Manager) Reorder(ctx context.Context, actor *identity.Identity, orderID string, c Cart) (Order, error) {
	if actor == nil {
		return Order{}, nil
	}
	dec, err := m.repo.Get(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if dec.Err != nil {
		return Order{}, ErrOrderNotFound
	}
	o := dec.Order
	if o.UserID != actor.ID {
		return Order{}, ErrForbidden
	}

	for _, it := range o.Items {
		if it.Quantity <= 0 {
			continue
		}
		p := product.Product{ID: it.ProductID, Name: it.ProductName, Price: it.Price, ImageURL: it.ProductImage}
		if m.products != nil {
			cur, err := m.products.GetByID(ctx, it.ProductID)
			switch {
			case err == nil:
				p = cur
			case errors.Is(err, product.ErrNotFound):
				log.Printf("[order] reorder %s: product %s no longer listed, using order copy", o.ID, it.ProductID)
			default:
				log.Printf("[order] WARN: reorder %s: lookup %s: %v", o.ID, it.ProductID, err)
			}
		}
		c.AddOrIncrement(p, it.Quantity)
	}
	return o, nil
}
