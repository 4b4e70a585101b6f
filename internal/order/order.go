package order

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/shopper-backend/internal/cart"
	"github.com/wichananm65/shopper-backend/internal/payment"
)

type Status string

const (
	StatusAll        Status = "ALL"
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusShipping   Status = "SHIPPING"
	StatusDelivered  Status = "DELIVERED"
	StatusCanceled   Status = "CANCELED"
	StatusApproved   Status = "APPROVED"
	StatusRejected   Status = "REJECTED"
)

var knownStatuses = []Status{
	StatusPending, StatusProcessing, StatusShipping, StatusDelivered,
	StatusCanceled, StatusApproved, StatusRejected,
}

// ParseStatus is case-insensitive. ALL is accepted as a filter value.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if st == StatusAll {
		return st, true
	}
	for _, k := range knownStatuses {
		if k == st {
			return st, true
		}
	}
	return "", false
}

// Terminal reports whether no transition leaves st.
func (st Status) Terminal() bool {
	return st == StatusRejected || st == StatusCanceled || st == StatusDelivered
}

// Item is a copy of a cart line taken when the order was placed. Later
// catalog changes never reach it.
type Item struct {
	ProductID    string          `json:"productId"`
	ProductName  string          `json:"productName"`
	ProductImage string          `json:"productImage"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
}

func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ItemsFromLines snapshots cart lines into order items.
func ItemsFromLines(lines []cart.Line) []Item {
	items := make([]Item, 0, len(lines))
	for _, l := range lines {
		items = append(items, Item{
			ProductID:    l.ProductID,
			ProductName:  l.ProductName,
			ProductImage: l.ImageURL,
			Quantity:     l.Quantity,
			Price:        l.UnitPrice,
		})
	}
	return items
}

type Order struct {
	ID                string          `json:"id"`
	OrderNumber       string          `json:"orderNumber"`
	UserID            string          `json:"userId"`
	UserName          string          `json:"userName"`
	CreatedAt         time.Time       `json:"timestamp"`
	Items             []Item          `json:"items"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	ShippingAddress   string          `json:"shippingAddress"`
	PhoneNumber       string          `json:"phoneNumber"`
	PaymentMethod     string          `json:"paymentMethod"`
	Status            Status          `json:"status"`
	EstimatedDelivery *time.Time      `json:"estimatedDelivery,omitempty"`
	Note              string          `json:"note,omitempty"`
	SchemaVersion     int             `json:"schemaVersion"`
}

// PendingOrder is checkout data waiting for the buyer to confirm an
// out-of-band payment. It only lives in memory.
type PendingOrder struct {
	OrderID         string             `json:"orderId"`
	Items           []Item             `json:"items"`
	Total           decimal.Decimal    `json:"total"`
	PaymentMethod   payment.MethodType `json:"paymentMethod"`
	ShippingAddress string             `json:"shippingAddress"`
	PhoneNumber     string             `json:"phoneNumber"`
	Note            string             `json:"note,omitempty"`
	StagedAt        time.Time          `json:"stagedAt"`
}

func (p PendingOrder) commitRequest() CommitRequest {
	return CommitRequest{
		OrderID:         p.OrderID,
		Items:           p.Items,
		Total:           p.Total,
		PaymentMethod:   p.PaymentMethod,
		ShippingAddress: p.ShippingAddress,
		PhoneNumber:     p.PhoneNumber,
		Note:            p.Note,
	}
}

// FilterByStatus keeps orders in st. ALL (or empty) keeps everything.
func FilterByStatus(orders []Order, st Status) []Order {
	if st == "" || st == StatusAll {
		out := make([]Order, len(orders))
		copy(out, orders)
		return out
	}
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if o.Status == st {
			out = append(out, o)
		}
	}
	return out
}
