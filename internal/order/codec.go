package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/wichananm65/shopper-backend/internal/docstore"
)

const (
	schemaVersion = 1
	dateLayout    = "02/01/2006"
)

var errUndecodable = errors.New("undecodable order record")

// Defect records a field that was missing or malformed and got a default.
type Defect struct {
	Field  string
	Reason string
}

func (d Defect) String() string {
	return d.Field + ": " + d.Reason
}

// Decoded is the result of reading one stored order. Err is set when the
// record could not be used at all; Order is meaningless then.
type Decoded struct {
	Order   Order
	Defects []Defect
	Err     error
}

func encodeOrder(o Order) map[string]any {
	items := make([]any, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, map[string]any{
			"productId":    it.ProductID,
			"productName":  it.ProductName,
			"productImage": it.ProductImage,
			"quantity":     it.Quantity,
			"price":        docstore.Money(it.Price),
		})
	}
	data := map[string]any{
		"orderNumber":     o.OrderNumber,
		"userId":          o.UserID,
		"userName":        o.UserName,
		"timestamp":       o.CreatedAt.UnixMilli(),
		"date":            o.CreatedAt.Format(dateLayout),
		"items":           items,
		"totalAmount":     docstore.Money(o.TotalAmount),
		"shippingAddress": o.ShippingAddress,
		"phoneNumber":     o.PhoneNumber,
		"paymentMethod":   o.PaymentMethod,
		"status":          string(o.Status),
		"note":            o.Note,
		"schemaVersion":   schemaVersion,
	}
	if o.EstimatedDelivery != nil {
		data["estimatedDelivery"] = o.EstimatedDelivery.Format(dateLayout)
	}
	return data
}

// decodeOrder reads a stored order field by field. Missing or malformed
// fields are defaulted and reported as defects. Only a record without data
// or without an owner is rejected.
func decodeOrder(doc docstore.Document) Decoded {
	if doc.Data == nil {
		return Decoded{Err: fmt.Errorf("%w: %s has no data", errUndecodable, doc.ID)}
	}
	d := doc.Data
	var defects []Defect
	defect := func(field, reason string) {
		defects = append(defects, Defect{Field: field, Reason: reason})
	}

	o := Order{ID: doc.ID}
	var ok bool
	if o.UserID, ok = docstore.String(d, "userId"); !ok || o.UserID == "" {
		return Decoded{Err: fmt.Errorf("%w: %s has no userId", errUndecodable, doc.ID)}
	}

	if v, ok := docstore.Int(d, "schemaVersion"); ok {
		o.SchemaVersion = v
		if v > schemaVersion {
			defect("schemaVersion", fmt.Sprintf("written by a newer schema (%d)", v))
		}
	} else {
		defect("schemaVersion", "missing, read as legacy")
	}

	if o.OrderNumber, ok = docstore.String(d, "orderNumber"); !ok {
		defect("orderNumber", "missing")
	}
	o.UserName, _ = docstore.String(d, "userName")

	if t, ok := docstore.Time(d, "timestamp"); ok {
		o.CreatedAt = t
	} else if s, ok := docstore.String(d, "date"); ok {
		if t, err := time.Parse(dateLayout, s); err == nil {
			o.CreatedAt = t
			defect("timestamp", "missing, taken from date")
		} else {
			defect("timestamp", "missing")
		}
	} else {
		defect("timestamp", "missing")
	}

	raw, _ := docstore.String(d, "status")
	if st, ok := ParseStatus(raw); ok && st != StatusAll {
		o.Status = st
	} else {
		o.Status = StatusPending
		defect("status", fmt.Sprintf("unknown %q, defaulted to PENDING", raw))
	}

	if o.TotalAmount, ok = docstore.Decimal(d, "totalAmount"); !ok {
		defect("totalAmount", "missing, defaulted to 0")
	}
	o.ShippingAddress, _ = docstore.String(d, "shippingAddress")
	o.PhoneNumber, _ = docstore.String(d, "phoneNumber")
	o.PaymentMethod, _ = docstore.String(d, "paymentMethod")
	o.Note, _ = docstore.String(d, "note")

	if s, ok := docstore.String(d, "estimatedDelivery"); ok && s != "" {
		if t, err := time.Parse(dateLayout, s); err == nil {
			o.EstimatedDelivery = &t
		} else {
			defect("estimatedDelivery", fmt.Sprintf("unparseable %q", s))
		}
	}

	entries, ok := docstore.Maps(d, "items")
	if !ok {
		defect("items", "missing")
	}
	o.Items = make([]Item, 0, len(entries))
	for i, m := range entries {
		it := Item{}
		it.ProductID, _ = docstore.String(m, "productId")
		if it.ProductID == "" {
			defect(fmt.Sprintf("items[%d]", i), "no productId, dropped")
			continue
		}
		it.ProductName, _ = docstore.String(m, "productName")
		it.ProductImage, _ = docstore.String(m, "productImage")
		if it.Quantity, ok = docstore.Int(m, "quantity"); !ok {
			defect(fmt.Sprintf("items[%d].quantity", i), "missing, defaulted to 0")
		}
		if it.Price, ok = docstore.Decimal(m, "price"); !ok {
			defect(fmt.Sprintf("items[%d].price", i), "missing, defaulted to 0")
		}
		o.Items = append(o.Items, it)
	}

	return Decoded{Order: o, Defects: defects}
}
