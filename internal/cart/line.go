package cart

import (
	"log"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/shopper-backend/internal/docstore"
)

// Line is one product in a user's cart. Name, price and image are
// snapshotted when the product is first added.
type Line struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"price"`
	ImageURL    string          `json:"imageUrl"`
}

func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Snapshot is an immutable copy of a cart taken for checkout.
type Snapshot struct {
	UserID string          `json:"userId"`
	Lines  []Line          `json:"items"`
	Total  decimal.Decimal `json:"total"`
}

func (s Snapshot) Empty() bool {
	return len(s.Lines) == 0
}

func encodeLine(l Line) map[string]any {
	return map[string]any{
		"productId":   l.ProductID,
		"productName": l.ProductName,
		"quantity":    l.Quantity,
		"price":       docstore.Money(l.UnitPrice),
		"imageUrl":    l.ImageURL,
	}
}

// decodeLine reads a cart document. Lines without a positive quantity are
// dropped; the document id wins over a stored productId.
func decodeLine(doc docstore.Document) (Line, bool) {
	l := Line{ProductID: doc.ID}
	if pid, ok := docstore.String(doc.Data, "productId"); ok && pid != "" && pid != doc.ID {
		log.Printf("[cart] WARN: line %s carries productId=%s, using document id", doc.ID, pid)
	}
	l.ProductName, _ = docstore.String(doc.Data, "productName")
	l.ImageURL, _ = docstore.String(doc.Data, "imageUrl")
	l.UnitPrice, _ = docstore.Decimal(doc.Data, "price")
	if l.UnitPrice.IsNegative() {
		l.UnitPrice = decimal.Zero
	}
	qty, ok := docstore.Int(doc.Data, "quantity")
	if !ok || qty < 1 {
		log.Printf("[cart] WARN: dropping line %s with quantity %v", doc.ID, doc.Data["quantity"])
		return Line{}, false
	}
	l.Quantity = qty
	return l, true
}
