package payment

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownMethod     = errors.New("unknown payment method")
	ErrMethodUnavailable = errors.New("payment method is not available")
)

type MethodType string

const (
	COD          MethodType = "COD"
	MoMo         MethodType = "MOMO"
	BankTransfer MethodType = "BANK_TRANSFER"
	CreditCard   MethodType = "CREDIT_CARD"
)

// Method describes one selectable payment option.
type Method struct {
	Type        MethodType `json:"type"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Enabled     bool       `json:"isEnabled"`
}

var methods = []Method{
	{Type: COD, Name: "Cash on delivery (COD)", Description: "Pay in cash when the parcel arrives", Enabled: true},
	{Type: MoMo, Name: "MoMo wallet", Description: "Scan a MoMo QR code to pay", Enabled: false},
	{Type: BankTransfer, Name: "Bank transfer", Description: "Scan a QR code to transfer", Enabled: true},
	{Type: CreditCard, Name: "Credit/debit card", Description: "Visa or Mastercard", Enabled: false},
}

// AvailableMethods lists every method, enabled or not.
func AvailableMethods() []Method {
	out := make([]Method, len(methods))
	copy(out, methods)
	return out
}

// ParseMethod accepts the method name case-insensitively.
func ParseMethod(s string) (MethodType, error) {
	t := MethodType(strings.ToUpper(strings.TrimSpace(s)))
	for _, m := range methods {
		if m.Type == t {
			return t, nil
		}
	}
	return "", ErrUnknownMethod
}

// Label is the human readable text stored on orders.
func Label(t MethodType) string {
	switch t {
	case COD:
		return "Cash on delivery"
	case MoMo:
		return "MoMo wallet"
	case BankTransfer:
		return "Bank transfer"
	case CreditCard:
		return "Credit/debit card"
	}
	return string(t)
}

type Status string

const (
	StatusSuccess Status = "success"
	StatusPending Status = "pending"
	StatusError   Status = "error"
)

// Result is the outcome of Process. Pending means the order must wait for
// an out-of-band confirmation from the buyer.
type Result struct {
	Status        Status
	TransactionID string
	Err           error
}

// Process decides how an order paid with t proceeds. There is no gateway:
// COD succeeds immediately, bank transfer waits for manual confirmation and
// the remaining methods are not available.
func Process(orderID string, amount decimal.Decimal, t MethodType, now time.Time) Result {
	log.Printf("[payment] processing %s for order=%s amount=%s", t, orderID, amount.String())
	switch t {
	case COD:
		return Result{Status: StatusSuccess, TransactionID: fmt.Sprintf("COD_%s_%d", orderID, now.UnixMilli())}
	case BankTransfer:
		return Result{Status: StatusPending}
	case MoMo, CreditCard:
		return Result{Status: StatusError, Err: ErrMethodUnavailable}
	}
	return Result{Status: StatusError, Err: ErrUnknownMethod}
}
