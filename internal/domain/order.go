package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// allowedTransitions is the full payment status state machine. Terminal
// statuses have no outgoing edges.
var allowedTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending: {PaymentPaid, PaymentFailed},
	PaymentPaid:    {},
	PaymentFailed:  {},
}

// CanTransition reports whether the payment status may move from one status
// to another.
func CanTransition(from, to PaymentStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Order is a cart that becomes a purchase once checked out. Lines are loaded
// together with the order; an order owns its lines.
type Order struct {
	ID                uuid.UUID
	SessionKey        string
	PaymentStatus     PaymentStatus
	CheckoutSessionID string
	PaymentIntentID   string
	Lines             []OrderLine
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// OrderLine is one (item, quantity) entry within an order.
type OrderLine struct {
	ID       uuid.UUID
	OrderID  uuid.UUID
	Item     Item
	Quantity int
}

// Subtotal is the line's contribution to the order total.
func (l *OrderLine) Subtotal() decimal.Decimal {
	return l.Item.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// TotalPrice sums quantity times item price across all lines. An empty order
// totals zero.
func (o *Order) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for i := range o.Lines {
		total = total.Add(o.Lines[i].Subtotal())
	}
	return total
}

// Currency returns the shared currency of the order's lines, or "" for an
// empty order.
func (o *Order) Currency() Currency {
	if len(o.Lines) == 0 {
		return ""
	}
	return o.Lines[0].Item.Currency
}

// ValidateLine checks the order invariants for a prospective line: quantity
// at least 1 and a currency matching every existing line.
func (o *Order) ValidateLine(item *Item, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if cur := o.Currency(); cur != "" && cur != item.Currency {
		return ErrCurrencyMismatch
	}
	return nil
}

// ValidateCurrencyConsistency re-checks the single-currency invariant across
// lines already attached to the order.
func (o *Order) ValidateCurrencyConsistency() error {
	for i := range o.Lines {
		if o.Lines[i].Item.Currency != o.Currency() {
			return ErrCurrencyMismatch
		}
	}
	return nil
}

// Transition moves the order to the given payment status, enforcing the
// allowed-transition table.
func (o *Order) Transition(to PaymentStatus) error {
	if !CanTransition(o.PaymentStatus, to) {
		return ErrInvalidTransition
	}
	o.PaymentStatus = to
	o.UpdatedAt = time.Now().UTC()
	return nil
}
