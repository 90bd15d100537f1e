package payment

import (
	"context"

	"storefront/internal/domain"
)

// Product is the provider-side catalog entry for an item.
type Product struct {
	ID string
}

// Price is a provider-side price attached to a product, in minor units.
type Price struct {
	ID string
}

// CheckoutSession is a provider-hosted payment page reference.
type CheckoutSession struct {
	ID              string
	URL             string
	PaymentIntentID string
	Status          string
}

// LineItem pairs a provider price reference with a quantity.
type LineItem struct {
	PriceID  string
	Quantity int
}

// CheckoutParams are the inputs for creating a hosted checkout session.
type CheckoutParams struct {
	LineItems  []LineItem
	SuccessURL string
	CancelURL  string
	// OrderID is attached as correlation metadata and echoed back on events.
	OrderID string
}

// Checkout session statuses reported by the provider.
const (
	SessionComplete = "complete"
	SessionExpired  = "expired"
	SessionOpen     = "open"
)

// EventCheckoutCompleted is the event type emitted when a hosted checkout
// session finishes successfully.
const EventCheckoutCompleted = "checkout.session.completed"

// Event is a verified, decoded webhook notification.
type Event struct {
	ID                string
	Type              string
	CheckoutSessionID string
	PaymentIntentID   string
	OrderID           string
}

// Gateway abstracts the payment provider: catalog sync, hosted checkout and
// webhook verification.
type Gateway interface {
	CreateProduct(ctx context.Context, name, description string) (Product, error)
	UpdateProduct(ctx context.Context, productID, name, description string) (Product, error)
	CreatePrice(ctx context.Context, productID string, amountMinor int64, currency domain.Currency) (Price, error)
	DeactivatePrice(ctx context.Context, priceID string) error
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (CheckoutSession, error)
	VerifyWebhook(payload []byte, signatureHeader, secret string) (Event, error)
}
