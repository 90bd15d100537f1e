package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"storefront/internal/domain"
)

// MockGateway is an in-memory Gateway for tests and local runs. It records
// every catalog and session call so tests can assert on provider traffic.
type MockGateway struct {
	mu       sync.RWMutex
	seq      int
	products map[string]mockProduct
	prices   map[string]mockPrice
	sessions map[string]CheckoutSession

	// FailNext makes the next API call return ErrPaymentProvider.
	FailNext bool
}

type mockProduct struct {
	Name        string
	Description string
}

type mockPrice struct {
	ProductID   string
	AmountMinor int64
	Currency    domain.Currency
	Active      bool
}

func NewMockGateway() *MockGateway {
	return &MockGateway{
		products: make(map[string]mockProduct),
		prices:   make(map[string]mockPrice),
		sessions: make(map[string]CheckoutSession),
	}
}

func (m *MockGateway) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s_%06d", prefix, m.seq)
}

func (m *MockGateway) failNext() error {
	if m.FailNext {
		m.FailNext = false
		return domain.ErrPaymentProvider
	}
	return nil
}

func (m *MockGateway) CreateProduct(ctx context.Context, name, description string) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failNext(); err != nil {
		return Product{}, err
	}
	id := m.nextID("prod")
	m.products[id] = mockProduct{Name: name, Description: description}
	return Product{ID: id}, nil
}

func (m *MockGateway) UpdateProduct(ctx context.Context, productID, name, description string) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failNext(); err != nil {
		return Product{}, err
	}
	if _, ok := m.products[productID]; !ok {
		return Product{}, domain.ErrPaymentProvider
	}
	m.products[productID] = mockProduct{Name: name, Description: description}
	return Product{ID: productID}, nil
}

func (m *MockGateway) CreatePrice(ctx context.Context, productID string, amountMinor int64, currency domain.Currency) (Price, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failNext(); err != nil {
		return Price{}, err
	}
	if _, ok := m.products[productID]; !ok {
		return Price{}, domain.ErrPaymentProvider
	}
	id := m.nextID("price")
	m.prices[id] = mockPrice{ProductID: productID, AmountMinor: amountMinor, Currency: currency, Active: true}
	return Price{ID: id}, nil
}

func (m *MockGateway) DeactivatePrice(ctx context.Context, priceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failNext(); err != nil {
		return err
	}
	price, ok := m.prices[priceID]
	if !ok {
		return domain.ErrPaymentProvider
	}
	price.Active = false
	m.prices[priceID] = price
	return nil
}

func (m *MockGateway) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failNext(); err != nil {
		return CheckoutSession{}, err
	}
	for _, li := range params.LineItems {
		price, ok := m.prices[li.PriceID]
		if !ok || !price.Active {
			return CheckoutSession{}, domain.ErrPaymentProvider
		}
	}
	id := m.nextID("cs")
	session := CheckoutSession{
		ID:     id,
		URL:    "https://checkout.example.test/pay/" + id,
		Status: SessionOpen,
	}
	m.sessions[id] = session
	return session, nil
}

func (m *MockGateway) GetCheckoutSession(ctx context.Context, sessionID string) (CheckoutSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[sessionID]
	if !ok {
		return CheckoutSession{}, domain.ErrPaymentProvider
	}
	return session, nil
}

func (m *MockGateway) VerifyWebhook(payload []byte, signatureHeader, secret string) (Event, error) {
	return VerifyAndDecode(payload, signatureHeader, secret, DefaultTolerance)
}

// CompleteSession marks a session complete with a payment intent, simulating
// a shopper finishing the hosted checkout page.
func (m *MockGateway) CompleteSession(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[sessionID]
	if !ok {
		return
	}
	session.Status = SessionComplete
	session.PaymentIntentID = m.nextID("pi")
	m.sessions[sessionID] = session
}

// ExpireSession marks a session expired, simulating an abandoned checkout.
func (m *MockGateway) ExpireSession(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[sessionID]
	if !ok {
		return
	}
	session.Status = SessionExpired
	m.sessions[sessionID] = session
}

// PriceActive reports whether a price reference exists and is active.
func (m *MockGateway) PriceActive(priceID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	price, ok := m.prices[priceID]
	return ok && price.Active
}

// SignedCompletedEvent builds a checkout.session.completed payload with a
// valid signature header for the given secret.
func (m *MockGateway) SignedCompletedEvent(sessionID, orderID, secret string) ([]byte, string) {
	m.mu.Lock()
	session := m.sessions[sessionID]
	eventID := m.nextID("evt")
	m.mu.Unlock()

	payload, _ := json.Marshal(map[string]any{
		"id":   eventID,
		"type": EventCheckoutCompleted,
		"data": map[string]any{
			"object": map[string]any{
				"id":             sessionID,
				"payment_intent": session.PaymentIntentID,
				"metadata":       map[string]string{"order_id": orderID},
			},
		},
	})
	return payload, SignPayload(payload, secret, time.Now())
}
