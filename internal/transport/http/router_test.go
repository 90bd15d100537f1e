package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeCart struct {
	order   *domain.Order
	created bool
	err     error
}

func (f *fakeCart) CreateOrGetPending(ctx context.Context, sessionKey string) (*domain.Order, bool, error) {
	return f.order, f.created, f.err
}

func (f *fakeCart) GetPending(ctx context.Context, sessionKey string) (*domain.Order, error) {
	return f.order, f.err
}

func (f *fakeCart) GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.order, nil
}

func (f *fakeCart) AddLine(ctx context.Context, orderID, itemID uuid.UUID, quantity int) (*domain.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.order, nil
}

func (f *fakeCart) RemoveLine(ctx context.Context, orderID, lineID uuid.UUID) error {
	return f.err
}

type fakeCatalog struct {
	item *domain.Item
	err  error
}

func (f *fakeCatalog) ListItems(ctx context.Context) ([]domain.Item, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.item == nil {
		return nil, nil
	}
	return []domain.Item{*f.item}, nil
}

func (f *fakeCatalog) GetItem(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	return f.item, f.err
}

func (f *fakeCatalog) CreateItem(ctx context.Context, in service.ItemInput) (*domain.Item, error) {
	return f.item, f.err
}

func (f *fakeCatalog) UpdateItem(ctx context.Context, id uuid.UUID, in service.ItemInput) (*domain.Item, error) {
	return f.item, f.err
}

func (f *fakeCatalog) SyncItem(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	return f.item, f.err
}

type fakeCheckout struct {
	url string
	err error
}

func (f *fakeCheckout) CreateCheckoutSession(ctx context.Context, orderID uuid.UUID, successURL, cancelURL string) (string, error) {
	return f.url, f.err
}

type fakeWebhooks struct {
	err error
}

func (f *fakeWebhooks) HandleEvent(ctx context.Context, payload []byte, signatureHeader string) error {
	return f.err
}

type fakeHealth struct {
	status string
}

func (f *fakeHealth) Health(ctx context.Context) map[string]string {
	return map[string]string{"status": f.status}
}

func (f *fakeHealth) Close() error { return nil }

var (
	_ service.CartService     = (*fakeCart)(nil)
	_ service.CatalogService  = (*fakeCatalog)(nil)
	_ service.CheckoutService = (*fakeCheckout)(nil)
	_ service.WebhookService  = (*fakeWebhooks)(nil)
)

type routerFakes struct {
	cart     *fakeCart
	catalog  *fakeCatalog
	checkout *fakeCheckout
	webhooks *fakeWebhooks
}

func newTestRouter(f routerFakes) *gin.Engine {
	if f.cart == nil {
		f.cart = &fakeCart{}
	}
	if f.catalog == nil {
		f.catalog = &fakeCatalog{}
	}
	if f.checkout == nil {
		f.checkout = &fakeCheckout{}
	}
	if f.webhooks == nil {
		f.webhooks = &fakeWebhooks{}
	}
	return NewRouter(RouterConfig{
		Cart:     f.cart,
		Catalog:  f.catalog,
		Checkout: f.checkout,
		Webhooks: f.webhooks,
		Health:   &fakeHealth{status: "up"},
		Logger:   zap.NewNop(),
	})
}

func sampleOrder() *domain.Order {
	item := domain.Item{
		ID:       uuid.New(),
		Name:     "Item A",
		Price:    decimal.RequireFromString("10.00"),
		Currency: domain.CurrencyUSD,
	}
	return &domain.Order{
		ID:            uuid.New(),
		SessionKey:    "session-1",
		PaymentStatus: domain.PaymentPending,
		Lines: []domain.OrderLine{
			{ID: uuid.New(), Item: item, Quantity: 2},
		},
		CreatedAt: time.Now(),
	}
}

func doRequest(router *gin.Engine, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestCreateOrderIssuesSessionKey(t *testing.T) {
	cart := &fakeCart{order: sampleOrder(), created: true}
	router := newTestRouter(routerFakes{cart: cart})

	rec := doRequest(router, http.MethodPost, "/orders", nil, nil)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(SessionKeyHeader))

	var resp orderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "pending", resp.PaymentStatus)
	assert.Equal(t, "20.00", resp.TotalPrice)
	assert.Equal(t, "USD", resp.Currency)
}

func TestCreateOrderReturnsExistingAs200(t *testing.T) {
	cart := &fakeCart{order: sampleOrder(), created: false}
	router := newTestRouter(routerFakes{cart: cart})

	rec := doRequest(router, http.MethodPost, "/orders", nil, map[string]string{SessionKeyHeader: "session-1"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "session-1", rec.Header().Get(SessionKeyHeader))
}

func TestCurrentOrderRequiresSessionKey(t *testing.T) {
	router := newTestRouter(routerFakes{})

	rec := doRequest(router, http.MethodGet, "/orders/current", nil, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeSessionKeyRequired, decodeError(t, rec).Code)
}

func TestCurrentOrderEmptyCart(t *testing.T) {
	router := newTestRouter(routerFakes{cart: &fakeCart{order: nil}})

	rec := doRequest(router, http.MethodGet, "/orders/current", nil, map[string]string{SessionKeyHeader: "session-1"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"detail": "Cart is empty"}`, rec.Body.String())
}

func TestGetOrderRejectsBadID(t *testing.T) {
	router := newTestRouter(routerFakes{})

	rec := doRequest(router, http.MethodGet, "/orders/not-a-uuid", nil, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeInvalidID, decodeError(t, rec).Code)
}

func TestGetOrderNotFound(t *testing.T) {
	router := newTestRouter(routerFakes{cart: &fakeCart{err: domain.ErrOrderNotFound}})

	rec := doRequest(router, http.MethodGet, "/orders/"+uuid.NewString(), nil, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, codeOrderNotFound, decodeError(t, rec).Code)
}

func TestAddLineErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"currency mismatch", domain.ErrCurrencyMismatch, http.StatusBadRequest, codeCurrencyMismatch},
		{"invalid quantity", domain.ErrInvalidQuantity, http.StatusBadRequest, codeInvalidQuantity},
		{"item not found", domain.ErrItemNotFound, http.StatusNotFound, codeItemNotFound},
		{"order not pending", domain.ErrOrderNotPending, http.StatusConflict, codeOrderNotPending},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(routerFakes{cart: &fakeCart{err: tc.err}})
			body, _ := json.Marshal(gin.H{"item_id": uuid.NewString(), "quantity": 1})

			rec := doRequest(router, http.MethodPost, "/orders/"+uuid.NewString()+"/lines", body, nil)

			assert.Equal(t, tc.wantCode, rec.Code)
			assert.Equal(t, tc.wantBody, decodeError(t, rec).Code)
		})
	}
}

func TestAddLineSuccess(t *testing.T) {
	router := newTestRouter(routerFakes{cart: &fakeCart{order: sampleOrder()}})
	body, _ := json.Marshal(gin.H{"item_id": uuid.NewString(), "quantity": 2})

	rec := doRequest(router, http.MethodPost, "/orders/"+uuid.NewString()+"/lines", body, nil)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestAddLineRejectsMissingItemID(t *testing.T) {
	router := newTestRouter(routerFakes{})
	body, _ := json.Marshal(gin.H{"quantity": 2})

	rec := doRequest(router, http.MethodPost, "/orders/"+uuid.NewString()+"/lines", body, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeInvalidRequestBody, decodeError(t, rec).Code)
}

func TestRemoveLineReturnsNoContent(t *testing.T) {
	router := newTestRouter(routerFakes{})

	rec := doRequest(router, http.MethodDelete, "/orders/"+uuid.NewString()+"/lines/"+uuid.NewString(), nil, nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestCheckoutReturnsRedirectURL(t *testing.T) {
	router := newTestRouter(routerFakes{checkout: &fakeCheckout{url: "https://checkout.example.test/pay/cs_1"}})
	body, _ := json.Marshal(gin.H{
		"success_url": "https://shop.test/ok",
		"cancel_url":  "https://shop.test/cancel",
	})

	rec := doRequest(router, http.MethodPost, "/orders/"+uuid.NewString()+"/checkout", body, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"checkout_url": "https://checkout.example.test/pay/cs_1"}`, rec.Body.String())
}

func TestCheckoutErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"empty order", domain.ErrEmptyOrder, http.StatusBadRequest},
		{"currency mismatch", domain.ErrCurrencyMismatch, http.StatusBadRequest},
		{"provider down", domain.ErrPaymentProvider, http.StatusBadGateway},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(routerFakes{checkout: &fakeCheckout{err: tc.err}})
			body, _ := json.Marshal(gin.H{
				"success_url": "https://shop.test/ok",
				"cancel_url":  "https://shop.test/cancel",
			})

			rec := doRequest(router, http.MethodPost, "/orders/"+uuid.NewString()+"/checkout", body, nil)

			assert.Equal(t, tc.wantCode, rec.Code)
		})
	}
}

func TestCheckoutRequiresURLs(t *testing.T) {
	router := newTestRouter(routerFakes{})
	body, _ := json.Marshal(gin.H{"success_url": "not a url"})

	rec := doRequest(router, http.MethodPost, "/orders/"+uuid.NewString()+"/checkout", body, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeInvalidRequestBody, decodeError(t, rec).Code)
}

func TestWebhookSignatureFailure(t *testing.T) {
	router := newTestRouter(routerFakes{webhooks: &fakeWebhooks{err: domain.ErrInvalidSignature}})

	rec := doRequest(router, http.MethodPost, "/webhooks/payment", []byte(`{}`), map[string]string{SignatureHeader: "t=0,v1=bad"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeInvalidSignature, decodeError(t, rec).Code)
}

func TestWebhookAcknowledged(t *testing.T) {
	router := newTestRouter(routerFakes{})

	rec := doRequest(router, http.MethodPost, "/webhooks/payment", []byte(`{}`), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListItems(t *testing.T) {
	item := &domain.Item{
		ID:                uuid.New(),
		Name:              "Item A",
		Price:             decimal.RequireFromString("10.00"),
		Currency:          domain.CurrencyUSD,
		ProviderProductID: "prod_1",
		ProviderPriceID:   "price_1",
	}
	router := newTestRouter(routerFakes{catalog: &fakeCatalog{item: item}})

	rec := doRequest(router, http.MethodGet, "/items", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var items []itemResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "10.00", items[0].Price)
	assert.True(t, items[0].Synced)
}

func TestCreateItemValidation(t *testing.T) {
	router := newTestRouter(routerFakes{})

	body, _ := json.Marshal(gin.H{"name": "Item A", "price": "-1.00", "currency": "USD"})
	rec := doRequest(router, http.MethodPost, "/admin/items", body, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, _ = json.Marshal(gin.H{"name": "Item A", "price": "ten", "currency": "USD"})
	rec = doRequest(router, http.MethodPost, "/admin/items", body, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateItemInvalidCurrency(t *testing.T) {
	router := newTestRouter(routerFakes{catalog: &fakeCatalog{err: domain.ErrInvalidCurrency}})

	body, _ := json.Marshal(gin.H{"name": "Item A", "price": "10.00", "currency": "GBP"})
	rec := doRequest(router, http.MethodPost, "/admin/items", body, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeInvalidCurrency, decodeError(t, rec).Code)
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(routerFakes{})

	rec := doRequest(router, http.MethodGet, "/health", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "up"}`, rec.Body.String())
}
