package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientCreatePrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/prices", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "prod_1", r.PostForm.Get("product"))
		assert.Equal(t, "1025", r.PostForm.Get("unit_amount"))
		assert.Equal(t, "usd", r.PostForm.Get("currency"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"price_1"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test", "whsec")
	price, err := client.CreatePrice(context.Background(), "prod_1", 1025, domain.CurrencyUSD)
	require.NoError(t, err)
	assert.Equal(t, "price_1", price.ID)
}

func TestClientCreateCheckoutSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "payment", r.PostForm.Get("mode"))
		assert.Equal(t, "https://shop.test/ok", r.PostForm.Get("success_url"))
		assert.Equal(t, "https://shop.test/cancel", r.PostForm.Get("cancel_url"))
		assert.Equal(t, "order-1", r.PostForm.Get("metadata[order_id]"))
		assert.Equal(t, "price_1", r.PostForm.Get("line_items[0][price]"))
		assert.Equal(t, "2", r.PostForm.Get("line_items[0][quantity]"))
		assert.Equal(t, "price_2", r.PostForm.Get("line_items[1][price]"))
		assert.Equal(t, "1", r.PostForm.Get("line_items[1][quantity]"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"cs_1","url":"https://provider.test/pay/cs_1","status":"open"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test", "whsec")
	session, err := client.CreateCheckoutSession(context.Background(), CheckoutParams{
		LineItems: []LineItem{
			{PriceID: "price_1", Quantity: 2},
			{PriceID: "price_2", Quantity: 1},
		},
		SuccessURL: "https://shop.test/ok",
		CancelURL:  "https://shop.test/cancel",
		OrderID:    "order-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_1", session.ID)
	assert.Equal(t, "https://provider.test/pay/cs_1", session.URL)
	assert.Equal(t, SessionOpen, session.Status)
}

func TestClientGetCheckoutSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/checkout/sessions/cs_1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"cs_1","status":"complete","payment_intent":"pi_1"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test", "whsec")
	session, err := client.GetCheckoutSession(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.Equal(t, SessionComplete, session.Status)
	assert.Equal(t, "pi_1", session.PaymentIntentID)
}

func TestClientMapsAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"message":"Your card was declined."}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test", "whsec")
	_, err := client.CreateProduct(context.Background(), "Widget", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPaymentProvider)
	assert.Contains(t, err.Error(), "Your card was declined.")
}

func TestClientMapsConnectionErrors(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "sk_test", "whsec")
	_, err := client.CreateProduct(context.Background(), "Widget", "")
	assert.ErrorIs(t, err, domain.ErrPaymentProvider)
}
