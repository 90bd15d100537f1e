package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"storefront/internal/domain"
)

// Client talks to the provider's REST API: form-encoded requests, JSON
// responses, bearer-token auth.
type Client struct {
	baseURL       string
	apiKey        string
	webhookSecret string
	httpClient    *http.Client
}

// NewClient builds a Gateway backed by the provider's HTTP API.
func NewClient(baseURL, apiKey, webhookSecret string) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		apiKey:        apiKey,
		webhookSecret: webhookSecret,
		httpClient:    &http.Client{Timeout: 15 * time.Second},
	}
}

type productResponse struct {
	ID string `json:"id"`
}

type priceResponse struct {
	ID string `json:"id"`
}

type sessionResponse struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	PaymentIntent string `json:"payment_intent"`
	Status        string `json:"status"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) CreateProduct(ctx context.Context, name, description string) (Product, error) {
	form := url.Values{}
	form.Set("name", name)
	if description != "" {
		form.Set("description", description)
	}

	var resp productResponse
	if err := c.post(ctx, "/v1/products", form, &resp); err != nil {
		return Product{}, err
	}
	return Product{ID: resp.ID}, nil
}

func (c *Client) UpdateProduct(ctx context.Context, productID, name, description string) (Product, error) {
	form := url.Values{}
	form.Set("name", name)
	form.Set("description", description)

	var resp productResponse
	if err := c.post(ctx, "/v1/products/"+productID, form, &resp); err != nil {
		return Product{}, err
	}
	return Product{ID: resp.ID}, nil
}

func (c *Client) CreatePrice(ctx context.Context, productID string, amountMinor int64, currency domain.Currency) (Price, error) {
	form := url.Values{}
	form.Set("product", productID)
	form.Set("unit_amount", strconv.FormatInt(amountMinor, 10))
	form.Set("currency", strings.ToLower(string(currency)))

	var resp priceResponse
	if err := c.post(ctx, "/v1/prices", form, &resp); err != nil {
		return Price{}, err
	}
	return Price{ID: resp.ID}, nil
}

func (c *Client) DeactivatePrice(ctx context.Context, priceID string) error {
	form := url.Values{}
	form.Set("active", "false")

	var resp priceResponse
	return c.post(ctx, "/v1/prices/"+priceID, form, &resp)
}

func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Add("payment_method_types[]", "card")
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)
	form.Set("metadata[order_id]", params.OrderID)
	for i, li := range params.LineItems {
		form.Set(fmt.Sprintf("line_items[%d][price]", i), li.PriceID)
		form.Set(fmt.Sprintf("line_items[%d][quantity]", i), strconv.Itoa(li.Quantity))
	}

	var resp sessionResponse
	if err := c.post(ctx, "/v1/checkout/sessions", form, &resp); err != nil {
		return CheckoutSession{}, err
	}
	return CheckoutSession{
		ID:              resp.ID,
		URL:             resp.URL,
		PaymentIntentID: resp.PaymentIntent,
		Status:          resp.Status,
	}, nil
}

func (c *Client) GetCheckoutSession(ctx context.Context, sessionID string) (CheckoutSession, error) {
	var resp sessionResponse
	if err := c.do(ctx, http.MethodGet, "/v1/checkout/sessions/"+sessionID, nil, &resp); err != nil {
		return CheckoutSession{}, err
	}
	return CheckoutSession{
		ID:              resp.ID,
		URL:             resp.URL,
		PaymentIntentID: resp.PaymentIntent,
		Status:          resp.Status,
	}, nil
}

func (c *Client) VerifyWebhook(payload []byte, signatureHeader, secret string) (Event, error) {
	if secret == "" {
		secret = c.webhookSecret
	}
	return VerifyAndDecode(payload, signatureHeader, secret, DefaultTolerance)
}

func (c *Client) post(ctx context.Context, path string, form url.Values, out any) error {
	return c.do(ctx, http.MethodPost, path, form, out)
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPaymentProvider, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPaymentProvider, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", domain.ErrPaymentProvider, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("%w: %s (%d)", domain.ErrPaymentProvider, apiErr.Error.Message, resp.StatusCode)
		}
		return fmt.Errorf("%w: status %d", domain.ErrPaymentProvider, resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%w: decode response: %v", domain.ErrPaymentProvider, err)
		}
	}
	return nil
}
