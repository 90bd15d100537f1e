package http

import (
	"storefront/internal/domain"
	"time"
)

type itemResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Currency    string `json:"currency"`
	Synced      bool   `json:"synced"`
}

func toItemResponse(item *domain.Item) itemResponse {
	return itemResponse{
		ID:          item.ID.String(),
		Name:        item.Name,
		Description: item.Description,
		Price:       item.Price.StringFixed(2),
		Currency:    string(item.Currency),
		Synced:      item.ProviderProductID != "" && item.ProviderPriceID != "",
	}
}

type orderLineResponse struct {
	ID       string `json:"id"`
	ItemID   string `json:"item_id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Currency string `json:"currency"`
	Quantity int    `json:"quantity"`
	Subtotal string `json:"subtotal"`
}

type orderResponse struct {
	ID            string              `json:"id"`
	CreatedAt     time.Time           `json:"created_at"`
	PaymentStatus string              `json:"payment_status"`
	Lines         []orderLineResponse `json:"lines"`
	TotalPrice    string              `json:"total_price"`
	Currency      string              `json:"currency,omitempty"`
}

func toOrderResponse(order *domain.Order) orderResponse {
	lines := make([]orderLineResponse, 0, len(order.Lines))
	for i := range order.Lines {
		line := &order.Lines[i]
		lines = append(lines, orderLineResponse{
			ID:       line.ID.String(),
			ItemID:   line.Item.ID.String(),
			Name:     line.Item.Name,
			Price:    line.Item.Price.StringFixed(2),
			Currency: string(line.Item.Currency),
			Quantity: line.Quantity,
			Subtotal: line.Subtotal().StringFixed(2),
		})
	}
	return orderResponse{
		ID:            order.ID.String(),
		CreatedAt:     order.CreatedAt,
		PaymentStatus: string(order.PaymentStatus),
		Lines:         lines,
		TotalPrice:    order.TotalPrice().StringFixed(2),
		Currency:      string(order.Currency()),
	}
}
