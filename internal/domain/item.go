package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyRUB Currency = "RUB"
)

// ParseCurrency validates a currency code against the supported set.
func ParseCurrency(code string) (Currency, error) {
	switch Currency(code) {
	case CurrencyUSD, CurrencyEUR, CurrencyRUB:
		return Currency(code), nil
	}
	return "", ErrInvalidCurrency
}

// Item is a purchasable catalog entry. Provider references are filled in
// lazily when the item is synced with the payment provider's catalog.
type Item struct {
	ID                uuid.UUID
	Name              string
	Description       string
	Price             decimal.Decimal
	Currency          Currency
	ProviderProductID string
	ProviderPriceID   string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// PriceMinorUnits returns the price in the provider's minor units (cents).
func (i *Item) PriceMinorUnits() int64 {
	return i.Price.Mul(decimal.NewFromInt(100)).IntPart()
}
