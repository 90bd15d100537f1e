package domain

import "errors"

var (
	ErrItemNotFound      = errors.New("item not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrCurrencyMismatch  = errors.New("item currency must match existing order lines")
	ErrOrderNotPending   = errors.New("order is not in pending state")
	ErrEmptyOrder        = errors.New("order has no lines")
	ErrInvalidCurrency   = errors.New("unsupported currency")
	ErrInvalidTransition = errors.New("invalid payment status transition")
	ErrPaymentProvider   = errors.New("payment provider request failed")
	ErrInvalidSignature  = errors.New("invalid webhook signature")
	ErrInvalidID         = errors.New("invalid id")
)
