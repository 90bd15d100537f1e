package http

import (
	"errors"
	"net/http"
	"storefront/internal/domain"

	"github.com/gin-gonic/gin"
)

const (
	codeInvalidRequestBody  = "invalid_request_body"
	codeInvalidQuantity     = "invalid_quantity"
	codeCurrencyMismatch    = "currency_mismatch"
	codeInvalidCurrency     = "invalid_currency"
	codeInvalidID           = "invalid_id"
	codeItemNotFound        = "item_not_found"
	codeOrderNotFound       = "order_not_found"
	codeOrderNotPending     = "order_not_pending"
	codeEmptyOrder          = "empty_order"
	codePaymentProvider     = "payment_provider_error"
	codeInvalidSignature    = "invalid_signature"
	codeSessionKeyRequired  = "session_key_required"
	codeInternalError       = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// respondError translates domain errors into HTTP responses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Code: codeInvalidQuantity})
	case errors.Is(err, domain.ErrCurrencyMismatch):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Code: codeCurrencyMismatch})
	case errors.Is(err, domain.ErrInvalidCurrency):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Code: codeInvalidCurrency})
	case errors.Is(err, domain.ErrEmptyOrder):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Code: codeEmptyOrder})
	case errors.Is(err, domain.ErrItemNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error(), Code: codeItemNotFound})
	case errors.Is(err, domain.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error(), Code: codeOrderNotFound})
	case errors.Is(err, domain.ErrOrderNotPending):
		c.JSON(http.StatusConflict, errorResponse{Error: err.Error(), Code: codeOrderNotPending})
	case errors.Is(err, domain.ErrPaymentProvider):
		c.JSON(http.StatusBadGateway, errorResponse{Error: err.Error(), Code: codePaymentProvider})
	case errors.Is(err, domain.ErrInvalidSignature):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Code: codeInvalidSignature})
	default:
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error", Code: codeInternalError})
	}
}
