package http

import (
	"net/http"
	"storefront/internal/domain"
	"storefront/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CheckoutHandler struct {
	checkout service.CheckoutService
}

func NewCheckoutHandler(checkout service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

type checkoutRequest struct {
	SuccessURL string `json:"success_url" binding:"required,url"`
	CancelURL  string `json:"cancel_url" binding:"required,url"`
}

// Create handles POST /orders/:id/checkout and returns the provider redirect
// URL.
func (h *CheckoutHandler) Create(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: domain.ErrInvalidID.Error(), Code: codeInvalidID})
		return
	}

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body", Code: codeInvalidRequestBody})
		return
	}

	url, err := h.checkout.CreateCheckoutSession(c.Request.Context(), orderID, req.SuccessURL, req.CancelURL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"checkout_url": url})
}
