package http

import (
	"net/http"
	"storefront/internal/domain"
	"storefront/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionKeyHeader carries the opaque cart-session identifier. The server
// issues one on first contact if the client has none yet.
const SessionKeyHeader = "X-Session-Key"

type OrderHandler struct {
	cart service.CartService
}

func NewOrderHandler(cart service.CartService) *OrderHandler {
	return &OrderHandler{cart: cart}
}

func (h *OrderHandler) sessionKey(c *gin.Context) string {
	key := c.GetHeader(SessionKeyHeader)
	if key == "" {
		key = uuid.NewString()
	}
	c.Header(SessionKeyHeader, key)
	return key
}

// CreateOrGet handles POST /orders: 200 with the existing pending order, or
// 201 with a fresh one.
func (h *OrderHandler) CreateOrGet(c *gin.Context) {
	order, created, err := h.cart.CreateOrGetPending(c.Request.Context(), h.sessionKey(c))
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, toOrderResponse(order))
}

// Current handles GET /orders/current without creating an order.
func (h *OrderHandler) Current(c *gin.Context) {
	key := c.GetHeader(SessionKeyHeader)
	if key == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "session key required", Code: codeSessionKeyRequired})
		return
	}
	order, err := h.cart.GetPending(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}
	if order == nil {
		c.JSON(http.StatusOK, gin.H{"detail": "Cart is empty"})
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

// Get handles GET /orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: domain.ErrInvalidID.Error(), Code: codeInvalidID})
		return
	}
	order, err := h.cart.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

type addLineRequest struct {
	ItemID   string `json:"item_id" binding:"required"`
	Quantity int    `json:"quantity"`
}

// AddLine handles POST /orders/:id/lines.
func (h *OrderHandler) AddLine(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: domain.ErrInvalidID.Error(), Code: codeInvalidID})
		return
	}

	var req addLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body", Code: codeInvalidRequestBody})
		return
	}
	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: domain.ErrInvalidID.Error(), Code: codeInvalidID})
		return
	}

	order, err := h.cart.AddLine(c.Request.Context(), orderID, itemID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(order))
}

// RemoveLine handles DELETE /orders/:id/lines/:line_id. Unknown lines still
// return 204.
func (h *OrderHandler) RemoveLine(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: domain.ErrInvalidID.Error(), Code: codeInvalidID})
		return
	}
	lineID, err := uuid.Parse(c.Param("line_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: domain.ErrInvalidID.Error(), Code: codeInvalidID})
		return
	}

	if err := h.cart.RemoveLine(c.Request.Context(), orderID, lineID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
