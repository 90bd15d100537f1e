package http

import (
	"errors"
	"net/http"
	"storefront/internal/domain"
	"storefront/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ItemHandler struct {
	catalog service.CatalogService
}

func NewItemHandler(catalog service.CatalogService) *ItemHandler {
	return &ItemHandler{catalog: catalog}
}

// List handles GET /items.
func (h *ItemHandler) List(c *gin.Context) {
	items, err := h.catalog.ListItems(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]itemResponse, 0, len(items))
	for i := range items {
		out = append(out, toItemResponse(&items[i]))
	}
	c.JSON(http.StatusOK, out)
}

type itemRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Price       string `json:"price" binding:"required"`
	Currency    string `json:"currency" binding:"required"`
}

func (r *itemRequest) toInput() (service.ItemInput, error) {
	price, err := decimal.NewFromString(r.Price)
	if err != nil {
		return service.ItemInput{}, err
	}
	if price.IsNegative() {
		return service.ItemInput{}, errors.New("price must not be negative")
	}
	return service.ItemInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       price,
		Currency:    r.Currency,
	}, nil
}

// Create handles POST /admin/items.
func (h *ItemHandler) Create(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body", Code: codeInvalidRequestBody})
		return
	}
	in, err := req.toInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid price", Code: codeInvalidRequestBody})
		return
	}

	item, err := h.catalog.CreateItem(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toItemResponse(item))
}

// Update handles PUT /admin/items/:id.
func (h *ItemHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: domain.ErrInvalidID.Error(), Code: codeInvalidID})
		return
	}

	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body", Code: codeInvalidRequestBody})
		return
	}
	in, err := req.toInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid price", Code: codeInvalidRequestBody})
		return
	}

	item, err := h.catalog.UpdateItem(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toItemResponse(item))
}

// Sync handles POST /admin/items/:id/sync, pushing the item to the provider
// catalog.
func (h *ItemHandler) Sync(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: domain.ErrInvalidID.Error(), Code: codeInvalidID})
		return
	}

	item, err := h.catalog.SyncItem(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toItemResponse(item))
}
