package http

import (
	"io"
	"net/http"
	"storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// SignatureHeader carries the provider's webhook signature.
const SignatureHeader = "Payment-Signature"

// maxWebhookBody bounds webhook payload size; provider events are small.
const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	webhooks service.WebhookService
}

func NewWebhookHandler(webhooks service.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks}
}

// Handle processes POST /webhooks/payment. Verification failures are 400; a
// verified event always gets 200 so the provider stops retrying.
func (h *WebhookHandler) Handle(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "unreadable payload", Code: codeInvalidRequestBody})
		return
	}

	if err := h.webhooks.HandleEvent(c.Request.Context(), payload, c.GetHeader(SignatureHeader)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}
