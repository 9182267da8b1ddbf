package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lyra-backend-go/internal/core"
)

// maxWebhookBytes bounds webhook payloads.
const maxWebhookBytes = 64 << 10

// BillingHandler handles billing-related API endpoints.
type BillingHandler struct {
	billing core.BillingService
	logger  *zap.Logger
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(bs core.BillingService, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{billing: bs, logger: logger}
}

// CreateSubscription handles POST /api/create-subscription.
func (h *BillingHandler) CreateSubscription(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	result, err := h.billing.CreateSubscription(c.Request.Context(), userID)
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleWebhook handles POST /api/public/billing/webhook. It is authenticated
// by the Stripe-Signature header, not by a bearer token.
func (h *BillingHandler) HandleWebhook(c *gin.Context) {
	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "Missing Stripe-Signature header"})
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "Failed to read webhook payload", Details: err.Error()})
		return
	}

	if err := h.billing.HandleWebhook(c.Request.Context(), payload, signature); err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, WebhookResponse{Received: true})
}
