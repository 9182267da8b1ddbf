package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lyra-backend-go/internal/core"
)

// SubscriptionHandler serves the principal's entitlement.
type SubscriptionHandler struct {
	entitlements core.EntitlementService
	logger       *zap.Logger
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(es core.EntitlementService, logger *zap.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{entitlements: es, logger: logger}
}

// GetSubscription handles GET /api/subscription.
func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	decision, err := h.entitlements.Resolve(c.Request.Context(), userID)
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}
