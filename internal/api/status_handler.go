package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lyra-backend-go/internal/config"
	"lyra-backend-go/internal/core"
)

// ServiceName is reported by the status endpoint.
const ServiceName = "lyra-backend"

// StatusHandler reports readiness of optional integrations.
type StatusHandler struct {
	cfg     *config.Config
	billing core.BillingService
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(cfg *config.Config, billing core.BillingService) *StatusHandler {
	return &StatusHandler{cfg: cfg, billing: billing}
}

// Status handles GET /api/public/status.
func (h *StatusHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, StatusResponse{
		Service: ServiceName,
		Store:   h.cfg.StoreDriver,
		LLM:     h.cfg.LLMConfigured(),
		Billing: h.billing.Configured(),
	})
}

// Health handles GET /health.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}
