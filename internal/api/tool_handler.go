package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lyra-backend-go/internal/core"
	"lyra-backend-go/internal/models"
)

// ToolHandler exposes the six generation tools.
type ToolHandler struct {
	tools  core.ToolService
	logger *zap.Logger
}

// NewToolHandler creates a new ToolHandler.
func NewToolHandler(ts core.ToolService, logger *zap.Logger) *ToolHandler {
	return &ToolHandler{tools: ts, logger: logger}
}

func (h *ToolHandler) Proposal(c *gin.Context) { h.invoke(c, &models.ProposalInput{}) }

func (h *ToolHandler) Email(c *gin.Context) { h.invoke(c, &models.EmailInput{}) }

func (h *ToolHandler) Pricing(c *gin.Context) { h.invoke(c, &models.PricingInput{}) }

func (h *ToolHandler) Contract(c *gin.Context) { h.invoke(c, &models.ContractInput{}) }

func (h *ToolHandler) Brief(c *gin.Context) { h.invoke(c, &models.BriefInput{}) }

func (h *ToolHandler) Onboarding(c *gin.Context) { h.invoke(c, &models.OnboardingInput{}) }

// invoke binds the body into input, a pointer to a tool input struct.
// Required fields are checked by the tool service, not by gin.
func (h *ToolHandler) invoke(c *gin.Context, input models.ToolInput) {
	userID, err := currentUserID(c)
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	if err := c.ShouldBindJSON(input); err != nil {
		mapCoreErrorToStatus(c, h.logger, bindingError(err))
		return
	}

	result, err := h.tools.Invoke(c.Request.Context(), userID, input)
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ToolResponse{Text: result.Text, GenerationTime: result.GenerationTime})
}
