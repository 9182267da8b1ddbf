package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lyra-backend-go/internal/core"
	"lyra-backend-go/internal/models"
)

// HistoryHandler lists and records tool history.
type HistoryHandler struct {
	tools  core.ToolService
	logger *zap.Logger
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(ts core.ToolService, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{tools: ts, logger: logger}
}

// ListHistory handles GET /api/history?tool=.
func (h *HistoryHandler) ListHistory(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	entries, err := h.tools.History(c.Request.Context(), userID, models.ToolType(c.Query("tool")))
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	if entries == nil {
		entries = []*models.ToolHistory{}
	}
	c.JSON(http.StatusOK, HistoryResponse{History: entries})
}

// RecordHistory handles POST /api/history. Only export actions are accepted.
func (h *HistoryHandler) RecordHistory(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	var req models.RecordHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		mapCoreErrorToStatus(c, h.logger, bindingError(err))
		return
	}

	historyID, err := h.tools.RecordExport(c.Request.Context(), userID, models.ToolType(req.ToolType), req.Format, req.Content)
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, RecordHistoryResponse{Success: true, HistoryID: historyID})
}
