package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lyra-backend-go/internal/core"
	"lyra-backend-go/internal/models"
)

// ExportHandler sends generated content to third-party workspaces.
type ExportHandler struct {
	exports core.ExportService
	logger  *zap.Logger
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(es core.ExportService, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{exports: es, logger: logger}
}

// ExportNotion handles POST /api/export/notion.
func (h *ExportHandler) ExportNotion(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	var req models.NotionExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		mapCoreErrorToStatus(c, h.logger, bindingError(err))
		return
	}

	result, err := h.exports.ExportToNotion(c.Request.Context(), userID, req)
	if err != nil {
		mapCoreErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, NotionExportResponse{Success: true, HistoryID: result.HistoryID, PageURL: result.PageURL})
}
