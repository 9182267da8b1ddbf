package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"lyra-backend-go/internal/models"
)

// NotionPageBaseURL prefixes exported page ids.
const NotionPageBaseURL = "https://notion.so/"

type exportService struct {
	exporter WorkspaceExporter
	tools    ToolService
	logger   *zap.Logger
}

// NewExportService creates the workspace export service. Successful exports are
// archived through tools.RecordExport.
func NewExportService(exporter WorkspaceExporter, tools ToolService, logger *zap.Logger) ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &exportService{exporter: exporter, tools: tools, logger: logger}
}

// NotionPageURL returns the public URL of a page id.
func NotionPageURL(pageID string) string {
	return NotionPageBaseURL + strings.ReplaceAll(pageID, "-", "")
}

func (s *exportService) ExportToNotion(ctx context.Context, userID int64, req models.NotionExportRequest) (*ExportResult, error) {
	toolType := models.ToolType(req.ToolType)
	if !toolType.Valid() {
		return nil, invalidField("toolType", fmt.Sprintf("%q is not a known tool", req.ToolType))
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, &InvalidInputError{Fields: []string{"content"}}
	}
	if s.exporter == nil {
		return nil, &ExportFailedError{Message: "workspace exporter is not configured"}
	}

	parentType := req.ParentType
	if parentType == "" {
		parentType = "database"
	}
	pageID, err := s.exporter.CreatePage(ctx, WorkspacePage{
		Token:      req.NotionToken,
		ParentID:   req.ParentID,
		ParentType: parentType,
		Title:      req.Title,
		Kind:       req.ToolType,
		Content:    req.Content,
	})
	if err != nil {
		s.logger.Warn("Notion export failed",
			zap.Int64("userID", userID), zap.String("toolType", req.ToolType), zap.Error(err))
		return nil, &ExportFailedError{Message: err.Error(), Err: err}
	}
	if pageID == "" {
		return nil, &ExportFailedError{Message: "workspace returned no page id"}
	}

	pageURL := NotionPageURL(pageID)
	historyID, err := s.tools.RecordExport(ctx, userID, toolType, models.FormatNotion, models.ExportContent{
		"title":   req.Title,
		"pageUrl": pageURL,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			return nil, err
		}
		// The page already exists, so the export itself is reported as done.
		s.logger.Error("Failed to record Notion export",
			zap.Int64("userID", userID), zap.String("pageUrl", pageURL), zap.Error(err))
	}

	s.logger.Info("Exported content to Notion",
		zap.Int64("userID", userID), zap.String("toolType", req.ToolType), zap.String("pageUrl", pageURL))
	return &ExportResult{HistoryID: historyID, PageURL: pageURL}, nil
}
