package api

import "lyra-backend-go/internal/models"

// ErrorResponse is a generic structure for returning errors via API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ToolResponse is returned by every POST /api/tools/* route.
type ToolResponse struct {
	Text           string  `json:"text"`
	GenerationTime float64 `json:"generationTime"`
}

// HistoryResponse lists history records newest first.
type HistoryResponse struct {
	History []*models.ToolHistory `json:"history"`
}

// RecordHistoryResponse acknowledges POST /api/history.
type RecordHistoryResponse struct {
	Success   bool  `json:"success"`
	HistoryID int64 `json:"historyId"`
}

// NotionExportResponse acknowledges POST /api/export/notion.
type NotionExportResponse struct {
	Success   bool   `json:"success"`
	HistoryID int64  `json:"historyId"`
	PageURL   string `json:"pageUrl"`
}

// WebhookResponse acknowledges a billing webhook.
type WebhookResponse struct {
	Received bool `json:"received"`
}

// StatusResponse reports which optional integrations are ready.
type StatusResponse struct {
	Service string `json:"service"`
	Store   string `json:"store"`
	LLM     bool   `json:"llm"`
	Billing bool   `json:"billing"`
}
