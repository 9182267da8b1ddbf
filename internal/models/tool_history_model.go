package models

import "time"

// ToolType identifies one content-generation tool.
type ToolType string

const (
	ToolProposal   ToolType = "proposal"
	ToolEmail      ToolType = "email"
	ToolPricing    ToolType = "pricing"
	ToolContract   ToolType = "contract"
	ToolBrief      ToolType = "brief"
	ToolOnboarding ToolType = "onboarding"
)

// ToolTypes lists every known tool in display order.
var ToolTypes = []ToolType{ToolProposal, ToolEmail, ToolPricing, ToolContract, ToolBrief, ToolOnboarding}

// Valid reports whether t is one of the known tools.
func (t ToolType) Valid() bool {
	for _, known := range ToolTypes {
		if t == known {
			return true
		}
	}
	return false
}

// History actions.
const (
	ActionGenerate = "generate"
	ActionExport   = "export"
)

// Export formats.
const (
	FormatPDF    = "PDF"
	FormatNotion = "Notion"
)

// ValidExportFormat reports whether format names a supported export destination.
func ValidExportFormat(format string) bool {
	return format == FormatPDF || format == FormatNotion
}

// ToolHistory is an immutable record of one generate or export action.
// Output is non-empty for generate actions; Format is set only for exports.
type ToolHistory struct {
	ID             int64     `json:"id" firestore:"id"`
	UserID         int64     `json:"userId" firestore:"userId"`
	ToolType       ToolType  `json:"toolType" firestore:"toolType"`
	Action         string    `json:"action" firestore:"action"`
	Format         *string   `json:"format" firestore:"format,omitempty"`
	Input          string    `json:"input" firestore:"input"`
	Output         string    `json:"output" firestore:"output"`
	GenerationTime *int      `json:"generationTime" firestore:"generationTime,omitempty"` // whole seconds
	Metadata       *string   `json:"metadata" firestore:"metadata,omitempty"`
	CreatedAt      time.Time `json:"createdAt" firestore:"createdAt"`
}
