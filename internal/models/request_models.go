package models

import (
	"bytes"
	"encoding/json"
	"reflect"
)

// ToolInput is implemented by the typed request body of each tool.
// Required fields carry `validate:"required,notblank"` and are checked before any generation.
// A whitespace-only value counts as missing.
type ToolInput interface {
	ToolType() ToolType
	// HistoryInput returns the serialized form archived with the history record.
	HistoryInput() (string, error)
}

// ProposalInput is the request body of the proposal writer.
type ProposalInput struct {
	Title     string `json:"title" validate:"required,notblank"`
	Industry  string `json:"industry" validate:"required,notblank"`
	Scope     string `json:"scope" validate:"required,notblank"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
	MinBudget Amount `json:"minBudget,omitempty"`
	MaxBudget Amount `json:"maxBudget,omitempty"`
	Tone      string `json:"tone,omitempty"`
}

func (ProposalInput) ToolType() ToolType { return ToolProposal }

func (in ProposalInput) HistoryInput() (string, error) { return marshalInput(in) }

// EmailInput is the request body of the email rewriter.
type EmailInput struct {
	OriginalEmail string `json:"originalEmail" validate:"required,notblank"`
	Tone          string `json:"tone,omitempty"`
	Context       string `json:"context,omitempty"`
}

func (EmailInput) ToolType() ToolType { return ToolEmail }

func (in EmailInput) HistoryInput() (string, error) { return marshalInput(in) }

// PricingInput is the request body of the pricing assistant.
type PricingInput struct {
	ProjectType string `json:"projectType" validate:"required,notblank"`
	Scope       string `json:"scope" validate:"required,notblank"`
	Timeline    string `json:"timeline,omitempty"`
	Experience  string `json:"experience,omitempty"`
	Region      string `json:"region,omitempty"`
}

func (PricingInput) ToolType() ToolType { return ToolPricing }

func (in PricingInput) HistoryInput() (string, error) { return marshalInput(in) }

// ContractInput is the request body of the contract explainer.
type ContractInput struct {
	ContractText string   `json:"contractText" validate:"required,notblank"`
	FocusAreas   []string `json:"focusAreas,omitempty"`
}

func (ContractInput) ToolType() ToolType { return ToolContract }

func (in ContractInput) HistoryInput() (string, error) { return marshalInput(in) }

// BriefInput is the request body of voice-to-brief. Its history input is the raw text.
type BriefInput struct {
	Text string `json:"text" validate:"required,notblank"`
}

func (BriefInput) ToolType() ToolType { return ToolBrief }

func (in BriefInput) HistoryInput() (string, error) { return in.Text, nil }

// OnboardingInput is the request body of the client onboarding tool.
type OnboardingInput struct {
	ClientName     string `json:"clientName" validate:"required,notblank"`
	BusinessType   string `json:"businessType" validate:"required,notblank"`
	ProjectType    string `json:"projectType" validate:"required,notblank"`
	Timeline       string `json:"timeline,omitempty"`
	Budget         Amount `json:"budget,omitempty"`
	Tone           string `json:"tone,omitempty"`
	AdditionalInfo string `json:"additionalInfo,omitempty"`
}

func (OnboardingInput) ToolType() ToolType { return ToolOnboarding }

func (in OnboardingInput) HistoryInput() (string, error) { return marshalInput(in) }

// Amount is a money value sent either as a JSON string or a JSON number.
// Numbers keep their literal text, so 1000 and "1000" decode alike.
type Amount string

func (a *Amount) UnmarshalJSON(b []byte) error {
	raw := bytes.TrimSpace(b)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		*a = ""
		return nil
	}
	switch c := raw[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		*a = Amount(s)
	case c == '-' || (c >= '0' && c <= '9'):
		*a = Amount(raw)
	default:
		return &json.UnmarshalTypeError{Value: jsonKind(c), Type: reflect.TypeOf(*a)}
	}
	return nil
}

func jsonKind(c byte) string {
	switch c {
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "bool"
	}
	return "value"
}

func marshalInput(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ToolResult is returned for every successful generation.
// GenerationTime is the unrounded elapsed time in seconds.
type ToolResult struct {
	Text           string  `json:"text"`
	GenerationTime float64 `json:"generationTime"`
}

// ExportContent is the free-form payload a client attaches to an export record.
type ExportContent map[string]any

// PageURL returns the destination URL carried by the content, if any.
func (c ExportContent) PageURL() string {
	if c == nil {
		return ""
	}
	url, _ := c["pageUrl"].(string)
	return url
}

// RecordHistoryRequest is the body of POST /api/history.
type RecordHistoryRequest struct {
	ToolType string        `json:"toolType" binding:"required"`
	Action   string        `json:"action" binding:"required,eq=export"`
	Format   string        `json:"format" binding:"required,oneof=PDF Notion"`
	Content  ExportContent `json:"content"`
}

// NotionExportRequest is the body of POST /api/export/notion.
type NotionExportRequest struct {
	ToolType    string `json:"toolType" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Content     string `json:"content" binding:"required"`
	NotionToken string `json:"notionToken" binding:"required"`
	ParentID    string `json:"parentId" binding:"required"`
	ParentType  string `json:"parentType" binding:"omitempty,oneof=database page"`
}
