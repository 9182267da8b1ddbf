package core

import (
	"context"
	"time"

	"lyra-backend-go/internal/models"
)

// Claims are the verified identity attributes supplied by the identity provider.
type Claims struct {
	UID          string
	Email        string
	DisplayName  string
	PhotoURL     string
	SignInMethod string
}

// UserService defines principal lookup and first-login provisioning.
type UserService interface {
	// FindOrCreate returns the principal owning claims.Email, creating it on first login.
	FindOrCreate(ctx context.Context, claims Claims) (*models.User, bool, error)
	GetByID(ctx context.Context, userID int64) (*models.User, error)
}

// EntitlementService computes a principal's current access level.
type EntitlementService interface {
	Resolve(ctx context.Context, userID int64) (*models.EntitlementDecision, error)
}

// ToolService runs tool invocations and records exports.
type ToolService interface {
	Invoke(ctx context.Context, userID int64, input models.ToolInput) (*models.ToolResult, error)
	RecordExport(ctx context.Context, userID int64, toolType models.ToolType, format string, content models.ExportContent) (int64, error)
	History(ctx context.Context, userID int64, toolType models.ToolType) ([]*models.ToolHistory, error)
}

// BillingService drives subscription checkout and provider status updates.
type BillingService interface {
	CreateSubscription(ctx context.Context, userID int64) (*CheckoutResult, error)
	HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) error
	Configured() bool
}

// ExportService delivers generated content to an external workspace.
type ExportService interface {
	ExportToNotion(ctx context.Context, userID int64, req models.NotionExportRequest) (*ExportResult, error)
}

// CheckoutResult is returned from CreateSubscription.
type CheckoutResult struct {
	SubscriptionID string `json:"subscriptionId"`
	ClientSecret   string `json:"clientSecret"`
}

// ExportResult is returned from a workspace export.
type ExportResult struct {
	HistoryID int64  `json:"historyId"`
	PageURL   string `json:"pageUrl"`
}

// --- External collaborators ---

// GenerationRequest is a single completion request.
type GenerationRequest struct {
	Prompt      string
	Temperature float32
	Candidates  int
}

// TextGenerator is the language model provider.
type TextGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

// CustomerParams describes a billing customer to create.
type CustomerParams struct {
	Email  string
	Name   string
	UserID int64
}

// SubscriptionParams describes a billing subscription to create.
type SubscriptionParams struct {
	CustomerID string
	PriceID    string
	TrialDays  int64
}

// ProviderSubscription is the billing provider's view of a subscription.
type ProviderSubscription struct {
	ID                 string
	Status             string
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	TrialEnd           *time.Time
	CancelAtPeriodEnd  bool
	// ClientSecret confirms the first payment or, during a trial, the pending setup intent.
	ClientSecret string
}

// BillingEvent is a verified webhook notification.
type BillingEvent struct {
	Type         string
	Subscription *ProviderSubscription
}

// PaymentGateway is the billing provider.
type PaymentGateway interface {
	CreateCustomer(ctx context.Context, params CustomerParams) (string, error)
	CreateSubscription(ctx context.Context, params SubscriptionParams) (*ProviderSubscription, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*ProviderSubscription, error)
	ParseWebhook(payload []byte, signatureHeader string) (*BillingEvent, error)
}

// WorkspacePage is one page to create in the workspace tool.
type WorkspacePage struct {
	Token      string
	ParentID   string
	ParentType string // "database" or "page"
	Title      string
	Kind       string // tool type, set as the Type select in database parents
	Content    string
}

// WorkspaceExporter is the third-party workspace API.
type WorkspaceExporter interface {
	// CreatePage returns the id of the new page.
	CreatePage(ctx context.Context, page WorkspacePage) (string, error)
}

// ActivityEvent describes a completed user action.
type ActivityEvent struct {
	Type      string          `json:"type"`
	UserID    int64           `json:"userId"`
	ToolType  models.ToolType `json:"toolType,omitempty"`
	HistoryID int64           `json:"historyId,omitempty"`
	Format    string          `json:"format,omitempty"`
	At        time.Time       `json:"at"`
}

// Activity event types.
const (
	EventToolGenerated       = "tool.generated"
	EventToolExported        = "tool.exported"
	EventSubscriptionCreated = "subscription.created"
)

// ActivityPublisher forwards activity events to downstream consumers.
type ActivityPublisher interface {
	Publish(ctx context.Context, event ActivityEvent) error
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ActivityEvent) error { return nil }
