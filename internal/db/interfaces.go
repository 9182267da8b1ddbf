package db

import (
	"context"
	"errors"

	"lyra-backend-go/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique attribute (email, username) is already taken.
	ErrDuplicate = errors.New("record already exists")
)

// UserRepository defines the interface for principal storage operations.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	// GetByEmail matches case-insensitively.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetByUsername matches case-insensitively.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByProviderID(ctx context.Context, providerID string) (*models.User, error)
	// Create assigns ID, CreatedAt and TrialEndsAt (CreatedAt + models.TrialPeriod).
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// FindOrCreateByEmail returns the user owning user.Email, creating it if needed.
	// The lookup and the insert are atomic. The bool reports whether a user was created.
	FindOrCreateByEmail(ctx context.Context, user *models.User) (*models.User, bool, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	UpdateStripeCustomerID(ctx context.Context, id int64, customerID string) (*models.User, error)
	UpdateStripeInfo(ctx context.Context, id int64, info models.StripeInfo) (*models.User, error)
}

// SubscriptionRepository defines the interface for subscription storage operations.
type SubscriptionRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Subscription, error)
	// GetByUserID returns the first subscription created for the user.
	GetByUserID(ctx context.Context, userID int64) (*models.Subscription, error)
	GetByStripeSubscriptionID(ctx context.Context, stripeSubscriptionID string) (*models.Subscription, error)
	Create(ctx context.Context, sub *models.Subscription) (*models.Subscription, error)
	Update(ctx context.Context, sub *models.Subscription) (*models.Subscription, error)
}

// HistoryRepository defines the interface for tool history storage operations.
type HistoryRepository interface {
	Create(ctx context.Context, entry *models.ToolHistory) (*models.ToolHistory, error)
	// ListByUser returns the user's records newest first. An empty toolType matches every tool.
	ListByUser(ctx context.Context, userID int64, toolType models.ToolType) ([]*models.ToolHistory, error)
}

// Store bundles the three repositories the services depend on.
type Store struct {
	Users         UserRepository
	Subscriptions SubscriptionRepository
	History       HistoryRepository
}
