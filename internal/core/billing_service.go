package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"lyra-backend-go/internal/db"
	"lyra-backend-go/internal/models"
)

// TrialDays is the trial granted on new billing subscriptions.
const TrialDays = 3

var (
	// ErrWebhookSignature is returned when a webhook payload fails verification.
	ErrWebhookSignature = errors.New("billing webhook signature verification failed")
)

// Billing webhook event types that change subscription state.
const (
	EventSubscriptionUpdatedHook = "customer.subscription.updated"
	EventSubscriptionDeletedHook = "customer.subscription.deleted"
	EventSubscriptionCreatedHook = "customer.subscription.created"
)

type billingService struct {
	gateway       PaymentGateway
	priceID       string
	users         db.UserRepository
	subscriptions db.SubscriptionRepository
	publisher     ActivityPublisher
	now           func() time.Time
	logger        *zap.Logger
}

// BillingDeps groups the billing service's collaborators.
type BillingDeps struct {
	Gateway       PaymentGateway // nil when billing keys are not configured
	PriceID       string
	Users         db.UserRepository
	Subscriptions db.SubscriptionRepository
	Publisher     ActivityPublisher
	Logger        *zap.Logger
}

// NewBillingService creates the checkout and webhook service.
func NewBillingService(deps BillingDeps) BillingService {
	s := &billingService{
		gateway:       deps.Gateway,
		priceID:       deps.PriceID,
		users:         deps.Users,
		subscriptions: deps.Subscriptions,
		publisher:     deps.Publisher,
		now:           time.Now,
		logger:        deps.Logger,
	}
	if s.publisher == nil {
		s.publisher = NopPublisher{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

func (s *billingService) Configured() bool {
	return s.gateway != nil && s.priceID != ""
}

// CreateSubscription starts Pro checkout for the principal. A subscription that
// is still open is reused; otherwise a customer (if needed) and a trialing
// subscription are created and the local records updated.
func (s *billingService) CreateSubscription(ctx context.Context, userID int64) (*CheckoutResult, error) {
	if !s.Configured() {
		return nil, fmt.Errorf("%w: billing provider keys are not configured", ErrBillingUnavailable)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %d", ErrPrincipalNotFound, userID)
		}
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}

	if user.StripeSubscriptionID != "" {
		existing, err := s.gateway.GetSubscription(ctx, user.StripeSubscriptionID)
		switch {
		case err != nil:
			s.logger.Warn("Failed to retrieve existing subscription, creating a new one",
				zap.Int64("userID", userID),
				zap.String("stripeSubscriptionID", user.StripeSubscriptionID),
				zap.Error(err))
		case existing.Status != models.SubscriptionStatusCanceled && existing.ClientSecret != "":
			return &CheckoutResult{SubscriptionID: existing.ID, ClientSecret: existing.ClientSecret}, nil
		}
	}

	customerID := user.StripeCustomerID
	if customerID == "" {
		name := user.DisplayName
		if name == "" {
			name = user.Username
		}
		customerID, err = s.gateway.CreateCustomer(ctx, CustomerParams{Email: user.Email, Name: name, UserID: user.ID})
		if err != nil {
			return nil, fmt.Errorf("%w: failed to create customer: %v", ErrBillingUnavailable, err)
		}
		if _, err := s.users.UpdateStripeCustomerID(ctx, user.ID, customerID); err != nil {
			return nil, fmt.Errorf("failed to store customer id for user %d: %w", user.ID, err)
		}
	}

	sub, err := s.gateway.CreateSubscription(ctx, SubscriptionParams{
		CustomerID: customerID,
		PriceID:    s.priceID,
		TrialDays:  TrialDays,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create subscription: %v", ErrBillingUnavailable, err)
	}

	if _, err := s.users.UpdateStripeInfo(ctx, user.ID, models.StripeInfo{CustomerID: customerID, SubscriptionID: sub.ID}); err != nil {
		return nil, fmt.Errorf("failed to store billing references for user %d: %w", user.ID, err)
	}
	if err := s.saveSubscription(ctx, user.ID, sub); err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(ctx, ActivityEvent{Type: EventSubscriptionCreated, UserID: user.ID, At: s.now()}); err != nil {
		s.logger.Warn("Failed to publish activity event", zap.String("type", EventSubscriptionCreated), zap.Error(err))
	}
	s.logger.Info("Created billing subscription",
		zap.Int64("userID", user.ID),
		zap.String("stripeSubscriptionID", sub.ID),
		zap.String("status", sub.Status))

	return &CheckoutResult{SubscriptionID: sub.ID, ClientSecret: sub.ClientSecret}, nil
}

// saveSubscription keeps one record per principal: the existing record, if any,
// is rewritten so lookups by owner always see the current subscription.
func (s *billingService) saveSubscription(ctx context.Context, userID int64, sub *ProviderSubscription) error {
	record := &models.Subscription{
		UserID:               userID,
		StripeSubscriptionID: sub.ID,
		Status:               sub.Status,
		Plan:                 models.PlanPro,
		CurrentPeriodStart:   sub.CurrentPeriodStart,
		CurrentPeriodEnd:     sub.CurrentPeriodEnd,
		TrialEndDate:         sub.TrialEnd,
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
	}

	existing, err := s.subscriptions.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		record.ID = existing.ID
		if _, err := s.subscriptions.Update(ctx, record); err != nil {
			return fmt.Errorf("failed to update subscription record for user %d: %w", userID, err)
		}
	case errors.Is(err, db.ErrNotFound):
		if _, err := s.subscriptions.Create(ctx, record); err != nil {
			return fmt.Errorf("failed to create subscription record for user %d: %w", userID, err)
		}
	default:
		return fmt.Errorf("failed to load subscription record for user %d: %w", userID, err)
	}
	return nil
}

// HandleWebhook applies provider-reported subscription changes to the local record.
func (s *billingService) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) error {
	if s.gateway == nil {
		return fmt.Errorf("%w: billing provider keys are not configured", ErrBillingUnavailable)
	}
	event, err := s.gateway.ParseWebhook(payload, signatureHeader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWebhookSignature, err)
	}

	switch event.Type {
	case EventSubscriptionCreatedHook, EventSubscriptionUpdatedHook, EventSubscriptionDeletedHook:
	default:
		s.logger.Debug("Ignoring billing webhook event", zap.String("type", event.Type))
		return nil
	}
	if event.Subscription == nil {
		return fmt.Errorf("%w: %s event has no subscription", ErrInvalidInput, event.Type)
	}

	record, err := s.subscriptions.GetByStripeSubscriptionID(ctx, event.Subscription.ID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.logger.Warn("Billing webhook for unknown subscription",
				zap.String("type", event.Type), zap.String("stripeSubscriptionID", event.Subscription.ID))
			return nil
		}
		return fmt.Errorf("failed to load subscription %q: %w", event.Subscription.ID, err)
	}

	previous := record.Status
	record.Status = event.Subscription.Status
	if event.Type == EventSubscriptionDeletedHook {
		record.Status = models.SubscriptionStatusCanceled
	}
	if !event.Subscription.CurrentPeriodStart.IsZero() {
		record.CurrentPeriodStart = event.Subscription.CurrentPeriodStart
	}
	if !event.Subscription.CurrentPeriodEnd.IsZero() {
		record.CurrentPeriodEnd = event.Subscription.CurrentPeriodEnd
	}
	record.TrialEndDate = event.Subscription.TrialEnd
	record.CancelAtPeriodEnd = event.Subscription.CancelAtPeriodEnd

	if _, err := s.subscriptions.Update(ctx, record); err != nil {
		return fmt.Errorf("failed to update subscription %q: %w", record.StripeSubscriptionID, err)
	}
	s.logger.Info("Subscription status updated from billing webhook",
		zap.Int64("userID", record.UserID),
		zap.String("stripeSubscriptionID", record.StripeSubscriptionID),
		zap.String("from", previous),
		zap.String("to", record.Status))
	return nil
}
