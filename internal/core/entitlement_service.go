package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"lyra-backend-go/internal/db"
	"lyra-backend-go/internal/models"
)

const day = 24 * time.Hour

type entitlementService struct {
	users         db.UserRepository
	subscriptions db.SubscriptionRepository
	policy        EntitlementOverridePolicy
	now           func() time.Time
	logger        *zap.Logger
}

// EntitlementOption configures the entitlement service.
type EntitlementOption func(*entitlementService)

// WithOverridePolicy installs p in place of NoOverridePolicy.
func WithOverridePolicy(p EntitlementOverridePolicy) EntitlementOption {
	return func(s *entitlementService) {
		if p != nil {
			s.policy = p
		}
	}
}

// WithEntitlementClock sets the time source.
func WithEntitlementClock(now func() time.Time) EntitlementOption {
	return func(s *entitlementService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewEntitlementService creates the resolver. It only reads from the store.
func NewEntitlementService(users db.UserRepository, subscriptions db.SubscriptionRepository, logger *zap.Logger, opts ...EntitlementOption) EntitlementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &entitlementService{
		users:         users,
		subscriptions: subscriptions,
		policy:        NoOverridePolicy{},
		now:           time.Now,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve computes the principal's entitlement decision.
// An unknown principal yields ErrPrincipalNotFound; it is never defaulted to non-Pro here.
func (s *entitlementService) Resolve(ctx context.Context, userID int64) (*models.EntitlementDecision, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %d", ErrPrincipalNotFound, userID)
		}
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}

	sub, err := s.subscriptions.GetByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("failed to load subscription for user %d: %w", userID, err)
		}
		sub = nil
	}

	now := s.now()
	var isPro bool
	if verdict, ok := s.policy.Override(ctx, user); ok {
		s.logger.Info("Entitlement fixed by override policy",
			zap.Int64("userID", userID),
			zap.Bool("isPro", verdict.IsPro),
			zap.String("reason", verdict.Reason))
		isPro = verdict.IsPro
	} else {
		isPro = computePro(user, sub, now)
	}

	return &models.EntitlementDecision{
		IsPro:                isPro,
		TrialDaysLeft:        trialDaysLeft(user.TrialEndsAt, now),
		SubscriptionSnapshot: models.SnapshotOf(sub),
	}, nil
}

// computePro grants Pro for an active subscription backing the user's billing
// reference, otherwise for as long as the trial has not elapsed.
func computePro(user *models.User, sub *models.Subscription, now time.Time) bool {
	if user.StripeSubscriptionID != "" && sub.IsActive() {
		return true
	}
	if user.TrialEndsAt != nil {
		// Pro ends at trialEndsAt exactly. A whole-day count would keep it for
		// up to 24h past expiry, while an elapsed trial must never grant Pro.
		return !now.After(*user.TrialEndsAt)
	}
	return false
}

// daysUntil rounds the remaining time up to whole days.
func daysUntil(end, now time.Time) int {
	return int(math.Ceil(float64(end.Sub(now)) / float64(day)))
}

func trialDaysLeft(trialEnd *time.Time, now time.Time) int {
	if trialEnd == nil {
		return 0
	}
	if left := daysUntil(*trialEnd, now); left > 0 {
		return left
	}
	return 0
}
