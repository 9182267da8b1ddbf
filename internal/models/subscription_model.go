package models

import "time"

// Subscription statuses as reported by the billing provider.
const (
	SubscriptionStatusActive     = "active"
	SubscriptionStatusTrialing   = "trialing"
	SubscriptionStatusCanceled   = "canceled"
	SubscriptionStatusPastDue    = "past_due"
	SubscriptionStatusIncomplete = "incomplete"
	SubscriptionStatusUnpaid     = "unpaid"
)

// PlanPro is the only plan tag currently sold.
const PlanPro = "pro"

// Subscription is one principal's billing relationship.
type Subscription struct {
	ID                   int64      `json:"id" firestore:"id"`
	UserID               int64      `json:"userId" firestore:"userId"`
	StripeSubscriptionID string     `json:"stripeSubscriptionId" firestore:"stripeSubscriptionId"`
	Status               string     `json:"status" firestore:"status"`
	Plan                 string     `json:"plan" firestore:"plan"`
	CurrentPeriodStart   time.Time  `json:"currentPeriodStart" firestore:"currentPeriodStart"`
	CurrentPeriodEnd     time.Time  `json:"currentPeriodEnd" firestore:"currentPeriodEnd"`
	TrialEndDate         *time.Time `json:"trialEndDate,omitempty" firestore:"trialEndDate,omitempty"`
	CancelAtPeriodEnd    bool       `json:"cancelAtPeriodEnd" firestore:"cancelAtPeriodEnd"`
	CreatedAt            time.Time  `json:"createdAt" firestore:"createdAt"`
}

// IsActive reports whether the subscription grants Pro access on its own.
func (s *Subscription) IsActive() bool {
	return s != nil && s.Status == SubscriptionStatusActive
}
