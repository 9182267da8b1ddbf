package models

import "time"

// SubscriptionSnapshot is the subset of a Subscription exposed alongside an entitlement decision.
type SubscriptionSnapshot struct {
	Status    string     `json:"status"`
	StartDate time.Time  `json:"startDate"`
	EndDate   time.Time  `json:"endDate"`
	TrialEnd  *time.Time `json:"trialEnd"`
}

// EntitlementDecision is derived on every request and never persisted.
type EntitlementDecision struct {
	IsPro                bool                  `json:"isPro"`
	TrialDaysLeft        int                   `json:"trialDaysLeft"`
	SubscriptionSnapshot *SubscriptionSnapshot `json:"subscriptionData"`
}

// SnapshotOf builds the exposed snapshot for sub, or nil when there is none.
func SnapshotOf(sub *Subscription) *SubscriptionSnapshot {
	if sub == nil {
		return nil
	}
	return &SubscriptionSnapshot{
		Status:    sub.Status,
		StartDate: sub.CurrentPeriodStart,
		EndDate:   sub.CurrentPeriodEnd,
		TrialEnd:  sub.TrialEndDate,
	}
}
