package models

import (
	"strings"
	"time"
)

// TrialPeriod is the length of the free Pro trial granted at signup.
const TrialPeriod = 3 * 24 * time.Hour

// User represents a principal in the system.
// Email and Username are unique, compared case-insensitively.
type User struct {
	ID                   int64      `json:"id" firestore:"id"`
	Username             string     `json:"username" firestore:"username"`
	Email                string     `json:"email" firestore:"email"`
	Password             *string    `json:"-" firestore:"password,omitempty"` // nil for federated accounts
	AuthProvider         string     `json:"authProvider" firestore:"authProvider"`
	ProviderID           string     `json:"providerId,omitempty" firestore:"providerId,omitempty"`
	DisplayName          string     `json:"displayName,omitempty" firestore:"displayName,omitempty"`
	PhotoURL             string     `json:"photoURL,omitempty" firestore:"photoURL,omitempty"`
	StripeCustomerID     string     `json:"stripeCustomerId,omitempty" firestore:"stripeCustomerId,omitempty"`
	StripeSubscriptionID string     `json:"stripeSubscriptionId,omitempty" firestore:"stripeSubscriptionId,omitempty"`
	TrialEndsAt          *time.Time `json:"trialEndsAt,omitempty" firestore:"trialEndsAt,omitempty"`
	CreatedAt            time.Time  `json:"createdAt" firestore:"createdAt"`
}

// NormalizeEmail returns the lookup key used for email uniqueness.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UsernameFromEmail derives the default username from the local part of an email address.
func UsernameFromEmail(email string) string {
	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	if local == "" {
		return "user"
	}
	return local
}

// StripeInfo carries the billing references attached to a user once checkout starts.
type StripeInfo struct {
	CustomerID     string
	SubscriptionID string
}
