// Package billing implements core.PaymentGateway on Stripe.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"lyra-backend-go/internal/core"
)

// StripeGateway talks to the Stripe API with a single secret key.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

// NewStripeGateway creates a gateway. webhookSecret may be empty, in which
// case every webhook is rejected.
func NewStripeGateway(secretKey, webhookSecret string) (*StripeGateway, error) {
	if secretKey == "" {
		return nil, errors.New("stripe secret key is required")
	}
	return &StripeGateway{api: client.New(secretKey, nil), webhookSecret: webhookSecret}, nil
}

func (g *StripeGateway) CreateCustomer(ctx context.Context, p core.CustomerParams) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(p.Email),
		Name:  stripe.String(p.Name),
	}
	params.Context = ctx
	params.AddMetadata("userId", strconv.FormatInt(p.UserID, 10))

	c, err := g.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe: create customer: %w", err)
	}
	return c.ID, nil
}

func (g *StripeGateway) CreateSubscription(ctx context.Context, p core.SubscriptionParams) (*core.ProviderSubscription, error) {
	params := &stripe.SubscriptionParams{
		Customer:        stripe.String(p.CustomerID),
		Items:           []*stripe.SubscriptionItemsParams{{Price: stripe.String(p.PriceID)}},
		PaymentBehavior: stripe.String("default_incomplete"),
	}
	if p.TrialDays > 0 {
		params.TrialPeriodDays = stripe.Int64(p.TrialDays)
	}
	params.Context = ctx
	expandSecrets(&params.Params)

	sub, err := g.api.Subscriptions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create subscription: %w", err)
	}
	return toProviderSubscription(sub), nil
}

func (g *StripeGateway) GetSubscription(ctx context.Context, subscriptionID string) (*core.ProviderSubscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	expandSecrets(&params.Params)

	sub, err := g.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: get subscription %q: %w", subscriptionID, err)
	}
	return toProviderSubscription(sub), nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes subscription events.
func (g *StripeGateway) ParseWebhook(payload []byte, signatureHeader string) (*core.BillingEvent, error) {
	if g.webhookSecret == "" {
		return nil, errors.New("stripe webhook secret is not configured")
	}
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, err
	}

	out := &core.BillingEvent{Type: string(event.Type)}
	if event.Data == nil || event.Data.Object["object"] != "subscription" {
		return out, nil
	}
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return nil, fmt.Errorf("stripe: decode subscription event: %w", err)
	}
	out.Subscription = toProviderSubscription(&sub)
	return out, nil
}

func expandSecrets(p *stripe.Params) {
	p.AddExpand("latest_invoice.payment_intent")
	p.AddExpand("pending_setup_intent")
}

func toProviderSubscription(sub *stripe.Subscription) *core.ProviderSubscription {
	out := &core.ProviderSubscription{
		ID:                 sub.ID,
		Status:             string(sub.Status),
		CurrentPeriodStart: unixTime(sub.CurrentPeriodStart),
		CurrentPeriodEnd:   unixTime(sub.CurrentPeriodEnd),
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
		ClientSecret:       clientSecret(sub),
	}
	if sub.TrialEnd > 0 {
		t := unixTime(sub.TrialEnd)
		out.TrialEnd = &t
	}
	return out
}

// clientSecret prefers the first invoice's payment intent and falls back to the
// setup intent Stripe creates for trialing subscriptions.
func clientSecret(sub *stripe.Subscription) string {
	if sub.LatestInvoice != nil && sub.LatestInvoice.PaymentIntent != nil && sub.LatestInvoice.PaymentIntent.ClientSecret != "" {
		return sub.LatestInvoice.PaymentIntent.ClientSecret
	}
	if sub.PendingSetupIntent != nil {
		return sub.PendingSetupIntent.ClientSecret
	}
	return ""
}

func unixTime(sec int64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
