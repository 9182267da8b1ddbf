package db

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"lyra-backend-go/internal/models"
)

type firestoreSubscriptionRepository struct{ *firestoreBase }

func (r *firestoreSubscriptionRepository) GetByID(ctx context.Context, id int64) (*models.Subscription, error) {
	snap, err := r.client.Collection(subscriptionsCollection).Doc(docID(id)).Get(ctx)
	if err != nil {
		return nil, notFoundOr(err, fmt.Sprintf("subscription %d", id))
	}
	return decodeSubscription(snap)
}

func (r *firestoreSubscriptionRepository) GetByUserID(ctx context.Context, userID int64) (*models.Subscription, error) {
	q := r.client.Collection(subscriptionsCollection).Where("userId", "==", userID)
	return r.first(ctx, q, fmt.Sprintf("subscription for user %d", userID))
}

func (r *firestoreSubscriptionRepository) GetByStripeSubscriptionID(ctx context.Context, stripeSubscriptionID string) (*models.Subscription, error) {
	q := r.client.Collection(subscriptionsCollection).Where("stripeSubscriptionId", "==", stripeSubscriptionID)
	return r.first(ctx, q, fmt.Sprintf("subscription %q", stripeSubscriptionID))
}

func (r *firestoreSubscriptionRepository) first(ctx context.Context, q firestore.Query, what string) (*models.Subscription, error) {
	iter := q.OrderBy("id", firestore.Asc).Limit(1).Documents(ctx)
	defer iter.Stop()
	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", what, err)
	}
	return decodeSubscription(snap)
}

func (r *firestoreSubscriptionRepository) Create(ctx context.Context, sub *models.Subscription) (*models.Subscription, error) {
	var stored models.Subscription
	_, err := r.createWithID(ctx, subscriptionsCollection, func(id int64) any {
		stored = *sub
		stored.ID = id
		stored.CreatedAt = r.now().UTC()
		return &stored
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create subscription for user %d: %w", sub.UserID, err)
	}
	return &stored, nil
}

func (r *firestoreSubscriptionRepository) Update(ctx context.Context, sub *models.Subscription) (*models.Subscription, error) {
	ref := r.client.Collection(subscriptionsCollection).Doc(docID(sub.ID))
	_, err := ref.Update(ctx, []firestore.Update{
		{Path: "stripeSubscriptionId", Value: sub.StripeSubscriptionID},
		{Path: "status", Value: sub.Status},
		{Path: "plan", Value: sub.Plan},
		{Path: "currentPeriodStart", Value: sub.CurrentPeriodStart},
		{Path: "currentPeriodEnd", Value: sub.CurrentPeriodEnd},
		{Path: "trialEndDate", Value: sub.TrialEndDate},
		{Path: "cancelAtPeriodEnd", Value: sub.CancelAtPeriodEnd},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("subscription %d: %w", sub.ID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update subscription %d: %w", sub.ID, err)
	}
	return r.GetByID(ctx, sub.ID)
}

func decodeSubscription(snap *firestore.DocumentSnapshot) (*models.Subscription, error) {
	var s models.Subscription
	if err := snap.DataTo(&s); err != nil {
		return nil, fmt.Errorf("failed to decode subscription %s: %w", snap.Ref.ID, err)
	}
	return &s, nil
}
