package db

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"lyra-backend-go/internal/models"
)

type firestoreHistoryRepository struct{ *firestoreBase }

func (r *firestoreHistoryRepository) Create(ctx context.Context, entry *models.ToolHistory) (*models.ToolHistory, error) {
	var stored models.ToolHistory
	_, err := r.createWithID(ctx, historyCollection, func(id int64) any {
		stored = *entry
		stored.ID = id
		stored.CreatedAt = r.now().UTC()
		return &stored
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s history for user %d: %w", entry.ToolType, entry.UserID, err)
	}
	return &stored, nil
}

func (r *firestoreHistoryRepository) ListByUser(ctx context.Context, userID int64, toolType models.ToolType) ([]*models.ToolHistory, error) {
	q := r.client.Collection(historyCollection).Where("userId", "==", userID)
	if toolType != "" {
		q = q.Where("toolType", "==", string(toolType))
	}
	snaps, err := q.OrderBy("createdAt", firestore.Desc).OrderBy("id", firestore.Desc).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list history for user %d: %w", userID, err)
	}

	out := make([]*models.ToolHistory, 0, len(snaps))
	for _, snap := range snaps {
		var h models.ToolHistory
		if err := snap.DataTo(&h); err != nil {
			return nil, fmt.Errorf("failed to decode history %s: %w", snap.Ref.ID, err)
		}
		out = append(out, &h)
	}
	return out, nil
}
