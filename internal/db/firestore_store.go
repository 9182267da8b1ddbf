package db

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	usersCollection         = "users"
	userEmailsCollection    = "user_emails"
	usernamesCollection     = "user_usernames"
	subscriptionsCollection = "subscriptions"
	historyCollection       = "tool_history"
	countersCollection      = "counters"
)

// uniqueIndexEntry is stored under user_emails/{email} and user_usernames/{username}.
type uniqueIndexEntry struct {
	UserID int64 `firestore:"userId"`
}

type counterDoc struct {
	Next int64 `firestore:"next"`
}

// NewFirestoreStore exposes the Firestore-backed repositories.
// Numeric ids are allocated from counter documents inside transactions.
func NewFirestoreStore(client *firestore.Client, now func() time.Time) Store {
	if now == nil {
		now = time.Now
	}
	base := &firestoreBase{client: client, now: now}
	return Store{
		Users:         &firestoreUserRepository{base},
		Subscriptions: &firestoreSubscriptionRepository{base},
		History:       &firestoreHistoryRepository{base},
	}
}

type firestoreBase struct {
	client *firestore.Client
	now    func() time.Time
}

func docID(id int64) string { return strconv.FormatInt(id, 10) }

func lowerKey(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// counterRef returns the counter document backing ids for collection.
func (b *firestoreBase) counterRef(collection string) *firestore.DocumentRef {
	return b.client.Collection(countersCollection).Doc(collection)
}

// readCounter must run before any write in tx.
func readCounter(tx *firestore.Transaction, ref *firestore.DocumentRef) (int64, error) {
	snap, err := tx.Get(ref)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return 1, nil
		}
		return 0, fmt.Errorf("failed to read counter %s: %w", ref.ID, err)
	}
	var c counterDoc
	if err := snap.DataTo(&c); err != nil {
		return 0, fmt.Errorf("failed to decode counter %s: %w", ref.ID, err)
	}
	if c.Next < 1 {
		return 1, nil
	}
	return c.Next, nil
}

// createWithID allocates the next id for collection and writes build(id) under it.
func (b *firestoreBase) createWithID(ctx context.Context, collection string, build func(id int64) any) (int64, error) {
	var allocated int64
	err := b.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		counter := b.counterRef(collection)
		next, err := readCounter(tx, counter)
		if err != nil {
			return err
		}
		if err := tx.Set(counter, counterDoc{Next: next + 1}); err != nil {
			return err
		}
		allocated = next
		return tx.Create(b.client.Collection(collection).Doc(docID(next)), build(next))
	})
	if err != nil {
		return 0, err
	}
	return allocated, nil
}

func notFoundOr(err error, what string) error {
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("failed to read %s: %w", what, err)
}
