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

// firestoreUserRepository implements UserRepository on Firestore.
// Email and username uniqueness is enforced by index documents written in the
// same transaction as the user document.
type firestoreUserRepository struct{ *firestoreBase }

func (r *firestoreUserRepository) userRef(id int64) *firestore.DocumentRef {
	return r.client.Collection(usersCollection).Doc(docID(id))
}

func (r *firestoreUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	snap, err := r.userRef(id).Get(ctx)
	if err != nil {
		return nil, notFoundOr(err, fmt.Sprintf("user %d", id))
	}
	return decodeUser(snap)
}

func (r *firestoreUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getByIndex(ctx, userEmailsCollection, models.NormalizeEmail(email), "email "+email)
}

func (r *firestoreUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getByIndex(ctx, usernamesCollection, lowerKey(username), "username "+username)
}

func (r *firestoreUserRepository) getByIndex(ctx context.Context, collection, key, what string) (*models.User, error) {
	if key == "" {
		return nil, fmt.Errorf("user with %s: %w", what, ErrNotFound)
	}
	snap, err := r.client.Collection(collection).Doc(key).Get(ctx)
	if err != nil {
		return nil, notFoundOr(err, "user with "+what)
	}
	var idx uniqueIndexEntry
	if err := snap.DataTo(&idx); err != nil {
		return nil, fmt.Errorf("failed to decode index for %s: %w", what, err)
	}
	return r.GetByID(ctx, idx.UserID)
}

func (r *firestoreUserRepository) GetByProviderID(ctx context.Context, providerID string) (*models.User, error) {
	iter := r.client.Collection(usersCollection).
		Where("providerId", "==", providerID).
		OrderBy("id", firestore.Asc).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, fmt.Errorf("user with provider id %q: %w", providerID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user by provider id: %w", err)
	}
	return decodeUser(snap)
}

func (r *firestoreUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	created, _, err := r.insert(ctx, user, false)
	return created, err
}

func (r *firestoreUserRepository) FindOrCreateByEmail(ctx context.Context, user *models.User) (*models.User, bool, error) {
	return r.insert(ctx, user, true)
}

// insert creates user inside a transaction. With findExisting it returns the
// current owner of the email instead of failing, and suffixes a taken username.
func (r *firestoreUserRepository) insert(ctx context.Context, user *models.User, findExisting bool) (*models.User, bool, error) {
	var result *models.User
	var created bool

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		result, created = nil, false

		emailRef := r.client.Collection(userEmailsCollection).Doc(models.NormalizeEmail(user.Email))
		emailSnap, err := tx.Get(emailRef)
		switch {
		case err == nil:
			if !findExisting {
				return fmt.Errorf("email %q: %w", user.Email, ErrDuplicate)
			}
			var idx uniqueIndexEntry
			if err := emailSnap.DataTo(&idx); err != nil {
				return err
			}
			userSnap, err := tx.Get(r.userRef(idx.UserID))
			if err != nil {
				return notFoundOr(err, fmt.Sprintf("user %d", idx.UserID))
			}
			result, err = decodeUser(userSnap)
			return err
		case status.Code(err) != codes.NotFound:
			return fmt.Errorf("failed to read email index: %w", err)
		}

		base := user.Username
		if base == "" {
			base = models.UsernameFromEmail(user.Email)
		}
		username := base
		for n := 2; ; n++ {
			_, err := tx.Get(r.client.Collection(usernamesCollection).Doc(lowerKey(username)))
			if status.Code(err) == codes.NotFound {
				break
			}
			if err != nil {
				return fmt.Errorf("failed to read username index: %w", err)
			}
			if !findExisting {
				return fmt.Errorf("username %q: %w", username, ErrDuplicate)
			}
			username = fmt.Sprintf("%s%d", base, n)
		}

		counter := r.counterRef(usersCollection)
		id, err := readCounter(tx, counter)
		if err != nil {
			return err
		}

		stored := *user
		stored.ID = id
		stored.Username = username
		stored.CreatedAt = r.now().UTC()
		trialEnd := stored.CreatedAt.Add(models.TrialPeriod)
		stored.TrialEndsAt = &trialEnd

		if err := tx.Set(counter, counterDoc{Next: id + 1}); err != nil {
			return err
		}
		if err := tx.Create(r.userRef(id), &stored); err != nil {
			return err
		}
		if err := tx.Create(emailRef, uniqueIndexEntry{UserID: id}); err != nil {
			return err
		}
		if err := tx.Create(r.client.Collection(usernamesCollection).Doc(lowerKey(username)), uniqueIndexEntry{UserID: id}); err != nil {
			return err
		}
		result, created = &stored, true
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to create user %q: %w", user.Email, err)
	}
	return result, created, nil
}

// Update rewrites the user document. Email and username changes are not
// re-indexed; principals keep the identity they signed up with.
func (r *firestoreUserRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	ref := r.userRef(user.ID)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return notFoundOr(err, fmt.Sprintf("user %d", user.ID))
		}
		existing, err := decodeUser(snap)
		if err != nil {
			return err
		}
		if models.NormalizeEmail(existing.Email) != models.NormalizeEmail(user.Email) ||
			lowerKey(existing.Username) != lowerKey(user.Username) {
			return fmt.Errorf("user %d: changing email or username is not supported", user.ID)
		}
		return tx.Set(ref, user)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update user %d: %w", user.ID, err)
	}
	return r.GetByID(ctx, user.ID)
}

func (r *firestoreUserRepository) UpdateStripeCustomerID(ctx context.Context, id int64, customerID string) (*models.User, error) {
	return r.updateFields(ctx, id, []firestore.Update{{Path: "stripeCustomerId", Value: customerID}})
}

func (r *firestoreUserRepository) UpdateStripeInfo(ctx context.Context, id int64, info models.StripeInfo) (*models.User, error) {
	return r.updateFields(ctx, id, []firestore.Update{
		{Path: "stripeCustomerId", Value: info.CustomerID},
		{Path: "stripeSubscriptionId", Value: info.SubscriptionID},
	})
}

func (r *firestoreUserRepository) updateFields(ctx context.Context, id int64, updates []firestore.Update) (*models.User, error) {
	if _, err := r.userRef(id).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update user %d: %w", id, err)
	}
	return r.GetByID(ctx, id)
}

func decodeUser(snap *firestore.DocumentSnapshot) (*models.User, error) {
	var u models.User
	if err := snap.DataTo(&u); err != nil {
		return nil, fmt.Errorf("failed to decode user %s: %w", snap.Ref.ID, err)
	}
	return &u, nil
}
