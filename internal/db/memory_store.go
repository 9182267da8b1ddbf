package db

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"lyra-backend-go/internal/models"
)

// MemoryStore is an in-process record store keyed by monotonically increasing ids.
// All three repositories share one lock, so find-or-create by email is atomic.
type MemoryStore struct {
	mu  sync.RWMutex
	now func() time.Time

	users         map[int64]*models.User
	subscriptions map[int64]*models.Subscription
	history       map[int64]*models.ToolHistory

	nextUserID         int64
	nextSubscriptionID int64
	nextHistoryID      int64
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the time source used for CreatedAt and trial computation.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemoryStore creates an empty store. Each call returns an independent instance.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		now:                time.Now,
		users:              make(map[int64]*models.User),
		subscriptions:      make(map[int64]*models.Subscription),
		history:            make(map[int64]*models.ToolHistory),
		nextUserID:         1,
		nextSubscriptionID: 1,
		nextHistoryID:      1,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Store exposes the repositories backed by m.
func (m *MemoryStore) Store() Store {
	return Store{
		Users:         &memoryUserRepository{m},
		Subscriptions: &memorySubscriptionRepository{m},
		History:       &memoryHistoryRepository{m},
	}
}

// HistoryCount returns the number of history records across all users.
func (m *MemoryStore) HistoryCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.history)
}

// UserCount returns the number of stored users.
func (m *MemoryStore) UserCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}

// --- users ---

type memoryUserRepository struct{ m *MemoryStore }

func (r *memoryUserRepository) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return cloneUser(u), nil
}

func (r *memoryUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	if u := r.m.findUserByEmailLocked(email); u != nil {
		return cloneUser(u), nil
	}
	return nil, fmt.Errorf("user with email %q: %w", email, ErrNotFound)
}

func (r *memoryUserRepository) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	if u := r.m.findUserByUsernameLocked(username); u != nil {
		return cloneUser(u), nil
	}
	return nil, fmt.Errorf("user with username %q: %w", username, ErrNotFound)
}

func (r *memoryUserRepository) GetByProviderID(_ context.Context, providerID string) (*models.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, id := range r.m.sortedUserIDsLocked() {
		if u := r.m.users[id]; providerID != "" && u.ProviderID == providerID {
			return cloneUser(u), nil
		}
	}
	return nil, fmt.Errorf("user with provider id %q: %w", providerID, ErrNotFound)
}

func (r *memoryUserRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.findUserByEmailLocked(user.Email) != nil {
		return nil, fmt.Errorf("email %q: %w", user.Email, ErrDuplicate)
	}
	if r.m.findUserByUsernameLocked(user.Username) != nil {
		return nil, fmt.Errorf("username %q: %w", user.Username, ErrDuplicate)
	}
	return cloneUser(r.m.insertUserLocked(user)), nil
}

func (r *memoryUserRepository) FindOrCreateByEmail(_ context.Context, user *models.User) (*models.User, bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if existing := r.m.findUserByEmailLocked(user.Email); existing != nil {
		return cloneUser(existing), false, nil
	}

	candidate := *user
	base := candidate.Username
	if base == "" {
		base = models.UsernameFromEmail(candidate.Email)
	}
	candidate.Username = base
	for n := 2; r.m.findUserByUsernameLocked(candidate.Username) != nil; n++ {
		candidate.Username = fmt.Sprintf("%s%d", base, n)
	}
	return cloneUser(r.m.insertUserLocked(&candidate)), true, nil
}

func (r *memoryUserRepository) Update(_ context.Context, user *models.User) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[user.ID]; !ok {
		return nil, fmt.Errorf("user %d: %w", user.ID, ErrNotFound)
	}
	if other := r.m.findUserByEmailLocked(user.Email); other != nil && other.ID != user.ID {
		return nil, fmt.Errorf("email %q: %w", user.Email, ErrDuplicate)
	}
	if other := r.m.findUserByUsernameLocked(user.Username); other != nil && other.ID != user.ID {
		return nil, fmt.Errorf("username %q: %w", user.Username, ErrDuplicate)
	}
	stored := cloneUser(user)
	r.m.users[user.ID] = stored
	return cloneUser(stored), nil
}

func (r *memoryUserRepository) UpdateStripeCustomerID(_ context.Context, id int64, customerID string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	u.StripeCustomerID = customerID
	return cloneUser(u), nil
}

func (r *memoryUserRepository) UpdateStripeInfo(_ context.Context, id int64, info models.StripeInfo) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	u.StripeCustomerID = info.CustomerID
	u.StripeSubscriptionID = info.SubscriptionID
	return cloneUser(u), nil
}

func (m *MemoryStore) insertUserLocked(user *models.User) *models.User {
	stored := cloneUser(user)
	stored.ID = m.nextUserID
	m.nextUserID++
	stored.CreatedAt = m.now()
	trialEnd := stored.CreatedAt.Add(models.TrialPeriod)
	stored.TrialEndsAt = &trialEnd
	m.users[stored.ID] = stored
	return stored
}

func (m *MemoryStore) findUserByEmailLocked(email string) *models.User {
	key := models.NormalizeEmail(email)
	for _, id := range m.sortedUserIDsLocked() {
		if u := m.users[id]; models.NormalizeEmail(u.Email) == key {
			return u
		}
	}
	return nil
}

func (m *MemoryStore) findUserByUsernameLocked(username string) *models.User {
	for _, id := range m.sortedUserIDsLocked() {
		if u := m.users[id]; strings.EqualFold(u.Username, username) {
			return u
		}
	}
	return nil
}

func (m *MemoryStore) sortedUserIDsLocked() []int64 {
	ids := make([]int64, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// --- subscriptions ---

type memorySubscriptionRepository struct{ m *MemoryStore }

func (r *memorySubscriptionRepository) GetByID(_ context.Context, id int64) (*models.Subscription, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	s, ok := r.m.subscriptions[id]
	if !ok {
		return nil, fmt.Errorf("subscription %d: %w", id, ErrNotFound)
	}
	return cloneSubscription(s), nil
}

func (r *memorySubscriptionRepository) GetByUserID(_ context.Context, userID int64) (*models.Subscription, error) {
	return r.first(func(s *models.Subscription) bool { return s.UserID == userID },
		fmt.Sprintf("subscription for user %d", userID))
}

func (r *memorySubscriptionRepository) GetByStripeSubscriptionID(_ context.Context, stripeSubscriptionID string) (*models.Subscription, error) {
	return r.first(func(s *models.Subscription) bool {
		return stripeSubscriptionID != "" && s.StripeSubscriptionID == stripeSubscriptionID
	}, fmt.Sprintf("subscription %q", stripeSubscriptionID))
}

func (r *memorySubscriptionRepository) first(match func(*models.Subscription) bool, what string) (*models.Subscription, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	var found *models.Subscription
	for _, s := range r.m.subscriptions {
		if match(s) && (found == nil || s.ID < found.ID) {
			found = s
		}
	}
	if found == nil {
		return nil, fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return cloneSubscription(found), nil
}

func (r *memorySubscriptionRepository) Create(_ context.Context, sub *models.Subscription) (*models.Subscription, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	stored := cloneSubscription(sub)
	stored.ID = r.m.nextSubscriptionID
	r.m.nextSubscriptionID++
	stored.CreatedAt = r.m.now()
	r.m.subscriptions[stored.ID] = stored
	return cloneSubscription(stored), nil
}

func (r *memorySubscriptionRepository) Update(_ context.Context, sub *models.Subscription) (*models.Subscription, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	existing, ok := r.m.subscriptions[sub.ID]
	if !ok {
		return nil, fmt.Errorf("subscription %d: %w", sub.ID, ErrNotFound)
	}
	stored := cloneSubscription(sub)
	stored.CreatedAt = existing.CreatedAt
	r.m.subscriptions[sub.ID] = stored
	return cloneSubscription(stored), nil
}

// --- history ---

type memoryHistoryRepository struct{ m *MemoryStore }

func (r *memoryHistoryRepository) Create(_ context.Context, entry *models.ToolHistory) (*models.ToolHistory, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	stored := cloneHistory(entry)
	stored.ID = r.m.nextHistoryID
	r.m.nextHistoryID++
	stored.CreatedAt = r.m.now()
	r.m.history[stored.ID] = stored
	return cloneHistory(stored), nil
}

func (r *memoryHistoryRepository) ListByUser(_ context.Context, userID int64, toolType models.ToolType) ([]*models.ToolHistory, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := make([]*models.ToolHistory, 0)
	for _, h := range r.m.history {
		if h.UserID != userID {
			continue
		}
		if toolType != "" && h.ToolType != toolType {
			continue
		}
		out = append(out, cloneHistory(h))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// --- copies; callers never share stored pointers ---

func cloneUser(u *models.User) *models.User {
	c := *u
	if u.TrialEndsAt != nil {
		t := *u.TrialEndsAt
		c.TrialEndsAt = &t
	}
	if u.Password != nil {
		p := *u.Password
		c.Password = &p
	}
	return &c
}

func cloneSubscription(s *models.Subscription) *models.Subscription {
	c := *s
	if s.TrialEndDate != nil {
		t := *s.TrialEndDate
		c.TrialEndDate = &t
	}
	return &c
}

func cloneHistory(h *models.ToolHistory) *models.ToolHistory {
	c := *h
	if h.Format != nil {
		f := *h.Format
		c.Format = &f
	}
	if h.GenerationTime != nil {
		g := *h.GenerationTime
		c.GenerationTime = &g
	}
	if h.Metadata != nil {
		md := *h.Metadata
		c.Metadata = &md
	}
	return &c
}
