package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lyra-backend-go/internal/db"
	"lyra-backend-go/internal/models"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(t time.Time) *testClock { return &testClock{now: t} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var signupTime = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)

func newEntitlementFixture(t *testing.T, opts ...EntitlementOption) (*testClock, db.Store, EntitlementService) {
	t.Helper()
	clock := newTestClock(signupTime)
	store := db.NewMemoryStore(db.WithClock(clock.Now)).Store()
	opts = append([]EntitlementOption{WithEntitlementClock(clock.Now)}, opts...)
	return clock, store, NewEntitlementService(store.Users, store.Subscriptions, nil, opts...)
}

func createUser(t *testing.T, store db.Store, email string) *models.User {
	t.Helper()
	u, err := store.Users.Create(context.Background(), &models.User{
		Username: models.UsernameFromEmail(email),
		Email:    email,
	})
	require.NoError(t, err)
	return u
}

func TestResolve_FreshSignupHasThreeTrialDays(t *testing.T) {
	clock, store, svc := newEntitlementFixture(t)
	alice := createUser(t, store, "alice@example.com")
	clock.Advance(50 * time.Millisecond)

	got, err := svc.Resolve(context.Background(), alice.ID)
	require.NoError(t, err)

	assert.True(t, got.IsPro)
	assert.Equal(t, 3, got.TrialDaysLeft)
	assert.Nil(t, got.SubscriptionSnapshot)
}

func TestResolve_TrialDaysRoundUp(t *testing.T) {
	clock, store, svc := newEntitlementFixture(t)
	u := createUser(t, store, "bob@example.com")

	clock.Advance(36 * time.Hour)
	got, err := svc.Resolve(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPro)
	assert.Equal(t, 2, got.TrialDaysLeft)

	clock.Advance(35 * time.Hour)
	got, err = svc.Resolve(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPro, "final partial day is still entitled")
	assert.Equal(t, 1, got.TrialDaysLeft)
}

func TestResolve_ElapsedTrialWithoutSubscription(t *testing.T) {
	clock, store, svc := newEntitlementFixture(t)
	u := createUser(t, store, "carol@example.com")

	clock.Advance(models.TrialPeriod + time.Second)
	got, err := svc.Resolve(context.Background(), u.ID)
	require.NoError(t, err)

	assert.False(t, got.IsPro)
	assert.Equal(t, 0, got.TrialDaysLeft)
	assert.Nil(t, got.SubscriptionSnapshot)
}

func TestResolve_TrialEndsExactlyAtTrialEndsAt(t *testing.T) {
	clock, store, svc := newEntitlementFixture(t)
	u := createUser(t, store, "erin@example.com")

	clock.Advance(models.TrialPeriod)
	got, err := svc.Resolve(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPro, "still Pro at the boundary instant")
	assert.Equal(t, 0, got.TrialDaysLeft)

	clock.Advance(time.Hour)
	got, err = svc.Resolve(context.Background(), u.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPro, "an hour past expiry is within the last whole day but not Pro")
	assert.Equal(t, 0, got.TrialDaysLeft)
}

func TestResolve_ActiveSubscriptionGrantsPro(t *testing.T) {
	clock, store, svc := newEntitlementFixture(t)
	ctx := context.Background()
	u := createUser(t, store, "dana@example.com")

	trialEnd := signupTime.Add(72 * time.Hour)
	_, err := store.Subscriptions.Create(ctx, &models.Subscription{
		UserID:               u.ID,
		StripeSubscriptionID: "sub_123",
		Status:               models.SubscriptionStatusActive,
		Plan:                 models.PlanPro,
		CurrentPeriodStart:   signupTime,
		CurrentPeriodEnd:     signupTime.AddDate(0, 1, 0),
		TrialEndDate:         &trialEnd,
	})
	require.NoError(t, err)
	_, err = store.Users.UpdateStripeInfo(ctx, u.ID, models.StripeInfo{CustomerID: "cus_1", SubscriptionID: "sub_123"})
	require.NoError(t, err)

	clock.Advance(30 * 24 * time.Hour)
	got, err := svc.Resolve(ctx, u.ID)
	require.NoError(t, err)

	assert.True(t, got.IsPro)
	assert.Equal(t, 0, got.TrialDaysLeft)
	require.NotNil(t, got.SubscriptionSnapshot)
	assert.Equal(t, models.SubscriptionStatusActive, got.SubscriptionSnapshot.Status)
	assert.Equal(t, signupTime, got.SubscriptionSnapshot.StartDate)
	assert.Equal(t, signupTime.AddDate(0, 1, 0), got.SubscriptionSnapshot.EndDate)
	require.NotNil(t, got.SubscriptionSnapshot.TrialEnd)
	assert.Equal(t, trialEnd, *got.SubscriptionSnapshot.TrialEnd)
}

func TestResolve_CanceledSubscriptionAfterTrialIsNotPro(t *testing.T) {
	clock, store, svc := newEntitlementFixture(t)
	ctx := context.Background()
	u := createUser(t, store, "erin@example.com")

	_, err := store.Subscriptions.Create(ctx, &models.Subscription{
		UserID:               u.ID,
		StripeSubscriptionID: "sub_gone",
		Status:               models.SubscriptionStatusCanceled,
		Plan:                 models.PlanPro,
	})
	require.NoError(t, err)
	_, err = store.Users.UpdateStripeInfo(ctx, u.ID, models.StripeInfo{CustomerID: "cus_2", SubscriptionID: "sub_gone"})
	require.NoError(t, err)

	clock.Advance(5 * 24 * time.Hour)
	got, err := svc.Resolve(ctx, u.ID)
	require.NoError(t, err)

	assert.False(t, got.IsPro)
	assert.Equal(t, 0, got.TrialDaysLeft)
	require.NotNil(t, got.SubscriptionSnapshot)
	assert.Equal(t, models.SubscriptionStatusCanceled, got.SubscriptionSnapshot.Status)
}

func TestResolve_ActiveSubscriptionWithoutUserReferenceFallsBackToTrial(t *testing.T) {
	clock, store, svc := newEntitlementFixture(t)
	ctx := context.Background()
	u := createUser(t, store, "fay@example.com")
	_, err := store.Subscriptions.Create(ctx, &models.Subscription{UserID: u.ID, Status: models.SubscriptionStatusActive})
	require.NoError(t, err)

	clock.Advance(4 * 24 * time.Hour)
	got, err := svc.Resolve(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPro)
}

func TestResolve_UnknownPrincipal(t *testing.T) {
	_, _, svc := newEntitlementFixture(t)

	_, err := svc.Resolve(context.Background(), 404)
	assert.ErrorIs(t, err, ErrPrincipalNotFound)
}

func TestResolve_IsIdempotent(t *testing.T) {
	_, store, svc := newEntitlementFixture(t)
	u := createUser(t, store, "gus@example.com")

	first, err := svc.Resolve(context.Background(), u.ID)
	require.NoError(t, err)
	second, err := svc.Resolve(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	stored, err := store.Users.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u, stored, "resolution never mutates the principal")
}

func TestResolve_OverridePolicyIsConsultedFirst(t *testing.T) {
	policy := NewStaticOverridePolicy([]OverrideEntry{
		{Email: "Reviewer@Example.com", Pro: true, Reason: "store review"},
		{Email: "abuse@example.com", Pro: false},
	})
	clock, store, svc := newEntitlementFixture(t, WithOverridePolicy(policy))
	reviewer := createUser(t, store, "reviewer@example.com")
	abuser := createUser(t, store, "abuse@example.com")

	got, err := svc.Resolve(context.Background(), abuser.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPro, "override revokes an active trial")
	assert.Equal(t, 3, got.TrialDaysLeft)

	clock.Advance(10 * 24 * time.Hour)
	got, err = svc.Resolve(context.Background(), reviewer.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPro)
	assert.Equal(t, 0, got.TrialDaysLeft)
}

func TestResolve_ConcurrentCallsAgree(t *testing.T) {
	_, store, svc := newEntitlementFixture(t)
	u := createUser(t, store, "hal@example.com")

	var wg sync.WaitGroup
	results := make([]*models.EntitlementDecision, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, err := svc.Resolve(context.Background(), u.ID)
			assert.NoError(t, err)
			results[i] = d
		}(i)
	}
	wg.Wait()
	for _, d := range results {
		assert.Equal(t, results[0], d)
	}
}
