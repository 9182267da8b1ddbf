package core

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lyra-backend-go/internal/db"
)

func TestFindOrCreate_ProvisionsFromClaims(t *testing.T) {
	mem := db.NewMemoryStore()
	svc := NewUserService(mem.Store().Users, nil)

	u, created, err := svc.FindOrCreate(context.Background(), Claims{
		UID:          "firebase-uid-1",
		Email:        "alice@example.com",
		PhotoURL:     "https://example.com/a.png",
		SignInMethod: "google.com",
	})
	require.NoError(t, err)

	assert.True(t, created)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "alice", u.DisplayName, "display name defaults to username")
	assert.Equal(t, "google.com", u.AuthProvider)
	assert.Equal(t, "firebase-uid-1", u.ProviderID)
	assert.Nil(t, u.Password)
	require.NotNil(t, u.TrialEndsAt)

	again, created, err := svc.FindOrCreate(context.Background(), Claims{UID: "firebase-uid-1", Email: "ALICE@example.com", DisplayName: "Alice"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, u.ID, again.ID)
	assert.Equal(t, "alice", again.DisplayName, "existing principals are not rewritten")
}

func TestFindOrCreate_DefaultsProviderTag(t *testing.T) {
	svc := NewUserService(db.NewMemoryStore().Store().Users, nil)

	u, _, err := svc.FindOrCreate(context.Background(), Claims{UID: "x", Email: "bob@example.com", DisplayName: "Bob"})
	require.NoError(t, err)
	assert.Equal(t, DefaultAuthProvider, u.AuthProvider)
	assert.Equal(t, "Bob", u.DisplayName)
}

func TestFindOrCreate_RequiresEmail(t *testing.T) {
	svc := NewUserService(db.NewMemoryStore().Store().Users, nil)

	_, _, err := svc.FindOrCreate(context.Background(), Claims{UID: "anon"})
	assert.ErrorIs(t, err, ErrAuthenticationRequired)
}

func TestFindOrCreate_ConcurrentSignupsCreateOnePrincipal(t *testing.T) {
	mem := db.NewMemoryStore()
	svc := NewUserService(mem.Store().Users, nil)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.FindOrCreate(context.Background(), Claims{UID: "uid", Email: "race@example.com"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, mem.UserCount())
}

func TestGetByID_MapsNotFound(t *testing.T) {
	svc := NewUserService(db.NewMemoryStore().Store().Users, nil)

	_, err := svc.GetByID(context.Background(), 12)
	assert.ErrorIs(t, err, ErrPrincipalNotFound)
}
