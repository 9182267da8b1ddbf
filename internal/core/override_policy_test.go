package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lyra-backend-go/internal/models"
)

func TestNoOverridePolicy(t *testing.T) {
	_, ok := NoOverridePolicy{}.Override(context.Background(), &models.User{Email: "a@example.com"})
	assert.False(t, ok)
}

func TestLoadOverridePolicy_DefaultsToNoop(t *testing.T) {
	p, err := LoadOverridePolicy("", nil)
	require.NoError(t, err)
	assert.IsType(t, NoOverridePolicy{}, p)
}

func TestLoadOverridePolicy_FileAndEmails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.yaml")
	doc := `overrides:
  - email: qa@example.com
    pro: true
    reason: qa account
  - email: blocked@example.com
    pro: false
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	p, err := LoadOverridePolicy(path, []string{"partner@example.com"})
	require.NoError(t, err)
	static, ok := p.(*StaticOverridePolicy)
	require.True(t, ok)
	assert.Equal(t, 3, static.Len())

	v, ok := p.Override(context.Background(), &models.User{Email: "QA@example.com"})
	require.True(t, ok)
	assert.True(t, v.IsPro)
	assert.Equal(t, "qa account", v.Reason)

	v, ok = p.Override(context.Background(), &models.User{Email: "blocked@example.com"})
	require.True(t, ok)
	assert.False(t, v.IsPro)
	assert.Equal(t, "configured override", v.Reason)

	v, ok = p.Override(context.Background(), &models.User{Email: "partner@example.com"})
	require.True(t, ok)
	assert.True(t, v.IsPro)

	_, ok = p.Override(context.Background(), &models.User{Email: "someone@example.com"})
	assert.False(t, ok)
}

func TestLoadOverridePolicy_Errors(t *testing.T) {
	_, err := LoadOverridePolicy(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)

	_, err = ParseOverrideEntries([]byte("overrides: [unterminated"))
	assert.Error(t, err)
}
