package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		if val, ok := os.LookupEnv(key); ok {
			t.Setenv(key, val)
			require.NoError(t, os.Unsetenv(key))
		}
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("FIREBASE_PROJECT_ID", "lyra-test")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "debug", cfg.GinMode)
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, LLMProviderOpenAI, cfg.LLMProvider)
	assert.Equal(t, "gpt-4o", cfg.OpenAIModel)
	assert.Equal(t, 60*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 20, cfg.RateLimitPerMinute)
	assert.Equal(t, "lyra.activity", cfg.AMQPActivityQueue)
	assert.False(t, cfg.LLMConfigured())
	assert.False(t, cfg.BillingConfigured())
}

func TestLoadConfig_ReadsEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("FIREBASE_PROJECT_ID", "lyra-test")
	t.Setenv("PORT", "9090")
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test")
	t.Setenv("STRIPE_PRICE_ID", "price_1")
	t.Setenv("ENTITLEMENT_PRO_EMAILS", "a@example.com, b@example.com,,")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, LLMProviderGemini, cfg.LLMProvider)
	assert.True(t, cfg.LLMConfigured())
	assert.True(t, cfg.BillingConfigured())
	assert.Equal(t, 5*time.Second, cfg.LLMTimeout)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.EntitlementProEmails)
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing project", map[string]string{}, "FIREBASE_PROJECT_ID is required"},
		{"bad store", map[string]string{"FIREBASE_PROJECT_ID": "p", "STORE_DRIVER": "postgres"}, "STORE_DRIVER"},
		{"bad provider", map[string]string{"FIREBASE_PROJECT_ID": "p", "LLM_PROVIDER": "llama"}, "LLM_PROVIDER"},
		{"negative limit", map[string]string{"FIREBASE_PROJECT_ID": "p", "RATE_LIMIT_PER_MINUTE": "-1"}, "RATE_LIMIT_PER_MINUTE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
