package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers.
const (
	StoreDriverMemory    = "memory"
	StoreDriverFirestore = "firestore"
)

// LLM providers.
const (
	LLMProviderOpenAI = "openai"
	LLMProviderGemini = "gemini"
)

// Config holds all configuration for the application.
type Config struct {
	Port      string `mapstructure:"PORT"`
	GinMode   string `mapstructure:"GIN_MODE"`
	ClientURL string `mapstructure:"CLIENT_URL"`

	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`

	StoreDriver string `mapstructure:"STORE_DRIVER"`

	LLMProvider  string        `mapstructure:"LLM_PROVIDER"`
	LLMTimeout   time.Duration `mapstructure:"LLM_TIMEOUT"`
	OpenAIAPIKey string        `mapstructure:"OPENAI_API_KEY"`
	OpenAIModel  string        `mapstructure:"OPENAI_MODEL"`
	GeminiAPIKey string        `mapstructure:"GEMINI_API_KEY"`
	GeminiModel  string        `mapstructure:"GEMINI_MODEL"`

	StripeSecretKey     string `mapstructure:"STRIPE_SECRET_KEY"`
	StripePriceID       string `mapstructure:"STRIPE_PRICE_ID"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`

	EntitlementOverridesFile string   `mapstructure:"ENTITLEMENT_OVERRIDES_FILE"`
	EntitlementProEmails     []string `mapstructure:"ENTITLEMENT_PRO_EMAILS"`

	RedisAddr          string `mapstructure:"REDIS_ADDR"`
	RedisPassword      string `mapstructure:"REDIS_PASSWORD"`
	RedisDB            int    `mapstructure:"REDIS_DB"`
	RateLimitPerMinute int    `mapstructure:"RATE_LIMIT_PER_MINUTE"`

	AMQPURL           string `mapstructure:"AMQP_URL"`
	AMQPActivityQueue string `mapstructure:"AMQP_ACTIVITY_QUEUE"`
}

var envKeys = []string{
	"PORT", "GIN_MODE", "CLIENT_URL",
	"FIREBASE_PROJECT_ID", "GOOGLE_APPLICATION_CREDENTIALS", "FIREBASE_SERVICE_ACCOUNT_JSON_BASE64",
	"STORE_DRIVER",
	"LLM_PROVIDER", "LLM_TIMEOUT", "OPENAI_API_KEY", "OPENAI_MODEL", "GEMINI_API_KEY", "GEMINI_MODEL",
	"STRIPE_SECRET_KEY", "STRIPE_PRICE_ID", "STRIPE_WEBHOOK_SECRET",
	"ENTITLEMENT_OVERRIDES_FILE", "ENTITLEMENT_PRO_EMAILS",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "RATE_LIMIT_PER_MINUTE",
	"AMQP_URL", "AMQP_ACTIVITY_QUEUE",
}

// LoadConfig loads configuration from the environment using Viper.
// A .env file in the working directory, if present, is loaded first and never
// overrides variables that are already set.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("STORE_DRIVER", StoreDriverMemory)
	v.SetDefault("LLM_PROVIDER", LLMProviderOpenAI)
	v.SetDefault("LLM_TIMEOUT", "60s")
	v.SetDefault("OPENAI_MODEL", "gpt-4o")
	v.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 20)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("AMQP_ACTIVITY_QUEUE", "lyra.activity")

	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}
	cfg.EntitlementProEmails = splitList(cfg.EntitlementProEmails)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required and enumerated fields.
func (c *Config) Validate() error {
	if c.FirebaseProjectID == "" {
		return errors.New("FIREBASE_PROJECT_ID is required")
	}
	switch c.StoreDriver {
	case StoreDriverMemory, StoreDriverFirestore:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverMemory, StoreDriverFirestore, c.StoreDriver)
	}
	switch c.LLMProvider {
	case LLMProviderOpenAI, LLMProviderGemini:
	default:
		return fmt.Errorf("LLM_PROVIDER must be %q or %q, got %q", LLMProviderOpenAI, LLMProviderGemini, c.LLMProvider)
	}
	if c.LLMTimeout <= 0 {
		return errors.New("LLM_TIMEOUT must be positive")
	}
	if c.RateLimitPerMinute < 0 {
		return errors.New("RATE_LIMIT_PER_MINUTE cannot be negative")
	}
	return nil
}

// LLMConfigured reports whether the selected provider has an API key.
func (c *Config) LLMConfigured() bool {
	if c.LLMProvider == LLMProviderGemini {
		return c.GeminiAPIKey != ""
	}
	return c.OpenAIAPIKey != ""
}

// BillingConfigured reports whether Stripe checkout can be used.
func (c *Config) BillingConfigured() bool {
	return c.StripeSecretKey != "" && c.StripePriceID != ""
}

// splitList flattens comma separated entries and drops blanks.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
