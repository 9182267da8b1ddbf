package core

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"lyra-backend-go/internal/models"
)

// OverrideVerdict replaces the computed Pro flag for one principal.
type OverrideVerdict struct {
	IsPro  bool
	Reason string
}

// EntitlementOverridePolicy is consulted before the billing and trial computation.
type EntitlementOverridePolicy interface {
	// Override returns a verdict and true when the principal's access is fixed by policy.
	Override(ctx context.Context, user *models.User) (OverrideVerdict, bool)
}

// NoOverridePolicy never overrides. It is the production default.
type NoOverridePolicy struct{}

func (NoOverridePolicy) Override(context.Context, *models.User) (OverrideVerdict, bool) {
	return OverrideVerdict{}, false
}

// OverrideEntry is one configured override, keyed by email.
type OverrideEntry struct {
	Email  string `yaml:"email"`
	Pro    bool   `yaml:"pro"`
	Reason string `yaml:"reason"`
}

type overrideFile struct {
	Overrides []OverrideEntry `yaml:"overrides"`
}

// StaticOverridePolicy grants or revokes Pro for a fixed set of emails.
type StaticOverridePolicy struct {
	byEmail map[string]OverrideVerdict
}

// NewStaticOverridePolicy builds a policy from entries. Later entries win on duplicate emails.
func NewStaticOverridePolicy(entries []OverrideEntry) *StaticOverridePolicy {
	p := &StaticOverridePolicy{byEmail: make(map[string]OverrideVerdict, len(entries))}
	for _, e := range entries {
		key := models.NormalizeEmail(e.Email)
		if key == "" {
			continue
		}
		reason := e.Reason
		if reason == "" {
			reason = "configured override"
		}
		p.byEmail[key] = OverrideVerdict{IsPro: e.Pro, Reason: reason}
	}
	return p
}

func (p *StaticOverridePolicy) Override(_ context.Context, user *models.User) (OverrideVerdict, bool) {
	if p == nil || user == nil {
		return OverrideVerdict{}, false
	}
	v, ok := p.byEmail[models.NormalizeEmail(user.Email)]
	return v, ok
}

// Len returns the number of configured overrides.
func (p *StaticOverridePolicy) Len() int { return len(p.byEmail) }

// ParseOverrideEntries decodes the YAML override document:
//
//	overrides:
//	  - email: reviewer@example.com
//	    pro: true
//	    reason: app store review account
func ParseOverrideEntries(data []byte) ([]OverrideEntry, error) {
	var f overrideFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse entitlement overrides: %w", err)
	}
	return f.Overrides, nil
}

// LoadOverridePolicy builds the policy from an optional YAML file and a list of Pro emails.
// With neither configured it returns NoOverridePolicy.
func LoadOverridePolicy(path string, proEmails []string) (EntitlementOverridePolicy, error) {
	var entries []OverrideEntry
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read entitlement overrides %q: %w", path, err)
		}
		if entries, err = ParseOverrideEntries(data); err != nil {
			return nil, err
		}
	}
	for _, email := range proEmails {
		entries = append(entries, OverrideEntry{Email: email, Pro: true, Reason: "ENTITLEMENT_PRO_EMAILS"})
	}
	if len(entries) == 0 {
		return NoOverridePolicy{}, nil
	}
	return NewStaticOverridePolicy(entries), nil
}
