// Package route maps model identifiers to provider descriptors and validates
// that a usable credential exists before any remote call is attempted.
package route

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/brandon/webhook-agent/internal/domain"
)

// Rule binds a set of model-name prefixes to a provider descriptor. Rules are
// evaluated in order; the first prefix match wins.
type Rule struct {
	Prefixes   []string
	Descriptor domain.ProviderDescriptor
}

// DefaultRules returns the built-in routing table. The table is constructed
// once at startup and injected wherever routing is needed; nothing mutates it
// afterwards.
func DefaultRules() []Rule {
	return []Rule{
		{
			Prefixes: []string{"claude-"},
			Descriptor: domain.ProviderDescriptor{
				Provider:           "anthropic",
				CredentialEnvName:  "ANTHROPIC_API_KEY",
				PricePerKTokensIn:  0.003,
				PricePerKTokensOut: 0.015,
				KeyPrefix:          "sk-ant-",
				KeyMinLength:       40,
				MaxRetries:         3,
				BaseDelay:          2 * time.Second,
			},
		},
		{
			Prefixes: []string{"gpt-", "o1", "o3", "o4", "chatgpt-"},
			Descriptor: domain.ProviderDescriptor{
				Provider:           "openai",
				CredentialEnvName:  "OPENAI_API_KEY",
				PricePerKTokensIn:  0.0025,
				PricePerKTokensOut: 0.010,
				KeyPrefix:          "sk-",
				KeyMinLength:       40,
				MaxRetries:         3,
				BaseDelay:          time.Second,
			},
		},
		{
			Prefixes: []string{"gemini-"},
			Descriptor: domain.ProviderDescriptor{
				Provider:           "google",
				CredentialEnvName:  "GEMINI_API_KEY",
				PricePerKTokensIn:  0.00125,
				PricePerKTokensOut: 0.010,
				KeyMinLength:       30,
				MaxRetries:         3,
				BaseDelay:          time.Second,
			},
		},
		{
			// The aggregator carries no prefixes: it is only reached through
			// the fallback path for unmatched identifiers.
			Descriptor: domain.ProviderDescriptor{
				Provider:           "openrouter",
				CredentialEnvName:  "OPENROUTER_API_KEY",
				PricePerKTokensIn:  0.003,
				PricePerKTokensOut: 0.015,
				KeyPrefix:          "sk-or-",
				KeyMinLength:       40,
				MaxRetries:         2,
				BaseDelay:          2 * time.Second,
			},
		},
	}
}

// Router resolves model identifiers against an immutable rule table.
type Router struct {
	rules     []Rule
	lookupEnv func(string) (string, bool)
}

// NewRouter creates a router over rules, reading credentials from the
// process environment.
func NewRouter(rules []Rule) *Router {
	return &Router{rules: rules, lookupEnv: os.LookupEnv}
}

// SetEnvLookup overrides the environment source (for testing).
func (r *Router) SetEnvLookup(lookup func(string) (string, bool)) {
	r.lookupEnv = lookup
}

// Resolve maps a model identifier to its provider descriptor. Unmatched
// identifiers fall back to the aggregator when its credential is present,
// otherwise to the first provider with any configured credential.
func (r *Router) Resolve(model string) (domain.ProviderDescriptor, error) {
	for _, rule := range r.rules {
		for _, prefix := range rule.Prefixes {
			if strings.HasPrefix(model, prefix) {
				return rule.Descriptor, nil
			}
		}
	}

	if agg, ok := r.find("openrouter"); ok && r.hasCredential(agg) {
		return agg, nil
	}
	for _, rule := range r.rules {
		if r.hasCredential(rule.Descriptor) {
			return rule.Descriptor, nil
		}
	}

	return domain.ProviderDescriptor{}, fmt.Errorf("model %q: %w", model, domain.ErrNoProviderConfigured)
}

// ValidateCredential checks that the descriptor's credential is present and,
// where the provider's key format is known, that its shape is plausible.
// This catches copy-paste and truncation mistakes before a remote call.
func (r *Router) ValidateCredential(d domain.ProviderDescriptor) error {
	key, ok := r.lookupEnv(d.CredentialEnvName)
	if !ok || key == "" {
		return fmt.Errorf("%s (%s): %w", d.Provider, d.CredentialEnvName, domain.ErrMissingCredential)
	}

	if d.KeyPrefix != "" && !strings.HasPrefix(key, d.KeyPrefix) {
		return fmt.Errorf("%s: expected %q prefix: %w", d.Provider, d.KeyPrefix, domain.ErrMalformedCredential)
	}
	if d.KeyMinLength > 0 && len(key) < d.KeyMinLength {
		return fmt.Errorf("%s: key shorter than %d characters: %w", d.Provider, d.KeyMinLength, domain.ErrMalformedCredential)
	}
	return nil
}

// Credential returns the descriptor's API key. Call ValidateCredential first.
func (r *Router) Credential(d domain.ProviderDescriptor) string {
	key, _ := r.lookupEnv(d.CredentialEnvName)
	return key
}

// EstimateCost computes an advisory pre-execution cost in USD from assumed
// token counts and the descriptor's per-1000-token prices. The billed amount
// comes from the provider's reported usage after execution.
func EstimateCost(d domain.ProviderDescriptor, tokensIn, tokensOut int) float64 {
	return float64(tokensIn)/1000.0*d.PricePerKTokensIn + float64(tokensOut)/1000.0*d.PricePerKTokensOut
}

func (r *Router) find(provider string) (domain.ProviderDescriptor, bool) {
	for _, rule := range r.rules {
		if rule.Descriptor.Provider == provider {
			return rule.Descriptor, true
		}
	}
	return domain.ProviderDescriptor{}, false
}

func (r *Router) hasCredential(d domain.ProviderDescriptor) bool {
	key, ok := r.lookupEnv(d.CredentialEnvName)
	return ok && key != ""
}
