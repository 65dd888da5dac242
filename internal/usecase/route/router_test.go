package route_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandon/webhook-agent/internal/domain"
	"github.com/brandon/webhook-agent/internal/usecase/route"
)

func newRouterWithEnv(env map[string]string) *route.Router {
	r := route.NewRouter(route.DefaultRules())
	r.SetEnvLookup(func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	})
	return r
}

func TestResolveByPrefix(t *testing.T) {
	tests := []struct {
		name         string
		model        string
		wantProvider string
	}{
		{"claude family", "claude-sonnet-4-5-20250929", "anthropic"},
		{"gpt family", "gpt-4o-mini", "openai"},
		{"o-series", "o3-mini", "openai"},
		{"gemini family", "gemini-2.5-flash", "google"},
	}

	router := newRouterWithEnv(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := router.Resolve(tt.model)
			require.NoError(t, err)
			assert.Equal(t, tt.wantProvider, d.Provider)
		})
	}
}

func TestResolveUnmatchedPrefersAggregator(t *testing.T) {
	router := newRouterWithEnv(map[string]string{
		"OPENROUTER_API_KEY": "sk-or-0123456789012345678901234567890123456789",
		"OPENAI_API_KEY":     "sk-0123456789012345678901234567890123456789",
	})

	d, err := router.Resolve("mistral-large")
	require.NoError(t, err)
	assert.Equal(t, "openrouter", d.Provider)
}

func TestResolveUnmatchedFallsBackToAnyCredential(t *testing.T) {
	router := newRouterWithEnv(map[string]string{
		"OPENAI_API_KEY": "sk-0123456789012345678901234567890123456789",
	})

	d, err := router.Resolve("mistral-large")
	require.NoError(t, err)
	assert.Equal(t, "openai", d.Provider)
}

func TestResolveUnmatchedNoCredentials(t *testing.T) {
	router := newRouterWithEnv(nil)

	_, err := router.Resolve("mistral-large")
	assert.ErrorIs(t, err, domain.ErrNoProviderConfigured)
}

func TestValidateCredential(t *testing.T) {
	anthropicKey := "sk-ant-" + "0123456789012345678901234567890123456789"

	tests := []struct {
		name    string
		env     map[string]string
		model   string
		wantErr error
	}{
		{"valid key", map[string]string{"ANTHROPIC_API_KEY": anthropicKey}, "claude-sonnet-4-5", nil},
		{"missing key", nil, "claude-sonnet-4-5", domain.ErrMissingCredential},
		{"empty key", map[string]string{"ANTHROPIC_API_KEY": ""}, "claude-sonnet-4-5", domain.ErrMissingCredential},
		{"wrong prefix", map[string]string{"ANTHROPIC_API_KEY": "sk-0123456789012345678901234567890123456789"}, "claude-sonnet-4-5", domain.ErrMalformedCredential},
		{"truncated key", map[string]string{"ANTHROPIC_API_KEY": "sk-ant-012345"}, "claude-sonnet-4-5", domain.ErrMalformedCredential},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouterWithEnv(tt.env)
			d, err := router.Resolve(tt.model)
			require.NoError(t, err)

			err = router.ValidateCredential(d)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestEstimateCost(t *testing.T) {
	router := newRouterWithEnv(nil)
	d, err := router.Resolve("claude-sonnet-4-5")
	require.NoError(t, err)

	// 2000 in at $0.003/1K plus 1000 out at $0.015/1K.
	cost := route.EstimateCost(d, 2000, 1000)
	assert.InDelta(t, 0.021, cost, 1e-9)
}
