package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brandon/webhook-agent/internal/config"
)

func TestModelChain(t *testing.T) {
	tests := []struct {
		name   string
		models config.ModelsConfig
		want   []string
	}{
		{
			name:   "primary plus fallbacks",
			models: config.ModelsConfig{Primary: "claude-sonnet-4-5", Fallbacks: []string{"gpt-5", "gemini-2.5-pro"}},
			want:   []string{"claude-sonnet-4-5", "gpt-5", "gemini-2.5-pro"},
		},
		{
			name:   "no fallbacks",
			models: config.ModelsConfig{Primary: "gpt-5"},
			want:   []string{"gpt-5"},
		},
		{
			name:   "empty primary yields fallbacks only",
			models: config.ModelsConfig{Fallbacks: []string{"gpt-5"}},
			want:   []string{"gpt-5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.models.ModelChain())
		})
	}
}
