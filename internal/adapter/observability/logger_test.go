package observability_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/brandon/webhook-agent/internal/adapter/observability"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		config  observability.LoggerConfig
		wantErr bool
	}{
		{"defaults", observability.LoggerConfig{}, false},
		{"json debug", observability.LoggerConfig{Level: "debug", Format: "json"}, false},
		{"console warn", observability.LoggerConfig{Level: "warn", Format: "console"}, false},
		{"bad level", observability.LoggerConfig{Level: "loud"}, true},
		{"bad format", observability.LoggerConfig{Format: "xml"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := observability.NewLogger(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestNewLoggerRespectsLevel(t *testing.T) {
	logger, err := observability.NewLogger(observability.LoggerConfig{Level: "error"})
	require.NoError(t, err)

	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.ErrorLevel))
}
