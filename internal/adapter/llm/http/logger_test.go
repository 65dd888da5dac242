package http_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	llmhttp "github.com/brandon/webhook-agent/internal/adapter/llm/http"
)

func newObservedLogger(t *testing.T, redact bool) (*llmhttp.ZapLogger, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return llmhttp.NewZapLogger(zap.New(core), redact), logs
}

func TestLogRequestRedactsAPIKey(t *testing.T) {
	logger, logs := newObservedLogger(t, true)

	logger.LogRequest(context.Background(), llmhttp.RequestLog{
		Provider: "anthropic",
		Model:    "claude-sonnet-4-5",
		APIKey:   "sk-ant-secret-key-abcd",
	})

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "[REDACTED-abcd]", fields["api_key"])
}

func TestLogRequestKeepsKeyWhenRedactionDisabled(t *testing.T) {
	logger, logs := newObservedLogger(t, false)

	logger.LogRequest(context.Background(), llmhttp.RequestLog{APIKey: "sk-plain"})

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "sk-plain", logs.All()[0].ContextMap()["api_key"])
}

func TestLogResponseTruncatesContentPreview(t *testing.T) {
	logger, logs := newObservedLogger(t, true)

	logger.LogResponse(context.Background(), llmhttp.ResponseLog{
		Provider:  "openai",
		Model:     "gpt-5",
		Duration:  250 * time.Millisecond,
		TokensIn:  100,
		TokensOut: 900,
		Cost:      0.02,
		Content:   strings.Repeat("x", 500),
	})

	require.Equal(t, 1, logs.Len())
	preview, ok := logs.All()[0].ContextMap()["content_preview"].(string)
	require.True(t, ok)
	assert.Less(t, len(preview), 300)
	assert.Contains(t, preview, "truncated")
}

func TestLogErrorCarriesClassification(t *testing.T) {
	logger, logs := newObservedLogger(t, true)

	logger.LogError(context.Background(), llmhttp.ErrorLog{
		Provider:   "google",
		Model:      "gemini-2.5-pro",
		Err:        errors.New("quota exceeded"),
		Class:      llmhttp.ClassRateLimit,
		StatusCode: 429,
		Retryable:  true,
	})

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, string(llmhttp.ClassRateLimit), fields["class"])
	assert.Equal(t, true, fields["retryable"])
}
