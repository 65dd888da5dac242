package openrouter_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandon/webhook-agent/internal/adapter/llm"
	llmhttp "github.com/brandon/webhook-agent/internal/adapter/llm/http"
	"github.com/brandon/webhook-agent/internal/adapter/llm/openrouter"
)

func TestGenerateSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		_, _ = w.Write([]byte(`{
			"id": "gen-1",
			"model": "mistral-large",
			"choices": [{"message": {"role": "assistant", "content": "routed through aggregator"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 42, "completion_tokens": 10}
		}`))
	}))
	defer server.Close()

	client := openrouter.NewClient("test-key")
	client.SetBaseURL(server.URL)

	resp, err := client.Generate(context.Background(), llm.GenerateRequest{Model: "mistral-large", Prompt: "hi"})

	require.NoError(t, err)
	assert.Equal(t, "routed through aggregator", resp.Content)
	assert.Equal(t, "openrouter", client.Provider())
	assert.Equal(t, 42, resp.TokensIn)
}

func TestGenerateUpstreamUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(502)
		_, _ = w.Write([]byte(`{"error": {"message": "upstream provider unavailable", "code": 502}}`))
	}))
	defer server.Close()

	client := openrouter.NewClient("test-key")
	client.SetBaseURL(server.URL)

	_, err := client.Generate(context.Background(), llm.GenerateRequest{Model: "mistral-large", Prompt: "hi"})

	var classified *llmhttp.Error
	require.True(t, errors.As(err, &classified))
	assert.Equal(t, llmhttp.ClassServer, classified.Class)
	assert.True(t, classified.IsRetryable())
}
