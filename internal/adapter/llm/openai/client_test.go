package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandon/webhook-agent/internal/adapter/llm"
	llmhttp "github.com/brandon/webhook-agent/internal/adapter/llm/http"
	"github.com/brandon/webhook-agent/internal/adapter/llm/openai"
)

func TestGenerateSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o", req["model"])

		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"model": "gpt-4o",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "analysis complete"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 80, "completion_tokens": 25, "total_tokens": 105}
		}`))
	}))
	defer server.Close()

	client := openai.NewClient("test-key")
	client.SetBaseURL(server.URL)

	resp, err := client.Generate(context.Background(), llm.GenerateRequest{
		Model:  "gpt-4o",
		System: "you are a software engineering agent",
		Prompt: "explain this error",
	})

	require.NoError(t, err)
	assert.Equal(t, "analysis complete", resp.Content)
	assert.Equal(t, 80, resp.TokensIn)
	assert.Equal(t, 25, resp.TokensOut)
	assert.Equal(t, "stop", resp.StopReason)
}

func TestGenerateContentFilterFinish(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-2",
			"model": "gpt-4o",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": ""}, "finish_reason": "content_filter"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 0, "total_tokens": 10}
		}`))
	}))
	defer server.Close()

	client := openai.NewClient("test-key")
	client.SetBaseURL(server.URL)

	_, err := client.Generate(context.Background(), llm.GenerateRequest{Model: "gpt-4o", Prompt: "hi"})

	var classified *llmhttp.Error
	require.True(t, errors.As(err, &classified))
	assert.Equal(t, llmhttp.ClassContentFilter, classified.Class)
}

func TestGenerateErrorStatus(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantClass  llmhttp.ErrorClass
	}{
		{"429", 429, `{"error":{"message":"Rate limit reached for gpt-4o","type":"requests"}}`, llmhttp.ClassRateLimit},
		{"401", 401, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`, llmhttp.ClassAuth},
		{"500", 500, `{"error":{"message":"The server had an error","type":"server_error"}}`, llmhttp.ClassServer},
		{"400 token limit", 400, `{"error":{"message":"This model's maximum context length is 128000 tokens","type":"invalid_request_error"}}`, llmhttp.ClassContextLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := openai.NewClient("test-key")
			client.SetBaseURL(server.URL)

			_, err := client.Generate(context.Background(), llm.GenerateRequest{Model: "gpt-4o", Prompt: "hi"})
			require.Error(t, err)

			var classified *llmhttp.Error
			require.True(t, errors.As(err, &classified))
			assert.Equal(t, tt.wantClass, classified.Class)
		})
	}
}
