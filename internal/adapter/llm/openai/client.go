// Package openai is a raw-HTTP adapter for the OpenAI Chat Completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/brandon/webhook-agent/internal/adapter/llm"
	llmhttp "github.com/brandon/webhook-agent/internal/adapter/llm/http"
)

const (
	providerName   = "openai"
	defaultBaseURL = "https://api.openai.com"
	defaultTimeout = 120 * time.Second
)

// Client calls the OpenAI Chat Completions API. One attempt per Generate
// call; the execution supervisor owns retry and fallback policy.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient creates an OpenAI client.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: defaultTimeout},
	}
}

// SetBaseURL sets a custom base URL (for testing).
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// SetTimeout sets the per-call timeout ceiling.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.client.Timeout = timeout
}

// Provider returns the provider identifier.
func (c *Client) Provider() string {
	return providerName
}

// Generate performs one Chat Completions call.
func (c *Client) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	messages := make([]chatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body := chatRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, llmhttp.NewError(llmhttp.ClassUnknown, providerName, err.Error(), 0)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, llmhttp.ClassifyError(providerName, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, llmhttp.ClassifyError(providerName, err)
	}

	if resp.StatusCode >= 400 {
		return nil, errorFromResponse(providerName, resp.StatusCode, respBody)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, llmhttp.NewError(llmhttp.ClassUnknown, providerName, "unparseable response: "+err.Error(), resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return nil, llmhttp.NewError(llmhttp.ClassUnknown, providerName, "no choices in response", resp.StatusCode)
	}

	choice := parsed.Choices[0]
	if choice.FinishReason == "content_filter" {
		return nil, llmhttp.NewContentFilterError(providerName, "completion stopped by content filter")
	}

	return &llm.GenerateResponse{
		Content:    choice.Message.Content,
		Model:      parsed.Model,
		TokensIn:   parsed.Usage.PromptTokens,
		TokensOut:  parsed.Usage.CompletionTokens,
		StopReason: choice.FinishReason,
	}, nil
}

// errorFromResponse maps an error response to a classified error, preferring
// the API's own message over the bare status code.
func errorFromResponse(provider string, statusCode int, body []byte) error {
	message := fmt.Sprintf("HTTP %d", statusCode)
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}
	class := llmhttp.ClassifyStatus(statusCode, message)
	return llmhttp.NewError(class, provider, message, statusCode)
}
