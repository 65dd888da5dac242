// Package openrouter adapts the OpenRouter aggregator, which fronts many
// model families behind an OpenAI-compatible API. The router falls back to it
// when no first-party provider matches a model identifier.
package openrouter

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
	providerName   = "openrouter"
	defaultBaseURL = "https://openrouter.ai/api"
	defaultTimeout = 120 * time.Second
)

// Client calls OpenRouter's chat completions endpoint.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient creates an OpenRouter client.
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

// Generate performs one chat completions call.
func (c *Client) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	messages := make([]wireMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, wireMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, wireMessage{Role: "user", Content: req.Prompt})

	jsonData, err := json.Marshal(wireRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
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
		message := fmt.Sprintf("HTTP %d", resp.StatusCode)
		var errResp wireError
		if jsonErr := json.Unmarshal(respBody, &errResp); jsonErr == nil && errResp.Error.Message != "" {
			message = errResp.Error.Message
		}
		class := llmhttp.ClassifyStatus(resp.StatusCode, message)
		return nil, llmhttp.NewError(class, providerName, message, resp.StatusCode)
	}

	var parsed wireResponse
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

// Wire types are OpenAI-compatible.
type wireRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []wireChoice `json:"choices"`
	Usage   wireUsage    `json:"usage"`
}

type wireChoice struct {
	Message      wireMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type wireUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type wireError struct {
	Error struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error"`
}
