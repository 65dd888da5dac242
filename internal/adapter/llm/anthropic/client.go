// Package anthropic is a raw-HTTP adapter for the Anthropic Messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/brandon/webhook-agent/internal/adapter/llm"
	llmhttp "github.com/brandon/webhook-agent/internal/adapter/llm/http"
)

const (
	providerName     = "anthropic"
	defaultBaseURL   = "https://api.anthropic.com"
	defaultTimeout   = 120 * time.Second
	anthropicVersion = "2023-06-01"
)

// Client calls the Anthropic Messages API. It performs exactly one attempt
// per Generate call; retry and fallback policy belong to the execution
// supervisor, which needs every attempt in its audit trail.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient creates an Anthropic client.
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

// Generate performs one Messages API call.
func (c *Client) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	body := messagesRequest{
		Model:       req.Model,
		System:      req.System,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Messages:    []message{{Role: "user", Content: req.Prompt}},
	}
	if body.MaxTokens == 0 {
		body.MaxTokens = 4096
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(jsonData))
	if err != nil {
		return nil, llmhttp.NewError(llmhttp.ClassUnknown, providerName, err.Error(), 0)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

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
		return nil, c.errorFromResponse(resp.StatusCode, respBody)
	}

	var parsed messagesResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, llmhttp.NewError(llmhttp.ClassUnknown, providerName, "unparseable response: "+err.Error(), resp.StatusCode)
	}

	if parsed.StopReason == "refusal" {
		return nil, llmhttp.NewContentFilterError(providerName, "model refused the request")
	}

	var parts []string
	for _, block := range parsed.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return nil, llmhttp.NewError(llmhttp.ClassUnknown, providerName, "no text content in response", resp.StatusCode)
	}

	return &llm.GenerateResponse{
		Content:    strings.Join(parts, ""),
		Model:      parsed.Model,
		TokensIn:   parsed.Usage.InputTokens,
		TokensOut:  parsed.Usage.OutputTokens,
		StopReason: parsed.StopReason,
	}, nil
}

// errorFromResponse maps an error response to a classified error, preferring
// the API's own message over the bare status code.
func (c *Client) errorFromResponse(statusCode int, body []byte) error {
	message := fmt.Sprintf("HTTP %d", statusCode)
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}
	class := llmhttp.ClassifyStatus(statusCode, message)
	return llmhttp.NewError(class, providerName, message, statusCode)
}
