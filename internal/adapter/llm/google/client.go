// Package google is a raw-HTTP adapter for the Gemini generateContent API.
package google

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
	providerName   = "google"
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultTimeout = 120 * time.Second
)

// Client calls the Gemini generateContent API. One attempt per Generate call;
// the execution supervisor owns retry and fallback policy.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient creates a Gemini client.
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

// Generate performs one generateContent call. The API key travels in a
// header, not the query string, so error messages never leak it.
func (c *Client) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	body := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: req.Prompt}}}},
	}
	if req.System != "" {
		body.SystemInstruction = &content{Parts: []part{{Text: req.System}}}
	}
	if req.MaxTokens > 0 || req.Temperature > 0 {
		body.GenerationConfig = &generationConfig{
			MaxOutputTokens: req.MaxTokens,
			Temperature:     req.Temperature,
		}
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, req.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, llmhttp.NewError(llmhttp.ClassUnknown, providerName, err.Error(), 0)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

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

	var parsed generateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, llmhttp.NewError(llmhttp.ClassUnknown, providerName, "unparseable response: "+err.Error(), resp.StatusCode)
	}
	if len(parsed.Candidates) == 0 {
		// An empty candidate list with a block reason is a safety rejection.
		if parsed.PromptFeedback != nil && parsed.PromptFeedback.BlockReason != "" {
			return nil, llmhttp.NewContentFilterError(providerName, "prompt blocked: "+parsed.PromptFeedback.BlockReason)
		}
		return nil, llmhttp.NewError(llmhttp.ClassUnknown, providerName, "no candidates in response", resp.StatusCode)
	}

	candidate := parsed.Candidates[0]
	if candidate.FinishReason == "SAFETY" || candidate.FinishReason == "PROHIBITED_CONTENT" {
		return nil, llmhttp.NewContentFilterError(providerName, "candidate blocked: "+candidate.FinishReason)
	}

	var parts []string
	for _, p := range candidate.Content.Parts {
		if p.Text != "" {
			parts = append(parts, p.Text)
		}
	}

	return &llm.GenerateResponse{
		Content:    strings.Join(parts, ""),
		Model:      req.Model,
		TokensIn:   parsed.UsageMetadata.PromptTokenCount,
		TokensOut:  parsed.UsageMetadata.CandidatesTokenCount,
		StopReason: candidate.FinishReason,
	}, nil
}

func (c *Client) errorFromResponse(statusCode int, body []byte) error {
	message := fmt.Sprintf("HTTP %d", statusCode)
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}
	class := llmhttp.ClassifyStatus(statusCode, message)
	return llmhttp.NewError(class, providerName, message, statusCode)
}
