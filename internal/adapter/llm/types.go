// Package llm defines the provider-client surface the execution supervisor
// drives. Each provider adapter (anthropic, openai, google, openrouter)
// implements Client over raw HTTP with classified errors.
package llm

import "context"

// GenerateRequest asks a provider for a completion.
type GenerateRequest struct {
	Model       string
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// GenerateResponse is the standardized response from any provider.
type GenerateResponse struct {
	Content    string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
}

// Client is implemented by each provider adapter. Generate either returns a
// response or an error classifiable by the llm/http package; adapters never
// surface raw transport errors.
type Client interface {
	// Provider returns the provider identifier ("anthropic", "openai", ...).
	Provider() string

	// Generate performs one completion call. Every call carries the
	// adapter's timeout ceiling.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}
