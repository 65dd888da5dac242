package http

import "strings"

// Pricing calculates API costs based on token usage.
type Pricing interface {
	// Cost returns the USD cost for a call with the given token counts.
	Cost(provider, model string, tokensIn, tokensOut int) float64
}

// ModelPricing holds per-1000-token prices for a model family in USD.
type ModelPricing struct {
	InputPerK  float64
	OutputPerK float64
}

// DefaultPricing resolves prices by longest model-name prefix, so dated
// releases (claude-sonnet-4-5-20250929) price the same as their family.
type DefaultPricing struct {
	prices map[string]map[string]ModelPricing
}

// NewDefaultPricing creates a pricing calculator with current rates.
func NewDefaultPricing() *DefaultPricing {
	return &DefaultPricing{prices: buildPricingTable()}
}

// Cost calculates the cost for a given request. Unknown providers or models
// price at zero; a missing table entry must never block execution.
func (p *DefaultPricing) Cost(provider, model string, tokensIn, tokensOut int) float64 {
	models, ok := p.prices[provider]
	if !ok {
		return 0.0
	}

	price, ok := models[model]
	if !ok {
		// Longest matching prefix wins. The empty prefix acts as a
		// provider-wide default rate.
		bestLen := -1
		for prefix, mp := range models {
			if strings.HasPrefix(model, prefix) && len(prefix) > bestLen {
				price, bestLen = mp, len(prefix)
			}
		}
		if bestLen < 0 {
			return 0.0
		}
	}

	return float64(tokensIn)/1000.0*price.InputPerK + float64(tokensOut)/1000.0*price.OutputPerK
}

// buildPricingTable returns per-1K-token prices.
// Pricing as of: 2026-08-01
// Sources:
// - OpenAI: https://openai.com/api/pricing/
// - Anthropic: https://claude.com/pricing
// - Gemini: https://ai.google.dev/gemini-api/docs/pricing
// - OpenRouter: passthrough of the underlying model's rates (approximated)
func buildPricingTable() map[string]map[string]ModelPricing {
	return map[string]map[string]ModelPricing{
		"anthropic": {
			"claude-opus-4":   {InputPerK: 0.005, OutputPerK: 0.025},
			"claude-sonnet-4": {InputPerK: 0.003, OutputPerK: 0.015},
			"claude-haiku-4":  {InputPerK: 0.001, OutputPerK: 0.005},
			"claude-3-5":      {InputPerK: 0.003, OutputPerK: 0.015},
		},
		"openai": {
			"gpt-4o":      {InputPerK: 0.0025, OutputPerK: 0.010},
			"gpt-4o-mini": {InputPerK: 0.00015, OutputPerK: 0.0006},
			"o1":          {InputPerK: 0.015, OutputPerK: 0.060},
			"o3-mini":     {InputPerK: 0.0011, OutputPerK: 0.0044},
			"o4-mini":     {InputPerK: 0.0011, OutputPerK: 0.0044},
		},
		"google": {
			"gemini-2.5-pro":   {InputPerK: 0.00125, OutputPerK: 0.010},
			"gemini-2.5-flash": {InputPerK: 0.00015, OutputPerK: 0.0006},
			"gemini-1.5":       {InputPerK: 0.00125, OutputPerK: 0.005},
		},
		"openrouter": {
			"": {InputPerK: 0.003, OutputPerK: 0.015},
		},
	}
}
