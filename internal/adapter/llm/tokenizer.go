package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	defaultEncoder *tiktoken.Tiktoken
	encoderOnce    sync.Once
	encoderErr     error
)

// getEncoder returns the shared tiktoken encoder, initializing it lazily.
// cl100k_base is a reasonable cross-provider approximation for budgeting.
func getEncoder() (*tiktoken.Tiktoken, error) {
	encoderOnce.Do(func() {
		defaultEncoder, encoderErr = tiktoken.GetEncoding("cl100k_base")
	})
	return defaultEncoder, encoderErr
}

// EstimateTokens returns an estimated token count for text. The estimate
// feeds advisory cost calculation before execution; providers report exact
// counts afterwards.
func EstimateTokens(text string) int {
	enc, err := getEncoder()
	if err != nil {
		// Character-based approximation if the encoding is unavailable.
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}
