// Package redaction scrubs credential material from webhook-supplied text.
// Issue bodies and comments routinely contain pasted logs and config; nothing
// that looks like a live secret may travel to a model provider or be echoed
// back into a public comment.
package redaction

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// Engine performs regex-based secret detection and replacement.
type Engine struct {
	patterns []*regexp.Regexp
}

// NewEngine creates an engine with the default secret patterns.
func NewEngine() *Engine {
	return &Engine{patterns: defaultPatterns()}
}

// Redact replaces every detected secret with a stable placeholder. The
// placeholder is derived from the secret's hash, so repeated occurrences of
// the same secret redact to the same token and the text stays readable.
func (e *Engine) Redact(input string) string {
	placeholders := make(map[string]string)
	for _, pattern := range e.patterns {
		for _, match := range pattern.FindAllString(input, -1) {
			if _, seen := placeholders[match]; seen {
				continue
			}
			placeholders[match] = placeholder(match)
		}
	}

	result := input
	for secret, token := range placeholders {
		result = strings.ReplaceAll(result, secret, token)
	}
	return result
}

// IsRedacted reports whether content carries redaction placeholders.
func (e *Engine) IsRedacted(content string) bool {
	return strings.Contains(content, "<REDACTED:")
}

func placeholder(secret string) string {
	hash := sha256.Sum256([]byte(secret))
	return fmt.Sprintf("<REDACTED:%s>", hex.EncodeToString(hash[:])[:8])
}

// defaultPatterns covers the credential shapes most often pasted into issue
// threads. Longer, more specific patterns come first so they win the
// replacement over their generic prefixes.
func defaultPatterns() []*regexp.Regexp {
	patterns := []string{
		// Anthropic API keys (before the generic sk- pattern)
		`sk-ant-[a-zA-Z0-9\-]{20,}`,
		// OpenAI / OpenRouter API keys
		`sk-[a-zA-Z0-9\-]{20,}`,
		// GitHub tokens
		`gh[posr]_[a-zA-Z0-9]{20,}`,
		// AWS access key IDs
		`AKIA[0-9A-Z]{16}`,
		// Google API keys
		`AIza[0-9A-Za-z\-_]{35}`,
		// JWTs
		`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`,
		// PEM private keys
		`-----BEGIN\s+(?:RSA|EC|OPENSSH|DSA|ENCRYPTED)\s+PRIVATE\s+KEY-----[\s\S]*?-----END\s+(?:RSA|EC|OPENSSH|DSA|ENCRYPTED)\s+PRIVATE\s+KEY-----`,
		// Slack tokens
		`xox[baprs]-[a-zA-Z0-9\-]{10,}`,
		// Bearer tokens quoted from HTTP headers
		`Bearer\s+[a-zA-Z0-9_\-\.]{20,}`,
	}

	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		compiled = append(compiled, regexp.MustCompile(pattern))
	}
	return compiled
}
