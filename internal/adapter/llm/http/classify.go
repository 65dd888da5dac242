package http

import (
	"context"
	"errors"
	"net"
	"strings"
)

// messagePatterns maps lowercase substrings to classes, checked in order.
// Status codes are authoritative; these patterns only disambiguate codes that
// several failure modes share (e.g. 400 can be a bad request, an oversized
// context, or a filtered response) and classify transport-level errors that
// carry no code at all.
var messagePatterns = []struct {
	substrings []string
	class      ErrorClass
}{
	{[]string{"context length", "context_length", "maximum context", "too many tokens", "token limit", "prompt is too long"}, ClassContextLength},
	{[]string{"content filter", "content_filter", "content policy", "safety", "blocked by"}, ClassContentFilter},
	{[]string{"rate limit", "rate_limit", "quota exceeded", "too many requests", "overloaded"}, ClassRateLimit},
	{[]string{"invalid api key", "invalid x-api-key", "incorrect api key", "unauthorized", "authentication"}, ClassAuth},
	{[]string{"model not found", "model_not_found", "does not exist", "unknown model", "no such model"}, ClassModelUnavailable},
	{[]string{"timeout", "timed out", "deadline exceeded"}, ClassTimeout},
	{[]string{"internal server error", "server error", "bad gateway", "service unavailable"}, ClassServer},
}

// ClassifyStatus maps an HTTP status code and response body to an error
// class. The code decides when it is unambiguous; the body's message patterns
// break ties for shared codes.
func ClassifyStatus(statusCode int, body string) ErrorClass {
	switch statusCode {
	case 401, 403:
		return ClassAuth
	case 404:
		return ClassModelUnavailable
	case 429:
		return ClassRateLimit
	case 408, 504:
		return ClassTimeout
	case 500, 502, 503, 529:
		return ClassServer
	}

	if class, ok := classifyMessage(body); ok {
		return class
	}
	if statusCode >= 500 {
		return ClassServer
	}
	return ClassUnknown
}

// ClassifyError funnels any error from a provider call into a classified
// *Error. Already-classified errors pass through unchanged; transport errors
// are classified by type first, then by message pattern.
func ClassifyError(provider string, err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError(provider, err.Error())
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewTimeoutError(provider, err.Error())
	}

	if class, ok := classifyMessage(err.Error()); ok {
		return NewError(class, provider, err.Error(), 0)
	}
	return NewError(ClassUnknown, provider, err.Error(), 0)
}

func classifyMessage(message string) (ErrorClass, bool) {
	lower := strings.ToLower(message)
	for _, p := range messagePatterns {
		for _, s := range p.substrings {
			if strings.Contains(lower, s) {
				return p.class, true
			}
		}
	}
	return ClassUnknown, false
}
