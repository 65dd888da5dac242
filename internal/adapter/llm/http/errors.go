package http

import "fmt"

// ErrorClass categorizes a provider-call failure. Classes drive both the
// same-model retry decision and the fallback delay, so they must be stable
// strings rather than provider-specific messages.
type ErrorClass string

const (
	ClassRateLimit        ErrorClass = "rate_limit"
	ClassAuth             ErrorClass = "auth_error"
	ClassModelUnavailable ErrorClass = "model_unavailable"
	ClassContextLength    ErrorClass = "context_length"
	ClassServer           ErrorClass = "server_error"
	ClassTimeout          ErrorClass = "timeout"
	ClassContentFilter    ErrorClass = "content_filter"
	ClassUnknown          ErrorClass = "unknown"
)

// Retryable reports whether the same model is worth retrying for this class.
// Auth, unavailable-model, context-length, and filtered-content failures will
// fail identically on every retry.
func (c ErrorClass) Retryable() bool {
	switch c {
	case ClassRateLimit, ClassServer, ClassTimeout:
		return true
	default:
		return false
	}
}

// Error is a classified provider-call failure.
type Error struct {
	Class      ErrorClass
	Message    string
	StatusCode int
	Provider   string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s: %s (status: %d)", e.Provider, e.Class, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Class, e.Message)
}

// Is matches errors by class, enabling errors.Is against a class prototype.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Class == t.Class
}

// IsRetryable reports whether this error's class permits a same-model retry.
func (e *Error) IsRetryable() bool {
	return e.Class.Retryable()
}

// NewError constructs a classified error.
func NewError(class ErrorClass, provider, message string, statusCode int) *Error {
	return &Error{
		Class:      class,
		Message:    message,
		StatusCode: statusCode,
		Provider:   provider,
	}
}

// NewRateLimitError creates a rate-limit error.
func NewRateLimitError(provider, message string) *Error {
	return NewError(ClassRateLimit, provider, message, 429)
}

// NewAuthError creates an authentication error.
func NewAuthError(provider, message string) *Error {
	return NewError(ClassAuth, provider, message, 401)
}

// NewModelUnavailableError creates a model-unavailable error.
func NewModelUnavailableError(provider, message string) *Error {
	return NewError(ClassModelUnavailable, provider, message, 404)
}

// NewContextLengthError creates a context-length error.
func NewContextLengthError(provider, message string) *Error {
	return NewError(ClassContextLength, provider, message, 400)
}

// NewServerError creates a server-side error.
func NewServerError(provider, message string, statusCode int) *Error {
	return NewError(ClassServer, provider, message, statusCode)
}

// NewTimeoutError creates a timeout error.
func NewTimeoutError(provider, message string) *Error {
	return NewError(ClassTimeout, provider, message, 0)
}

// NewContentFilterError creates a content-filter error.
func NewContentFilterError(provider, message string) *Error {
	return NewError(ClassContentFilter, provider, message, 400)
}
