package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for pipeline-stage failures. Stages wrap these with
// fmt.Errorf("...: %w", ...) so callers can test with errors.Is while still
// seeing stage-specific detail.
var (
	// ErrSignatureInvalid means the delivery's HMAC did not verify against
	// the shared secret. The body is never parsed in this case.
	ErrSignatureInvalid = errors.New("webhook signature invalid")

	// ErrUnsupportedEvent means the (eventType, action) pair is outside the
	// allow-list. This is a normal outcome, not a validation failure.
	ErrUnsupportedEvent = errors.New("unsupported event")

	// ErrMalformedPayload means the body verified but could not be parsed
	// into a known event shape.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrNoTrigger means the mention phrase was absent. Normal outcome.
	ErrNoTrigger = errors.New("no trigger phrase")

	// ErrDuplicateDelivery means this delivery ID was already processed.
	ErrDuplicateDelivery = errors.New("duplicate delivery")

	// ErrPermissionDenied means the gate denied (or could not verify) access.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNoProviderConfigured means no provider matched the requested model
	// and no fallback provider has a usable credential.
	ErrNoProviderConfigured = errors.New("no provider configured")

	// ErrMissingCredential means the resolved provider's credential
	// environment variable is unset or empty.
	ErrMissingCredential = errors.New("missing provider credential")

	// ErrMalformedCredential means the credential is present but fails the
	// provider's known shape check.
	ErrMalformedCredential = errors.New("malformed provider credential")

	// ErrFallbackExhausted means every model in the fallback chain failed.
	ErrFallbackExhausted = errors.New("all models exhausted")
)

// Stage names the pipeline stage a failure originated in.
type Stage string

const (
	StageIngress    Stage = "ingress"
	StageTrigger    Stage = "trigger"
	StagePermission Stage = "permission"
	StageContext    Stage = "context"
	StageRouting    Stage = "routing"
	StageExecution  Stage = "execution"
)

// StageError annotates an error with the stage it came from so the
// presentation collaborator can report where processing stopped.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps err with its originating stage.
func NewStageError(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}

// IsSkip reports whether err represents a normal "nothing to do" outcome
// rather than a failure: unsupported events, missing triggers, and duplicate
// deliveries are acknowledged without action.
func IsSkip(err error) bool {
	return errors.Is(err, ErrUnsupportedEvent) ||
		errors.Is(err, ErrNoTrigger) ||
		errors.Is(err, ErrDuplicateDelivery)
}
