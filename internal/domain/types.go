package domain

import (
	"time"
)

// Repository identifies the repository an event originated from.
type Repository struct {
	Owner         string `json:"owner"`
	Name          string `json:"name"`
	FullName      string `json:"fullName"`
	Private       bool   `json:"private"`
	DefaultBranch string `json:"defaultBranch"`
}

// Actor is the user (or bot) that caused the event.
type Actor struct {
	Login string `json:"login"`
	IsBot bool   `json:"isBot"`
}

// WebhookEnvelope is the parsed, authenticated form of one webhook delivery.
// It is immutable once constructed; downstream stages derive new records from
// it rather than mutating it.
type WebhookEnvelope struct {
	EventType  string     `json:"eventType"`
	Action     string     `json:"action"`
	DeliveryID string     `json:"deliveryId"`
	Repository Repository `json:"repository"`
	Sender     Actor      `json:"sender"`

	// IssueNumber is the issue or pull request number the event refers to.
	IssueNumber int `json:"issueNumber"`

	// IsPullRequest reports whether the event refers to a pull request
	// (directly, or via a comment on one).
	IsPullRequest bool `json:"isPullRequest"`

	Title       string `json:"title"`
	Body        string `json:"body"`
	CommentBody string `json:"commentBody"`

	// DiffHunk is the diff excerpt attached to a review comment, if any.
	DiffHunk string `json:"diffHunk"`

	// RawPayload is the unparsed delivery body, retained for auditing.
	RawPayload []byte `json:"-"`
}

// Text returns the free text a trigger mention would appear in: the comment
// body when present, otherwise the issue/PR body.
func (e WebhookEnvelope) Text() string {
	if e.CommentBody != "" {
		return e.CommentBody
	}
	return e.Body
}

// Intent is the classified purpose of a triggered request.
type Intent string

const (
	IntentPatch    Intent = "patch"
	IntentAnalysis Intent = "analysis"
	IntentOpinion  Intent = "opinion"
	IntentVisual   Intent = "visual"
	IntentPRReview Intent = "pr_review"
	IntentUnknown  Intent = "unknown"
)

// Operation classes used by the permission gate. Read-class operations never
// change repository state; write-class operations may.
type Operation string

const (
	OperationRead  Operation = "read"
	OperationWrite Operation = "write"
)

// OperationForIntent maps an intent to the permission class it requires.
// Only patching modifies the repository; everything else produces commentary.
func OperationForIntent(intent Intent) Operation {
	if intent == IntentPatch {
		return OperationWrite
	}
	return OperationRead
}

// CodeSnippet is a fenced code block extracted from event text.
type CodeSnippet struct {
	Language string `json:"language"`
	Content  string `json:"content"`
}

// TriggerCommand is the result of scanning event text for the mention phrase.
type TriggerCommand struct {
	Triggered   bool   `json:"triggered"`
	Intent      Intent `json:"intent"`
	MatchedText string `json:"matchedText"`

	// Arguments is the text following the mention phrase, with the phrase
	// itself removed.
	Arguments string `json:"arguments"`

	CodeSnippets   []CodeSnippet `json:"codeSnippets"`
	MentionedFiles []string      `json:"mentionedFiles"`
	IssueRefs      []int         `json:"issueRefs"`
	Language       string        `json:"language"`
}

// ProblemContext is the bounded unit of work handed to the execution
// collaborator. After construction SizeBytes never exceeds the configured
// maximum; Truncated records whether any reduction step ran.
type ProblemContext struct {
	Repository     Repository    `json:"repository"`
	IssueNumber    int           `json:"issueNumber"`
	IsPullRequest  bool          `json:"isPullRequest"`
	Intent         Intent        `json:"intent"`
	Title          string        `json:"title"`
	Body           string        `json:"body"`
	CommentBody    string        `json:"commentBody"`
	CodeSnippets   []CodeSnippet `json:"codeSnippets"`
	DiffExcerpt    string        `json:"diffExcerpt,omitempty"`
	MentionedFiles []string      `json:"mentionedFiles"`
	DetectedErrors []string      `json:"detectedErrors"`
	SizeBytes      int           `json:"sizeBytes"`
	Truncated      bool          `json:"truncated"`
}

// PermissionDecision is the outcome of one authorization question.
type PermissionDecision struct {
	SubjectKey string    `json:"subjectKey"`
	Allowed    bool      `json:"allowed"`
	Reason     string    `json:"reason,omitempty"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// ProviderDescriptor is static metadata describing how to reach and price a
// model family. The table of descriptors is built once at startup and never
// mutated.
type ProviderDescriptor struct {
	Provider           string  `json:"provider"`
	CredentialEnvName  string  `json:"credentialEnvName"`
	BaseURL            string  `json:"baseUrl,omitempty"`
	PricePerKTokensIn  float64 `json:"pricePerKTokensIn"`
	PricePerKTokensOut float64 `json:"pricePerKTokensOut"`

	// KeyPrefix and KeyMinLength describe the provider's credential shape,
	// when known. Empty/zero means no shape check applies.
	KeyPrefix    string `json:"keyPrefix,omitempty"`
	KeyMinLength int    `json:"keyMinLength,omitempty"`

	// MaxRetries and BaseDelay govern same-model retries for this provider.
	MaxRetries int           `json:"maxRetries"`
	BaseDelay  time.Duration `json:"baseDelay"`
}

// AttemptOutcome classifies how a single execution attempt ended.
type AttemptOutcome string

const (
	OutcomeSuccess   AttemptOutcome = "success"
	OutcomeRetryable AttemptOutcome = "retryable"
	OutcomeFatal     AttemptOutcome = "fatal"
)

// ExecutionAttempt is one try against one model. The ordered list of attempts
// forms the audit trail for a logical request.
type ExecutionAttempt struct {
	Model        string         `json:"model"`
	Provider     string         `json:"provider"`
	StartedAt    time.Time      `json:"startedAt"`
	Duration     time.Duration  `json:"duration"`
	Outcome      AttemptOutcome `json:"outcome"`
	ErrorClass   string         `json:"errorClass,omitempty"`
	CostIncurred float64        `json:"costIncurred"`
}

// ExecutionResult is the terminal record of a logical request, produced once
// and handed to the presentation collaborator.
type ExecutionResult struct {
	Success   bool               `json:"success"`
	Content   string             `json:"content,omitempty"`
	Model     string             `json:"model,omitempty"`
	TotalCost float64            `json:"totalCost"`
	Attempts  []ExecutionAttempt `json:"attempts"`

	// TerminalError describes the final failure when Success is false.
	TerminalError *TerminalError `json:"terminalError,omitempty"`
}

// AttemptedModels lists each model that appears in the attempt trail, in
// first-attempt order without repeats.
func (r ExecutionResult) AttemptedModels() []string {
	seen := make(map[string]bool, len(r.Attempts))
	var models []string
	for _, a := range r.Attempts {
		if !seen[a.Model] {
			seen[a.Model] = true
			models = append(models, a.Model)
		}
	}
	return models
}

// TerminalError captures why a request failed after every model was exhausted.
type TerminalError struct {
	Class           string   `json:"class"`
	Message         string   `json:"message"`
	AttemptedModels []string `json:"attemptedModels"`
	Hint            string   `json:"hint,omitempty"`
}

func (e *TerminalError) Error() string {
	return e.Message
}
