// Package assemble builds the bounded problem context handed to the
// execution collaborator. Whatever the inbound event contains, the serialized
// context never exceeds the configured byte budget; oversized input loses
// information deterministically, least-valuable-first.
package assemble

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/brandon/webhook-agent/internal/domain"
)

const (
	// DefaultMaxContextSize is the serialized byte budget when no override
	// is configured.
	DefaultMaxContextSize = 30000

	// MinContextSize is the smallest workable budget: below this the JSON
	// envelope overhead alone defeats truncation.
	MinContextSize = 1024
)

// Redactor scrubs credential material from webhook-supplied text before it
// leaves the service.
type Redactor interface {
	Redact(input string) string
}

// Builder assembles ProblemContext records.
type Builder struct {
	maxContextSize int
	redactor       Redactor
}

// NewBuilder creates a builder with the given serialized-size budget.
// Budgets below MinContextSize are raised to it.
func NewBuilder(maxContextSize int) *Builder {
	if maxContextSize < MinContextSize {
		maxContextSize = MinContextSize
	}
	return &Builder{maxContextSize: maxContextSize}
}

// SetRedactor enables secret scrubbing of the assembled free text.
func (b *Builder) SetRedactor(r Redactor) {
	b.redactor = r
}

// Build aggregates the envelope and trigger command into a ProblemContext
// and enforces the size budget. Free text is scrubbed before measurement so
// the budget applies to what actually ships.
func (b *Builder) Build(env domain.WebhookEnvelope, cmd domain.TriggerCommand) domain.ProblemContext {
	pc := domain.ProblemContext{
		Repository:     env.Repository,
		IssueNumber:    env.IssueNumber,
		IsPullRequest:  env.IsPullRequest,
		Intent:         cmd.Intent,
		Title:          b.scrub(env.Title),
		Body:           b.scrub(env.Body),
		CommentBody:    b.scrub(env.CommentBody),
		CodeSnippets:   b.scrubSnippets(cmd.CodeSnippets),
		DiffExcerpt:    b.scrub(ExcerptDiff(env.DiffHunk, maxDiffLines)),
		MentionedFiles: cmd.MentionedFiles,
		DetectedErrors: DetectErrors(b.scrub(env.Title + "\n" + env.Body + "\n" + env.CommentBody)),
	}
	return b.Truncate(pc)
}

func (b *Builder) scrub(text string) string {
	if b.redactor == nil || text == "" {
		return text
	}
	return b.redactor.Redact(text)
}

func (b *Builder) scrubSnippets(snippets []domain.CodeSnippet) []domain.CodeSnippet {
	if b.redactor == nil || len(snippets) == 0 {
		return snippets
	}
	out := make([]domain.CodeSnippet, len(snippets))
	for i, s := range snippets {
		s.Content = b.redactor.Redact(s.Content)
		out[i] = s
	}
	return out
}

// Truncate applies the reduction ladder until the serialized size fits the
// budget, re-measuring after each step. It is idempotent: feeding its output
// back in returns the same context.
func (b *Builder) Truncate(pc domain.ProblemContext) domain.ProblemContext {
	truncated := pc.Truncated
	pc.SizeBytes = measure(pc)

	for _, step := range reductionLadder {
		if pc.SizeBytes <= b.maxContextSize {
			break
		}
		var changed bool
		pc, changed = step(pc)
		truncated = truncated || changed
		pc.SizeBytes = measure(pc)
	}

	pc.Truncated = truncated
	return pc
}

// measure returns the serialized size of the context's content. The size and
// truncation bookkeeping fields are zeroed first so measurement does not feed
// back into itself.
func measure(pc domain.ProblemContext) int {
	pc.SizeBytes = 0
	pc.Truncated = false
	data, err := json.Marshal(pc)
	if err != nil {
		// Marshalling a struct of strings and ints cannot fail; treat it as
		// over-budget if it somehow does.
		return int(^uint(0) >> 1)
	}
	return len(data)
}

// errorLinePatterns marks lines worth surfacing as detected errors.
var errorLinePatterns = []string{
	"panic:", "fatal:", "error:", "error ", "exception", "traceback",
	"undefined", "null pointer", "nil pointer", "segmentation fault",
	"stack trace", "failed:", "failure:",
}

// DetectErrors returns the lines of text that look like error output,
// trimmed, in order, without duplicates.
func DetectErrors(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		lower := strings.ToLower(trimmed)
		for _, p := range errorLinePatterns {
			if strings.Contains(lower, p) {
				seen[trimmed] = true
				out = append(out, trimmed)
				break
			}
		}
	}
	return out
}

// Describe returns a compact one-line summary for logging.
func Describe(pc domain.ProblemContext) string {
	return fmt.Sprintf("%s#%d intent=%s size=%dB truncated=%t",
		pc.Repository.FullName, pc.IssueNumber, pc.Intent, pc.SizeBytes, pc.Truncated)
}
