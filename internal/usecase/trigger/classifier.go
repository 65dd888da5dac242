// Package trigger scans event text for the mention phrase and classifies the
// request into an intent.
package trigger

import (
	"strings"

	"github.com/brandon/webhook-agent/internal/domain"
)

// DefaultMention is the phrase that activates processing when no override is
// configured.
const DefaultMention = "@swe-agent"

// rule pairs a predicate with the intent it selects. Rules are evaluated
// top-to-bottom and the first match wins, which is what makes classification
// deterministic for text matching several vocabularies at once.
type rule struct {
	name    string
	matches func(text string, isPullRequest bool) bool
	intent  domain.Intent
}

// Classifier detects the mention phrase and applies the intent rules.
type Classifier struct {
	mention string
	rules   []rule
}

// NewClassifier creates a classifier for the given mention phrase. An empty
// phrase selects DefaultMention.
func NewClassifier(mention string) *Classifier {
	if mention == "" {
		mention = DefaultMention
	}
	return &Classifier{
		mention: strings.ToLower(mention),
		rules:   intentRules(),
	}
}

// intentRules returns the fixed priority order. Review outranks everything
// but only applies in a pull request context; patch vocabulary is last and
// also serves as the default for a bare mention.
func intentRules() []rule {
	return []rule{
		{
			name: "pr_review",
			matches: func(text string, isPullRequest bool) bool {
				return isPullRequest && containsAny(text, reviewVocabulary)
			},
			intent: domain.IntentPRReview,
		},
		{
			name: "visual",
			matches: func(text string, _ bool) bool {
				return containsAny(text, visualVocabulary)
			},
			intent: domain.IntentVisual,
		},
		{
			name: "analysis",
			matches: func(text string, _ bool) bool {
				return containsAny(text, analysisVocabulary)
			},
			intent: domain.IntentAnalysis,
		},
		{
			name: "opinion",
			matches: func(text string, _ bool) bool {
				return containsAny(text, opinionVocabulary)
			},
			intent: domain.IntentOpinion,
		},
		{
			name: "patch",
			matches: func(text string, _ bool) bool {
				return containsAny(text, patchVocabulary)
			},
			intent: domain.IntentPatch,
		},
	}
}

var (
	reviewVocabulary   = []string{"review", "lgtm", "approve", "look over", "looks good"}
	visualVocabulary   = []string{"diagram", "flowchart", "visualize", "visualise", "draw", "chart"}
	analysisVocabulary = []string{"explain", "analyze", "analyse", "analysis", "investigate", "understand", "what does", "how does", "why does", "root cause"}
	opinionVocabulary  = []string{"opinion", "recommend", "suggest", "thoughts", "what do you think", "should i", "should we", "advice"}
	patchVocabulary    = []string{"fix", "implement", "patch", "refactor", "add ", "change", "update", "resolve", "create"}
)

// Classify scans text for the mention phrase and derives a TriggerCommand.
// It is a pure function of its inputs.
func (c *Classifier) Classify(text string, isPullRequest bool) domain.TriggerCommand {
	lower := strings.ToLower(text)

	idx := strings.Index(lower, c.mention)
	if idx < 0 {
		return domain.TriggerCommand{Triggered: false, Intent: domain.IntentUnknown}
	}

	arguments := strings.TrimSpace(text[idx+len(c.mention):])

	cmd := domain.TriggerCommand{
		Triggered:   true,
		MatchedText: text[idx : idx+len(c.mention)],
		Arguments:   arguments,
		Intent:      domain.IntentPatch,
	}

	for _, r := range c.rules {
		if r.matches(lower, isPullRequest) {
			cmd.Intent = r.intent
			break
		}
	}

	// Auxiliary extraction rides along for downstream context assembly; it
	// never influences the intent decision above.
	cmd.CodeSnippets = ExtractCodeSnippets(text)
	cmd.MentionedFiles = ExtractFilePaths(text)
	cmd.IssueRefs = ExtractIssueRefs(text)
	cmd.Language = DetectLanguage(cmd.CodeSnippets, cmd.MentionedFiles)

	return cmd
}

func containsAny(text string, vocabulary []string) bool {
	for _, word := range vocabulary {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}
