// Package markdown renders execution results into the comment body posted
// back to the triggering issue or pull request.
package markdown

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/brandon/webhook-agent/internal/domain"
)

// Renderer builds Markdown comment bodies.
type Renderer struct {
	caser cases.Caser
}

// NewRenderer constructs a renderer.
func NewRenderer() *Renderer {
	return &Renderer{caser: cases.Title(language.English)}
}

// Render produces the comment for a completed request, successful or not.
func (r *Renderer) Render(pc domain.ProblemContext, result domain.ExecutionResult) string {
	if result.Success {
		return r.renderSuccess(pc, result)
	}
	return r.renderFailure(result)
}

func (r *Renderer) renderSuccess(pc domain.ProblemContext, result domain.ExecutionResult) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("## %s\n\n", r.heading(pc.Intent)))
	builder.WriteString(result.Content)
	builder.WriteString("\n\n---\n")
	builder.WriteString(fmt.Sprintf("*Model: %s · Attempts: %d · Cost: $%.4f*\n",
		result.Model, len(result.Attempts), result.TotalCost))
	if pc.Truncated {
		builder.WriteString("*Note: the request context was truncated to fit the size limit.*\n")
	}
	return builder.String()
}

func (r *Renderer) renderFailure(result domain.ExecutionResult) string {
	var builder strings.Builder
	builder.WriteString("## Unable To Complete Request\n\n")

	terminal := result.TerminalError
	if terminal == nil {
		builder.WriteString("The request failed before any model could be attempted.\n")
		return builder.String()
	}

	builder.WriteString(fmt.Sprintf("Every configured model failed (last error class: `%s`).\n\n", terminal.Class))
	if len(terminal.AttemptedModels) > 0 {
		builder.WriteString("Models attempted:\n")
		for _, model := range terminal.AttemptedModels {
			builder.WriteString(fmt.Sprintf("- `%s`\n", model))
		}
		builder.WriteString("\n")
	}
	if terminal.Hint != "" {
		builder.WriteString(fmt.Sprintf("**Hint:** %s\n\n", terminal.Hint))
	}
	builder.WriteString(fmt.Sprintf("*Attempts: %d · Cost incurred: $%.4f*\n",
		len(result.Attempts), result.TotalCost))
	return builder.String()
}

// heading maps an intent to its section title.
func (r *Renderer) heading(intent domain.Intent) string {
	switch intent {
	case domain.IntentPatch:
		return "Proposed Fix"
	case domain.IntentAnalysis:
		return "Analysis"
	case domain.IntentOpinion:
		return "Opinion"
	case domain.IntentVisual:
		return "Diagram"
	case domain.IntentPRReview:
		return "Review"
	default:
		return r.caser.String(strings.ReplaceAll(string(intent), "_", " "))
	}
}
