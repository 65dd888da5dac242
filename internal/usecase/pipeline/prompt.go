package pipeline

import (
	"fmt"
	"strings"

	"github.com/brandon/webhook-agent/internal/domain"
)

// intentInstructions tells the model what shape of answer each intent wants.
var intentInstructions = map[domain.Intent]string{
	domain.IntentPatch:    "Propose a concrete fix. Show the changed code in fenced blocks with file paths, and explain each change briefly.",
	domain.IntentAnalysis: "Explain the likely root cause. Walk through the failing path and point at the specific code responsible.",
	domain.IntentOpinion:  "Give a considered engineering opinion with a clear recommendation and its tradeoffs.",
	domain.IntentVisual:   "Produce a Mermaid diagram of the relevant structure or flow, followed by a short explanation.",
	domain.IntentPRReview: "Review the change as a careful senior engineer. Call out bugs, risks, and concrete improvements; be specific about locations.",
}

// BuildPrompt renders the system and user prompts for one problem context.
// The rendering is deterministic: same context, same prompt.
func BuildPrompt(pc domain.ProblemContext, cmd domain.TriggerCommand) (system, prompt string) {
	system = "You are a software engineering agent responding inside an issue tracker. " +
		"Answer in Markdown suitable for a comment. Be precise and grounded in the provided context; say so when the context is insufficient."

	var builder strings.Builder
	instruction := intentInstructions[pc.Intent]
	if instruction == "" {
		instruction = intentInstructions[domain.IntentAnalysis]
	}
	builder.WriteString(instruction)
	builder.WriteString("\n\n")

	builder.WriteString(fmt.Sprintf("Repository: %s\n", pc.Repository.FullName))
	if pc.IsPullRequest {
		builder.WriteString(fmt.Sprintf("Pull request: #%d\n", pc.IssueNumber))
	} else {
		builder.WriteString(fmt.Sprintf("Issue: #%d\n", pc.IssueNumber))
	}
	if pc.Title != "" {
		builder.WriteString(fmt.Sprintf("Title: %s\n", pc.Title))
	}
	builder.WriteString("\n")

	if pc.Body != "" {
		builder.WriteString("Description:\n")
		builder.WriteString(pc.Body)
		builder.WriteString("\n\n")
	}
	if pc.CommentBody != "" {
		builder.WriteString("Triggering comment:\n")
		builder.WriteString(pc.CommentBody)
		builder.WriteString("\n\n")
	}
	if cmd.Arguments != "" {
		builder.WriteString(fmt.Sprintf("Request: %s\n\n", cmd.Arguments))
	}

	for _, snippet := range pc.CodeSnippets {
		builder.WriteString(fmt.Sprintf("```%s\n%s\n```\n\n", snippet.Language, snippet.Content))
	}
	if pc.DiffExcerpt != "" {
		builder.WriteString("Relevant diff:\n```diff\n")
		builder.WriteString(pc.DiffExcerpt)
		builder.WriteString("\n```\n\n")
	}
	if len(pc.MentionedFiles) > 0 {
		builder.WriteString(fmt.Sprintf("Files mentioned: %s\n", strings.Join(pc.MentionedFiles, ", ")))
	}
	if len(pc.DetectedErrors) > 0 {
		builder.WriteString("Error output:\n")
		for _, line := range pc.DetectedErrors {
			builder.WriteString("  ")
			builder.WriteString(line)
			builder.WriteString("\n")
		}
	}

	return system, strings.TrimRight(builder.String(), "\n")
}
