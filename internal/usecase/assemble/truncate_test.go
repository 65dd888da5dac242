package assemble_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brandon/webhook-agent/internal/domain"
	"github.com/brandon/webhook-agent/internal/usecase/assemble"
)

func oversizedContext() domain.ProblemContext {
	return domain.ProblemContext{
		Repository:  domain.Repository{Owner: "acme", Name: "widgets", FullName: "acme/widgets"},
		IssueNumber: 3,
		Intent:      domain.IntentPatch,
		Title:       strings.Repeat("T", 1000),
		Body:        strings.Repeat("B", 50000),
		CommentBody: strings.Repeat("C", 20000),
		CodeSnippets: []domain.CodeSnippet{
			{Language: "go", Content: strings.Repeat("s", 8000)},
			{Language: "go", Content: strings.Repeat("s", 8000)},
			{Language: "go", Content: strings.Repeat("s", 8000)},
			{Language: "go", Content: strings.Repeat("s", 8000)},
			{Language: "go", Content: strings.Repeat("s", 8000)},
		},
		DiffExcerpt:    strings.Repeat("+ added line\n", 500),
		MentionedFiles: manyStrings("file", 200),
		DetectedErrors: manyStrings("error: boom", 200),
	}
}

func manyStrings(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = prefix + strings.Repeat("x", 600)
	}
	return out
}

func TestTruncateIsIdempotent(t *testing.T) {
	for _, budget := range []int{assemble.MinContextSize, 4096, assemble.DefaultMaxContextSize} {
		builder := assemble.NewBuilder(budget)

		once := builder.Truncate(oversizedContext())
		twice := builder.Truncate(once)

		assert.Equal(t, once, twice, "budget %d", budget)
		assert.LessOrEqual(t, once.SizeBytes, budget)
		assert.True(t, once.Truncated)
	}
}

func TestTruncateDropsLeastValuableFirst(t *testing.T) {
	pc := oversizedContext()

	// A budget the snippet and free-text caps alone can satisfy must keep
	// the list fields intact.
	generous := assemble.NewBuilder(assemble.DefaultMaxContextSize).Truncate(pc)
	assert.Len(t, generous.CodeSnippets, 3)
	assert.NotEmpty(t, generous.MentionedFiles)
	assert.NotEmpty(t, generous.DetectedErrors)

	// The minimum budget forces the last-resort step: identifiers and a
	// sliver of text survive, everything expendable goes.
	tight := assemble.NewBuilder(assemble.MinContextSize).Truncate(pc)
	assert.Empty(t, tight.CodeSnippets)
	assert.Empty(t, tight.DiffExcerpt)
	assert.Empty(t, tight.MentionedFiles)
	assert.Equal(t, "acme/widgets", tight.Repository.FullName)
	assert.NotEmpty(t, tight.Title)
}

func TestTruncateLeavesSmallContextsAlone(t *testing.T) {
	pc := domain.ProblemContext{
		Repository: domain.Repository{FullName: "acme/widgets"},
		Title:      "small",
		Body:       "fits comfortably",
	}

	out := assemble.NewBuilder(assemble.DefaultMaxContextSize).Truncate(pc)
	assert.False(t, out.Truncated)
	assert.Equal(t, pc.Title, out.Title)
	assert.Equal(t, pc.Body, out.Body)
}

func TestTruncatePreservesTruncatedFlag(t *testing.T) {
	pc := domain.ProblemContext{Title: "tiny", Truncated: true}
	out := assemble.NewBuilder(assemble.DefaultMaxContextSize).Truncate(pc)
	assert.True(t, out.Truncated, "a previously truncated context stays marked")
}

func TestExcerptDiffBoundsOutput(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("diff --git a/parser.go b/parser.go\n")
	sb.WriteString("--- a/parser.go\n+++ b/parser.go\n")
	sb.WriteString("@@ -1,200 +1,200 @@\n")
	for i := 0; i < 200; i++ {
		sb.WriteString("+added line\n")
	}

	out := assemble.ExcerptDiff(sb.String(), 20)
	lines := strings.Split(out, "\n")
	assert.LessOrEqual(t, len(lines), 21)
	assert.Contains(t, out, "diff truncated")
}

func TestExcerptDiffRawFallback(t *testing.T) {
	// Review-comment hunks carry no file header; the raw tail is kept.
	hunk := "@@ -10,4 +10,4 @@ func parse()\n context\n-old\n+new\n context\n"
	out := assemble.ExcerptDiff(hunk, 60)
	assert.Contains(t, out, "+new")

	assert.Empty(t, assemble.ExcerptDiff("", 60))
	assert.Empty(t, assemble.ExcerptDiff("   \n", 60))
}
