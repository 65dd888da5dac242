package assemble

import (
	"fmt"
	"strings"

	"github.com/waigani/diffparser"
)

// ExcerptDiff reduces a unified diff to at most maxLines lines of excerpt.
// Structured diffs are rebuilt file-by-file so file boundaries survive the
// cut; review-comment hunks that lack file headers fall back to a raw tail
// trim, which keeps the lines closest to the commented position.
func ExcerptDiff(diff string, maxLines int) string {
	if strings.TrimSpace(diff) == "" {
		return ""
	}

	parsed, err := diffparser.Parse(diff)
	if err != nil || len(parsed.Files) == 0 {
		return tailLines(diff, maxLines)
	}

	var out []string
	for _, file := range parsed.Files {
		name := file.NewName
		if name == "" {
			name = file.OrigName
		}
		out = append(out, fmt.Sprintf("--- %s", name))
		for _, hunk := range file.Hunks {
			out = append(out, fmt.Sprintf("@@ -%d,%d +%d,%d @@",
				hunk.OrigRange.Start, hunk.OrigRange.Length,
				hunk.NewRange.Start, hunk.NewRange.Length))
			for _, line := range hunk.WholeRange.Lines {
				out = append(out, lineMarker(line.Mode)+line.Content)
				if len(out) > maxLines {
					break
				}
			}
			if len(out) > maxLines {
				break
			}
		}
		if len(out) > maxLines {
			break
		}
	}

	if len(out) > maxLines {
		out = append(out[:maxLines], "... (diff truncated)")
	}
	return strings.Join(out, "\n")
}

func lineMarker(mode diffparser.DiffLineMode) string {
	switch mode {
	case diffparser.ADDED:
		return "+"
	case diffparser.REMOVED:
		return "-"
	default:
		return " "
	}
}

// tailLines keeps the last n lines of text, marking the cut.
func tailLines(text string, n int) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) <= n {
		return strings.Join(lines, "\n")
	}
	kept := lines[len(lines)-n:]
	return "... (diff truncated)\n" + strings.Join(kept, "\n")
}
