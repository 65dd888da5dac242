package trigger

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/brandon/webhook-agent/internal/domain"
)

var (
	fencedBlockPattern = regexp.MustCompile("(?s)```([a-zA-Z0-9+#-]*)\\n(.*?)```")
	filePathPattern    = regexp.MustCompile(`\b[\w./-]*\w+\.(go|py|js|jsx|ts|tsx|java|rb|rs|c|cc|cpp|h|hpp|cs|php|swift|kt|scala|sh|yaml|yml|json|toml|sql|proto)\b`)
	issueRefPattern    = regexp.MustCompile(`#(\d+)\b`)
)

// extensionLanguages maps file extensions to language names for the
// detection heuristic.
var extensionLanguages = map[string]string{
	".go":    "go",
	".py":    "python",
	".js":    "javascript",
	".jsx":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".java":  "java",
	".rb":    "ruby",
	".rs":    "rust",
	".c":     "c",
	".cc":    "cpp",
	".cpp":   "cpp",
	".cs":    "csharp",
	".php":   "php",
	".swift": "swift",
	".kt":    "kotlin",
	".scala": "scala",
	".sh":    "shell",
}

// ExtractCodeSnippets returns the fenced code blocks in text, in order.
func ExtractCodeSnippets(text string) []domain.CodeSnippet {
	matches := fencedBlockPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	snippets := make([]domain.CodeSnippet, 0, len(matches))
	for _, m := range matches {
		content := strings.TrimRight(m[2], "\n")
		if content == "" {
			continue
		}
		snippets = append(snippets, domain.CodeSnippet{
			Language: strings.ToLower(m[1]),
			Content:  content,
		})
	}
	return snippets
}

// ExtractFilePaths returns file-path-like tokens, de-duplicated in order of
// first appearance. Paths inside fenced blocks are included; a mentioned file
// is useful context wherever it appears.
func ExtractFilePaths(text string) []string {
	matches := filePathPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	var paths []string
	for _, m := range matches {
		if !seen[m] {
			seen[m] = true
			paths = append(paths, m)
		}
	}
	return paths
}

// ExtractIssueRefs returns issue numbers referenced as #N.
func ExtractIssueRefs(text string) []int {
	matches := issueRefPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[int]bool, len(matches))
	var refs []int
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil || n == 0 || seen[n] {
			continue
		}
		seen[n] = true
		refs = append(refs, n)
	}
	return refs
}

// DetectLanguage guesses the dominant programming language from snippet
// fence tags first, then mentioned file extensions.
func DetectLanguage(snippets []domain.CodeSnippet, files []string) string {
	for _, s := range snippets {
		if s.Language != "" {
			return s.Language
		}
	}
	for _, f := range files {
		idx := strings.LastIndex(f, ".")
		if idx < 0 {
			continue
		}
		if lang, ok := extensionLanguages[f[idx:]]; ok {
			return lang
		}
	}
	return ""
}
