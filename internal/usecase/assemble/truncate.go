package assemble

import "github.com/brandon/webhook-agent/internal/domain"

// Fixed caps for each reduction step. The ladder runs least-valuable-first:
// code snippets carry the least unique signal (they are usually quoted from
// the repository), free text next, then list-valued fields, and finally a
// blanket cap on every remaining string.
const (
	maxSnippets      = 3
	maxSnippetChars  = 500
	maxTitleChars    = 200
	maxBodyChars     = 4000
	maxCommentChars  = 2000
	maxListEntries   = 10
	maxResidualChars = 500
	maxDiffLines     = 60
	minResidualFloor = 120
)

// reductionStep applies one stage of the ladder, reporting whether it
// changed anything.
type reductionStep func(domain.ProblemContext) (domain.ProblemContext, bool)

// reductionLadder is the fixed truncation order. The final entry is a
// safety valve for budgets the blanket cap alone cannot meet.
var reductionLadder = []reductionStep{
	reduceSnippets,
	reduceFreeText,
	reduceLists,
	reduceResidualStrings,
	dropExpendableFields,
}

// reduceSnippets keeps at most maxSnippets code blocks, each capped.
func reduceSnippets(pc domain.ProblemContext) (domain.ProblemContext, bool) {
	changed := false
	if len(pc.CodeSnippets) > maxSnippets {
		pc.CodeSnippets = append([]domain.CodeSnippet(nil), pc.CodeSnippets[:maxSnippets]...)
		changed = true
	} else if len(pc.CodeSnippets) > 0 {
		pc.CodeSnippets = append([]domain.CodeSnippet(nil), pc.CodeSnippets...)
	}
	for i, s := range pc.CodeSnippets {
		if len(s.Content) > maxSnippetChars {
			pc.CodeSnippets[i].Content = s.Content[:maxSnippetChars]
			changed = true
		}
	}
	return pc, changed
}

// reduceFreeText caps the description fields.
func reduceFreeText(pc domain.ProblemContext) (domain.ProblemContext, bool) {
	changed := false
	pc.Title, changed = capString(pc.Title, maxTitleChars, changed)
	pc.Body, changed = capString(pc.Body, maxBodyChars, changed)
	pc.CommentBody, changed = capString(pc.CommentBody, maxCommentChars, changed)
	return pc, changed
}

// reduceLists caps list-valued fields to fixed counts.
func reduceLists(pc domain.ProblemContext) (domain.ProblemContext, bool) {
	changed := false
	if len(pc.MentionedFiles) > maxListEntries {
		pc.MentionedFiles = append([]string(nil), pc.MentionedFiles[:maxListEntries]...)
		changed = true
	}
	if len(pc.DetectedErrors) > maxListEntries {
		pc.DetectedErrors = append([]string(nil), pc.DetectedErrors[:maxListEntries]...)
		changed = true
	}
	return pc, changed
}

// reduceResidualStrings applies a blanket cap to every remaining string
// field, including list elements and the repository identifiers. Platform
// limits allow a 250-character branch name, so the identifiers are not
// exempt from bounding.
func reduceResidualStrings(pc domain.ProblemContext) (domain.ProblemContext, bool) {
	changed := false
	pc.Title, changed = capString(pc.Title, maxResidualChars, changed)
	pc.Body, changed = capString(pc.Body, maxResidualChars, changed)
	pc.CommentBody, changed = capString(pc.CommentBody, maxResidualChars, changed)
	pc.DiffExcerpt, changed = capString(pc.DiffExcerpt, maxResidualChars, changed)
	pc.Repository.Owner, changed = capString(pc.Repository.Owner, maxResidualChars, changed)
	pc.Repository.Name, changed = capString(pc.Repository.Name, maxResidualChars, changed)
	pc.Repository.FullName, changed = capString(pc.Repository.FullName, maxResidualChars, changed)
	pc.Repository.DefaultBranch, changed = capString(pc.Repository.DefaultBranch, maxResidualChars, changed)

	for i, s := range pc.CodeSnippets {
		if len(s.Content) > maxResidualChars {
			pc.CodeSnippets[i].Content = s.Content[:maxResidualChars]
			changed = true
		}
	}
	pc.MentionedFiles, changed = capStrings(pc.MentionedFiles, maxResidualChars, changed)
	pc.DetectedErrors, changed = capStrings(pc.DetectedErrors, maxResidualChars, changed)
	return pc, changed
}

// dropExpendableFields is the last resort for very small budgets: discard
// everything except identifiers, the title, and a floor of body text.
func dropExpendableFields(pc domain.ProblemContext) (domain.ProblemContext, bool) {
	changed := len(pc.CodeSnippets) > 0 || pc.DiffExcerpt != "" ||
		len(pc.MentionedFiles) > 0 || len(pc.DetectedErrors) > 0
	pc.CodeSnippets = nil
	pc.DiffExcerpt = ""
	pc.MentionedFiles = nil
	pc.DetectedErrors = nil
	if pc.Repository.DefaultBranch != "" {
		pc.Repository.DefaultBranch = ""
		changed = true
	}
	pc.Title, changed = capString(pc.Title, minResidualFloor, changed)
	pc.Body, changed = capString(pc.Body, minResidualFloor, changed)
	pc.CommentBody, changed = capString(pc.CommentBody, minResidualFloor, changed)
	pc.Repository.Owner, changed = capString(pc.Repository.Owner, minResidualFloor, changed)
	pc.Repository.Name, changed = capString(pc.Repository.Name, minResidualFloor, changed)
	pc.Repository.FullName, changed = capString(pc.Repository.FullName, minResidualFloor, changed)
	return pc, changed
}

func capString(s string, max int, changed bool) (string, bool) {
	if len(s) > max {
		return s[:max], true
	}
	return s, changed
}

func capStrings(list []string, max int, changed bool) ([]string, bool) {
	copied := false
	for i, s := range list {
		if len(s) > max {
			if !copied {
				list = append([]string(nil), list...)
				copied = true
			}
			list[i] = s[:max]
			changed = true
		}
	}
	return list, changed
}
