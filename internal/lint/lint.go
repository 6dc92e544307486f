// Package lint implements the advisory prose linter. Lint is a pure
// function of its input text: no state, no side effects, purely
// informational suggestions for the editing surface.
package lint

import (
	"fmt"
	"regexp"
	"sort"
)

// Severity grades an issue.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Issue is one advisory finding. Index and Length locate the offending
// span in bytes within the input text.
type Issue struct {
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
	Index      int      `json:"index"`
	Length     int      `json:"length"`
	Severity   Severity `json:"severity"`
}

var weaselWords = []string{
	"very", "basically", "essentially", "simply",
	"totally", "completely", "absolutely", "literally",
}

var (
	weaselRes []*regexp.Regexp
	weakAdjRe = regexp.MustCompile(`(?i)\bvery\s+(\w+)`)
	passiveRe = regexp.MustCompile(`(?i)\b(am|are|is|was|were|be|been|being)\s+\w+ed\b`)
)

func init() {
	for _, w := range weaselWords {
		weaselRes = append(weaselRes, regexp.MustCompile(`(?i)\b`+w+`\b`))
	}
}

// Lint scans text and returns advisory issues sorted by position.
func Lint(text string) []Issue {
	var issues []Issue

	for _, re := range weaselRes {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			issues = append(issues, Issue{
				Message:    fmt.Sprintf("Avoid using weasel word: %q", text[loc[0]:loc[1]]),
				Suggestion: "Remove or be more specific",
				Index:      loc[0],
				Length:     loc[1] - loc[0],
				Severity:   SeverityWarning,
			})
		}
	}

	for _, loc := range weakAdjRe.FindAllStringIndex(text, -1) {
		issues = append(issues, Issue{
			Message:    fmt.Sprintf("Weak phrase: %q", text[loc[0]:loc[1]]),
			Suggestion: "Use a stronger adjective",
			Index:      loc[0],
			Length:     loc[1] - loc[0],
			Severity:   SeverityWarning,
		})
	}

	for _, loc := range passiveRe.FindAllStringIndex(text, -1) {
		issues = append(issues, Issue{
			Message:    fmt.Sprintf("Passive voice detected: %q", text[loc[0]:loc[1]]),
			Suggestion: "Consider active voice",
			Index:      loc[0],
			Length:     loc[1] - loc[0],
			Severity:   SeverityWarning,
		})
	}

	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Index < issues[j].Index
	})
	return issues
}
