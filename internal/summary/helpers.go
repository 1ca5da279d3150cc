package summary

import (
	_ "embed"
	"fmt"
	"strings"
)

//go:embed prompts/identity_summary.txt
var identitySummaryPrompt string

// Content limits keep prompts inside backend context windows.
const (
	maxSummaryChars  = 2000
	maxProfileChars  = 3000
	maxEvidenceChars = 8000
)

// buildSummaryPrompt returns the embedded identity summary prompt.
func buildSummaryPrompt() string {
	return identitySummaryPrompt
}

// buildSubjectContent builds the user message content for summarization.
// This is shared across all AI providers.
func buildSubjectContent(subject Subject) string {
	var b strings.Builder
	b.WriteString("Subject:\n")
	fmt.Fprintf(&b, "Name: %s\n", subject.Name)
	fmt.Fprintf(&b, "Location: %s\n", subject.Location)
	fmt.Fprintf(&b, "Company: %s\n", subject.Company)
	fmt.Fprintf(&b, "Headline: %s\n", subject.Headline)
	if len(subject.Education) > 0 {
		fmt.Fprintf(&b, "Education: %s\n", strings.Join(subject.Education, ", "))
	}
	if subject.Summary != "" {
		fmt.Fprintf(&b, "\nSubject summary: %s\n", truncate(subject.Summary, maxSummaryChars))
	}
	if subject.ProfileText != "" {
		fmt.Fprintf(&b, "\nProfile text:\n%s\n", truncate(subject.ProfileText, maxProfileChars))
	}
	if subject.Evidence != "" {
		fmt.Fprintf(&b, "\nMatched profile evidence:\n%s\n", truncate(subject.Evidence, maxEvidenceChars))
	}
	return b.String()
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
