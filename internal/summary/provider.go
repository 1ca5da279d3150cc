// Package summary generates identity verification summaries from matched
// profiles using an AI backend.
package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// Subject holds everything known about the person being verified plus the
// evidence gathered from the matched profile.
type Subject struct {
	Name        string
	Location    string
	Company     string
	Headline    string
	Education   []string
	Summary     string // subject-provided summary text
	ProfileText string // raw profile text
	Evidence    string // text gathered from the matched candidate profile
}

// Report is the structured verification summary. Sections keep their raw
// JSON shape since backends nest them differently.
type Report struct {
	IdentityVerification  json.RawMessage `json:"identity_verification"`
	ProfessionalProfile   json.RawMessage `json:"professional_profile"`
	PersonalInformation   json.RawMessage `json:"personal_information"`
	PlatformActivity      json.RawMessage `json:"platform_activity"`
	CrossPlatformInsights json.RawMessage `json:"cross_platform_insights"`
	Summary               json.RawMessage `json:"summary"`
}

// Provider defines the interface for summary backends.
type Provider interface {
	Name() string
	Summarize(ctx context.Context, subject Subject) (*Report, error)
}

// Usage tracks token usage across summary calls.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// SaveReport writes the report next to the other run artifacts.
func SaveReport(path string, report *Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding summary report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing summary report: %w", err)
	}
	return nil
}
