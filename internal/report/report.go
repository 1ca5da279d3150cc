// Package report renders pipeline results into the persisted artifact and
// the external API view.
package report

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/verilink/profile-verify/internal/pipeline"
)

// verifiedConfidence is the confidence bound between "pending" and "verified".
const verifiedConfidence = 50

// ArtifactEntry is one line of the top-matches artifact. Similarity is
// rounded to 4 decimals; the artifact is a bare JSON list with no
// wrapping key.
type ArtifactEntry struct {
	Name       string  `json:"name"`
	Profile    string  `json:"profile"`
	Similarity float64 `json:"similarity"`
}

// View is the external representation of one match.
type View struct {
	Name       string `json:"name"`
	Platform   string `json:"platform"`
	Confidence int    `json:"confidence"`
	Status     string `json:"status"`
	Profile    string `json:"profile"`
}

// ToArtifact converts ranked matches into artifact entries, preserving order.
func ToArtifact(matches []pipeline.MatchResult) []ArtifactEntry {
	entries := make([]ArtifactEntry, len(matches))
	for i, m := range matches {
		entries[i] = ArtifactEntry{
			Name:       m.DisplayName,
			Profile:    m.ProfileRef,
			Similarity: round4(m.FaceSimilarity),
		}
	}
	return entries
}

// WriteArtifact writes the artifact to path, replacing any previous run's file.
func WriteArtifact(path string, matches []pipeline.MatchResult) error {
	data, err := json.MarshalIndent(ToArtifact(matches), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing artifact: %w", err)
	}
	return nil
}

// ReadArtifact reads the artifact back. A missing file is reported via
// os.IsNotExist on the returned error; it means "no qualifying match",
// not a broken state.
func ReadArtifact(path string) ([]ArtifactEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []ArtifactEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing artifact %s: %w", path, err)
	}
	return entries, nil
}

// FormatViews renders artifact entries for external consumers.
func FormatViews(entries []ArtifactEntry, platform string) []View {
	views := make([]View, len(entries))
	for i, e := range entries {
		confidence := int(math.Round(e.Similarity * 100))
		status := "pending"
		if confidence >= verifiedConfidence {
			status = "verified"
		}
		views[i] = View{
			Name:       e.Name,
			Platform:   platform,
			Confidence: confidence,
			Status:     status,
			Profile:    e.Profile,
		}
	}
	return views
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
