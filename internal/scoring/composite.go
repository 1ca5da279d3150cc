package scoring

import (
	"strings"

	"github.com/verilink/profile-verify/internal/config"
)

// Components holds the intermediate signals behind a composite score.
type Components struct {
	NameRatio      float64
	LocationMatch  bool
	CompanyMatch   bool
	FaceSimilarity float64
	HaveFace       bool
}

// QueryAttrs are the textual attributes of the query identity. All fields
// are optional; empty fields simply contribute nothing to the score.
type QueryAttrs struct {
	Name     string
	Location string
	Employer string
}

// Composite fuses textual signals with facial similarity into a single
// bounded score. candidateText is all searchable text known about the
// candidate (headline, location, page text). faceSim is only counted when
// haveFace is true, i.e. both embeddings resolved.
func Composite(w config.ScoreWeights, q QueryAttrs, candidateName, candidateText string, faceSim float64, haveFace bool) (float64, Components) {
	comp := Components{
		FaceSimilarity: faceSim,
		HaveFace:       haveFace,
	}

	var score float64

	if q.Name != "" && candidateName != "" {
		comp.NameRatio = NameRatio(q.Name, candidateName)
		score += comp.NameRatio * w.Name
	}

	haystack := strings.ToLower(candidateText)

	// Location matches on the text before the first comma ("Prague" out of
	// "Prague, Czechia"), the coarsest and most stable part.
	if city := locationToken(q.Location); city != "" && strings.Contains(haystack, city) {
		comp.LocationMatch = true
		score += w.Location
	}

	if employer := strings.ToLower(strings.TrimSpace(q.Employer)); employer != "" && strings.Contains(haystack, employer) {
		comp.CompanyMatch = true
		score += w.Company
	}

	if haveFace {
		score += faceSim * w.Face
	}

	return score, comp
}

// locationToken extracts the normalized text before the first comma.
func locationToken(location string) string {
	if location == "" {
		return ""
	}
	token, _, _ := strings.Cut(location, ",")
	return strings.ToLower(strings.TrimSpace(token))
}
