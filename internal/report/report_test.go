package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/verilink/profile-verify/internal/pipeline"
)

func sampleMatches() []pipeline.MatchResult {
	return []pipeline.MatchResult{
		{DisplayName: "John Smith", ProfileRef: "https://www.example.com/in/john", FaceSimilarity: 0.91237},
		{DisplayName: "Jon Smyth", ProfileRef: "https://www.example.com/in/jon", FaceSimilarity: 0.4},
	}
}

func TestToArtifact_RoundsToFourDecimals(t *testing.T) {
	entries := ToArtifact(sampleMatches())

	want := []ArtifactEntry{
		{Name: "John Smith", Profile: "https://www.example.com/in/john", Similarity: 0.9124},
		{Name: "Jon Smyth", Profile: "https://www.example.com/in/jon", Similarity: 0.4},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("artifact mismatch (-want +got):\n%s", diff)
	}
}

func TestArtifact_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "top_matches.json")
	matches := sampleMatches()

	if err := WriteArtifact(path, matches); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	entries, err := ReadArtifact(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if diff := cmp.Diff(ToArtifact(matches), entries); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteArtifact_BareList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "top_matches.json")
	if err := WriteArtifact(path, nil); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data)[0] != '[' {
		t.Errorf("expected bare JSON list, got: %s", data)
	}
}

func TestReadArtifact_Missing(t *testing.T) {
	_, err := ReadArtifact(filepath.Join(t.TempDir(), "nope.json"))
	if !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestReadArtifact_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "top_matches.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadArtifact(path); err == nil {
		t.Error("expected error for corrupt artifact")
	}
}

func TestFormatViews(t *testing.T) {
	entries := []ArtifactEntry{
		{Name: "John Smith", Profile: "https://www.example.com/in/john", Similarity: 0.9},
		{Name: "Jon Smyth", Profile: "https://www.example.com/in/jon", Similarity: 0.495},
		{Name: "Border Case", Profile: "https://www.example.com/in/border", Similarity: 0.5},
	}

	views := FormatViews(entries, "LinkedIn")

	want := []View{
		{Name: "John Smith", Platform: "LinkedIn", Confidence: 90, Status: "verified", Profile: "https://www.example.com/in/john"},
		{Name: "Jon Smyth", Platform: "LinkedIn", Confidence: 50, Status: "verified", Profile: "https://www.example.com/in/jon"},
		{Name: "Border Case", Platform: "LinkedIn", Confidence: 50, Status: "verified", Profile: "https://www.example.com/in/border"},
	}
	if diff := cmp.Diff(want, views); diff != "" {
		t.Errorf("views mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatViews_Pending(t *testing.T) {
	views := FormatViews([]ArtifactEntry{{Name: "Low", Similarity: 0.37}}, "LinkedIn")
	if views[0].Confidence != 37 {
		t.Errorf("expected confidence 37, got %d", views[0].Confidence)
	}
	if views[0].Status != "pending" {
		t.Errorf("expected pending status, got %s", views[0].Status)
	}
}
