package profiles

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

const exportEntry = `{
	"localizedFirstName": "John",
	"localizedLastName": "Smith",
	"publicProfileUrl": "https://www.example.com/in/john-smith",
	"headline": "Senior Engineer at Acme",
	"location": "Prague, Czechia",
	"profilePicture": {
		"displayImage~": {
			"elements": [
				{"identifiers": [{"identifier": "https://cdn.example.com/john.jpg"}]}
			]
		}
	}
}`

func TestParseExport_List(t *testing.T) {
	candidates, err := ParseExport([]byte("[" + exportEntry + "]"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}

	want := Candidate{
		ID:         "https://www.example.com/in/john-smith",
		Name:       "John Smith",
		ImageURL:   "https://cdn.example.com/john.jpg",
		ProfileURL: "https://www.example.com/in/john-smith",
		Location:   "Prague, Czechia",
		Headline:   "Senior Engineer at Acme",
		Text:       "John Smith | Senior Engineer at Acme | Prague, Czechia",
	}
	if diff := cmp.Diff(want, candidates[0]); diff != "" {
		t.Errorf("candidate mismatch (-want +got):\n%s", diff)
	}
}

func TestParseExport_ElementsEnvelope(t *testing.T) {
	candidates, err := ParseExport([]byte(`{"elements": [` + exportEntry + `]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].Name != "John Smith" {
		t.Errorf("unexpected name: %s", candidates[0].Name)
	}
}

func TestParseExport_FlatFallbacks(t *testing.T) {
	raw := `[{
		"name": "Alice Jones",
		"photo_url": "//cdn.example.com/alice.jpg",
		"url": "https://www.example.com/alice"
	}]`
	candidates, err := ParseExport([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := candidates[0]
	if c.Name != "Alice Jones" {
		t.Errorf("unexpected name: %s", c.Name)
	}
	if c.ImageURL != "//cdn.example.com/alice.jpg" {
		t.Errorf("unexpected image URL: %s", c.ImageURL)
	}
	if c.ProfileURL != "https://www.example.com/alice" {
		t.Errorf("unexpected profile URL: %s", c.ProfileURL)
	}
}

func TestParseExport_MissingPicture(t *testing.T) {
	candidates, err := ParseExport([]byte(`[{"localizedFirstName": "Bob"}]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := candidates[0]
	if c.ImageURL != "" {
		t.Errorf("expected empty image URL, got %s", c.ImageURL)
	}
	if c.ID != "candidate-0" {
		t.Errorf("expected index-based ID, got %s", c.ID)
	}
}

func TestParseExport_SkipsNonObjects(t *testing.T) {
	candidates, err := ParseExport([]byte(`[42, "junk", {"name": "Real Entry"}]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].Name != "Real Entry" {
		t.Errorf("unexpected name: %s", candidates[0].Name)
	}
}

func TestParseExport_InvalidFormat(t *testing.T) {
	if _, err := ParseExport([]byte(`{"not": "an export"}`)); err == nil {
		t.Error("expected error for object without elements")
	}
	if _, err := ParseExport([]byte(`garbage`)); err == nil {
		t.Error("expected error for non-JSON input")
	}
}
