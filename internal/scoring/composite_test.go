package scoring

import (
	"math"
	"testing"

	"github.com/verilink/profile-verify/internal/config"
)

func testWeights() config.ScoreWeights {
	return config.ScoreWeights{Name: 20, Location: 20, Company: 10, Face: 50}
}

func TestComposite_FullMatch(t *testing.T) {
	q := QueryAttrs{Name: "John Smith", Location: "Prague, Czechia", Employer: "Acme Corp"}
	text := "John Smith, Senior Engineer at acme corp, based in prague"

	score, comp := Composite(testWeights(), q, "John Smith", text, 1.0, true)

	if math.Abs(score-100.0) > 1e-9 {
		t.Errorf("expected perfect score 100, got %f", score)
	}
	if comp.NameRatio != 1.0 {
		t.Errorf("expected name ratio 1.0, got %f", comp.NameRatio)
	}
	if !comp.LocationMatch || !comp.CompanyMatch {
		t.Errorf("expected location and company match, got %+v", comp)
	}
}

func TestComposite_FaceOnlyWhenResolved(t *testing.T) {
	q := QueryAttrs{}

	score, _ := Composite(testWeights(), q, "", "", 0.8, true)
	if math.Abs(score-40.0) > 1e-9 {
		t.Errorf("expected face-only score 40, got %f", score)
	}

	// Same similarity but face not resolved contributes nothing.
	score, comp := Composite(testWeights(), q, "", "", 0.8, false)
	if score != 0.0 {
		t.Errorf("expected score 0 without resolved face, got %f", score)
	}
	if comp.HaveFace {
		t.Error("expected HaveFace false")
	}
}

func TestComposite_LocationTokenBeforeComma(t *testing.T) {
	q := QueryAttrs{Location: "Prague, Czechia"}

	// Candidate text mentions Prague but not Czechia.
	score, comp := Composite(testWeights(), q, "", "lives in Prague", 0, false)
	if !comp.LocationMatch {
		t.Error("expected location match on text before comma")
	}
	if math.Abs(score-20.0) > 1e-9 {
		t.Errorf("expected score 20, got %f", score)
	}

	// Text mentioning only the part after the comma does not match.
	_, comp = Composite(testWeights(), q, "", "lives in Czechia", 0, false)
	if comp.LocationMatch {
		t.Error("expected no location match on text after comma")
	}
}

func TestComposite_CompanyCaseInsensitive(t *testing.T) {
	q := QueryAttrs{Employer: "ACME Corp"}

	_, comp := Composite(testWeights(), q, "", "engineer at acme corp since 2019", 0, false)
	if !comp.CompanyMatch {
		t.Error("expected case-insensitive company match")
	}
}

func TestComposite_EmptyAttributesContributeNothing(t *testing.T) {
	score, comp := Composite(testWeights(), QueryAttrs{}, "John Smith", "any text at all", 0, false)
	if score != 0.0 {
		t.Errorf("expected 0 score for empty query attributes, got %f", score)
	}
	if comp.NameRatio != 0 || comp.LocationMatch || comp.CompanyMatch {
		t.Errorf("expected zero components, got %+v", comp)
	}
}

func TestComposite_BoundedByWeights(t *testing.T) {
	w := testWeights()
	q := QueryAttrs{Name: "John Smith", Location: "Prague", Employer: "Acme"}
	score, _ := Composite(w, q, "John Smith", "john smith acme prague", 1.0, true)
	if score > w.Max() {
		t.Errorf("score %f exceeds maximum %f", score, w.Max())
	}
}

func TestComposite_CustomWeights(t *testing.T) {
	w := config.ScoreWeights{Name: 50, Location: 0, Company: 0, Face: 50}
	q := QueryAttrs{Name: "John Smith", Location: "Prague"}

	score, _ := Composite(w, q, "John Smith", "prague", 0.5, true)
	// Name 50 + face 25; location weight is zero even though it matches.
	if math.Abs(score-75.0) > 1e-9 {
		t.Errorf("expected score 75 with custom weights, got %f", score)
	}
}
