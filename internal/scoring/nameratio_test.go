package scoring

import (
	"math"
	"testing"
)

func TestNameRatio_Identical(t *testing.T) {
	if r := NameRatio("John Smith", "John Smith"); r != 1.0 {
		t.Errorf("expected ratio 1.0 for identical names, got %f", r)
	}
}

func TestNameRatio_CaseInsensitive(t *testing.T) {
	if r := NameRatio("JOHN SMITH", "john smith"); r != 1.0 {
		t.Errorf("expected ratio 1.0 ignoring case, got %f", r)
	}
}

func TestNameRatio_Diacritics(t *testing.T) {
	if r := NameRatio("Jiří Novák", "Jiri Novak"); r != 1.0 {
		t.Errorf("expected ratio 1.0 ignoring diacritics, got %f", r)
	}
}

func TestNameRatio_TypoStaysHigh(t *testing.T) {
	r := NameRatio("Jon Smith", "John Smith")
	if r <= 0.9 {
		t.Errorf("expected ratio above 0.9 for a one-letter typo, got %f", r)
	}
	if r >= 1.0 {
		t.Errorf("expected ratio below 1.0 for different names, got %f", r)
	}
	// 2*9/(9+10) with matching blocks "jo" and "n smith".
	want := 18.0 / 19.0
	if math.Abs(r-want) > 1e-9 {
		t.Errorf("expected ratio %f, got %f", want, r)
	}
}

func TestNameRatio_DifferentNamesStayLow(t *testing.T) {
	r := NameRatio("Jon Smith", "Alice Jones")
	if r >= 0.5 {
		t.Errorf("expected clearly low ratio for unrelated names, got %f", r)
	}
	high := NameRatio("Jon Smith", "John Smith")
	if r >= high {
		t.Errorf("unrelated names scored %f, at least as high as a typo match %f", r, high)
	}
}

func TestNameRatio_Empty(t *testing.T) {
	tests := []struct {
		name string
		a, b string
	}{
		{"both empty", "", ""},
		{"first empty", "", "John Smith"},
		{"second empty", "John Smith", ""},
		{"whitespace only", "   ", "John Smith"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if r := NameRatio(tt.a, tt.b); r != 0.0 {
				t.Errorf("expected ratio 0.0, got %f", r)
			}
		})
	}
}

func TestNameRatio_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"Jon Smith", "John Smith"},
		{"Alice Jones", "Jon Smith"},
		{"Marie Curie", "Maria Curie"},
	}
	for _, p := range pairs {
		ab := NameRatio(p[0], p[1])
		ba := NameRatio(p[1], p[0])
		if math.Abs(ab-ba) > 1e-9 {
			t.Errorf("ratio not symmetric for %q/%q: %f vs %f", p[0], p[1], ab, ba)
		}
	}
}

func TestNameRatio_Range(t *testing.T) {
	names := []string{"Jon Smith", "John Smith", "Alice Jones", "J", "Jan Novák-Dvořák"}
	for _, a := range names {
		for _, b := range names {
			r := NameRatio(a, b)
			if r < 0.0 || r > 1.0 {
				t.Errorf("ratio out of range for %q/%q: %f", a, b, r)
			}
		}
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"John Smith", "john smith"},
		{"Jiří Novák", "jiri novak"},
		{"Novák-Dvořák", "novak dvorak"},
		{"  John   Smith  ", "john smith"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.input); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
