package index

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/verilink/profile-verify/internal/profiles"
)

func poolCandidate(id string) profiles.Candidate {
	return profiles.Candidate{
		ID:         id,
		Name:       "Candidate " + id,
		ProfileURL: "https://www.example.com/in/" + id,
	}
}

func TestPoolIndex_SearchReturnsNearest(t *testing.T) {
	x := NewPoolIndex()
	x.Add(poolCandidate("a"), []float32{1, 0, 0})
	x.Add(poolCandidate("b"), []float32{0, 1, 0})
	x.Add(poolCandidate("c"), []float32{0.9, 0.1, 0})

	neighbors, err := x.Search([]float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(neighbors) != 2 {
		t.Fatalf("expected 2 neighbors, got %d", len(neighbors))
	}
	if neighbors[0].Candidate.ID != "a" {
		t.Errorf("expected nearest candidate 'a', got '%s'", neighbors[0].Candidate.ID)
	}
	if math.Abs(neighbors[0].Similarity-1.0) > 1e-6 {
		t.Errorf("expected similarity 1.0 for identical vector, got %f", neighbors[0].Similarity)
	}
}

func TestPoolIndex_EmptySearch(t *testing.T) {
	if _, err := NewPoolIndex().Search([]float32{1}, 3); err == nil {
		t.Error("expected error for uninitialized index")
	}
}

func TestPoolIndex_SkipsEmptyEmbedding(t *testing.T) {
	x := NewPoolIndex()
	x.Add(poolCandidate("a"), nil)
	if x.Count() != 0 {
		t.Errorf("expected empty index, got %d", x.Count())
	}
}

func TestPoolIndex_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pool.idx")

	x := NewPoolIndex()
	x.Add(poolCandidate("a"), []float32{1, 0})
	x.Add(poolCandidate("b"), []float32{0, 1})
	if err := x.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded := NewPoolIndex()
	if err := loaded.Load(path); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Count() != 2 {
		t.Fatalf("expected 2 candidates after load, got %d", loaded.Count())
	}

	neighbors, err := loaded.Search([]float32{0, 1}, 1)
	if err != nil {
		t.Fatalf("search after load failed: %v", err)
	}
	if neighbors[0].Candidate.ID != "b" {
		t.Errorf("expected candidate 'b', got '%s'", neighbors[0].Candidate.ID)
	}
	if neighbors[0].Candidate.Name != "Candidate b" {
		t.Errorf("expected metadata to survive reload, got %+v", neighbors[0].Candidate)
	}
}

func TestPoolIndex_LoadMissingFile(t *testing.T) {
	x := NewPoolIndex()
	if err := x.Load(filepath.Join(t.TempDir(), "missing.idx")); err != nil {
		t.Fatalf("missing index file should not error: %v", err)
	}
	if x.Count() != 0 {
		t.Errorf("expected empty index, got %d", x.Count())
	}
}

func TestPoolIndex_SaveEmptyRemovesFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pool.idx")
	if err := NewPoolIndex().Save(path); err != nil {
		t.Fatalf("save of empty index failed: %v", err)
	}
}
