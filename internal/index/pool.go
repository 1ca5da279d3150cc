package index

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/coder/hnsw"
	"github.com/verilink/profile-verify/internal/profiles"
	"github.com/verilink/profile-verify/internal/scoring"
)

// maxNeighbors is the HNSW M parameter.
const maxNeighbors = 16

// Neighbor is one pool candidate returned by a top-K query, with exact
// cosine similarity recomputed from the stored embedding.
type Neighbor struct {
	Candidate  profiles.Candidate
	Similarity float64
}

// PoolIndex is an in-memory HNSW graph over cached pool embeddings. It
// answers top-K face queries without rescoring the whole pool.
type PoolIndex struct {
	graph         *hnsw.Graph[string]
	savedGraph    *hnsw.SavedGraph[string] // loaded from disk
	idToCandidate map[string]profiles.Candidate
	mu            sync.RWMutex
}

// NewPoolIndex creates a new empty pool index.
func NewPoolIndex() *PoolIndex {
	return &PoolIndex{
		idToCandidate: make(map[string]profiles.Candidate),
	}
}

func newGraph() *hnsw.Graph[string] {
	g := hnsw.NewGraph[string]()
	g.M = maxNeighbors
	g.Ml = 1.0 / float64(maxNeighbors) // Standard HNSW formula
	g.Distance = hnsw.CosineDistance
	return g
}

// Add indexes one candidate embedding. Re-adding the same candidate ID
// replaces its metadata.
func (x *PoolIndex) Add(c profiles.Candidate, embedding []float32) {
	if len(embedding) == 0 {
		return
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if x.savedGraph != nil {
		x.savedGraph.Add(hnsw.MakeNode(c.ID, embedding))
	} else {
		if x.graph == nil {
			x.graph = newGraph()
		}
		x.graph.Add(hnsw.MakeNode(c.ID, embedding))
	}
	x.idToCandidate[c.ID] = c
}

// Has reports whether a candidate is already indexed.
func (x *PoolIndex) Has(id string) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	_, ok := x.idToCandidate[id]
	return ok
}

// Search finds the k nearest candidates to the query embedding. Candidates
// removed from the metadata map are filtered out.
func (x *PoolIndex) Search(query []float32, k int) ([]Neighbor, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.graph == nil && x.savedGraph == nil {
		return nil, errors.New("index not initialized")
	}

	var nodes []hnsw.Node[string]
	if x.savedGraph != nil {
		nodes = x.savedGraph.Search(query, k)
	} else {
		nodes = x.graph.Search(query, k)
	}

	neighbors := make([]Neighbor, 0, len(nodes))
	for _, n := range nodes {
		c, ok := x.idToCandidate[n.Key]
		if !ok {
			continue
		}
		neighbors = append(neighbors, Neighbor{
			Candidate:  c,
			Similarity: scoring.CosineSimilarity(query, n.Value),
		})
	}
	return neighbors, nil
}

// Count returns the number of indexed candidates.
func (x *PoolIndex) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.idToCandidate)
}

// Save persists the graph and candidate metadata to disk. The metadata
// goes to a .candidates sidecar next to the graph file.
func (x *PoolIndex) Save(path string) error {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.graph == nil && x.savedGraph == nil {
		// Remove existing files if index is empty (best-effort cleanup).
		_ = os.Remove(path)
		_ = os.Remove(path + ".candidates")
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create index file: %w", err)
	}
	defer f.Close()

	if x.savedGraph != nil {
		err = x.savedGraph.Export(f)
	} else {
		err = x.graph.Export(f)
	}
	if err != nil {
		return fmt.Errorf("exporting HNSW graph: %w", err)
	}

	candidates := make([]profiles.Candidate, 0, len(x.idToCandidate))
	for _, c := range x.idToCandidate {
		candidates = append(candidates, c)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(candidates); err != nil {
		return fmt.Errorf("failed to encode candidates: %w", err)
	}
	if err := os.WriteFile(path+".candidates", buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write candidates file: %w", err)
	}

	return nil
}

// Load loads the graph and candidate metadata from disk. A missing file is
// not an error, the index just starts empty.
func (x *PoolIndex) Load(path string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	saved, err := hnsw.LoadSavedGraph[string](path)
	if err != nil {
		return fmt.Errorf("failed to load HNSW index: %w", err)
	}

	data, err := os.ReadFile(path + ".candidates")
	if err != nil {
		return fmt.Errorf("failed to read candidates file: %w", err)
	}
	var candidates []profiles.Candidate
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&candidates); err != nil {
		return fmt.Errorf("failed to decode candidates: %w", err)
	}

	x.savedGraph = saved
	x.idToCandidate = make(map[string]profiles.Candidate, len(candidates))
	for _, c := range candidates {
		x.idToCandidate[c.ID] = c
	}

	return nil
}
