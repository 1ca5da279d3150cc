package cmd

import (
	"context"
	"fmt"
	"sync"

	"github.com/verilink/profile-verify/internal/index"
	"github.com/verilink/profile-verify/internal/pipeline"
	"github.com/verilink/profile-verify/internal/profiles"
)

// warmConcurrency bounds parallel image fetches during index warm-up.
const warmConcurrency = 3

// poolIndexWarmer fills the pool index with candidate embeddings resolved
// through the pipeline's embedding cache.
type poolIndexWarmer struct {
	pipeline *pipeline.Pipeline
	pool     []profiles.Candidate
}

// warm resolves embeddings for candidates missing from the index. Failures
// are counted and skipped; warm-up never blocks serving.
func (w *poolIndexWarmer) warm(ctx context.Context, poolIndex *index.PoolIndex) {
	var added, failed int
	var mu sync.Mutex

	sem := make(chan struct{}, warmConcurrency)
	var wg sync.WaitGroup

	for _, c := range w.pool {
		if c.ImageURL == "" || poolIndex.Has(c.ID) {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(c profiles.Candidate) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			embedding, err := w.pipeline.ResolveEmbedding(ctx, c)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				return
			}
			poolIndex.Add(c, embedding)
			added++
		}(c)
	}
	wg.Wait()

	if ctx.Err() != nil {
		return
	}
	if added > 0 || failed > 0 {
		fmt.Printf("Pool index warm-up done: %d added, %d failed, %d total\n",
			added, failed, poolIndex.Count())
	}
}
