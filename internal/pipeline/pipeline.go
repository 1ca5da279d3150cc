// Package pipeline runs a query identity against a candidate pool and
// produces ranked match results.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/verilink/profile-verify/internal/config"
	"github.com/verilink/profile-verify/internal/faceengine"
	"github.com/verilink/profile-verify/internal/fetcher"
	"github.com/verilink/profile-verify/internal/index"
	"github.com/verilink/profile-verify/internal/profiles"
	"github.com/verilink/profile-verify/internal/scoring"
)

// State tracks where a run is in its lifecycle.
type State int

const (
	StateInit State = iota
	StateResolvingQuery
	StateScoring
	StateRanking
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateResolvingQuery:
		return "resolving_query"
	case StateScoring:
		return "scoring"
	case StateRanking:
		return "ranking"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// QueryResolutionError means the query image yielded no usable face.
// The run fails before any candidate work starts.
type QueryResolutionError struct {
	Err error
}

func (e *QueryResolutionError) Error() string {
	return "query resolution failed: " + e.Err.Error()
}

func (e *QueryResolutionError) Unwrap() error {
	return e.Err
}

// MatchResult is one scored candidate. Immutable once produced; rank is a
// property of the result list, not the entry.
type MatchResult struct {
	CandidateID    string
	DisplayName    string
	ProfileRef     string
	CompositeScore float64
	FaceSimilarity float64
	Components     scoring.Components
}

// RunResult is the outcome of one pipeline run. An empty Matches list is a
// successful "no qualifying match", not a failure.
type RunResult struct {
	RunID     string
	State     State
	Matches   []MatchResult
	Processed int // candidates that went through scoring
	Skipped   int // candidates dropped (no image URL or per-candidate failure)
}

// Options tune a single run.
type Options struct {
	// Composite enables textual fusion scoring. Face-only mode ranks by
	// facial similarity alone and applies the threshold and result cap.
	Composite bool
	// Attrs are the query's textual attributes, used in composite mode.
	Attrs scoring.QueryAttrs
	// OnProgress, when set, is called after each candidate finishes.
	OnProgress func(current, total int)
}

// Pipeline matches a query identity against candidate pools. Safe for
// concurrent runs; all per-run state lives on the stack of Run.
type Pipeline struct {
	fetcher   *fetcher.Fetcher
	extractor *faceengine.Extractor
	cache     *index.Cache
	weights   config.ScoreWeights
	match     config.MatchConfig
	logger    *slog.Logger
}

// New creates a Pipeline. A nil cache disables embedding reuse, a nil
// logger disables logging.
func New(cfg *config.Config, f *fetcher.Fetcher, e *faceengine.Extractor, cache *index.Cache, logger *slog.Logger) *Pipeline {
	if cache == nil {
		cache = index.NewNullCache()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{
		fetcher:   f,
		extractor: e,
		cache:     cache,
		weights:   cfg.Weights.Weights,
		match:     cfg.Match,
		logger:    logger,
	}
}

// candidateResult holds the result of scoring a single candidate.
type candidateResult struct {
	index int
	match *MatchResult
	err   error
}

// Run resolves the query image once, scores every candidate with an image
// URL through a bounded worker pool, and returns the ranked results.
// Per-candidate failures drop the candidate and never fail the run.
func (p *Pipeline) Run(ctx context.Context, queryImage []byte, pool []profiles.Candidate, opts Options) (*RunResult, error) {
	result := &RunResult{
		RunID: uuid.NewString(),
		State: StateInit,
	}
	logger := p.logger.With("run_id", result.RunID)

	if p.match.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.match.Deadline)
		defer cancel()
	}

	// Resolve the query embedding synchronously. Failure here is fatal and
	// must not spawn any candidate work. Only a missing or unusable face is
	// a query-resolution failure; engine errors pass through unchanged so
	// callers can tell a bad image from a broken engine.
	result.State = StateResolvingQuery
	queryEmb, err := p.extractor.Extract(ctx, queryImage)
	if err != nil {
		result.State = StateFailed
		var noFace *faceengine.NoFaceError
		if errors.As(err, &noFace) {
			return result, &QueryResolutionError{Err: err}
		}
		return result, err
	}
	logger.Debug("query embedding resolved", "dim", len(queryEmb))

	result.State = StateScoring
	scored := p.scorePool(ctx, logger, queryEmb, pool, opts, result)

	result.State = StateRanking
	result.Matches = p.rank(scored, opts)
	result.State = StateDone

	logger.Info("run complete",
		"candidates", len(pool),
		"processed", result.Processed,
		"skipped", result.Skipped,
		"matches", len(result.Matches))
	return result, nil
}

// scorePool fans candidate scoring out over a bounded worker pool and
// collects results in pool order.
func (p *Pipeline) scorePool(ctx context.Context, logger *slog.Logger, queryEmb []float32, pool []profiles.Candidate, opts Options, run *RunResult) []MatchResult {
	concurrency := p.match.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}

	resultsChan := make(chan candidateResult, len(pool))
	semaphore := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	var progressMu sync.Mutex
	var finished int

	reportProgress := func() {
		if opts.OnProgress == nil {
			return
		}
		progressMu.Lock()
		finished++
		current := finished
		progressMu.Unlock()
		opts.OnProgress(current, len(pool))
	}

	for i := range pool {
		if pool[i].ImageURL == "" {
			run.Skipped++
			reportProgress()
			continue
		}

		wg.Add(1)
		go func(idx int, c profiles.Candidate) {
			defer wg.Done()

			// Acquire semaphore
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if ctx.Err() != nil {
				resultsChan <- candidateResult{index: idx, err: ctx.Err()}
				reportProgress()
				return
			}

			match, err := p.scoreCandidate(ctx, queryEmb, c, opts)
			resultsChan <- candidateResult{index: idx, match: match, err: err}
			reportProgress()
		}(i, pool[i])
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	// Collect results maintaining pool order so ties rank deterministically.
	ordered := make([]*candidateResult, len(pool))
	for r := range resultsChan {
		ordered[r.index] = &r
	}

	var scored []MatchResult
	for i, r := range ordered {
		if r == nil {
			continue // no image URL, already counted
		}
		if r.err != nil {
			run.Skipped++
			logger.Debug("candidate dropped", "candidate", pool[i].ID, "error", r.err)
			continue
		}
		run.Processed++
		scored = append(scored, *r.match)
	}
	return scored
}

// ResolveEmbedding fetches a candidate's profile image and extracts its
// face embedding, going through the embedding cache.
func (p *Pipeline) ResolveEmbedding(ctx context.Context, c profiles.Candidate) ([]float32, error) {
	return p.cache.Embedding(ctx, c.ImageURL, func(ctx context.Context) ([]float32, error) {
		imageData, err := p.fetcher.Fetch(ctx, c.ImageURL)
		if err != nil {
			return nil, err
		}
		return p.extractor.Extract(ctx, imageData)
	})
}

// scoreCandidate fetches, embeds and scores one candidate.
func (p *Pipeline) scoreCandidate(ctx context.Context, queryEmb []float32, c profiles.Candidate, opts Options) (*MatchResult, error) {
	candEmb, err := p.ResolveEmbedding(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("resolving candidate %s: %w", c.ID, err)
	}

	faceSim := scoring.CosineSimilarity(queryEmb, candEmb)

	match := &MatchResult{
		CandidateID:    c.ID,
		DisplayName:    c.Name,
		ProfileRef:     c.ProfileURL,
		FaceSimilarity: faceSim,
	}

	if opts.Composite {
		match.CompositeScore, match.Components = scoring.Composite(p.weights, opts.Attrs, c.Name, c.Text, faceSim, true)
	} else {
		match.CompositeScore = faceSim
		match.Components = scoring.Components{FaceSimilarity: faceSim, HaveFace: true}
	}

	return match, nil
}

// rank filters, sorts and truncates scored candidates. The sort is stable
// and descending; ties keep pool order. The similarity threshold and the
// result cap apply in face-only mode.
func (p *Pipeline) rank(scored []MatchResult, opts Options) []MatchResult {
	matches := scored
	if !opts.Composite {
		matches = matches[:0:0]
		for _, m := range scored {
			if m.FaceSimilarity >= p.match.SimilarityThreshold {
				matches = append(matches, m)
			}
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].CompositeScore > matches[j].CompositeScore
	})

	if !opts.Composite && p.match.MaxResults > 0 && len(matches) > p.match.MaxResults {
		matches = matches[:p.match.MaxResults]
	}
	return matches
}
