package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/verilink/profile-verify/internal/config"
	"github.com/verilink/profile-verify/internal/pipeline"
	"github.com/verilink/profile-verify/internal/profiles"
	"github.com/verilink/profile-verify/internal/report"
)

// Runner runs a query image against a candidate pool. Implemented by
// pipeline.Pipeline.
type Runner interface {
	Run(ctx context.Context, queryImage []byte, pool []profiles.Candidate, opts pipeline.Options) (*pipeline.RunResult, error)
}

// MatchResponse is the envelope returned by the match endpoints.
type MatchResponse struct {
	Success bool          `json:"success"`
	Results []report.View `json:"results"`
}

// MatchHandler handles face match endpoints.
type MatchHandler struct {
	config *config.Config
	runner Runner
	pool   []profiles.Candidate
	logger *slog.Logger
}

// NewMatchHandler creates a new match handler.
func NewMatchHandler(cfg *config.Config, runner Runner, pool []profiles.Candidate, logger *slog.Logger) *MatchHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &MatchHandler{
		config: cfg,
		runner: runner,
		pool:   pool,
		logger: logger,
	}
}

// Match runs the uploaded query image against the candidate pool and
// persists the resulting artifact. An empty result list is a successful
// response, not an error.
func (h *MatchHandler) Match(w http.ResponseWriter, r *http.Request) {
	imageData, err := readUploadedImage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "file is required")
		return
	}

	result, err := h.runner.Run(r.Context(), imageData, h.pool, pipeline.Options{})
	if err != nil {
		var qre *pipeline.QueryResolutionError
		if errors.As(err, &qre) {
			h.logger.Info("match rejected", "run_id", result.RunID, "error", sanitizeForLog(err.Error()))
			respondJSON(w, http.StatusUnprocessableEntity, MatchResponse{Success: false, Results: []report.View{}})
			return
		}
		h.logger.Error("match run failed", "error", sanitizeForLog(err.Error()))
		respondError(w, http.StatusBadGateway, "face engine unavailable")
		return
	}

	if err := report.WriteArtifact(h.config.Match.OutputPath, result.Matches); err != nil {
		h.logger.Error("failed to persist artifact", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to persist results")
		return
	}

	views := report.FormatViews(report.ToArtifact(result.Matches), h.config.Match.PlatformLabel)
	respondJSON(w, http.StatusOK, MatchResponse{
		Success: len(views) > 0,
		Results: views,
	})
}

// Results returns the matches from the most recent run. A missing artifact
// means no qualifying match has been produced yet.
func (h *MatchHandler) Results(w http.ResponseWriter, r *http.Request) {
	entries, err := report.ReadArtifact(h.config.Match.OutputPath)
	if err != nil {
		if os.IsNotExist(err) {
			respondJSON(w, http.StatusOK, MatchResponse{Success: false, Results: []report.View{}})
			return
		}
		h.logger.Error("failed to read artifact", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to read results")
		return
	}

	respondJSON(w, http.StatusOK, MatchResponse{
		Success: len(entries) > 0,
		Results: report.FormatViews(entries, h.config.Match.PlatformLabel),
	})
}
