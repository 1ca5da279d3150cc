package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/verilink/profile-verify/internal/index"
)

// Extractor resolves a face embedding from raw image bytes. Implemented by
// faceengine.Extractor.
type Extractor interface {
	Extract(ctx context.Context, imageData []byte) ([]float32, error)
}

// SimilarResult is one nearest-neighbor hit.
type SimilarResult struct {
	Name       string  `json:"name"`
	Profile    string  `json:"profile"`
	Similarity float64 `json:"similarity"`
}

// SimilarHandler serves nearest-neighbor lookups against the pool index.
type SimilarHandler struct {
	extractor Extractor
	poolIndex *index.PoolIndex
	logger    *slog.Logger
}

// NewSimilarHandler creates a new similar handler.
func NewSimilarHandler(extractor Extractor, poolIndex *index.PoolIndex, logger *slog.Logger) *SimilarHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SimilarHandler{
		extractor: extractor,
		poolIndex: poolIndex,
		logger:    logger,
	}
}

// Similar finds the nearest candidates to the face in the uploaded image.
// The optional "k" query parameter bounds the result count (default 5).
func (h *SimilarHandler) Similar(w http.ResponseWriter, r *http.Request) {
	if h.poolIndex == nil || h.poolIndex.Count() == 0 {
		respondError(w, http.StatusServiceUnavailable, "pool index is empty")
		return
	}

	k := 5
	if v := r.URL.Query().Get("k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "k must be a positive integer")
			return
		}
		k = n
	}

	imageData, err := readUploadedImage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "file is required")
		return
	}

	embedding, err := h.extractor.Extract(r.Context(), imageData)
	if err != nil {
		h.logger.Info("similar lookup rejected", "error", sanitizeForLog(err.Error()))
		respondError(w, http.StatusUnprocessableEntity, "no usable face in image")
		return
	}

	neighbors, err := h.poolIndex.Search(embedding, k)
	if err != nil {
		h.logger.Error("pool index search failed", "error", err)
		respondError(w, http.StatusInternalServerError, "index search failed")
		return
	}

	results := make([]SimilarResult, len(neighbors))
	for i, n := range neighbors {
		results[i] = SimilarResult{
			Name:       n.Candidate.Name,
			Profile:    n.Candidate.ProfileURL,
			Similarity: n.Similarity,
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"results": results})
}
