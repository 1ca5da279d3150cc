package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/verilink/profile-verify/internal/config"
	"github.com/verilink/profile-verify/internal/faceengine"
	"github.com/verilink/profile-verify/internal/fetcher"
	"github.com/verilink/profile-verify/internal/index"
	"github.com/verilink/profile-verify/internal/pipeline"
	"github.com/verilink/profile-verify/internal/profiles"
)

// newLogger builds the process logger. LOG_LEVEL=debug enables debug output.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newEmbeddingCache builds the persistent embedding cache, or a null cache
// when no cache path is configured.
func newEmbeddingCache(cfg *config.Config) (*index.Cache, error) {
	if cfg.Cache.Path == "" {
		return index.NewNullCache(), nil
	}
	cache, err := index.NewCache(cfg.Cache.TTL, cfg.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("initializing embedding cache: %w", err)
	}
	return cache, nil
}

// newPipeline wires the fetcher, extractor and cache into a pipeline.
func newPipeline(cfg *config.Config, logger *slog.Logger) (*pipeline.Pipeline, *faceengine.Extractor, error) {
	cache, err := newEmbeddingCache(cfg)
	if err != nil {
		return nil, nil, err
	}
	f := fetcher.New(cfg.Fetch, logger)
	extractor := faceengine.NewExtractor(cfg.FaceEngine)
	return pipeline.New(cfg, f, extractor, cache, logger), extractor, nil
}

// loadPool reads the candidate export from disk.
func loadPool(path string) ([]profiles.Candidate, error) {
	pool, err := profiles.LoadExport(path)
	if err != nil {
		return nil, fmt.Errorf("loading candidate pool from %s: %w", path, err)
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("no candidates found in %s", path)
	}
	return pool, nil
}
