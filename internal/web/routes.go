package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/verilink/profile-verify/internal/index"
	"github.com/verilink/profile-verify/internal/profiles"
	"github.com/verilink/profile-verify/internal/web/handlers"
)

func (s *Server) setupRoutes(runner handlers.Runner, extractor handlers.Extractor, poolIndex *index.PoolIndex, pool []profiles.Candidate) {
	matchHandler := handlers.NewMatchHandler(s.config, runner, pool, s.logger)
	similarHandler := handlers.NewSimilarHandler(extractor, poolIndex, s.logger)
	configHandler := handlers.NewConfigHandler(s.config)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/match", matchHandler.Match)
		r.Get("/matches", matchHandler.Results)
		r.Post("/similar", similarHandler.Similar)
		r.Get("/config", configHandler.Get)
	})
}
