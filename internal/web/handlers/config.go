package handlers

import (
	"net/http"

	"github.com/verilink/profile-verify/internal/config"
)

// ConfigHandler handles configuration endpoints
type ConfigHandler struct {
	config *config.Config
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{
		config: cfg,
	}
}

// ConfigResponse represents the configuration response
type ConfigResponse struct {
	Providers           []ProviderInfo `json:"providers"`
	PlatformLabel       string         `json:"platform_label"`
	SimilarityThreshold float64        `json:"similarity_threshold"`
	MaxResults          int            `json:"max_results"`
}

// ProviderInfo represents information about an AI summary provider
type ProviderInfo struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

// Get returns the available configuration
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	providers := []ProviderInfo{
		{
			Name:      "openai",
			Available: h.config.OpenAI.Token != "",
		},
		{
			Name:      "gemini",
			Available: h.config.Gemini.APIKey != "",
		},
	}

	response := ConfigResponse{
		Providers:           providers,
		PlatformLabel:       h.config.Match.PlatformLabel,
		SimilarityThreshold: h.config.Match.SimilarityThreshold,
		MaxResults:          h.config.Match.MaxResults,
	}

	respondJSON(w, http.StatusOK, response)
}
