package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed weights.yaml
var weightsYAML []byte

type Config struct {
	FaceEngine FaceEngineConfig
	Fetch      FetchConfig
	Match      MatchConfig
	Cache      CacheConfig
	Index      IndexConfig
	Profiles   ProfilesConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	Web        WebConfig
	Weights    WeightsConfig
}

type FaceEngineConfig struct {
	URL                string  // defaults to http://localhost:8000
	DetectionThreshold float64 // minimum detection score for a face to count (default 0.5)
	Serialize          bool    // serialize calls for single-threaded inference servers
}

type FetchConfig struct {
	Timeout       time.Duration // per-request timeout (default 12s)
	RetryAttempts int           // total attempts including the first (default 3)
	RetryBackoff  time.Duration // initial backoff between attempts (default 1s)
}

type MatchConfig struct {
	SimilarityThreshold float64       // minimum facial similarity to qualify (default 0.35)
	MaxResults          int           // face-only result cap (default 4)
	Concurrency         int           // worker pool size (default 5)
	Deadline            time.Duration // overall run deadline, 0 means none
	OutputPath          string        // path for the top-matches artifact
	PlatformLabel       string        // platform name shown in API responses (default LinkedIn)
}

type CacheConfig struct {
	Path string        // embedding cache directory, empty disables persistence
	TTL  time.Duration // cache entry lifetime (default 7 days)
}

type IndexConfig struct {
	Path string // pool index file, empty keeps the index in memory only
}

type ProfilesConfig struct {
	Path string // path to the candidate export file (default profiles.json)
}

type OpenAIConfig struct {
	Token string
}

type GeminiConfig struct {
	APIKey string
}

type WebConfig struct {
	Port           int
	Host           string
	AllowedOrigins []string // origins beyond localhost that may call the API
}

type WeightsConfig struct {
	Weights ScoreWeights `yaml:"weights"`
}

type ScoreWeights struct {
	Name     float64 `yaml:"name"`
	Location float64 `yaml:"location"`
	Company  float64 `yaml:"company"`
	Face     float64 `yaml:"face"`
}

// Max returns the highest composite score the weights allow.
func (w ScoreWeights) Max() float64 {
	return w.Name + w.Location + w.Company + w.Face
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a non-negative float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 {
		return f
	}
	return defaultVal
}

// envBool reads an environment variable as a boolean. Unset or invalid
// values return the default.
func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envList reads a comma-separated environment variable.
func envList(key string) []string {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	var vals []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			vals = append(vals, v)
		}
	}
	return vals
}

func Load() *Config {
	var weights WeightsConfig
	if err := yaml.Unmarshal(weightsYAML, &weights); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded weights.yaml: " + err.Error())
	}

	// Env overrides for individual weights.
	weights.Weights.Name = envFloat("SCORE_WEIGHT_NAME", weights.Weights.Name)
	weights.Weights.Location = envFloat("SCORE_WEIGHT_LOCATION", weights.Weights.Location)
	weights.Weights.Company = envFloat("SCORE_WEIGHT_COMPANY", weights.Weights.Company)
	weights.Weights.Face = envFloat("SCORE_WEIGHT_FACE", weights.Weights.Face)

	return &Config{
		FaceEngine: FaceEngineConfig{
			URL:                envString("FACE_ENGINE_URL", "http://localhost:8000"),
			DetectionThreshold: envFloat("FACE_DETECTION_THRESHOLD", 0.5),
			Serialize:          envBool("FACE_ENGINE_SERIALIZE", false),
		},
		Fetch: FetchConfig{
			Timeout:       time.Duration(envInt("FETCH_TIMEOUT_SECONDS", 12)) * time.Second,
			RetryAttempts: envInt("FETCH_RETRY_ATTEMPTS", 3),
			RetryBackoff:  time.Duration(envInt("FETCH_RETRY_BACKOFF_MS", 1000)) * time.Millisecond,
		},
		Match: MatchConfig{
			SimilarityThreshold: envFloat("MATCH_SIMILARITY_THRESHOLD", 0.35),
			MaxResults:          envInt("MATCH_MAX_RESULTS", 4),
			Concurrency:         envInt("MATCH_CONCURRENCY", 5),
			Deadline:            time.Duration(envInt("MATCH_DEADLINE_SECONDS", 0)) * time.Second,
			OutputPath:          envString("OUTPUT_PATH", "top_matches.json"),
			PlatformLabel:       envString("PLATFORM_LABEL", "LinkedIn"),
		},
		Cache: CacheConfig{
			Path: os.Getenv("EMBEDDING_CACHE_PATH"),
			TTL:  time.Duration(envInt("EMBEDDING_CACHE_TTL_HOURS", 168)) * time.Hour,
		},
		Index: IndexConfig{
			Path: os.Getenv("POOL_INDEX_PATH"),
		},
		Profiles: ProfilesConfig{
			Path: envString("PROFILES_PATH", "profiles.json"),
		},
		OpenAI: OpenAIConfig{
			Token: os.Getenv("OPENAI_TOKEN"),
		},
		Gemini: GeminiConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
		},
		Web: WebConfig{
			Port:           envInt("WEB_PORT", 8080),
			Host:           envString("WEB_HOST", "0.0.0.0"),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
		Weights: weights,
	}
}
