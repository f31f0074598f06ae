package utils

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// PipelineConfig carries everything the acquisition pipeline needs that is
// not the database itself. All values come from MANGASCOUT_* env vars with
// dev-safe defaults.
type PipelineConfig struct {
	// AI text service (OpenAI-compatible chat completions endpoint).
	AIBaseURL string
	AIModel   string
	AIKey     string

	// Curated search API (Google Custom Search). EngineID empty means the
	// resolver degrades to allow-list direct-search URLs.
	SearchAPIKey   string
	SearchEngineID string

	// Where cover files land (single flat directory).
	AssetDir string

	FetchTimeout time.Duration
	ItemDelay    time.Duration // politeness delay between items
	PageDelay    time.Duration // longer delay between discovery-sweep pages
}

func LoadPipelineConfig() PipelineConfig {
	cfg := PipelineConfig{
		AIBaseURL:      getenv("MANGASCOUT_AI_URL", "http://localhost:11434/v1"),
		AIModel:        getenv("MANGASCOUT_AI_MODEL", "llama3.1"),
		AIKey:          os.Getenv("MANGASCOUT_AI_KEY"),
		SearchAPIKey:   os.Getenv("MANGASCOUT_SEARCH_API_KEY"),
		SearchEngineID: os.Getenv("MANGASCOUT_SEARCH_ENGINE_ID"),
		AssetDir:       getenv("MANGASCOUT_ASSET_DIR", defaultAssetDir()),
		FetchTimeout:   getenvDuration("MANGASCOUT_FETCH_TIMEOUT", 20*time.Second),
		ItemDelay:      getenvDuration("MANGASCOUT_ITEM_DELAY", 2*time.Second),
		PageDelay:      getenvDuration("MANGASCOUT_PAGE_DELAY", 5*time.Second),
	}
	return cfg
}

func defaultAssetDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return filepath.Join(home, ".mangascout", "covers")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	// accept either a Go duration ("5s") or plain seconds ("5")
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
