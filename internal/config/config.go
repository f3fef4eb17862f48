package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"hotelscout/pkg/models"
)

// Config holds all application-level configuration, built once at startup
// and passed explicitly into every component that needs it.
type Config struct {
	// External review-platform API
	SerpAPIBaseURL string
	SerpAPIKey     string

	// Pacing between outbound calls (shared provider rate limit)
	RateLimitDelay    time.Duration
	RateLimitCooldown time.Duration

	// LLM enrichment (optional; empty URL disables the enrichment path)
	LLMURL   string
	LLMModel string

	// Persistence
	DataDir        string
	PropertiesFile string

	// Optional mirror of the saved-folders file to a GitHub repo
	GitHubToken      string
	GitHubMirrorRepo string // "owner/repo"
	GitHubMirrorPath string // path of the file within the repo

	// HTTP server
	Port string
}

// Load reads configuration from the environment, with a .env file applied
// first if one exists in the working directory.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		SerpAPIBaseURL:    getEnv("SERP_API_URL", "https://serpapi.com/search.json"),
		SerpAPIKey:        os.Getenv("SERP_API_KEY"),
		RateLimitDelay:    time.Duration(getEnvInt("RATE_LIMIT_DELAY_MS", 300)) * time.Millisecond,
		RateLimitCooldown: time.Duration(getEnvInt("RATE_LIMIT_COOLDOWN_MS", 10000)) * time.Millisecond,
		LLMURL:            os.Getenv("LLM_URL"),
		LLMModel:          getEnv("LLM_MODEL", "smollm2:135m"),
		DataDir:           getEnv("DATA_DIR", "data"),
		PropertiesFile:    getEnv("PROPERTIES_FILE", "data/properties.json"),
		GitHubToken:       os.Getenv("GITHUB_TOKEN"),
		GitHubMirrorRepo:  os.Getenv("GITHUB_MIRROR_REPO"),
		GitHubMirrorPath:  getEnv("GITHUB_MIRROR_PATH", "saved_folders.json"),
		Port:              getEnv("PORT", "8080"),
	}
}

// ValidateCredentials fails fast when the platform API key is absent or
// still a placeholder, before any network call is attempted.
func (c *Config) ValidateCredentials() error {
	if c.SerpAPIKey == "" || strings.HasPrefix(c.SerpAPIKey, "your_") {
		return fmt.Errorf("SERP_API_KEY is missing or still a placeholder; set it in the environment or .env")
	}
	return nil
}

// MirrorEnabled reports whether the saved-folders GitHub mirror is configured.
func (c *Config) MirrorEnabled() bool {
	return c.GitHubToken != "" && c.GitHubMirrorRepo != ""
}

// LoadProperties reads the static property list. The list is read-only
// input; order is preserved because it drives both fetch and merge order.
func LoadProperties(path string) ([]models.Property, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read property list: %w", err)
	}
	var props []models.Property
	if err := json.Unmarshal(b, &props); err != nil {
		return nil, fmt.Errorf("parse property list %s: %w", path, err)
	}
	return props, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}
