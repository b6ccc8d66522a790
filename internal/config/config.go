package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the pivotlog API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Answer    AnswerConfig    `yaml:"answer"`
	Auth      AuthConfig      `yaml:"auth"`
	Search    SearchConfig    `yaml:"search"`
	Backfill  BackfillConfig  `yaml:"backfill"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// ClientConfig maps one bearer API key to its owner.
type ClientConfig struct {
	APIKey  string `yaml:"api_key"`
	OwnerID string `yaml:"owner_id"`
}

// AuthConfig holds API authentication settings. An empty client list disables
// authentication and every request runs as default_owner.
type AuthConfig struct {
	Clients      []ClientConfig `yaml:"clients"`
	DefaultOwner string         `yaml:"default_owner"`
}

// ClientMap returns the api-key → owner-id lookup used by the auth middleware.
func (a AuthConfig) ClientMap() map[string]string {
	m := make(map[string]string, len(a.Clients))
	for _, c := range a.Clients {
		if c.APIKey != "" && c.OwnerID != "" {
			m[c.APIKey] = c.OwnerID
		}
	}
	return m
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey      string `yaml:"api_key"`
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	Dimensions  int    `yaml:"dimensions"`
	Provider    string `yaml:"provider"`
	CacheTTLSec int    `yaml:"cache_ttl_sec"`
	TimeoutSec  int    `yaml:"timeout_sec"`
}

// AnswerConfig holds the generative answer provider settings. BaseURL and
// APIKey fall back to the embedding provider's when empty.
type AnswerConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// SearchConfig holds ranking thresholds. Per-mode minimums stay configurable
// so they can be tuned without code changes.
type SearchConfig struct {
	SemanticMinSimilarity float64 `yaml:"semantic_min_similarity"`
	HybridMinScore        float64 `yaml:"hybrid_min_score"`
	AskMinSimilarity      float64 `yaml:"ask_min_similarity"`
}

// BackfillConfig holds embedding backfill settings.
type BackfillConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.CacheTTLSec <= 0 {
		c.Embedding.CacheTTLSec = 24 * 60 * 60
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 30
	}
	if c.Answer.APIKey == "" {
		c.Answer.APIKey = c.Embedding.APIKey
	}
	if c.Answer.BaseURL == "" {
		c.Answer.BaseURL = c.Embedding.BaseURL
	}
	if c.Answer.Model == "" {
		c.Answer.Model = "gpt-4o-mini"
	}
	if c.Answer.TimeoutSec <= 0 {
		c.Answer.TimeoutSec = 60
	}
	if c.Auth.DefaultOwner == "" {
		c.Auth.DefaultOwner = "default"
	}
	if c.Search.SemanticMinSimilarity <= 0 {
		c.Search.SemanticMinSimilarity = 0.5
	}
	if c.Search.HybridMinScore <= 0 {
		c.Search.HybridMinScore = 0.3
	}
	if c.Search.AskMinSimilarity <= 0 {
		c.Search.AskMinSimilarity = 0.3
	}
	if c.Backfill.IntervalMs <= 0 {
		c.Backfill.IntervalMs = 100
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Search.SemanticMinSimilarity > 1 {
		return fmt.Errorf("search.semantic_min_similarity must be at most 1, got %v", c.Search.SemanticMinSimilarity)
	}
	if c.Search.HybridMinScore > 1 {
		return fmt.Errorf("search.hybrid_min_score must be at most 1, got %v", c.Search.HybridMinScore)
	}
	if c.Search.AskMinSimilarity > 1 {
		return fmt.Errorf("search.ask_min_similarity must be at most 1, got %v", c.Search.AskMinSimilarity)
	}
	for i, client := range c.Auth.Clients {
		if client.APIKey == "" || client.OwnerID == "" {
			return fmt.Errorf("auth.clients[%d]: api_key and owner_id are both required", i)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
