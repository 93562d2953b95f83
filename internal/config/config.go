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

// Config holds the scholarmatch service configuration.
type Config struct {
	HTTP          HTTPConfig          `yaml:"http"`
	Cache         CacheConfig         `yaml:"cache"`
	VectorStore   VectorStoreConfig   `yaml:"vector_store"`
	Embedding     EmbeddingConfig     `yaml:"embedding"`
	Matching      MatchingConfig      `yaml:"matching"`
	Heuristics    HeuristicsConfig    `yaml:"heuristics"`
	Collaborators CollaboratorsConfig `yaml:"collaborators"`
	Auth          AuthConfig          `yaml:"auth"`
	Logging       LoggingConfig       `yaml:"logging"`
	Taxonomy      TaxonomyConfig      `yaml:"taxonomy"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CacheConfig holds the Redis connection hosting the embedding cache,
// the vector mirror, and the recommendation batches.
type CacheConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
}

// VectorStoreConfig holds Qdrant connection settings. An empty URL runs
// the service in brute-force-only mode.
type VectorStoreConfig struct {
	URL               string `yaml:"url"`
	APIKey            string `yaml:"api_key"`
	Distance          string `yaml:"distance"`
	ReplicationFactor int    `yaml:"replication_factor"`
	TimeoutSec        int    `yaml:"timeout_sec"`
	CollectionPrefix  string `yaml:"collection_prefix"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url"`
	Model        string `yaml:"model"`
	Dimensions   int    `yaml:"dimensions"`
	TimeoutSec   int    `yaml:"timeout_sec"`
	CacheTTLDays int    `yaml:"cache_ttl_days"`
}

// MatchingConfig holds the ranking weights and thresholds. Defaults are
// the production-tuned constants; override only with measurements.
type MatchingConfig struct {
	QueryWeight    float64   `yaml:"query_weight"`
	ProfileWeight  float64   `yaml:"profile_weight"`
	Threshold      float64   `yaml:"score_threshold"`
	VagueThreshold float64   `yaml:"vague_score_threshold"`
	BackoffLadder  []float64 `yaml:"backoff_ladder"`
	DefaultLimit   int       `yaml:"default_limit"`
	MaxTokens      int       `yaml:"max_document_tokens"`
}

// HeuristicsConfig overrides the built-in classification word lists.
// A present list replaces its default wholesale.
type HeuristicsConfig struct {
	VaguePatterns      []string          `yaml:"vague_patterns"`
	RecognizedFields   []string          `yaml:"recognized_fields"`
	DomainKeywords     []string          `yaml:"domain_keywords"`
	IntentFramings     map[string]string `yaml:"intent_framings"`
	QueryContextPrefix string            `yaml:"query_context_prefix"`
	InterestLabels     []string          `yaml:"interest_labels"`
}

// CollaboratorsConfig holds the external collaborator endpoints. Empty
// URLs disable the respective collaborator.
type CollaboratorsConfig struct {
	TextURL    string `yaml:"text_url"`
	JustifyURL string `yaml:"justify_url"`
	APIKey     string `yaml:"api_key"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// TaxonomyConfig points at the research-field taxonomy table.
type TaxonomyConfig struct {
	Path string `yaml:"path"`
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
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "scholarmatch:"
	}
	if c.VectorStore.Distance == "" {
		c.VectorStore.Distance = "Cosine"
	}
	if c.VectorStore.TimeoutSec <= 0 {
		c.VectorStore.TimeoutSec = 15
	}
	if c.VectorStore.CollectionPrefix == "" {
		c.VectorStore.CollectionPrefix = "sm_"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 30
	}
	if c.Embedding.CacheTTLDays <= 0 {
		c.Embedding.CacheTTLDays = 30
	}
	if c.Matching.QueryWeight == 0 && c.Matching.ProfileWeight == 0 {
		c.Matching.QueryWeight = 0.6
		c.Matching.ProfileWeight = 0.4
	}
	if c.Matching.Threshold == 0 {
		c.Matching.Threshold = 0.5
	}
	if c.Matching.VagueThreshold == 0 {
		c.Matching.VagueThreshold = 0.3
	}
	if c.Matching.BackoffLadder == nil {
		c.Matching.BackoffLadder = []float64{0.35, 0.2}
	}
	if c.Matching.DefaultLimit <= 0 {
		c.Matching.DefaultLimit = 10
	}
	if c.Matching.MaxTokens <= 0 {
		c.Matching.MaxTokens = 8000
	}
	if c.Collaborators.TimeoutSec <= 0 {
		c.Collaborators.TimeoutSec = 30
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Cache.Addrs) == 0 {
		return fmt.Errorf("cache.addrs is required")
	}
	if c.Matching.QueryWeight < 0 || c.Matching.ProfileWeight < 0 {
		return fmt.Errorf("matching weights must be non-negative")
	}
	if c.Matching.QueryWeight+c.Matching.ProfileWeight == 0 {
		return fmt.Errorf("at least one matching weight must be positive")
	}
	for i, f := range c.Matching.BackoffLadder {
		if f <= 0 || f >= 1 {
			return fmt.Errorf("matching.backoff_ladder[%d] must be in (0, 1), got %v", i, f)
		}
		if i > 0 && f >= c.Matching.BackoffLadder[i-1] {
			return fmt.Errorf("matching.backoff_ladder must be strictly decreasing")
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
