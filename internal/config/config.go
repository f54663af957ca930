package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/fuzzysuggest/internal/domain/msm"
)

// Catalog drivers.
const (
	DriverElastic = "elastic"
	DriverRedis   = "redis"
	DriverMemory  = "memory"
)

// Config holds the fuzzysuggest configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Query    QueryConfig    `yaml:"query"`
	Suggest  SuggestConfig  `yaml:"suggest"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
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

// CatalogConfig selects and connects the catalog store.
type CatalogConfig struct {
	Driver           string   `yaml:"driver"` // elastic, redis, memory (default: elastic)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	Namespace        string   `yaml:"namespace"`
	MatchField       string   `yaml:"match_field"`
	CompletionField  string   `yaml:"completion_field"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// AnalysisConfig describes the trigram analysis of the match field.
type AnalysisConfig struct {
	Strategy  string `yaml:"strategy"`   // tokenizer, filter
	CharClass string `yaml:"char_class"` // letter, letter_digit
	Lowercase *bool  `yaml:"lowercase"`  // default true
}

// QueryConfig holds the query template tunables. TemplateFile, when set,
// replaces the individual settings with a JSON template.
type QueryConfig struct {
	MinimumShouldMatch string `yaml:"minimum_should_match"`
	Fuzziness          *int   `yaml:"fuzziness"`
	Size               int    `yaml:"size"`
	SuggestName        string `yaml:"suggest_name"`
	TemplateFile       string `yaml:"template_file"`
}

// SuggestConfig holds suggest execution settings.
type SuggestConfig struct {
	QueryTimeoutMs    int `yaml:"query_timeout_ms"`
	RetryAttempts     int `yaml:"retry_attempts"`
	RetryInitialMs    int `yaml:"retry_initial_ms"`
	RetryMaxMs        int `yaml:"retry_max_ms"`
	SessionIdleTTLSec int `yaml:"session_idle_ttl_sec"`
}

// IngestConfig holds bulk ingestion settings.
type IngestConfig struct {
	Concurrency          int `yaml:"concurrency"`
	VisibilityTimeoutSec int `yaml:"visibility_timeout_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from path. A .env file in the working
// directory, if present, is loaded into the environment first.
func LoadFile(path string) (Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
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
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Catalog.Driver == "" {
		c.Catalog.Driver = DriverElastic
	}
	if c.Catalog.Namespace == "" {
		c.Catalog.Namespace = "cities"
	}
	if c.Catalog.MatchField == "" {
		c.Catalog.MatchField = "name"
	}
	if c.Catalog.CompletionField == "" {
		c.Catalog.CompletionField = "suggest"
	}
	if c.Catalog.ReadinessTimeout <= 0 {
		c.Catalog.ReadinessTimeout = 10
	}

	if c.Analysis.Strategy == "" {
		c.Analysis.Strategy = "tokenizer"
	}
	if c.Analysis.CharClass == "" {
		c.Analysis.CharClass = "letter"
	}
	if c.Analysis.Lowercase == nil {
		on := true
		c.Analysis.Lowercase = &on
	}

	if c.Query.MinimumShouldMatch == "" {
		c.Query.MinimumShouldMatch = "60%"
	}
	if c.Query.Fuzziness == nil {
		two := 2
		c.Query.Fuzziness = &two
	}
	if c.Query.Size <= 0 {
		c.Query.Size = 10
	}
	if c.Query.SuggestName == "" {
		c.Query.SuggestName = "suggest"
	}

	if c.Suggest.QueryTimeoutMs <= 0 {
		c.Suggest.QueryTimeoutMs = 2000
	}
	if c.Suggest.RetryAttempts <= 0 {
		c.Suggest.RetryAttempts = 3
	}
	if c.Suggest.RetryInitialMs <= 0 {
		c.Suggest.RetryInitialMs = 50
	}
	if c.Suggest.RetryMaxMs <= 0 {
		c.Suggest.RetryMaxMs = 500
	}
	if c.Suggest.SessionIdleTTLSec <= 0 {
		c.Suggest.SessionIdleTTLSec = 300
	}

	if c.Ingest.Concurrency <= 0 {
		c.Ingest.Concurrency = 8
	}
	if c.Ingest.VisibilityTimeoutSec <= 0 {
		c.Ingest.VisibilityTimeoutSec = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Catalog.Driver {
	case DriverElastic, DriverRedis:
		if len(c.Catalog.Addrs) == 0 {
			return errors.New("catalog.addrs is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("catalog.driver must be elastic, redis or memory, got %q", c.Catalog.Driver)
	}
	if strings.ContainsAny(c.Catalog.Namespace, " /*?\"<>|,#:") {
		return fmt.Errorf("catalog.namespace %q contains forbidden characters", c.Catalog.Namespace)
	}
	switch c.Analysis.Strategy {
	case "tokenizer", "filter":
	default:
		return fmt.Errorf("analysis.strategy must be tokenizer or filter, got %q", c.Analysis.Strategy)
	}
	switch c.Analysis.CharClass {
	case "letter", "letter_digit":
	default:
		return fmt.Errorf("analysis.char_class must be letter or letter_digit, got %q", c.Analysis.CharClass)
	}
	if _, err := msm.Parse(c.Query.MinimumShouldMatch); err != nil {
		return fmt.Errorf("query.minimum_should_match: %w", err)
	}
	if f := *c.Query.Fuzziness; f < 0 || f > 2 {
		return fmt.Errorf("query.fuzziness must be between 0 and 2, got %d", f)
	}
	if c.Suggest.RetryMaxMs < c.Suggest.RetryInitialMs {
		return fmt.Errorf("suggest.retry_max_ms (%d) must not be below retry_initial_ms (%d)",
			c.Suggest.RetryMaxMs, c.Suggest.RetryInitialMs)
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
