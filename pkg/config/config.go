package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the catalog import engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, API keys) must only come from environment variables.
type Config struct {
	Env     string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Redis configuration for job progress publishing (optional)
	Redis RedisConfig `yaml:"redis"`

	// AI classifier endpoint configuration
	AI AIConfig `yaml:"ai"`

	// Import pipeline configuration
	Import ImportConfig `yaml:"import"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"catalog"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"catalog_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"migrations"`
}

// RedisConfig holds Redis connection settings for progress reporting.
// Progress publishing is disabled when Host is empty.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// AIConfig holds the chat-completion classifier endpoint settings.
type AIConfig struct {
	// Enabled controls the whole AI path. When false every AI-backed stage
	// falls back to rule-based processing.
	Enabled bool `yaml:"enabled" env:"AI_ENABLED" env-default:"true"`

	BaseURL     string  `yaml:"base_url" env:"AI_BASE_URL" env-default:"https://api.deepseek.com/v1"`
	Model       string  `yaml:"model" env:"AI_MODEL" env-default:"deepseek-chat"`
	APIKey      string  `yaml:"-" env:"AI_API_KEY"` // Secret - not in YAML
	MaxTokens   int     `yaml:"max_tokens" env:"AI_MAX_TOKENS" env-default:"1000"`
	Temperature float64 `yaml:"temperature" env:"AI_TEMPERATURE" env-default:"0.1"`

	TimeoutSeconds    int `yaml:"timeout_seconds" env:"AI_TIMEOUT_SECONDS" env-default:"30"`
	MaxRetries        int `yaml:"max_retries" env:"AI_MAX_RETRIES" env-default:"3"`
	RetryDelaySeconds int `yaml:"retry_delay_seconds" env:"AI_RETRY_DELAY_SECONDS" env-default:"1"`

	// ConfidenceThreshold is the minimum confidence at which an AI
	// classification is trusted over the rule/default result.
	ConfidenceThreshold float64 `yaml:"confidence_threshold" env:"AI_CONFIDENCE_THRESHOLD" env-default:"0.6"`
}

// IsAvailable returns true if the AI classifier is enabled and configured.
func (c *AIConfig) IsAvailable() bool {
	return c.Enabled && c.APIKey != "" && c.BaseURL != ""
}

// Timeout returns the per-call timeout as a duration.
func (c *AIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RetryDelay returns the initial retry backoff as a duration.
func (c *AIConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds) * time.Second
}

// ImportConfig holds pipeline stage flags and tunables.
type ImportConfig struct {
	// Optional stages
	EnableQualityCheck    bool `yaml:"enable_quality_check" env:"IMPORT_ENABLE_QUALITY_CHECK" env-default:"true"`
	EnableAIEnhancement   bool `yaml:"enable_ai_enhancement" env:"IMPORT_ENABLE_AI_ENHANCEMENT" env-default:"true"`
	EnableSmartAttributes bool `yaml:"enable_smart_attributes" env:"IMPORT_ENABLE_SMART_ATTRIBUTES" env-default:"true"`

	// SimilarityThreshold is the minimum edit-distance ratio at which a
	// classified attribute name/value is considered a match for an existing
	// taxonomy entry instead of creating a new one.
	SimilarityThreshold float64 `yaml:"similarity_threshold" env:"IMPORT_SIMILARITY_THRESHOLD" env-default:"0.85"`

	// MaxUnknownAttributes caps how many unknown columns of one row are
	// classified; the rest are ignored.
	MaxUnknownAttributes int `yaml:"max_unknown_attributes" env:"IMPORT_MAX_UNKNOWN_ATTRIBUTES" env-default:"15"`

	// DefaultSeries is used for the template natural key when a row carries
	// no series value.
	DefaultSeries string `yaml:"default_series" env:"IMPORT_DEFAULT_SERIES" env-default:"NOVO"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. When config.yaml does not exist the configuration is read from
// the environment alone, so the importer can run in containers without a
// config file. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment config: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Import.SimilarityThreshold < 0 || c.Import.SimilarityThreshold > 1 {
		return fmt.Errorf("import.similarity_threshold must be in [0,1], got %v", c.Import.SimilarityThreshold)
	}
	if c.AI.ConfidenceThreshold < 0 || c.AI.ConfidenceThreshold > 1 {
		return fmt.Errorf("ai.confidence_threshold must be in [0,1], got %v", c.AI.ConfidenceThreshold)
	}
	if c.AI.MaxRetries < 0 {
		return fmt.Errorf("ai.max_retries must not be negative, got %d", c.AI.MaxRetries)
	}
	if c.Import.MaxUnknownAttributes < 0 {
		return fmt.Errorf("import.max_unknown_attributes must not be negative, got %d", c.Import.MaxUnknownAttributes)
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
