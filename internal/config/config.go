package config

import (
	"os"
	"strconv"
	"time"

	"arbiter/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Judge      JudgeConfig
	Evaluation EvaluationConfig
	Database   DatabaseConfig
	Server     ServerConfig
}

// JudgeConfig holds settings for the external judge backend
type JudgeConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// EvaluationConfig holds orchestrator and pipeline settings
type EvaluationConfig struct {
	MaxConcurrent  int
	MaxRetries     int
	RetryBase      time.Duration
	RateLimit      float64 // requests per second, 0 = unlimited
	ScoreThreshold float64
	RulesFile      string // YAML/JSON rule set, empty = built-in rules
}

// DatabaseConfig holds database connection settings. An empty URL disables persistence.
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	UIPort  string
	GinMode string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Judge:      loadJudgeConfig(),
		Evaluation: loadEvaluationConfig(),
		Database:   DatabaseConfig{URL: os.Getenv("DATABASE_URL")},
		Server:     loadServerConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// RequireJudge fails when no judge API key is configured
func (c *Config) RequireJudge() error {
	if c.Judge.APIKey == "" {
		return errors.ConfigInvalid("JUDGE_API_KEY (or OPENAI_API_KEY) is required to call a judge")
	}
	return nil
}

// PersistenceEnabled reports whether a database is configured
func (c *Config) PersistenceEnabled() bool {
	return c.Database.URL != ""
}

func loadJudgeConfig() JudgeConfig {
	key := os.Getenv("JUDGE_API_KEY")
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}
	return JudgeConfig{
		APIKey:      key,
		Model:       getEnvOrDefault("JUDGE_MODEL", "gpt-4o-mini"),
		BaseURL:     getEnvOrDefault("JUDGE_BASE_URL", ""),
		MaxTokens:   getEnvIntOrDefault("JUDGE_MAX_TOKENS", 4096),
		Temperature: getEnvFloatOrDefault("JUDGE_TEMPERATURE", 0),
		Timeout:     getEnvDurationOrDefault("JUDGE_TIMEOUT", 60*time.Second),
	}
}

func loadEvaluationConfig() EvaluationConfig {
	return EvaluationConfig{
		MaxConcurrent:  getEnvIntOrDefault("MAX_CONCURRENT", 5),
		MaxRetries:     getEnvIntOrDefault("JUDGE_MAX_RETRIES", 2),
		RetryBase:      getEnvDurationOrDefault("JUDGE_RETRY_BASE", 500*time.Millisecond),
		RateLimit:      getEnvFloatOrDefault("JUDGE_RATE_LIMIT", 0),
		ScoreThreshold: getEnvFloatOrDefault("SCORE_THRESHOLD", 0),
		RulesFile:      os.Getenv("RULES_FILE"),
	}
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		UIPort:  getEnvOrDefault("UI_PORT", "8081"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func validateConfig(config *Config) error {
	if config.Evaluation.MaxConcurrent < 1 {
		return errors.ConfigInvalid("MAX_CONCURRENT must be at least 1")
	}
	if config.Evaluation.MaxRetries < 0 {
		return errors.ConfigInvalid("JUDGE_MAX_RETRIES must not be negative")
	}
	if config.Evaluation.RateLimit < 0 {
		return errors.ConfigInvalid("JUDGE_RATE_LIMIT must not be negative")
	}
	if t := config.Evaluation.ScoreThreshold; t < 0 || t >= 1 {
		return errors.ConfigInvalid("SCORE_THRESHOLD must be in [0, 1)")
	}
	if config.Judge.MaxTokens < 1 {
		return errors.ConfigInvalid("JUDGE_MAX_TOKENS must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
