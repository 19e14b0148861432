// Package config loads and validates the service configuration from the environment
package config

import (
	"fmt"
	"net"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Environment is the deployment environment the service runs in
type Environment int

const (
	EnvDevelopment Environment = iota
	EnvStaging
	EnvProduction
	EnvTest
)

func (e Environment) String() string {
	switch e {
	case EnvStaging:
		return "staging"
	case EnvProduction:
		return "prod"
	case EnvTest:
		return "test"
	default:
		return "dev"
	}
}

// ParseEnvironment maps an ENV value to an Environment
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(s) {
	case "dev", "development":
		return EnvDevelopment, nil
	case "staging":
		return EnvStaging, nil
	case "prod", "production":
		return EnvProduction, nil
	case "test":
		return EnvTest, nil
	default:
		return EnvDevelopment, fmt.Errorf("ENV must be one of: [dev staging prod test], got: %s", s)
	}
}

// Alternative strategies and embedding providers
const (
	StrategyEmbedding = "embedding"
	StrategyHeuristic = "heuristic"

	ProviderOpenAI  = "openai"
	ProviderHashing = "hashing"
	ProviderNone    = "none"
)

// Config holds all application configuration
type Config struct {
	Port           string
	Address        string
	Env            Environment
	LogLevel       string
	LogDir         string
	MaxRequestBody int64 // Maximum request body size in bytes
	MaxHeaderSize  int64 // Maximum header size in bytes

	CatalogFile         string
	AlternativeStrategy string
	RefreshSchedule     string // gocron At() times, e.g. "06:00;18:00"

	EmbeddingProvider     string
	OpenAIAPIKey          string
	OpenAIBaseURL         string
	EmbeddingModel        string
	EmbeddingDimension    int
	EmbeddingTimeout      time.Duration
	EmbeddingConcurrency  int
	EmbeddingRateLimitRPM int
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	env, err := ParseEnvironment(getEnvWithDefault("ENV", "dev"))
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: invalid ENV: %w", err)
	}

	timeout, err := time.ParseDuration(getEnvWithDefault("EMBEDDING_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: invalid EMBEDDING_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Port:           getEnvWithDefault("PORT", "8000"),
		Address:        getEnvWithDefault("ADDRESS", "127.0.0.1"),
		Env:            env,
		LogLevel:       getEnvWithDefault("LOG_LEVEL", "info"),
		LogDir:         os.Getenv("LOG_DIR"),
		MaxRequestBody: getInt64EnvWithDefault("MAX_REQUEST_BODY", 1048576), // 1MB default
		MaxHeaderSize:  getInt64EnvWithDefault("MAX_HEADER_SIZE", 1048576),  // 1MB default

		CatalogFile:         getEnvWithDefault("CATALOG_FILE", "seed/medicines.json"),
		AlternativeStrategy: strings.ToLower(getEnvWithDefault("ALTERNATIVE_STRATEGY", StrategyEmbedding)),
		RefreshSchedule:     getEnvWithDefault("REFRESH_SCHEDULE", "06:00;18:00"),

		EmbeddingProvider:     strings.ToLower(getEnvWithDefault("EMBEDDING_PROVIDER", ProviderHashing)),
		OpenAIAPIKey:          os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:         strings.TrimRight(getEnvWithDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"), "/"),
		EmbeddingModel:        getEnvWithDefault("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDimension:    getIntEnvWithDefault("EMBEDDING_DIMENSION", 1536),
		EmbeddingTimeout:      timeout,
		EmbeddingConcurrency:  getIntEnvWithDefault("EMBEDDING_CONCURRENCY", 4),
		EmbeddingRateLimitRPM: getIntEnvWithDefault("EMBEDDING_RATE_LIMIT_RPM", 3000),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	// Without a provider there is nothing to embed with
	if cfg.EmbeddingProvider == ProviderNone {
		cfg.AlternativeStrategy = StrategyHeuristic
	}

	return cfg, nil
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxRequestBody, "MAX_REQUEST_BODY"); err != nil {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxHeaderSize, "MAX_HEADER_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_HEADER_SIZE: %w", err)
	}

	if cfg.CatalogFile == "" {
		return fmt.Errorf("CATALOG_FILE cannot be empty")
	}

	if err := validateOneOf(cfg.AlternativeStrategy, "ALTERNATIVE_STRATEGY", StrategyEmbedding, StrategyHeuristic); err != nil {
		return err
	}

	if err := validateSchedule(cfg.RefreshSchedule); err != nil {
		return fmt.Errorf("invalid REFRESH_SCHEDULE: %w", err)
	}

	if err := validateEmbedding(cfg); err != nil {
		return err
	}

	return nil
}

// validatePort validates the PORT environment variable
func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

// validateAddress validates the ADDRESS environment variable
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	if address == "localhost" {
		return nil
	}

	ip := net.ParseIP(address)
	if ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	if !ip.IsLoopback() && !ip.IsPrivate() && !ip.IsUnspecified() {
		return fmt.Errorf("ADDRESS %s is a public IP, consider using private network ranges for security", address)
	}

	return nil
}

// validateLogLevel validates the LOG_LEVEL environment variable
func validateLogLevel(logLevel string) error {
	if logLevel == "" {
		return fmt.Errorf("LOG_LEVEL cannot be empty")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, strings.ToLower(logLevel)) {
		return fmt.Errorf("LOG_LEVEL must be one of: %v, got: %s", validLevels, logLevel)
	}

	return nil
}

// validateSizeLimit validates size limit configuration values
func validateSizeLimit(size int64, configName string) error {
	if size <= 0 {
		return fmt.Errorf("%s must be positive, got: %d", configName, size)
	}

	if size > 100*1024*1024 { // 100MB
		return fmt.Errorf("%s is too large (max 100MB), got: %d bytes", configName, size)
	}

	return nil
}

func validateOneOf(value, configName string, allowed ...string) error {
	if !slices.Contains(allowed, value) {
		return fmt.Errorf("invalid %s: must be one of %v, got: %s", configName, allowed, value)
	}
	return nil
}

// validateSchedule checks a ';' separated list of HH:MM times
func validateSchedule(schedule string) error {
	if schedule == "" {
		return fmt.Errorf("schedule cannot be empty")
	}

	for _, at := range strings.Split(schedule, ";") {
		if _, err := time.Parse("15:04", strings.TrimSpace(at)); err != nil {
			return fmt.Errorf("time %q must be HH:MM", at)
		}
	}

	return nil
}

// validateEmbedding validates the embedding provider settings
func validateEmbedding(cfg *Config) error {
	if err := validateOneOf(cfg.EmbeddingProvider, "EMBEDDING_PROVIDER", ProviderOpenAI, ProviderHashing, ProviderNone); err != nil {
		return err
	}

	if cfg.EmbeddingProvider == ProviderOpenAI && cfg.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when EMBEDDING_PROVIDER is openai")
	}

	if cfg.EmbeddingDimension < 1 || cfg.EmbeddingDimension > 8192 {
		return fmt.Errorf("invalid EMBEDDING_DIMENSION: must be between 1 and 8192, got: %d", cfg.EmbeddingDimension)
	}

	if cfg.EmbeddingTimeout <= 0 {
		return fmt.Errorf("invalid EMBEDDING_TIMEOUT: must be positive, got: %s", cfg.EmbeddingTimeout)
	}

	if cfg.EmbeddingConcurrency < 1 || cfg.EmbeddingConcurrency > 64 {
		return fmt.Errorf("invalid EMBEDDING_CONCURRENCY: must be between 1 and 64, got: %d", cfg.EmbeddingConcurrency)
	}

	if cfg.EmbeddingRateLimitRPM < 1 {
		return fmt.Errorf("invalid EMBEDDING_RATE_LIMIT_RPM: must be positive, got: %d", cfg.EmbeddingRateLimitRPM)
	}

	return nil
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnvWithDefault gets an environment variable as int with a default value
func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getInt64EnvWithDefault gets an environment variable as int64 with a default value
func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
