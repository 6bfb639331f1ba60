// Package config loads all process configuration from environment
// variables, with an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/costwise/costwise/internal/policy"
)

// Config holds all configuration for the costwise process.
type Config struct {
	Logger   LoggerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	AI       AIConfig
	AWS      AWSConfig
	Engine   EngineConfig
}

type LoggerConfig struct {
	Level  string
	Format string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the optional catalog cache. An empty URL disables
// caching entirely.
type RedisConfig struct {
	URL      string
	CacheTTL time.Duration
}

// AIConfig configures the recommendation description generator. An empty
// provider disables generation.
type AIConfig struct {
	Provider string
	BaseURL  string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// AWSConfig configures the AWS inventory sync adapter.
type AWSConfig struct {
	Region  string
	Profile string
}

// EngineConfig carries the process-level rule engine tuning.
type EngineConfig struct {
	// DisabledRules is a comma-separated list of rule IDs disabled at the
	// deployment level, taking priority over stored settings.
	DisabledRules []string

	CPUUtilizationPercent  float64
	SnapshotMaxAgeDays     int
	IPMaxAgeDays           int
	MinMonthlySavings      float64
	StoragePricePerGBMonth float64
	AutoDismissDays        int
	DismissSuppressDays    int
	DismissSavingsFactor   float64
	ImplementSuppressDays  int
	ImplementSavingsFactor float64
	CandidateLimit         int
}

// Thresholds converts the engine configuration into the policy value the
// rule engine consumes. Zero fields fall back to compiled defaults there.
func (e EngineConfig) Thresholds() *policy.Thresholds {
	return &policy.Thresholds{
		CPUUtilizationPercent:  e.CPUUtilizationPercent,
		SnapshotMaxAgeDays:     e.SnapshotMaxAgeDays,
		IPMaxAgeDays:           e.IPMaxAgeDays,
		MinMonthlySavings:      e.MinMonthlySavings,
		StoragePricePerGBMonth: e.StoragePricePerGBMonth,
		AutoDismissDays:        e.AutoDismissDays,
		DismissSuppressDays:    e.DismissSuppressDays,
		DismissSavingsFactor:   e.DismissSavingsFactor,
		ImplementSuppressDays:  e.ImplementSuppressDays,
		ImplementSavingsFactor: e.ImplementSavingsFactor,
		CandidateLimit:         e.CandidateLimit,
	}
}

var validAIProviders = map[string]bool{
	"openai": true,
	"vllm":   true,
	"ollama": true,
}

// Load reads configuration from environment variables and returns a
// validated Config. A .env file in the working directory is applied first
// when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Logger: LoggerConfig{
			Level:  envString("COSTWISE_LOG_LEVEL", "info"),
			Format: envString("COSTWISE_LOG_FORMAT", "json"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:      os.Getenv("REDIS_URL"),
			CacheTTL: envDuration("REDIS_CACHE_TTL", 15*time.Minute),
		},
		AI: AIConfig{
			Provider: os.Getenv("AI_PROVIDER"),
			BaseURL:  envString("AI_BASE_URL", "https://api.openai.com/v1"),
			APIKey:   os.Getenv("AI_API_KEY"),
			Model:    envString("AI_MODEL", "gpt-4o-mini"),
			Timeout:  envDuration("AI_TIMEOUT", 60*time.Second),
		},
		AWS: AWSConfig{
			Region:  envString("AWS_REGION", "us-east-1"),
			Profile: os.Getenv("AWS_PROFILE"),
		},
		Engine: EngineConfig{
			DisabledRules:          envList("ENGINE_DISABLED_RULES"),
			CPUUtilizationPercent:  envFloat("ENGINE_CPU_THRESHOLD_PERCENT", 0),
			SnapshotMaxAgeDays:     envInt("ENGINE_SNAPSHOT_MAX_AGE_DAYS", 0),
			IPMaxAgeDays:           envInt("ENGINE_IP_MAX_AGE_DAYS", 0),
			MinMonthlySavings:      envFloat("ENGINE_MIN_MONTHLY_SAVINGS", 0),
			StoragePricePerGBMonth: envFloat("ENGINE_STORAGE_PRICE_PER_GB", 0),
			AutoDismissDays:        envInt("ENGINE_AUTO_DISMISS_DAYS", 0),
			DismissSuppressDays:    envInt("ENGINE_DISMISS_SUPPRESS_DAYS", 0),
			DismissSavingsFactor:   envFloat("ENGINE_DISMISS_SAVINGS_FACTOR", 0),
			ImplementSuppressDays:  envInt("ENGINE_IMPLEMENT_SUPPRESS_DAYS", 0),
			ImplementSavingsFactor: envFloat("ENGINE_IMPLEMENT_SAVINGS_FACTOR", 0),
			CandidateLimit:         envInt("ENGINE_CANDIDATE_LIMIT", 0),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.AI.Provider != "" {
		if !validAIProviders[c.AI.Provider] {
			return fmt.Errorf("AI_PROVIDER must be one of openai, vllm, ollama; got %q", c.AI.Provider)
		}
		if c.AI.Provider == "openai" && c.AI.APIKey == "" {
			return fmt.Errorf("AI_API_KEY is required when AI_PROVIDER is openai")
		}
		if !strings.HasPrefix(c.AI.BaseURL, "http://") && !strings.HasPrefix(c.AI.BaseURL, "https://") {
			return fmt.Errorf("AI_BASE_URL must start with http:// or https://, got %q", c.AI.BaseURL)
		}
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
