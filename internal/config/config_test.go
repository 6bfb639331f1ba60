package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/costwise")
	// Neutralise ambient credentials of the machine running the tests.
	t.Setenv("AWS_REGION", "")
	t.Setenv("AI_PROVIDER", "")
	t.Setenv("REDIS_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Logger.Level != "info" || cfg.Logger.Format != "json" {
		t.Errorf("logger = %s/%s; want info/json", cfg.Logger.Level, cfg.Logger.Format)
	}
	if cfg.Database.MaxOpenConns != 25 || cfg.Database.MaxIdleConns != 5 {
		t.Errorf("pool = %d/%d; want 25/5", cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	}
	if cfg.Database.ConnMaxLifetime != 5*time.Minute {
		t.Errorf("ConnMaxLifetime = %v; want 5m", cfg.Database.ConnMaxLifetime)
	}
	if cfg.Redis.URL != "" || cfg.Redis.CacheTTL != 15*time.Minute {
		t.Errorf("redis = %q/%v; want disabled with a 15m TTL default", cfg.Redis.URL, cfg.Redis.CacheTTL)
	}
	if cfg.AI.Provider != "" {
		t.Errorf("AI.Provider = %q; want disabled by default", cfg.AI.Provider)
	}
	if cfg.AWS.Region != "us-east-1" {
		t.Errorf("AWS.Region = %q; want us-east-1", cfg.AWS.Region)
	}
	if len(cfg.Engine.DisabledRules) != 0 {
		t.Errorf("DisabledRules = %v; want none", cfg.Engine.DisabledRules)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db:5432/costwise")
	t.Setenv("COSTWISE_LOG_LEVEL", "debug")
	t.Setenv("COSTWISE_LOG_FORMAT", "console")
	t.Setenv("DATABASE_MAX_OPEN_CONNS", "50")
	t.Setenv("REDIS_URL", "redis://cache:6379/0")
	t.Setenv("REDIS_CACHE_TTL", "1h")
	t.Setenv("ENGINE_CPU_THRESHOLD_PERCENT", "15.5")
	t.Setenv("ENGINE_AUTO_DISMISS_DAYS", "45")
	t.Setenv("ENGINE_DISABLED_RULES", "rightsize_cpu, cross_provider_vm ,,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Logger.Level != "debug" || cfg.Logger.Format != "console" {
		t.Errorf("logger = %s/%s; want debug/console", cfg.Logger.Level, cfg.Logger.Format)
	}
	if cfg.Database.MaxOpenConns != 50 {
		t.Errorf("MaxOpenConns = %d; want 50", cfg.Database.MaxOpenConns)
	}
	if cfg.Redis.URL != "redis://cache:6379/0" || cfg.Redis.CacheTTL != time.Hour {
		t.Errorf("redis = %q/%v; want the configured cache", cfg.Redis.URL, cfg.Redis.CacheTTL)
	}
	if cfg.Engine.CPUUtilizationPercent != 15.5 || cfg.Engine.AutoDismissDays != 45 {
		t.Errorf("engine = %v/%d; want 15.5/45",
			cfg.Engine.CPUUtilizationPercent, cfg.Engine.AutoDismissDays)
	}

	want := []string{"rightsize_cpu", "cross_provider_vm"}
	if len(cfg.Engine.DisabledRules) != len(want) {
		t.Fatalf("DisabledRules = %v; want %v", cfg.Engine.DisabledRules, want)
	}
	for i, id := range want {
		if cfg.Engine.DisabledRules[i] != id {
			t.Errorf("DisabledRules[%d] = %q; want %q", i, cfg.Engine.DisabledRules[i], id)
		}
	}
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("want an error without DATABASE_URL")
	}
}

func TestLoad_ValidatesAIProvider(t *testing.T) {
	t.Run("unknown provider", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/costwise")
		t.Setenv("AI_PROVIDER", "anthropic")
		if _, err := Load(); err == nil {
			t.Fatal("want an error for an unknown provider")
		}
	})

	t.Run("openai without key", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/costwise")
		t.Setenv("AI_PROVIDER", "openai")
		t.Setenv("AI_API_KEY", "")
		if _, err := Load(); err == nil {
			t.Fatal("want an error when openai has no API key")
		}
	})

	t.Run("bad base URL", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/costwise")
		t.Setenv("AI_PROVIDER", "ollama")
		t.Setenv("AI_BASE_URL", "localhost:11434")
		if _, err := Load(); err == nil {
			t.Fatal("want an error for a base URL without a scheme")
		}
	})

	t.Run("vllm needs no key", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/costwise")
		t.Setenv("AI_PROVIDER", "vllm")
		t.Setenv("AI_BASE_URL", "http://vllm:8000/v1")
		if _, err := Load(); err != nil {
			t.Fatalf("Load: %v", err)
		}
	})
}

func TestLoad_MalformedNumbersFallBack(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/costwise")
	t.Setenv("DATABASE_MAX_OPEN_CONNS", "many")
	t.Setenv("REDIS_CACHE_TTL", "soon")
	t.Setenv("ENGINE_MIN_MONTHLY_SAVINGS", "lots")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.MaxOpenConns != 25 {
		t.Errorf("MaxOpenConns = %d; want the default 25", cfg.Database.MaxOpenConns)
	}
	if cfg.Redis.CacheTTL != 15*time.Minute {
		t.Errorf("CacheTTL = %v; want the default 15m", cfg.Redis.CacheTTL)
	}
	if cfg.Engine.MinMonthlySavings != 0 {
		t.Errorf("MinMonthlySavings = %v; want unset", cfg.Engine.MinMonthlySavings)
	}
}

func TestEngineConfig_Thresholds(t *testing.T) {
	e := EngineConfig{
		CPUUtilizationPercent: 12,
		SnapshotMaxAgeDays:    180,
		MinMonthlySavings:     25,
		DismissSavingsFactor:  1.5,
		ImplementSuppressDays: 120,
		CandidateLimit:        3,
	}
	th := e.Thresholds()

	if th.CPUUtilizationPercent != 12 || th.SnapshotMaxAgeDays != 180 {
		t.Errorf("cpu/snapshot = %v/%d; want 12/180", th.CPUUtilizationPercent, th.SnapshotMaxAgeDays)
	}
	if th.MinMonthlySavings != 25 || th.DismissSavingsFactor != 1.5 {
		t.Errorf("savings/factor = %v/%v; want 25/1.5", th.MinMonthlySavings, th.DismissSavingsFactor)
	}
	if th.ImplementSuppressDays != 120 || th.CandidateLimit != 3 {
		t.Errorf("implement/candidates = %d/%d; want 120/3", th.ImplementSuppressDays, th.CandidateLimit)
	}
	// Unset knobs stay zero so the nil-safe getters fall back to defaults.
	if th.IPMaxAgeDays != 0 || th.AutoDismissDays != 0 {
		t.Errorf("ip/autodismiss = %d/%d; want zero", th.IPMaxAgeDays, th.AutoDismissDays)
	}
}
