package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ASSISTANT_CACHE_TTL", "")
	t.Setenv("ASSISTANT_DISPLAY_CAP", "")
	t.Setenv("REDIS_ADDR", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AssistantCacheTTL != 5*time.Minute {
		t.Errorf("expected 5m cache ttl, got %s", cfg.AssistantCacheTTL)
	}
	if cfg.AssistantDisplayCap != 20 {
		t.Errorf("expected display cap 20, got %d", cfg.AssistantDisplayCap)
	}
	if cfg.RedisAddr != "" {
		t.Errorf("expected empty redis addr, got %q", cfg.RedisAddr)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ASSISTANT_CACHE_TTL", "90s")
	t.Setenv("IMPORT_DEDUP_WINDOW", "1m")
	t.Setenv("EXTRACTION_WORKERS", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AssistantCacheTTL != 90*time.Second {
		t.Errorf("expected 90s, got %s", cfg.AssistantCacheTTL)
	}
	if cfg.ImportDedupWindow != time.Minute {
		t.Errorf("expected 1m, got %s", cfg.ImportDedupWindow)
	}
	if cfg.ExtractionWorkers != 3 {
		t.Errorf("expected 3 workers, got %d", cfg.ExtractionWorkers)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("ASSISTANT_CACHE_TTL", "soon")
	t.Setenv("ASSISTANT_DISPLAY_CAP", "-4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AssistantCacheTTL != 5*time.Minute {
		t.Errorf("expected fallback 5m, got %s", cfg.AssistantCacheTTL)
	}
	if cfg.AssistantDisplayCap != 20 {
		t.Errorf("expected fallback 20, got %d", cfg.AssistantDisplayCap)
	}
}
