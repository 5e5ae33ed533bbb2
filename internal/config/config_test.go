package config

import (
	"testing"
	"time"
)

func TestLoadRequiresCoreSettings(t *testing.T) {
	if _, err := LoadForTests(map[string]string{
		"DATABASE_URL": "",
		"REDIS_URL":    "redis://localhost:6379",
		"JWT_SECRET":   "secret",
	}); err == nil {
		t.Fatal("expected error when DATABASE_URL is missing")
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL": "postgres://localhost/pos",
		"REDIS_URL":    "redis://localhost:6379",
		"JWT_SECRET":   "secret",
		"SESSION_TTL":  "",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Fatalf("expected 24h session TTL default, got %v", cfg.SessionTTL)
	}
	if cfg.HTTPAddr() != ":8080" {
		t.Fatalf("expected default addr :8080, got %q", cfg.HTTPAddr())
	}
}

func TestLoadSplitsAllowedOrigins(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL":         "postgres://localhost/pos",
		"REDIS_URL":            "redis://localhost:6379",
		"JWT_SECRET":           "secret",
		"CORS_ALLOWED_ORIGINS": "https://till.local, https://admin.local ,",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"https://till.local", "https://admin.local"}
	if len(cfg.CORSAllowedOrigins) != len(want) {
		t.Fatalf("expected %d origins, got %v", len(want), cfg.CORSAllowedOrigins)
	}
	for i := range want {
		if cfg.CORSAllowedOrigins[i] != want[i] {
			t.Fatalf("origin %d: expected %q, got %q", i, want[i], cfg.CORSAllowedOrigins[i])
		}
	}
}
