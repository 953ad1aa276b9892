package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("TOKEN_TTL_MINUTES", "")

	cfg := Load()
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Addr)
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want empty", cfg.DatabaseURL)
	}
	if cfg.TokenTTL != 12*time.Hour {
		t.Errorf("TokenTTL = %s, want 12h", cfg.TokenTTL)
	}
	if cfg.AllowedOrigin != "*" {
		t.Errorf("AllowedOrigin = %q, want *", cfg.AllowedOrigin)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9001")
	t.Setenv("TOKEN_TTL_MINUTES", "30")
	t.Setenv("ALLOWED_ORIGIN", "https://pos.example.com")

	cfg := Load()
	if cfg.Addr != ":9001" {
		t.Errorf("Addr = %q, want :9001", cfg.Addr)
	}
	if cfg.TokenTTL != 30*time.Minute {
		t.Errorf("TokenTTL = %s, want 30m", cfg.TokenTTL)
	}
	if cfg.AllowedOrigin != "https://pos.example.com" {
		t.Errorf("AllowedOrigin = %q", cfg.AllowedOrigin)
	}
}

func TestBadIntFallsBack(t *testing.T) {
	t.Setenv("TOKEN_TTL_MINUTES", "soon")
	cfg := Load()
	if cfg.TokenTTL != 12*time.Hour {
		t.Errorf("TokenTTL = %s, want fallback 12h", cfg.TokenTTL)
	}
}
