package config

import (
	"os"
	"testing"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	os.Unsetenv("DATABASE_URL")
	_, err := Load()
	if err == nil {
		t.Error("expected error when DATABASE_URL is unset")
	}
}

func TestLoadDefaults(t *testing.T) {
	os.Setenv("DATABASE_URL", "postgres://localhost/clinic_test")
	defer os.Unsetenv("DATABASE_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.HomeCurrency != "HNL" {
		t.Errorf("expected default home currency HNL, got %s", cfg.HomeCurrency)
	}
	if cfg.DBMaxConns != 20 {
		t.Errorf("expected default max conns 20, got %d", cfg.DBMaxConns)
	}
	if !cfg.IsDev() {
		t.Error("expected default env to be development")
	}
}

func TestValidateProductionRequiresAuth(t *testing.T) {
	cfg := &Config{Env: "production", HomeCurrency: "HNL"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for production without auth issuer")
	}

	cfg.AuthIssuer = "https://auth.example.com/realms/clinic"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateCalendarNeedsClientID(t *testing.T) {
	cfg := &Config{Env: "development", HomeCurrency: "HNL", CalendarAPIBaseURL: "https://calendar.example.com"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for calendar base URL without client id")
	}
}
