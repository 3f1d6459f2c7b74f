package config

import (
	"strings"
	"testing"
	"time"
)

type envTestConfig struct {
	Port     int           `env:"TEST_PORT" envDefault:"123"`
	Interval time.Duration `env:"TEST_INTERVAL" envDefault:"10s"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 123 {
		t.Fatalf("expected default port 123, got %d", cfg.Port)
	}
	if cfg.Interval != 10*time.Second {
		t.Fatalf("expected default interval 10s, got %v", cfg.Interval)
	}
}

func TestParseEnvUsesPrefix(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("TEST_PORT", "999")
	t.Setenv("CHALLENGE_SPACE_TEST_PORT", "456")

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 456 {
		t.Fatalf("port = %d, want 456", cfg.Port)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("CHALLENGE_SPACE_TEST_PORT", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}
