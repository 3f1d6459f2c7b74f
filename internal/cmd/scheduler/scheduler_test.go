package scheduler

import (
	"flag"
	"io"
	"testing"
	"time"
)

func TestParseConfig_ParsesDefaultsAndFlags(t *testing.T) {
	fs := flag.NewFlagSet("scheduler", flag.ContinueOnError)
	t.Setenv("CHALLENGE_SPACE_SCHEDULER_PORT", "9099")
	t.Setenv("CHALLENGE_SPACE_LEDGER_ACCOUNT_PASSWORD", "secret")

	cfg, err := ParseConfig(fs, []string{"-concurrency", "8", "-poll-interval", "15s", "-network", "/etc/network.yaml"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 9099 {
		t.Fatalf("port = %d, want 9099", cfg.Port)
	}
	if cfg.Concurrency != 8 {
		t.Fatalf("concurrency = %d, want 8", cfg.Concurrency)
	}
	if cfg.PollInterval != 15*time.Second {
		t.Fatalf("poll interval = %v, want 15s", cfg.PollInterval)
	}

	ledger := cfg.Ledger()
	if ledger.NetworkFile != "/etc/network.yaml" {
		t.Fatalf("network file = %q, want %q", ledger.NetworkFile, "/etc/network.yaml")
	}
	if ledger.Password != "secret" {
		t.Fatalf("password = %q, want %q", ledger.Password, "secret")
	}
}

func TestParseConfig_Defaults(t *testing.T) {
	fs := flag.NewFlagSet("scheduler", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "data/scheduler.db" {
		t.Fatalf("db path = %q, want %q", cfg.DBPath, "data/scheduler.db")
	}
	if cfg.MetricsAddr != ":9095" {
		t.Fatalf("metrics addr = %q, want %q", cfg.MetricsAddr, ":9095")
	}
	if cfg.ContractsDir != "build/contracts" {
		t.Fatalf("contracts dir = %q, want %q", cfg.ContractsDir, "build/contracts")
	}
	if cfg.ReceiptTimeout != 30*time.Second {
		t.Fatalf("receipt timeout = %v, want 30s", cfg.ReceiptTimeout)
	}
}

func TestParseConfig_RejectsUnknownFlag(t *testing.T) {
	fs := flag.NewFlagSet("scheduler", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if _, err := ParseConfig(fs, []string{"-nope"}); err == nil {
		t.Fatal("expected unknown flag error")
	}
}
