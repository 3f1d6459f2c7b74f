package cmd

import (
	"context"
	"errors"
	"flag"
	"testing"
	"time"
)

type testConfig struct {
	Address string `env:"CMD_TEST_ADDRESS" envDefault:"127.0.0.1:8080"`
	Mode    string `env:"CMD_TEST_MODE" envDefault:"server"`
}

func TestParseConfigReadsEnvAndFlags(t *testing.T) {
	t.Setenv("CHALLENGE_SPACE_CMD_TEST_ADDRESS", "env:9000")
	t.Setenv("CHALLENGE_SPACE_CMD_TEST_MODE", "env-mode")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfgRef := testConfig{}
	if err := ParseConfig(&cfgRef); err != nil {
		t.Fatalf("load config defaults: %v", err)
	}
	fs.StringVar(&cfgRef.Address, "address", cfgRef.Address, "address")
	fs.StringVar(&cfgRef.Mode, "mode", cfgRef.Mode, "mode")

	if err := ParseArgs(fs, []string{"-address", "flag:9001"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if cfgRef.Address != "flag:9001" {
		t.Fatalf("expected flag value for address, got %q", cfgRef.Address)
	}
	if cfgRef.Mode != "env-mode" {
		t.Fatalf("expected env default mode, got %q", cfgRef.Mode)
	}
}

func TestParseConfigRejectsNilTarget(t *testing.T) {
	if err := ParseConfig[testConfig](nil); err == nil {
		t.Fatal("expected nil target error")
	}
}

func TestParseArgsRejectsNilParser(t *testing.T) {
	if err := ParseArgs(nil, []string{}); err == nil {
		t.Fatal("expected parse args to reject nil parser")
	}
}

func TestRunWithTelemetryRejectsMissingInputs(t *testing.T) {
	if err := RunWithTelemetry(context.Background(), "", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected missing service error")
	}
	if err := RunWithTelemetry(context.Background(), ServiceScheduler, nil); err == nil {
		t.Fatal("expected missing run function error")
	}
}

func TestRunWithTelemetryReturnsRunError(t *testing.T) {
	t.Setenv("CHALLENGE_SPACE_OTEL_ENDPOINT", "")
	want := errors.New("pass failed")
	err := RunWithTelemetry(context.Background(), ServiceScheduler, func(context.Context) error { return want })
	if !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
}

func TestRunWithTelemetryAppliesOptions(t *testing.T) {
	t.Setenv("CHALLENGE_SPACE_OTEL_ENDPOINT", "")
	var ran bool
	err := RunWithTelemetry(context.Background(), ServiceLedgerCtl, func(ctx context.Context) error {
		ran = ctx != nil
		return nil
	}, WithShutdownTimeout(time.Second), WithLogger(t.Logf))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !ran {
		t.Fatal("expected run to be called with a context")
	}
}
