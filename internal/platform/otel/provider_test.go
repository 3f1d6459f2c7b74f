package otel

import (
	"context"
	"testing"
)

func TestSettingsActive(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		want     bool
	}{
		{name: "no endpoint", settings: Settings{}, want: false},
		{name: "endpoint", settings: Settings{Endpoint: "http://localhost:4318"}, want: true},
		{name: "blank endpoint", settings: Settings{Endpoint: "  "}, want: false},
		{name: "disabled", settings: Settings{Endpoint: "http://localhost:4318", Enabled: "FALSE"}, want: false},
		{name: "enabled", settings: Settings{Endpoint: "http://localhost:4318", Enabled: "true"}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.settings.Active(); got != tt.want {
				t.Fatalf("Active() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadSettingsReadsPrefixedEnv(t *testing.T) {
	t.Setenv("CHALLENGE_SPACE_OTEL_ENDPOINT", "http://collector:4318")
	t.Setenv("CHALLENGE_SPACE_OTEL_ENABLED", "false")
	t.Setenv("CHALLENGE_SPACE_OTEL_SAMPLE_RATIO", "0.1")

	s, err := LoadSettings()
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	if s.Endpoint != "http://collector:4318" || s.Enabled != "false" || s.SampleRatio != "0.1" {
		t.Fatalf("settings = %+v", s)
	}
	if s.Active() {
		t.Fatal("expected disabled settings to be inactive")
	}
}

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	t.Setenv("CHALLENGE_SPACE_OTEL_ENDPOINT", "")
	t.Setenv("CHALLENGE_SPACE_OTEL_ENABLED", "")

	shutdown, err := Setup(context.Background(), "scheduler")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetupWith_CreatesProvider(t *testing.T) {
	// Non-routable address so no actual export happens.
	shutdown, err := SetupWith(context.Background(), "scheduler", Settings{
		Endpoint:    "http://192.0.2.1:4318",
		SampleRatio: "0.25",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestParseRatio(t *testing.T) {
	tests := []struct {
		raw    string
		want   float64
		wantOK bool
	}{
		{raw: "", wantOK: false},
		{raw: "abc", wantOK: false},
		{raw: "0", wantOK: false},
		{raw: "1", wantOK: false},
		{raw: " 0.5 ", want: 0.5, wantOK: true},
	}
	for _, tt := range tests {
		got, ok := parseRatio(tt.raw)
		if ok != tt.wantOK || got != tt.want {
			t.Fatalf("parseRatio(%q) = (%v, %v), want (%v, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}
