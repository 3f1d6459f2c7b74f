package grpc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestProbeSuccess(t *testing.T) {
	srv := serveHealth(t, true)

	if err := Probe(context.Background(), srv.Addr(), testService, 2*time.Second, nil); err != nil {
		t.Fatalf("probe: %v", err)
	}
}

func TestProbeTimeoutBoundsHealthWait(t *testing.T) {
	srv := serveHealth(t, false)

	start := time.Now()
	err := Probe(context.Background(), srv.Addr(), testService, 150*time.Millisecond, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	var probeErr *ProbeError
	if !errors.As(err, &probeErr) {
		t.Fatalf("expected ProbeError, got %T", err)
	}
	if probeErr.Stage != ProbeStageHealth {
		t.Fatalf("stage = %q, want %q", probeErr.Stage, ProbeStageHealth)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("expected timeout to bound probe, took %v", elapsed)
	}
}

func TestProbeRequiresAddress(t *testing.T) {
	err := Probe(context.Background(), "  ", "", time.Second, nil)
	var probeErr *ProbeError
	if !errors.As(err, &probeErr) {
		t.Fatalf("expected ProbeError, got %T", err)
	}
	if probeErr.Stage != ProbeStageConnect {
		t.Fatalf("stage = %q, want %q", probeErr.Stage, ProbeStageConnect)
	}
}

func TestProbeErrorFormatting(t *testing.T) {
	wrapped := &ProbeError{Stage: ProbeStageConnect, Err: fmt.Errorf("boom")}
	if !strings.Contains(wrapped.Error(), "gRPC connect") {
		t.Fatalf("unexpected error: %s", wrapped.Error())
	}
	if wrapped.Unwrap() == nil {
		t.Fatal("expected wrapped error")
	}

	var nilErr *ProbeError
	if nilErr.Error() == "" {
		t.Fatal("expected fallback error message")
	}
	if nilErr.Unwrap() != nil {
		t.Fatal("expected nil unwrap for nil error")
	}
}
