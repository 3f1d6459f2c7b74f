// Package grpc holds the gRPC plumbing shared by challenge.space daemons:
// a health-only server and a client probe for it.
package grpc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// ProbeStage describes where a health probe failed.
type ProbeStage string

const (
	// ProbeStageConnect indicates the client could not be created.
	ProbeStageConnect ProbeStage = "connect"
	// ProbeStageHealth indicates the health check never reported SERVING.
	ProbeStageHealth ProbeStage = "health"
)

// ProbeError wraps probe failures with a stage indicator.
type ProbeError struct {
	Stage ProbeStage
	Err   error
}

// Error implements the error interface.
func (e *ProbeError) Error() string {
	if e == nil {
		return "gRPC probe error"
	}
	return fmt.Sprintf("gRPC %s error: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProbeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// DefaultClientOptions returns standard options for probe clients, with OTel
// propagation on every outbound call.
func DefaultClientOptions() []gogrpc.DialOption {
	return []gogrpc.DialOption{
		gogrpc.WithTransportCredentials(insecure.NewCredentials()),
		gogrpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}
}

// Probe connects to addr and waits up to timeout for service to report
// SERVING. The connection is always closed before returning.
func Probe(ctx context.Context, addr, service string, timeout time.Duration, logf func(string, ...any)) error {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return &ProbeError{Stage: ProbeStageConnect, Err: fmt.Errorf("address is required")}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	conn, err := gogrpc.NewClient(addr, DefaultClientOptions()...)
	if err != nil {
		return &ProbeError{Stage: ProbeStageConnect, Err: err}
	}
	defer conn.Close()

	if err := WaitForHealth(ctx, conn, service, logf); err != nil {
		return &ProbeError{Stage: ProbeStageHealth, Err: err}
	}
	return nil
}
