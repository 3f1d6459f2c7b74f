// Package cmd holds the startup plumbing shared by every challenge.space
// command: env+flag config loading and telemetry lifetime.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/louisbranch/challenge.space/internal/platform/config"
	"github.com/louisbranch/challenge.space/internal/platform/otel"
)

const defaultOTelShutdownTimeout = 5 * time.Second

// Service names reported as the OpenTelemetry service.name.
const (
	ServiceScheduler = "scheduler"
	ServiceLedgerCtl = "ledgerctl"
)

// RunOption adjusts RunWithTelemetry.
type RunOption func(*runOptions)

type runOptions struct {
	shutdownTimeout time.Duration
	logf            func(string, ...any)
}

// WithShutdownTimeout bounds the telemetry flush after run returns.
func WithShutdownTimeout(d time.Duration) RunOption {
	return func(o *runOptions) {
		if d > 0 {
			o.shutdownTimeout = d
		}
	}
}

// WithLogger sets where telemetry shutdown failures are reported.
func WithLogger(logf func(string, ...any)) RunOption {
	return func(o *runOptions) {
		if logf != nil {
			o.logf = logf
		}
	}
}

// ParseConfig loads environment defaults into cfg.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses command-line flags.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// RunWithTelemetry configures tracing for service, executes run, and
// flushes spans once run returns. run's error is returned unchanged.
func RunWithTelemetry(ctx context.Context, service string, run func(context.Context) error, opts ...RunOption) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return fmt.Errorf("service name is required")
	}
	if run == nil {
		return fmt.Errorf("run function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	options := runOptions{shutdownTimeout: defaultOTelShutdownTimeout, logf: log.Printf}
	for _, opt := range opts {
		opt(&options)
	}

	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return fmt.Errorf("%s telemetry: %w", service, err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), options.shutdownTimeout)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			options.logf("%s otel shutdown: %v", service, err)
		}
	}()
	return run(ctx)
}
