// Package otel wires OpenTelemetry tracing for challenge.space commands.
package otel

import (
	"context"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/louisbranch/challenge.space/internal/platform/config"
)

const serviceNamespace = "challenge.space"

// Settings are the tracing knobs read from the environment. Values stay raw
// so a malformed ratio falls back to sampling everything instead of failing
// startup.
type Settings struct {
	Endpoint    string `env:"OTEL_ENDPOINT"`
	Enabled     string `env:"OTEL_ENABLED"`
	SampleRatio string `env:"OTEL_SAMPLE_RATIO"`
}

// LoadSettings reads CHALLENGE_SPACE_OTEL_* variables.
func LoadSettings() (Settings, error) {
	var s Settings
	if err := config.ParseEnv(&s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Active reports whether tracing should export spans.
func (s Settings) Active() bool {
	if strings.EqualFold(strings.TrimSpace(s.Enabled), "false") {
		return false
	}
	return strings.TrimSpace(s.Endpoint) != ""
}

// Setup initialises tracing for serviceName from the environment. Tracing
// is opt-in: without an endpoint, or with OTEL_ENABLED=false, it returns a
// no-op shutdown and leaves the global provider alone.
func Setup(ctx context.Context, serviceName string) (shutdown func(context.Context) error, err error) {
	settings, err := LoadSettings()
	if err != nil {
		return func(context.Context) error { return nil }, err
	}
	return SetupWith(ctx, serviceName, settings)
}

// SetupWith initialises tracing from explicit settings. The returned
// shutdown flushes pending spans.
func SetupWith(ctx context.Context, serviceName string, settings Settings) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }
	if !settings.Active() {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(strings.TrimSpace(settings.Endpoint)))
	if err != nil {
		return noop, err
	}
	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(serviceName),
		semconv.ServiceNamespace(serviceNamespace),
	))
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(settings.SampleRatio)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	return tp.Shutdown, nil
}

// sampler honours a ratio in (0,1); anything else samples every trace.
func sampler(raw string) sdktrace.Sampler {
	ratio, ok := parseRatio(raw)
	if !ok {
		return sdktrace.AlwaysSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

func parseRatio(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	ratio, err := strconv.ParseFloat(raw, 64)
	if err != nil || ratio <= 0 || ratio >= 1 {
		return 0, false
	}
	return ratio, true
}
