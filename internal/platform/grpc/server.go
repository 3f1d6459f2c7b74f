package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServer bundles a gRPC server exposing only the standard health
// service, used by background daemons that have no RPC surface of their own.
type HealthServer struct {
	listener net.Listener
	server   *gogrpc.Server
	health   *health.Server
}

// NewHealthServer listens on addr and registers the health service.
// The server starts NOT_SERVING; callers flip it with SetServing.
func NewHealthServer(addr string) (*HealthServer, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	server := gogrpc.NewServer(gogrpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	return &HealthServer{listener: listener, server: server, health: healthServer}, nil
}

// Addr returns the bound listener address.
func (s *HealthServer) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// SetServing reports service health for the empty and named services.
func (s *HealthServer) SetServing(service string, serving bool) {
	if s == nil {
		return
	}
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	if service != "" {
		s.health.SetServingStatus(service, status)
	}
}

// Serve blocks until ctx ends or the server fails.
func (s *HealthServer) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("health server is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.server.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.server.GracefulStop()
		err := <-serveErr
		if err != nil && !errors.Is(err, gogrpc.ErrServerStopped) {
			return fmt.Errorf("serve health: %w", err)
		}
		return nil
	case err := <-serveErr:
		if err != nil && !errors.Is(err, gogrpc.ErrServerStopped) {
			return fmt.Errorf("serve health: %w", err)
		}
		return nil
	}
}
