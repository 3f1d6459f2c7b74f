package grpc

import (
	"context"
	"testing"
	"time"
)

func TestHealthServerReportsServing(t *testing.T) {
	srv, err := NewHealthServer("127.0.0.1:0")
	if err != nil {
		t.Fatalf("new health server: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	srv.SetServing("scheduler", true)

	conn := dialHealthServer(t, srv.Addr())
	defer conn.Close()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	if err := WaitForHealth(waitCtx, conn, "scheduler", nil); err != nil {
		t.Fatalf("wait for health: %v", err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not stop after cancel")
	}
}

func TestHealthServerStartsNotServing(t *testing.T) {
	srv, err := NewHealthServer("127.0.0.1:0")
	if err != nil {
		t.Fatalf("new health server: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.Serve(ctx) }()

	conn := dialHealthServer(t, srv.Addr())
	defer conn.Close()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer waitCancel()
	if err := WaitForHealth(waitCtx, conn, "", nil); err == nil {
		t.Fatal("expected health wait to time out")
	}
}

func TestHealthServerNilAddr(t *testing.T) {
	var srv *HealthServer
	if srv.Addr() != "" {
		t.Fatal("expected empty addr for nil server")
	}
	if err := srv.Serve(context.Background()); err == nil {
		t.Fatal("expected nil server error")
	}
}
