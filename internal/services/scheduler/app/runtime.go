package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/louisbranch/challenge.space/internal/ledger/ethrpc"
	platformgrpc "github.com/louisbranch/challenge.space/internal/platform/grpc"
	"github.com/louisbranch/challenge.space/internal/platform/timeouts"
	challengeapp "github.com/louisbranch/challenge.space/internal/services/challenge/app"
	schedulersqlite "github.com/louisbranch/challenge.space/internal/services/scheduler/storage/sqlite"
)

// RuntimeConfig controls scheduler startup, dependencies, and loop behavior.
type RuntimeConfig struct {
	Port              int
	MetricsAddr       string
	DBPath            string
	Ledger            ethrpc.Settings
	PollInterval      time.Duration
	Concurrency       int
	EvaluationTimeout time.Duration
}

const (
	defaultSchedulerPort = 8095
	defaultSchedulerDB   = "data/scheduler.db"
	healthService        = "scheduler.runtime"
)

// Run starts the scheduler dependencies and the evaluation loop. It returns
// when ctx ends or a server fails.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Port <= 0 {
		cfg.Port = defaultSchedulerPort
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = defaultSchedulerDB
	}
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create scheduler storage dir: %w", err)
		}
	}

	store, err := schedulersqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open scheduler sqlite store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Printf("close scheduler sqlite store: %v", closeErr)
		}
	}()

	provider, err := ethrpc.Open(cfg.Ledger)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer provider.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := NewMetrics(registry)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	service := challengeapp.NewService(provider, challengeapp.WithLogger(log.Printf))
	scheduler := New(service, store, metrics, Config{
		PollInterval:      cfg.PollInterval,
		Concurrency:       cfg.Concurrency,
		EvaluationTimeout: cfg.EvaluationTimeout,
	}, log.Printf)

	healthServer, err := platformgrpc.NewHealthServer(fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return fmt.Errorf("listen on scheduler port %d: %w", cfg.Port, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return healthServer.Serve(gctx)
	})
	if addr := strings.TrimSpace(cfg.MetricsAddr); addr != "" {
		g.Go(func() error {
			return serveMetrics(gctx, addr, registry)
		})
	}
	g.Go(func() error {
		healthServer.SetServing(healthService, true)
		defer healthServer.SetServing(healthService, false)
		return scheduler.Run(gctx)
	})

	log.Printf("scheduler health server listening at %v", healthServer.Addr())
	return g.Wait()
}

func serveMetrics(ctx context.Context, addr string, g prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("scheduler metrics listening at %s", addr)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown metrics server: %w", err)
		}
		<-serveErr
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve metrics: %w", err)
	}
}
