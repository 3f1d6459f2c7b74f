// Package scheduler parses scheduler command flags and launches the phase
// scheduler runtime.
package scheduler

import (
	"context"
	"flag"
	"time"

	"github.com/louisbranch/challenge.space/internal/ledger/ethrpc"
	entrypoint "github.com/louisbranch/challenge.space/internal/platform/cmd"
	schedulerapp "github.com/louisbranch/challenge.space/internal/services/scheduler/app"
)

// Config holds scheduler command configuration.
type Config struct {
	Port              int           `env:"SCHEDULER_PORT" envDefault:"8095"`
	MetricsAddr       string        `env:"SCHEDULER_METRICS_ADDR" envDefault:":9095"`
	DBPath            string        `env:"SCHEDULER_DB_PATH" envDefault:"data/scheduler.db"`
	PollInterval      time.Duration `env:"SCHEDULER_POLL_INTERVAL" envDefault:"1m"`
	Concurrency       int           `env:"SCHEDULER_CONCURRENCY" envDefault:"4"`
	EvaluationTimeout time.Duration `env:"SCHEDULER_EVALUATION_TIMEOUT" envDefault:"2m"`

	NetworkFile    string        `env:"LEDGER_NETWORK_FILE" envDefault:"config/network.yaml"`
	ContractsDir   string        `env:"LEDGER_CONTRACTS_DIR" envDefault:"build/contracts"`
	NetworkID      string        `env:"LEDGER_NETWORK_ID"`
	Password       string        `env:"LEDGER_ACCOUNT_PASSWORD"`
	RateLimit      float64       `env:"LEDGER_RATE_LIMIT" envDefault:"20"`
	ReceiptTimeout time.Duration `env:"LEDGER_RECEIPT_TIMEOUT" envDefault:"30s"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The scheduler health gRPC server port")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Prometheus metrics listen address (empty disables)")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The scheduler SQLite database path")
	fs.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "Delay between evaluation passes")
	fs.IntVar(&cfg.Concurrency, "concurrency", cfg.Concurrency, "Challenges evaluated at once")
	fs.DurationVar(&cfg.EvaluationTimeout, "evaluation-timeout", cfg.EvaluationTimeout, "Timeout for one challenge evaluation")
	fs.StringVar(&cfg.NetworkFile, "network", cfg.NetworkFile, "Ledger network topology YAML file")
	fs.StringVar(&cfg.ContractsDir, "contracts", cfg.ContractsDir, "Directory of contract build artifacts")
	fs.StringVar(&cfg.NetworkID, "network-id", cfg.NetworkID, "Deployment network id inside the artifacts")
	fs.Float64Var(&cfg.RateLimit, "rate-limit", cfg.RateLimit, "Ledger calls per second")
	fs.DurationVar(&cfg.ReceiptTimeout, "receipt-timeout", cfg.ReceiptTimeout, "Wait limit for a transaction receipt")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Ledger returns the ledger settings carried by cfg.
func (cfg Config) Ledger() ethrpc.Settings {
	return ethrpc.Settings{
		NetworkFile:    cfg.NetworkFile,
		ContractsDir:   cfg.ContractsDir,
		NetworkID:      cfg.NetworkID,
		Password:       cfg.Password,
		RateLimit:      cfg.RateLimit,
		ReceiptTimeout: cfg.ReceiptTimeout,
	}
}

// Run starts the scheduler runtime.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceScheduler, func(context.Context) error {
		return schedulerapp.Run(ctx, schedulerapp.RuntimeConfig{
			Port:              cfg.Port,
			MetricsAddr:       cfg.MetricsAddr,
			DBPath:            cfg.DBPath,
			Ledger:            cfg.Ledger(),
			PollInterval:      cfg.PollInterval,
			Concurrency:       cfg.Concurrency,
			EvaluationTimeout: cfg.EvaluationTimeout,
		})
	})
}
