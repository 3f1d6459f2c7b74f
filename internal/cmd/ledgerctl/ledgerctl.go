// Package ledgerctl is the operator command line over the challenge
// service: users, projects, challenges, submissions, reviews and phases,
// plus the scheduler's attempt history and health probe.
package ledgerctl

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/louisbranch/challenge.space/internal/ledger/ethrpc"
	entrypoint "github.com/louisbranch/challenge.space/internal/platform/cmd"
	platformgrpc "github.com/louisbranch/challenge.space/internal/platform/grpc"
	"github.com/louisbranch/challenge.space/internal/services/challenge/auth"
	"github.com/louisbranch/challenge.space/internal/services/challenge/storage/fsblob"
	schedulersqlite "github.com/louisbranch/challenge.space/internal/services/scheduler/storage/sqlite"
)

// Config holds ledgerctl configuration. Args is the command and its flags.
type Config struct {
	Token   string        `env:"TOKEN"`
	BlobDir string        `env:"BLOB_DIR" envDefault:"data/blobs"`
	DBPath  string        `env:"SCHEDULER_DB_PATH" envDefault:"data/scheduler.db"`
	Timeout time.Duration `env:"LEDGERCTL_TIMEOUT" envDefault:"2m"`

	NetworkFile    string        `env:"LEDGER_NETWORK_FILE" envDefault:"config/network.yaml"`
	ContractsDir   string        `env:"LEDGER_CONTRACTS_DIR" envDefault:"build/contracts"`
	NetworkID      string        `env:"LEDGER_NETWORK_ID"`
	Password       string        `env:"LEDGER_ACCOUNT_PASSWORD"`
	RateLimit      float64       `env:"LEDGER_RATE_LIMIT" envDefault:"20"`
	ReceiptTimeout time.Duration `env:"LEDGER_RECEIPT_TIMEOUT" envDefault:"30s"`

	Args []string
}

// ParseConfig parses environment and global flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Token, "token", cfg.Token, "Bearer token of the caller (empty runs anonymously)")
	fs.StringVar(&cfg.BlobDir, "blob-dir", cfg.BlobDir, "Submission blob directory")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "Scheduler SQLite database path")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Overall command timeout")
	fs.StringVar(&cfg.NetworkFile, "network", cfg.NetworkFile, "Ledger network topology YAML file")
	fs.StringVar(&cfg.ContractsDir, "contracts", cfg.ContractsDir, "Directory of contract build artifacts")
	fs.StringVar(&cfg.NetworkID, "network-id", cfg.NetworkID, "Deployment network id inside the artifacts")
	fs.Float64Var(&cfg.RateLimit, "rate-limit", cfg.RateLimit, "Ledger calls per second")
	fs.DurationVar(&cfg.ReceiptTimeout, "receipt-timeout", cfg.ReceiptTimeout, "Wait limit for a transaction receipt")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.Args = fs.Args()
	if len(cfg.Args) == 0 {
		return Config{}, fmt.Errorf("a command is required")
	}
	return cfg, nil
}

// Run opens what the command needs and executes it.
func Run(ctx context.Context, cfg Config, stdin io.Reader, out io.Writer) error {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	deps := Deps{
		OpenHistory: func(ctx context.Context) (HistoryStore, error) {
			store, err := schedulersqlite.Open(ctx, cfg.DBPath)
			if err != nil {
				return nil, err
			}
			return store, nil
		},
		Probe: func(ctx context.Context, addr, service string, timeout time.Duration) error {
			return platformgrpc.Probe(ctx, addr, service, timeout, log.Printf)
		},
		Logf: log.Printf,
	}
	if NeedsLedger(cfg.Args) {
		provider, err := ethrpc.Open(ethrpc.Settings{
			NetworkFile:    cfg.NetworkFile,
			ContractsDir:   cfg.ContractsDir,
			NetworkID:      cfg.NetworkID,
			Password:       cfg.Password,
			RateLimit:      cfg.RateLimit,
			ReceiptTimeout: cfg.ReceiptTimeout,
		})
		if err != nil {
			return fmt.Errorf("open ledger: %w", err)
		}
		defer provider.Close()
		deps.Ledger = provider

		blobs, err := fsblob.Open(cfg.BlobDir)
		if err != nil {
			return err
		}
		deps.Blobs = blobs

		// Without a secret the session runs anonymously and login is off.
		if tokenCfg, err := auth.LoadConfigFromEnv(time.Now); err == nil {
			issuer, err := auth.NewIssuer(tokenCfg)
			if err != nil {
				return err
			}
			deps.Issuer = issuer
		}
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceLedgerCtl, func(ctx context.Context) error {
		return Execute(ctx, deps, cfg.Token, cfg.Args, stdin, out)
	})
}
