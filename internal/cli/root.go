package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/gigmile/receivables-service/internal/config"
	"github.com/gigmile/receivables-service/internal/domain"
	"github.com/gigmile/receivables-service/internal/infrastructure/database"
	"github.com/gigmile/receivables-service/internal/infrastructure/messaging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "1.0.0"

// Opener connects a command to the ledger.
type Opener func(ctx context.Context, logger *zap.Logger) (*database.Resources, *config.Config, error)

// DefaultOpener connects using the environment configuration.
func DefaultOpener(ctx context.Context, logger *zap.Logger) (*database.Resources, *config.Config, error) {
	cfg := config.Load()
	res, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return res, cfg, nil
}

// session is one opened ledger connection for the lifetime of a command.
type session struct {
	res    *database.Resources
	cfg    *config.Config
	logger *zap.Logger
}

func (s *session) publisher() domain.EventPublisher {
	if s.res.Redis == nil {
		return nil
	}
	var opts []messaging.PublisherOption
	if s.cfg != nil {
		opts = append(opts, messaging.WithStreamMaxLen(s.cfg.Ledger.StreamMaxLen))
	}
	return messaging.NewRedisEventPublisher(s.res.Redis, s.logger, opts...)
}

type rootOptions struct {
	open    Opener
	logger  *zap.Logger
	verbose bool
}

func (o *rootOptions) session(ctx context.Context) (*session, error) {
	res, cfg, err := o.open(ctx, o.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	return &session{res: res, cfg: cfg, logger: o.logger}, nil
}

// NewRootCommand builds the ledgerctl command tree. A nil logger is
// replaced with a production logger on stderr.
func NewRootCommand(open Opener, logger *zap.Logger) *cobra.Command {
	opts := &rootOptions{open: open, logger: logger}

	rootCmd := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Operate the receivables ledger from the command line",
		Long: `ledgerctl runs ledger operations against the configured store.

Connection settings come from the same environment variables as the API
(LEDGER_STORE, MYSQL_*, REDIS_*).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.logger != nil {
				return nil
			}
			cfg := zap.NewProductionConfig()
			if opts.verbose {
				cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
			}
			l, err := cfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			opts.logger = l
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "Enable debug logging")

	rootCmd.AddCommand(
		newOnboardCommand(opts),
		newApplyPaymentCommand(opts),
		newFixLastPaymentCommand(opts),
		newReconcileCommand(opts),
		newStatementCommand(opts),
	)

	return rootCmd
}

// Execute runs ledgerctl against the environment configuration.
func Execute() {
	if err := NewRootCommand(DefaultOpener, nil).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
