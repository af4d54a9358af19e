// Package cli implements the streck command line.
package cli

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/mmynk/streck/internal/config"
	"github.com/mmynk/streck/internal/storage/sqlite"
	"github.com/mmynk/streck/pkg/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
}

// NewRootCommand creates the root command for the streck CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "streck",
		Short: "streck - group ledger server",
		Long: `A ledger for groups that keep a shared stock of items.

Members buy items on credit, deposit money and record stock counts.
Balances and stock levels are derived from the transaction history.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", os.Getenv("STRECK_CONFIG"), "path to the YAML config file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error), overrides the config")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}

// load reads the configuration and installs the logger.
func (o *RootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, err
	}
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}
	logging.SetupWithLevel(level)
	return cfg, nil
}

func databaseOptions(cfg *config.Config, reg prometheus.Registerer) sqlite.Options {
	return sqlite.Options{
		Path:           cfg.Database.Path,
		MaxOpenConns:   cfg.Database.MaxOpenConns,
		BusyTimeout:    cfg.GetBusyTimeout(),
		ConnectTimeout: cfg.GetConnectTimeout(),
		Migrate:        cfg.Database.Migrate,
		Registerer:     reg,
	}
}
