package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mmynk/streck/internal/config"
	"github.com/mmynk/streck/internal/storage"
	"github.com/mmynk/streck/internal/storage/sqlite"
)

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check that the database is reachable and complete",
		Long: `Connect to the configured database, run migrations when enabled and
verify that every required table and view exists. Exits non-zero when
the database cannot be used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.load()
			if err != nil {
				return err
			}
			return runCheck(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
}

func runCheck(ctx context.Context, cfg *config.Config, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	manager := sqlite.Open(databaseOptions(cfg, nil))
	defer manager.Shutdown()

	_, err := manager.AwaitReady(ctx)

	var missing *storage.MissingTablesError
	switch {
	case err == nil:
		fmt.Fprintf(out, "%s: %s\n", cfg.Database.Path, manager.State())
		return nil
	case errors.As(err, &missing):
		fmt.Fprintf(out, "%s: %s\n", cfg.Database.Path, manager.State())
		for _, name := range missing.Missing {
			fmt.Fprintf(out, "  missing: %s\n", name)
		}
		return fmt.Errorf("database is missing %d tables", len(missing.Missing))
	default:
		fmt.Fprintf(out, "%s: %s\n", cfg.Database.Path, manager.State())
		return err
	}
}
