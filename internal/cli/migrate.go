package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vadimbarashkov/ttl-shortener/internal/config"
	"github.com/vadimbarashkov/ttl-shortener/pkg/postgres"
)

func newMigrateCmd(o *rootOptions) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back postgres schema migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(postgres.Up), string(postgres.Down)},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.load()
			if err != nil {
				return err
			}

			if cfg.Storage.Driver != config.DriverPostgres {
				return fmt.Errorf("migrations require the %q storage driver, got %q", config.DriverPostgres, cfg.Storage.Driver)
			}

			if path == "" {
				path = cfg.Postgres.MigrationsPath
			}

			dir := postgres.Up
			if len(args) == 1 {
				dir = postgres.Direction(args[0])
			}

			version, err := postgres.Migrate(path, cfg.Postgres.DSN(), dir)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "migrated %s, schema version %d\n", dir, version)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "migrations source URL (default from config)")

	return cmd
}
