package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/askdb/pkg/database"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the response cache schema",
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Long: `Roll back the last migration or several.

Examples:
  askdb migrate down            # Roll back the last migration
  askdb migrate down --steps=3  # Roll back the last 3 migrations
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return fmt.Errorf("steps must be at least 1")
			}
			return withCacheDB(cmd.Context(), func(db *database.DB, path string, logger *zap.Logger) error {
				if err := database.RollbackMigrations(db.SQLDB(), path, steps, logger); err != nil {
					return err
				}
				color.New(color.FgGreen, color.Bold).Fprintf(cmd.OutOrStdout(), "✅ Rolled back %d migration(s).\n", steps)
				return nil
			})
		},
	}
	down.Flags().IntVarP(&steps, "steps", "s", 1, "Number of migrations to roll back")

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCacheDB(cmd.Context(), func(db *database.DB, path string, logger *zap.Logger) error {
				if err := database.RunMigrations(db.SQLDB(), path, logger); err != nil {
					return err
				}
				color.New(color.FgGreen, color.Bold).Fprintln(cmd.OutOrStdout(), "✅ Migrations applied.")
				return nil
			})
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the applied migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCacheDB(cmd.Context(), func(db *database.DB, path string, logger *zap.Logger) error {
				st, err := database.GetMigrationStatus(db.SQLDB(), path, logger)
				if err != nil {
					return err
				}
				printMigrationStatus(cmd, st)
				return nil
			})
		},
	}

	cmd.AddCommand(up, down, status)
	return cmd
}

func printMigrationStatus(cmd *cobra.Command, st database.MigrationStatus) {
	out := cmd.OutOrStdout()
	switch {
	case st.Dirty:
		color.New(color.FgRed, color.Bold).Fprintf(out, "❌ Version %d is dirty; fix the schema and force the version.\n", st.Version)
	case st.Version == 0:
		color.New(color.FgYellow).Fprintln(out, "🕒 No migrations applied.")
	default:
		color.New(color.FgGreen, color.Bold).Fprintf(out, "✅ At version %d.\n", st.Version)
	}
}

// withCacheDB connects to the cache store without migrating it.
func withCacheDB(ctx context.Context, fn func(db *database.DB, migrationsPath string, logger *zap.Logger) error) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	db, err := connectCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(db, cfg.Database.MigrationsPath, logger)
}
