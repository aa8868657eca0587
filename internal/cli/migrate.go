package cli

import (
	"fmt"

	"resumetrack/internal/store"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Connect to the configured PostgreSQL database and bring the schema
up to date. This creates or updates the analyses, analysis_versions,
analysis_suggestions, and user_quotas tables along with their indexes.

The database DSN comes from the database.dsn config key, the
RESUMETRACK_DATABASE_DSN or DATABASE_URL environment variables, or Vault.`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	if cfg.Database.DSN == "" {
		return fmt.Errorf("no database DSN configured")
	}

	db, err := store.Connect(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	logger.Info("Running database migrations")
	if err := store.AutoMigrateAndIndexes(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Info("Database migrations completed successfully")
	return nil
}
