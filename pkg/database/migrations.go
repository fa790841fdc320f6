package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// MigrationStatus reports the schema version of the response cache store.
type MigrationStatus struct {
	Version uint
	Dirty   bool
}

// RunMigrations applies pending migrations from migrationsPath.
// Calling it on an up-to-date database is a no-op.
func RunMigrations(db *sql.DB, migrationsPath string, logger *zap.Logger) error {
	return withMigrator(db, migrationsPath, logger, func(m *migrate.Migrate) error {
		err := m.Up()
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("No migrations to apply (database up-to-date)")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		newVersion, _, _ := m.Version()
		logger.Info("Applied migrations successfully", zap.Uint("version", newVersion))
		return nil
	})
}

// RollbackMigrations reverts the given number of migrations.
func RollbackMigrations(db *sql.DB, migrationsPath string, steps int, logger *zap.Logger) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", steps)
	}
	return withMigrator(db, migrationsPath, logger, func(m *migrate.Migrate) error {
		err := m.Steps(-steps)
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to roll back migrations: %w", err)
		}
		logger.Info("Rolled back migrations", zap.Int("steps", steps))
		return nil
	})
}

// GetMigrationStatus returns the applied version. Version is zero when no
// migration has run.
func GetMigrationStatus(db *sql.DB, migrationsPath string, logger *zap.Logger) (MigrationStatus, error) {
	var status MigrationStatus
	err := withMigrator(db, migrationsPath, logger, func(m *migrate.Migrate) error {
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read migration version: %w", err)
		}
		status = MigrationStatus{Version: v, Dirty: dirty}
		return nil
	})
	return status, err
}

func withMigrator(db *sql.DB, migrationsPath string, logger *zap.Logger, fn func(*migrate.Migrate) error) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			logger.Warn("Failed to close migration source", zap.Error(srcErr))
		}
		if dbErr != nil {
			logger.Warn("Failed to close migration database", zap.Error(dbErr))
		}
	}()

	return fn(m)
}
