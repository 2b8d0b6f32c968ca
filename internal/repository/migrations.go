package repository

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const migrationsSource = "file://internal/repository/migrations"

// RunMigrations applies all pending schema migrations. A dirty version left
// behind by a crashed run is forced back to the previous version and the
// migration is retried once.
func RunMigrations(databaseURL string) error {
	m, err := migrate.New(migrationsSource, databaseURL)
	if err != nil {
		return fmt.Errorf("create migration instance: %w", err)
	}
	defer m.Close()

	err = m.Up()
	if err == nil || errors.Is(err, migrate.ErrNoChange) {
		return nil
	}

	var dirtyErr migrate.ErrDirty
	if errors.As(err, &dirtyErr) {
		return retryAfterDirty(m, dirtyErr.Version)
	}

	return fmt.Errorf("run migrations: %w", err)
}

func retryAfterDirty(m *migrate.Migrate, dirtyVersion int) error {
	forceVersion := dirtyVersion - 1
	if forceVersion < 0 {
		forceVersion = 0
	}

	if err := m.Force(forceVersion); err != nil {
		return fmt.Errorf("force clean migration version %d: %w", forceVersion, err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("rerun migrations after dirty version %d: %w", dirtyVersion, err)
	}

	return nil
}
