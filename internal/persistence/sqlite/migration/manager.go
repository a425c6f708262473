package migration

import (
	"context"
	"fmt"
	"log/slog"
)

// Manager applies pending migrations in version order.
type Manager struct {
	executor *SQLiteExecutor
	logger   *slog.Logger
}

// NewManager wires an executor with a logger. A nil logger falls back to slog.Default.
func NewManager(executor *SQLiteExecutor, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{executor: executor, logger: logger.With("component", "migration")}
}

// Run applies every migration not yet recorded in schema_migrations. Applied
// migrations whose checksum changed abort the run.
func (m *Manager) Run(ctx context.Context, migrations []Migration) error {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return err
	}
	applied, err := m.executor.AppliedMigrations(ctx)
	if err != nil {
		return err
	}
	done := make(map[string]AppliedMigration, len(applied))
	for _, am := range applied {
		done[am.Version] = am
	}

	pending := 0
	for _, mig := range migrations {
		if am, ok := done[mig.Version]; ok {
			if am.Checksum != "" && am.Checksum != mig.Checksum {
				return NewMigrationError(mig.Version, mig.FilePath, "verify checksum",
					fmt.Errorf("%w: recorded %s, file %s", ErrChecksumMismatch, am.Checksum, mig.Checksum))
			}
			continue
		}
		pending++
		m.logger.InfoContext(ctx, "applying migration", "version", mig.Version, "description", mig.Description)
		if err := m.executor.ExecuteMigration(ctx, mig); err != nil {
			m.logger.ErrorContext(ctx, "migration failed", "version", mig.Version, "error", err)
			return err
		}
	}

	if pending == 0 {
		m.logger.DebugContext(ctx, "schema up to date", "applied", len(applied))
	} else {
		m.logger.InfoContext(ctx, "migrations applied", "count", pending)
	}
	return nil
}
