// Package sqlite implements persistence.Store on an SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/example/duty-bot/internal/persistence"
	"github.com/example/duty-bot/internal/persistence/sqlite/migration"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Config holds SQLite connection settings.
type Config struct {
	// Path is the database file. ":memory:" is accepted for throwaway stores.
	Path string
	// BusyTimeout sets how long to wait for database locks.
	BusyTimeout time.Duration
}

// DSN renders the connection string. Transactions start with BEGIN IMMEDIATE
// so a read-modify-write unit holds the write lock from its first statement.
func (c Config) DSN() string {
	timeout := c.BusyTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	query := url.Values{}
	query.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", timeout.Milliseconds()))
	query.Add("_pragma", "foreign_keys(1)")
	query.Set("_txlock", "immediate")
	return "file:" + c.Path + "?" + query.Encode()
}

// ConnectionPool owns the database handle and runs transactions on it.
type ConnectionPool struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates the database file if needed, applies pending migrations and
// returns a ready store.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*ConnectionPool, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite: empty database path")
	}
	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", cfg.Path, err)
	}
	// One connection serialises in-process writers as well.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping %s: %w", cfg.Path, err)
	}

	pool := &ConnectionPool{db: db, logger: logger.With("component", "sqlite", "path", cfg.Path)}
	if err := pool.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return pool, nil
}

// Migrate applies the embedded schema migrations.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	migrations, err := migration.Scan(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("sqlite: scan migrations: %w", err)
	}
	manager := migration.NewManager(migration.NewSQLiteExecutor(cp.db), cp.logger)
	if err := manager.Run(ctx, migrations); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

// DB returns the underlying database connection.
func (cp *ConnectionPool) DB() *sql.DB {
	return cp.db
}

// Close closes the connection pool.
func (cp *ConnectionPool) Close() error {
	if cp.db != nil {
		return cp.db.Close()
	}
	return nil
}

// Ping tests the database connection.
func (cp *ConnectionPool) Ping(ctx context.Context) error {
	return cp.db.PingContext(ctx)
}

// TransactionFunc represents a function that executes within a transaction.
type TransactionFunc func(tx *sql.Tx) error

// WithTransaction executes fn within a database transaction. The transaction
// is rolled back when fn returns an error or panics and committed otherwise.
func (cp *ConnectionPool) WithTransaction(ctx context.Context, fn TransactionFunc) (err error) {
	tx, err := cp.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", mapError(err))
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				cp.logger.ErrorContext(ctx, "rollback after panic failed", "error", rbErr)
			}
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed (rollback error: %v): %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", mapError(err))
	}
	return nil
}

// WithTx implements persistence.Store.
func (cp *ConnectionPool) WithTx(ctx context.Context, fn func(ctx context.Context, tx persistence.Tx) error) error {
	return cp.WithTransaction(ctx, func(tx *sql.Tx) error {
		return fn(ctx, &repositories{tx: tx})
	})
}

var _ persistence.Store = (*ConnectionPool)(nil)
