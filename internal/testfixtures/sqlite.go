package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/example/duty-bot/internal/persistence"
	"github.com/example/duty-bot/internal/persistence/sqlite"
)

// SQLiteHarness provides a migrated store backed by a temporary SQLite file
// for integration-style persistence tests.
type SQLiteHarness struct {
	Store *sqlite.ConnectionPool
	Path  string

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary file that is
// migrated automatically. Callers may optionally invoke Close, but the helper
// will also register a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "dutybot.sqlite")
	store, err := sqlite.Open(context.Background(), sqlite.Config{Path: path}, DiscardLogger())
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	harness := &SQLiteHarness{
		Store: store,
		Path:  path,
		cleanup: func() {
			_ = store.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

// InTx runs fn in a transaction and fails the test on error.
func (h *SQLiteHarness) InTx(tb testing.TB, fn func(ctx context.Context, tx persistence.Tx) error) {
	tb.Helper()
	if err := h.Store.WithTx(context.Background(), fn); err != nil {
		tb.Fatalf("transaction failed: %v", err)
	}
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
