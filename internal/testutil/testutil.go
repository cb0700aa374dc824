// Package testutil provides shared test helpers for databases and vaults.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/starford/synergy/internal/storage"
	"github.com/starford/synergy/internal/store"
)

// Logger discards everything below error.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// TestStore opens a migrated SQLite database in a temp dir; it is closed on cleanup.
func TestStore(t *testing.T) *store.DB {
	t.Helper()
	db := store.New(filepath.Join(t.TempDir(), "synergy-test.db"), Logger())
	if err := db.Open(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a storage.Provider.
func TestVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	fs, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, fs
}
