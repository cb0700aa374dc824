package store

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// testDB opens a migrated database in a temp dir that is closed on cleanup.
func testDB(t *testing.T) *DB {
	t.Helper()
	db := New(filepath.Join(t.TempDir(), "synergy-test.db"), quietLogger())
	require.NoError(t, db.Open(context.Background()))
	t.Cleanup(func() { db.Close() })
	return db
}

// rawConn opens path without migrating, for seeding legacy layouts.
func rawConn(t *testing.T, path string) *sql.DB {
	t.Helper()
	conn, err := sql.Open(driverName, dsn(path))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func ptr[T any](v T) *T { return &v }
