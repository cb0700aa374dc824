// Package store provides the SQLite-backed persistence gateway: a versioned
// schema of JSON document stores with secondary indexes, migrations, and
// workspace-scoped CRUD.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/starford/synergy/internal/apperr"
)

// DB is the storage client. It is constructed once with New, opened with
// Open, and shared by reference with every caller.
type DB struct {
	path   string
	logger *slog.Logger

	mu   sync.Mutex
	conn *sql.DB
}

// New returns an unopened client for the database file at path.
func New(path string, logger *slog.Logger) *DB {
	if logger == nil {
		logger = slog.Default()
	}
	return &DB{path: path, logger: logger}
}

// Open connects to the database and migrates it to SchemaVersion. Calling
// Open on an open client is a no-op. Any failure is an *apperr.InitError and
// leaves the client closed.
func (db *DB) Open(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.conn != nil {
		return nil
	}

	if dir := filepath.Dir(db.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &apperr.InitError{Op: "create db directory", Err: err}
		}
	}

	conn, err := sql.Open(driverName, dsn(db.path))
	if err != nil {
		return &apperr.InitError{Op: "open", Err: err}
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return &apperr.InitError{Op: "ping", Err: err}
	}
	if err := migrate(ctx, conn, migrations, SchemaVersion, db.logger); err != nil {
		conn.Close()
		return &apperr.InitError{Op: "migrate", Err: err}
	}

	db.conn = conn
	db.logger.Info("store: opened",
		slog.String("path", db.path),
		slog.Int("schema_version", SchemaVersion))
	return nil
}

// Close releases the connection. Later calls fail with apperr.ErrNotOpen
// until Open is called again.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.conn == nil {
		return nil
	}
	err := db.conn.Close()
	db.conn = nil
	return err
}

// Version returns the schema version recorded in the database.
func (db *DB) Version(ctx context.Context) (int, error) {
	conn, err := db.handle("version", "")
	if err != nil {
		return 0, err
	}
	var v int
	if err := conn.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&v); err != nil {
		return 0, storageErr("version", "", err)
	}
	return v, nil
}

func (db *DB) handle(op, store string) (*sql.DB, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.conn == nil {
		return nil, &apperr.StorageError{Op: op, Store: store, Err: apperr.ErrNotOpen}
	}
	return db.conn, nil
}

func storageErr(op, store string, err error) error {
	if isUniqueViolation(err) {
		err = fmt.Errorf("%w: %v", apperr.ErrAlreadyExists, err)
	}
	return &apperr.StorageError{Op: op, Store: store, Err: err}
}

// put upserts v under id, replacing any existing record.
func (db *DB) put(ctx context.Context, store, id string, v any) error {
	conn, err := db.handle("put", store)
	if err != nil {
		return err
	}
	if id == "" {
		return &apperr.StorageError{Op: "put", Store: store, Err: fmt.Errorf("%w: empty id", apperr.ErrInvalidInput)}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return &apperr.StorageError{Op: "put", Store: store, Err: err}
	}
	q := fmt.Sprintf(`INSERT INTO %s (id, data) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data`, store)
	if _, err := conn.ExecContext(ctx, q, id, string(data)); err != nil {
		return storageErr("put", store, err)
	}
	return nil
}

// remove deletes the record with id. Deleting a missing record succeeds.
func (db *DB) remove(ctx context.Context, store, id string) error {
	conn, err := db.handle("delete", store)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, store)
	if _, err := conn.ExecContext(ctx, q, id); err != nil {
		return storageErr("delete", store, err)
	}
	return nil
}

// scan streams the raw documents matching where (may be empty) to fn.
func (db *DB) scan(ctx context.Context, store, where string, args []any, fn func([]byte) error) error {
	conn, err := db.handle("list", store)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`SELECT data FROM %s`, store)
	if where != "" {
		q += " WHERE " + where
	}
	rows, err := conn.QueryContext(ctx, q, args...)
	if err != nil {
		return storageErr("list", store, err)
	}
	defer rows.Close()

	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return storageErr("list", store, err)
		}
		if err := fn(data); err != nil {
			return &apperr.StorageError{Op: "decode", Store: store, Err: err}
		}
	}
	if err := rows.Err(); err != nil {
		return storageErr("list", store, err)
	}
	return nil
}

// list decodes every record matching where into a T.
func list[T any](ctx context.Context, db *DB, store, where string, args ...any) ([]T, error) {
	out := []T{}
	err := db.scan(ctx, store, where, args, func(data []byte) error {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// get returns the record with id, or nil when it does not exist.
func get[T any](ctx context.Context, db *DB, store, where string, args ...any) (*T, error) {
	conn, err := db.handle("get", store)
	if err != nil {
		return nil, err
	}
	var data []byte
	q := fmt.Sprintf(`SELECT data FROM %s WHERE %s LIMIT 1`, store, where)
	err = conn.QueryRowContext(ctx, q, args...).Scan(&data)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get", store, err)
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, &apperr.StorageError{Op: "decode", Store: store, Err: err}
	}
	return &v, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
