package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/starford/synergy/internal/models"
)

// Store names.
const (
	StoreItems        = "items"
	StoreStatuses     = "statuses"
	StoreChatSessions = "chat_sessions"
	StoreSavedImages  = "saved_images"
	StoreWorkflows    = "workflows"
	StoreWorkspaces   = "workspaces"
	StoreFolders      = "folders"
	StoreUsers        = "users"
	StoreInvitations  = "invitations"
)

// SchemaVersion is the version Open migrates the database to.
const SchemaVersion = 4

// WorkspaceScoped lists the stores whose records carry a workspace_id.
var WorkspaceScoped = []string{StoreItems, StoreChatSessions, StoreSavedImages, StoreWorkflows, StoreFolders}

// indexDef declares a secondary index over a key path of the stored document.
// It is materialised as a VIRTUAL generated column plus a SQL index.
type indexDef struct {
	column  string
	keyPath string
	unique  bool
}

var byWorkspace = indexDef{column: "workspace_id", keyPath: "$.workspace_id"}

// step is one idempotent schema or data change.
type step interface {
	apply(ctx context.Context, tx *sql.Tx) error
}

type migration struct {
	version int
	name    string
	steps   []step
}

var migrations = []migration{
	{version: 1, name: "core stores", steps: []step{
		createStore{name: StoreItems, indexes: []indexDef{byWorkspace}},
		createStore{name: StoreStatuses},
		createStore{name: StoreChatSessions, indexes: []indexDef{byWorkspace}},
		createStore{name: StoreSavedImages, indexes: []indexDef{byWorkspace}},
		createStore{name: StoreWorkflows, indexes: []indexDef{byWorkspace}},
		createStore{name: StoreWorkspaces},
		createStore{name: StoreFolders, indexes: []indexDef{byWorkspace}},
		createStore{name: StoreUsers, indexes: []indexDef{{column: "username", keyPath: "$.username", unique: true}}},
	}},
	{version: 2, name: "invitations", steps: []step{
		createStore{name: StoreInvitations, indexes: []indexDef{
			{column: "to_id", keyPath: "$.to_id"},
			{column: "from_id", keyPath: "$.from_id"},
		}},
	}},
	{version: 3, name: "ownership backfill", steps: []step{
		backfill{store: StoreUsers, fn: backfillFriends},
		backfill{store: StoreItems, fn: backfillItemOwnership},
	}},
	{version: 4, name: "hash legacy passwords", steps: []step{
		backfill{store: StoreUsers, fn: hashLegacyPassword},
	}},
}

// createStore creates a document table and its indexes if they are absent.
type createStore struct {
	name    string
	indexes []indexDef
}

func (s createStore) apply(ctx context.Context, tx *sql.Tx) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id   TEXT PRIMARY KEY,
		data TEXT NOT NULL CHECK (json_valid(data))
	)`, s.name)
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create store %s: %w", s.name, err)
	}
	for _, idx := range s.indexes {
		if err := (createIndex{store: s.name, index: idx}).apply(ctx, tx); err != nil {
			return err
		}
	}
	return nil
}

// createIndex adds the generated column and index for idx if they are absent.
type createIndex struct {
	store string
	index indexDef
}

func (s createIndex) apply(ctx context.Context, tx *sql.Tx) error {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT count(*) FROM pragma_table_xinfo(?) WHERE name = ?`, s.store, s.index.column,
	).Scan(&n)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", s.store, err)
	}
	if n == 0 {
		alter := fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s TEXT GENERATED ALWAYS AS (json_extract(data, '%s')) VIRTUAL`,
			s.store, s.index.column, s.index.keyPath)
		if _, err := tx.ExecContext(ctx, alter); err != nil {
			return fmt.Errorf("add column %s.%s: %w", s.store, s.index.column, err)
		}
	}
	unique := ""
	if s.index.unique {
		unique = "UNIQUE "
	}
	ddl := fmt.Sprintf(`CREATE %sINDEX IF NOT EXISTS idx_%s_%s ON %s(%s)`,
		unique, s.store, s.index.column, s.store, s.index.column)
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create index %s.%s: %w", s.store, s.index.column, err)
	}
	return nil
}

// backfill walks every record of a store and rewrites the ones fn changes.
type backfill struct {
	store string
	fn    func(doc map[string]any) (bool, error)
}

func (s backfill) apply(ctx context.Context, tx *sql.Tx) error {
	c := newCursor(tx, s.store)
	for c.Next(ctx) {
		doc, err := c.Value()
		if err != nil {
			return err
		}
		changed, err := s.fn(doc)
		if err != nil {
			return fmt.Errorf("backfill %s/%s: %w", s.store, c.ID(), err)
		}
		if !changed {
			continue
		}
		if err := c.Update(ctx, doc); err != nil {
			return err
		}
	}
	return c.Err()
}

// missing reports whether key is absent or null in doc.
func missing(doc map[string]any, key string) bool {
	v, ok := doc[key]
	return !ok || v == nil
}

func setDefault(doc map[string]any, key string, v any) bool {
	if !missing(doc, key) {
		return false
	}
	doc[key] = v
	return true
}

func backfillFriends(doc map[string]any) (bool, error) {
	return setDefault(doc, "friends", []any{}), nil
}

func backfillItemOwnership(doc map[string]any) (bool, error) {
	typ, _ := doc["type"].(string)
	changed := false
	switch {
	case models.ItemType(typ).IsTask():
		changed = setDefault(doc, "created_by", models.SystemUserID)
		changed = setDefault(doc, "assigned_to", []any{}) || changed
	case models.ItemType(typ) == models.ItemNote:
		changed = setDefault(doc, "owner_id", models.SystemUserID)
		changed = setDefault(doc, "shared_with", []any{}) || changed
	}
	return changed, nil
}

func hashLegacyPassword(doc map[string]any) (bool, error) {
	plain, ok := doc["password"].(string)
	if !ok {
		return false, nil
	}
	if h, _ := doc["password_hash"].(string); h == "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
		if err != nil {
			return false, err
		}
		doc["password_hash"] = string(hash)
	}
	delete(doc, "password")
	return true, nil
}

// migrate brings the schema from its stored version up to target. Every
// crossed version is applied in order inside a single transaction together
// with the user_version bump, so a failing step leaves the database as it was.
func migrate(ctx context.Context, conn *sql.DB, steps []migration, target int, logger *slog.Logger) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var current int
	if err := tx.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&current); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if current > target {
		return fmt.Errorf("schema version %d is newer than supported version %d", current, target)
	}
	if current == target {
		return nil
	}

	for _, m := range steps {
		if m.version <= current || m.version > target {
			continue
		}
		for _, s := range m.steps {
			if err := s.apply(ctx, tx); err != nil {
				return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
			}
		}
		logger.Info("store: migration applied",
			slog.Int("version", m.version),
			slog.String("name", m.name))
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d`, target)); err != nil {
		return fmt.Errorf("write user_version: %w", err)
	}
	return tx.Commit()
}
