package store

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/starford/synergy/internal/models"
)

// ListWorkspaces returns every workspace, oldest first.
func (db *DB) ListWorkspaces(ctx context.Context) ([]models.Workspace, error) {
	out, err := list[models.Workspace](ctx, db, StoreWorkspaces, "")
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(out, func(a, b models.Workspace) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

// GetWorkspace returns the workspace with id, or nil.
func (db *DB) GetWorkspace(ctx context.Context, id string) (*models.Workspace, error) {
	return get[models.Workspace](ctx, db, StoreWorkspaces, "id = ?", id)
}

// SaveWorkspace upserts a workspace.
func (db *DB) SaveWorkspace(ctx context.Context, ws *models.Workspace) error {
	return db.put(ctx, StoreWorkspaces, ws.ID, ws)
}

// DeleteWorkspace removes a workspace together with every item, chat
// session, saved image, workflow and folder scoped to it, in one transaction.
// It does not check whether ws is the last workspace; callers must.
func (db *DB) DeleteWorkspace(ctx context.Context, id string) error {
	conn, err := db.handle("delete", StoreWorkspaces)
	if err != nil {
		return err
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin cascade", StoreWorkspaces, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM workspaces WHERE id = ?`, id); err != nil {
		return storageErr("delete", StoreWorkspaces, err)
	}

	attrs := []any{slog.String("workspace_id", id)}
	for _, s := range WorkspaceScoped {
		res, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE workspace_id = ?`, s), id)
		if err != nil {
			return storageErr("cascade delete", s, err)
		}
		n, _ := res.RowsAffected()
		attrs = append(attrs, slog.Int64(s, n))
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit cascade", StoreWorkspaces, err)
	}
	db.logger.Info("store: workspace deleted", attrs...)
	return nil
}
