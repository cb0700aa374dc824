package store

import (
	"context"
	"fmt"

	"github.com/starford/synergy/internal/apperr"
	"github.com/starford/synergy/internal/models"
)

// ListItems returns every task, event and note of a workspace.
func (db *DB) ListItems(ctx context.Context, workspaceID string) ([]models.Item, error) {
	out := []models.Item{}
	err := db.scan(ctx, StoreItems, "workspace_id = ?", []any{workspaceID}, func(data []byte) error {
		it, err := models.DecodeItem(data)
		if err != nil {
			return err
		}
		out = append(out, it)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetItem returns the item with id, or nil if there is none.
func (db *DB) GetItem(ctx context.Context, id string) (models.Item, error) {
	conn, err := db.handle("get", StoreItems)
	if err != nil {
		return nil, err
	}
	var data []byte
	err = conn.QueryRowContext(ctx, `SELECT data FROM items WHERE id = ?`, id).Scan(&data)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, storageErr("get", StoreItems, err)
	}
	it, err := models.DecodeItem(data)
	if err != nil {
		return nil, &apperr.StorageError{Op: "decode", Store: StoreItems, Err: err}
	}
	return it, nil
}

// SaveItem upserts a task or note, replacing any previous version.
func (db *DB) SaveItem(ctx context.Context, item models.Item) error {
	if item == nil {
		return &apperr.StorageError{Op: "put", Store: StoreItems, Err: fmt.Errorf("%w: nil item", apperr.ErrInvalidInput)}
	}
	b := item.Base()
	switch {
	case b.Type.IsTask():
		if _, ok := item.(*models.Task); !ok {
			return &apperr.StorageError{Op: "put", Store: StoreItems, Err: fmt.Errorf("%w: type %q on %T", apperr.ErrInvalidInput, b.Type, item)}
		}
	case b.Type == models.ItemNote:
		if _, ok := item.(*models.Note); !ok {
			return &apperr.StorageError{Op: "put", Store: StoreItems, Err: fmt.Errorf("%w: type %q on %T", apperr.ErrInvalidInput, b.Type, item)}
		}
	default:
		return &apperr.StorageError{Op: "put", Store: StoreItems, Err: fmt.Errorf("%w: unknown item type %q", apperr.ErrInvalidInput, b.Type)}
	}
	return db.put(ctx, StoreItems, b.ID, item)
}

// DeleteItem removes an item.
func (db *DB) DeleteItem(ctx context.Context, id string) error {
	return db.remove(ctx, StoreItems, id)
}
