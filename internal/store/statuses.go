package store

import "context"

// statusesKey is the id of the single global status record.
const statusesKey = "kanban_statuses"

type statusRecord struct {
	ID    string   `json:"id"`
	Value []string `json:"value"`
}

// GetStatuses returns the global kanban status list. It returns nil when no
// list was ever saved and a non-nil slice (possibly empty) otherwise.
func (db *DB) GetStatuses(ctx context.Context) ([]string, error) {
	rec, err := get[statusRecord](ctx, db, StoreStatuses, "id = ?", statusesKey)
	if err != nil || rec == nil {
		return nil, err
	}
	if rec.Value == nil {
		return []string{}, nil
	}
	return rec.Value, nil
}

// SaveStatuses replaces the global kanban status list.
func (db *DB) SaveStatuses(ctx context.Context, statuses []string) error {
	if statuses == nil {
		statuses = []string{}
	}
	return db.put(ctx, StoreStatuses, statusesKey, statusRecord{ID: statusesKey, Value: statuses})
}
