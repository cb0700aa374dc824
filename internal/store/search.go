package store

import (
	"context"
	"strings"

	"github.com/starford/synergy/internal/models"
)

// DefaultSearchLimit caps SearchItems when limit is not positive.
const DefaultSearchLimit = 20

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchItems returns the items of a workspace whose title, description or
// note content contains query, ignoring ASCII case. An empty query matches
// nothing.
func (db *DB) SearchItems(ctx context.Context, workspaceID, query string, limit int) ([]models.Item, error) {
	out := []models.Item{}
	query = strings.TrimSpace(query)
	if query == "" {
		return out, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	like := "%" + likeEscaper.Replace(query) + "%"
	where := `workspace_id = ? AND (
		json_extract(data, '$.title') LIKE ? ESCAPE '\' OR
		json_extract(data, '$.description') LIKE ? ESCAPE '\' OR
		json_extract(data, '$.content') LIKE ? ESCAPE '\')
		ORDER BY id LIMIT ?`
	err := db.scan(ctx, StoreItems, where, []any{workspaceID, like, like, like, limit}, func(data []byte) error {
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
