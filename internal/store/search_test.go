package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/synergy/internal/models"
)

func ids(items []models.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Base().ID)
	}
	return out
}

func TestSearchItems(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)

	milk := task("t1", "W1")
	milk.Title = "Buy MILK"
	report := task("t2", "W1")
	report.Description = "quarterly numbers, 100% done"
	n := note("n1", "W1", nil)
	n.Content = "remember the milk and eggs"
	other := task("t3", "W2")
	other.Title = "milk elsewhere"
	for _, it := range []models.Item{milk, report, n, other} {
		require.NoError(t, db.SaveItem(ctx, it))
	}

	got, err := db.SearchItems(ctx, "W1", "milk", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"n1", "t1"}, ids(got))

	got, err = db.SearchItems(ctx, "W1", "100%", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"t2"}, ids(got))

	got, err = db.SearchItems(ctx, "W1", "%", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"t2"}, ids(got), "wildcards are literal")

	got, err = db.SearchItems(ctx, "W1", "milk", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = db.SearchItems(ctx, "W1", "   ", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}
