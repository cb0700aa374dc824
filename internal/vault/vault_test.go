package vault

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/synergy/internal/lifecycle"
	"github.com/starford/synergy/internal/models"
	"github.com/starford/synergy/internal/parser"
	"github.com/starford/synergy/internal/store"
	"github.com/starford/synergy/internal/testutil"
	"github.com/starford/synergy/internal/workflow"
)

type env struct {
	db    *store.DB
	mgr   *lifecycle.Manager
	vault *Vault
	dir   string
	ws    string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	db := testutil.TestStore(t)
	logger := testutil.Logger()
	mgr := lifecycle.New(db, lifecycle.Config{}, logger)
	require.NoError(t, mgr.Bootstrap(ctx))
	wss, err := db.ListWorkspaces(ctx)
	require.NoError(t, err)
	require.Len(t, wss, 1)

	dir, files := testutil.TestVault(t)
	return &env{
		db:    db,
		mgr:   mgr,
		vault: New(db, files, workflow.NewEngine(db, logger), logger),
		dir:   dir,
		ws:    wss[0].ID,
	}
}

func (e *env) saveNote(t *testing.T, id, title, content string, folder *string) {
	t.Helper()
	n := &models.Note{
		BaseItem:   models.BaseItem{ID: id, Type: models.ItemNote, Title: title, WorkspaceID: e.ws},
		Content:    content,
		CreatedAt:  time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
		FolderID:   folder,
		OwnerID:    "u1",
		SharedWith: []string{},
	}
	require.NoError(t, e.db.SaveItem(context.Background(), n))
}

func (e *env) readFile(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(e.dir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestExport_WritesFoldersAndFrontmatter(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	f, err := e.mgr.CreateFolder(ctx, e.ws, "Project Plans", models.FolderNote)
	require.NoError(t, err)

	e.saveNote(t, "n1", "Kickoff", "agenda", &f.ID)
	e.saveNote(t, "n2", "Scratch", "root note", nil)
	e.saveNote(t, "n3", "Scratch", "same title", nil)

	paths, err := e.vault.Export(ctx, e.ws)
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Contains(t, paths, "project-plans/kickoff.md")
	assert.Contains(t, paths, "scratch.md")
	assert.True(t, slices.Contains(paths, "scratch-n2.md") || slices.Contains(paths, "scratch-n3.md"), "paths = %v", paths)

	doc := parser.Parse([]byte(e.readFile(t, "project-plans/kickoff.md")))
	assert.Equal(t, "n1", doc.Meta.ID)
	assert.Equal(t, "u1", doc.Meta.Owner)
	assert.Equal(t, "Kickoff", doc.Title)
	assert.Equal(t, "agenda\n", doc.Body)
}

func TestExport_UnknownWorkspace(t *testing.T) {
	e := newEnv(t)
	_, err := e.vault.Export(context.Background(), "ws_missing")
	require.Error(t, err)
}

func TestImport_SkipsFilesItExported(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.saveNote(t, "n1", "Kickoff", "agenda", nil)
	_, err := e.vault.Export(ctx, e.ws)
	require.NoError(t, err)

	n, err := e.vault.Import(ctx, "kickoff.md")
	require.NoError(t, err)
	assert.Nil(t, n)

	count, err := e.vault.Sync(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestImport_EditUpdatesExistingNote(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.saveNote(t, "n1", "Kickoff", "agenda", nil)
	_, err := e.vault.Export(ctx, e.ws)
	require.NoError(t, err)

	edited, err := parser.Render(parser.Frontmatter{ID: "n1", Title: "Kickoff v2"}, "new agenda")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(e.dir, "kickoff.md"), edited, 0o644))

	n, err := e.vault.Import(ctx, "kickoff.md")
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, "n1", n.ID)

	it, err := e.db.GetItem(ctx, "n1")
	require.NoError(t, err)
	got := it.(*models.Note)
	assert.Equal(t, "Kickoff v2", got.Title)
	assert.Equal(t, "new agenda\n", got.Content)
	assert.Equal(t, "u1", got.OwnerID, "owner is not taken from the file on update")

	items, err := e.db.ListItems(ctx, e.ws)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestImport_NewFileBecomesNoteAndIsStamped(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, os.MkdirAll(filepath.Join(e.dir, "inbox"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(e.dir, "inbox", "idea.md"), []byte("# Big idea\nDetails.\n"), 0o644))

	n, err := e.vault.Import(ctx, "inbox/idea.md")
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, "Big idea", n.Title)
	assert.Equal(t, e.ws, n.WorkspaceID)
	assert.Equal(t, models.SystemUserID, n.OwnerID)
	assert.Nil(t, n.FolderID)

	doc := parser.Parse([]byte(e.readFile(t, "inbox/idea.md")))
	assert.Equal(t, n.ID, doc.Meta.ID)
	assert.Equal(t, "# Big idea\nDetails.\n", doc.Body)

	again, err := e.vault.Import(ctx, "inbox/idea.md")
	require.NoError(t, err)
	assert.Nil(t, again, "stamped file must not import twice")
}

func TestImport_TitleFallsBackToFileName(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(e.dir, "groceries.md"), []byte("- milk\n"), 0o644))

	n, err := e.vault.Import(context.Background(), "groceries.md")
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, "groceries", n.Title)
}

func TestImport_EmptyFileIgnored(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(e.dir, "blank.md"), nil, 0o644))

	n, err := e.vault.Import(context.Background(), "blank.md")
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestImport_IDOfTaskIsRejected(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	task := &models.Task{BaseItem: models.BaseItem{ID: "t1", Type: models.ItemTask, Title: "x", WorkspaceID: e.ws}, Status: "Done"}
	require.NoError(t, e.db.SaveItem(ctx, task))

	data, err := parser.Render(parser.Frontmatter{ID: "t1"}, "body")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(e.dir, "t.md"), data, 0o644))

	_, err = e.vault.Import(ctx, "t.md")
	require.Error(t, err)
}

func TestWatch_ImportsNewFiles(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var imported []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = e.vault.Watch(ctx, func(n *models.Note) {
			mu.Lock()
			imported = append(imported, n.Title)
			mu.Unlock()
		})
	}()
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(e.dir, "watched.md"), []byte("# Watched\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(e.dir, "later"), 0o755))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(e.dir, "later", "nested.md"), []byte("# Nested\n"), 0o644))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return slices.Contains(imported, "Watched") && slices.Contains(imported, "Nested")
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	<-done

	items, err := e.db.ListItems(context.Background(), e.ws)
	require.NoError(t, err)
	assert.Len(t, items, 2, "stamping a file must not import it again")
}
