// Package vault mirrors Notes to a directory of Markdown files and imports
// files written there back as Notes.
package vault

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync"

	"github.com/starford/synergy/internal/apperr"
	"github.com/starford/synergy/internal/checksum"
	"github.com/starford/synergy/internal/models"
	"github.com/starford/synergy/internal/parser"
	"github.com/starford/synergy/internal/storage"
	"github.com/starford/synergy/internal/store"
)

// Creator adds new items to a workspace. *workflow.Engine implements it.
type Creator interface {
	AddItem(ctx context.Context, workspaceID, actorID string, item models.Item) ([]models.Item, error)
}

// Vault exports and imports notes. Files it wrote or already imported are
// remembered by checksum and skipped until their content changes.
type Vault struct {
	db     store.Gateway
	files  storage.Provider
	notes  Creator
	logger *slog.Logger

	mu   sync.Mutex
	seen map[string]string
}

// New returns a Vault over files.
func New(db store.Gateway, files storage.Provider, notes Creator, logger *slog.Logger) *Vault {
	return &Vault{db: db, files: files, notes: notes, logger: logger, seen: make(map[string]string)}
}

// Export writes every note of the workspace as <folder>/<slug>.md and returns
// the written paths. Notes at the root land at the top of the vault.
func (v *Vault) Export(ctx context.Context, workspaceID string) ([]string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	ws, err := v.db.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if ws == nil {
		return nil, fmt.Errorf("workspace %q: %w", workspaceID, apperr.ErrNotFound)
	}
	folders, err := v.db.ListFolders(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	dirs := make(map[string]string, len(folders))
	for _, f := range folders {
		if f.Type == models.FolderNote {
			dirs[f.ID] = parser.Slug(f.Name)
		}
	}
	items, err := v.db.ListItems(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	used := make(map[string]bool)
	var written []string
	for _, it := range items {
		n, ok := it.(*models.Note)
		if !ok {
			continue
		}
		dir := ""
		if n.FolderID != nil {
			dir = dirs[*n.FolderID]
		}
		p := path.Join(dir, parser.Slug(n.Title)+".md")
		if used[p] {
			p = path.Join(dir, parser.Slug(n.Title)+"-"+n.ID+".md")
		}
		used[p] = true

		data, err := parser.Render(metaOf(n), n.Content)
		if err != nil {
			return written, err
		}
		if err := v.files.Write(p, data); err != nil {
			return written, fmt.Errorf("vault: export %s: %w", n.ID, err)
		}
		v.seen[p] = checksum.Sum(data)
		written = append(written, p)
	}
	v.logger.Info("vault: exported", slog.String("workspace_id", workspaceID), slog.Int("notes", len(written)))
	return written, nil
}

func metaOf(n *models.Note) parser.Frontmatter {
	return parser.Frontmatter{
		ID:         n.ID,
		Title:      n.Title,
		Owner:      n.OwnerID,
		Created:    n.CreatedAt,
		SharedWith: n.SharedWith,
	}
}

// Import reads one vault file and creates or updates the note it describes.
// It returns nil when the file is empty or unchanged since it was last seen.
//
// A file whose frontmatter names an existing note updates that note's title
// and content. Any other file becomes a new note in the oldest workspace, and
// the file is rewritten with frontmatter carrying the new id.
func (v *Vault) Import(ctx context.Context, p string) (*models.Note, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	data, err := v.files.Read(p)
	if err != nil {
		return nil, err
	}
	sum := checksum.Sum(data)
	if len(bytes.TrimSpace(data)) == 0 || v.seen[p] == sum {
		return nil, nil
	}

	doc := parser.Parse(data)
	title := doc.Title
	if title == "" {
		title = strings.TrimSuffix(path.Base(p), ".md")
	}

	if doc.Meta.ID != "" {
		n, err := v.existing(ctx, doc.Meta.ID)
		if err != nil {
			return nil, err
		}
		if n != nil {
			n.Title = title
			n.Content = doc.Body
			if err := v.db.SaveItem(ctx, n); err != nil {
				return nil, err
			}
			v.seen[p] = sum
			v.logger.Debug("vault: updated note", slog.String("path", p), slog.String("note_id", n.ID))
			return n, nil
		}
	}

	wss, err := v.db.ListWorkspaces(ctx)
	if err != nil {
		return nil, err
	}
	if len(wss) == 0 {
		return nil, fmt.Errorf("vault: import %s: %w", p, apperr.ErrNotFound)
	}
	owner := doc.Meta.Owner
	if owner == "" {
		owner = models.SystemUserID
	}
	n := &models.Note{
		BaseItem:   models.BaseItem{ID: doc.Meta.ID, Type: models.ItemNote, Title: title},
		Content:    doc.Body,
		CreatedAt:  doc.Meta.Created,
		SharedWith: doc.Meta.SharedWith,
	}
	if _, err := v.notes.AddItem(ctx, wss[0].ID, owner, n); err != nil {
		return nil, err
	}

	if doc.Meta.ID == "" {
		out, err := parser.Render(metaOf(n), n.Content)
		if err != nil {
			return n, err
		}
		if err := v.files.Write(p, out); err != nil {
			return n, fmt.Errorf("vault: stamp %s: %w", p, err)
		}
		sum = checksum.Sum(out)
	}
	v.seen[p] = sum
	v.logger.Info("vault: imported note", slog.String("path", p), slog.String("note_id", n.ID))
	return n, nil
}

func (v *Vault) existing(ctx context.Context, id string) (*models.Note, error) {
	it, err := v.db.GetItem(ctx, id)
	if err != nil || it == nil {
		return nil, err
	}
	n, ok := it.(*models.Note)
	if !ok {
		return nil, fmt.Errorf("%w: %s is a %s, not a note", apperr.ErrInvalidInput, id, it.Base().Type)
	}
	return n, nil
}

// Sync imports every changed file in the vault and returns how many notes it
// touched. A file that fails to import is logged and skipped.
func (v *Vault) Sync(ctx context.Context) (int, error) {
	files, err := v.files.List("")
	if err != nil {
		return 0, err
	}
	count := 0
	for _, f := range files {
		n, err := v.Import(ctx, f.Path)
		switch {
		case err != nil && errors.Is(err, apperr.ErrNotOpen):
			return count, err
		case err != nil:
			v.logger.Warn("vault: sync import failed", slog.String("path", f.Path), slog.String("error", err.Error()))
		case n != nil:
			count++
		}
	}
	v.logger.Info("vault: synced", slog.Int("files", len(files)), slog.Int("imported", count))
	return count, nil
}
