package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/synergy/internal/apperr"
	"github.com/starford/synergy/internal/models"
)

// CreateFolder adds a folder of the given type to a workspace.
func (m *Manager) CreateFolder(ctx context.Context, workspaceID, name string, typ models.FolderType) (*models.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: folder name is empty", apperr.ErrInvalidInput)
	}
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: folder type %q", apperr.ErrInvalidInput, typ)
	}
	if _, err := m.Workspace(ctx, workspaceID); err != nil {
		return nil, err
	}
	f := &models.Folder{
		ID:          NewID("folder"),
		Name:        name,
		Type:        typ,
		WorkspaceID: workspaceID,
		CreatedAt:   m.now(),
	}
	if err := m.db.SaveFolder(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// RenameFolder changes a folder's name. Its type never changes.
func (m *Manager) RenameFolder(ctx context.Context, id, name string) (*models.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: folder name is empty", apperr.ErrInvalidInput)
	}
	f, err := m.folder(ctx, id)
	if err != nil {
		return nil, err
	}
	f.Name = name
	if err := m.db.SaveFolder(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// DeleteFolder moves every note, chat session or image filed under the
// folder back to the root, then removes the folder. The reassignment is not
// transactional with the delete but always completes first.
func (m *Manager) DeleteFolder(ctx context.Context, id string) error {
	f, err := m.folder(ctx, id)
	if err != nil {
		return err
	}

	var moved int
	switch f.Type {
	case models.FolderNote:
		moved, err = m.unfileNotes(ctx, f)
	case models.FolderChat:
		moved, err = m.unfileChats(ctx, f)
	case models.FolderImage:
		moved, err = m.unfileImages(ctx, f)
	}
	if err != nil {
		return fmt.Errorf("move folder %q contents to root: %w", id, err)
	}

	if err := m.db.DeleteFolder(ctx, id); err != nil {
		return err
	}
	m.logger.Info("lifecycle: folder deleted",
		slog.String("folder_id", id),
		slog.String("type", string(f.Type)),
		slog.Int("moved_to_root", moved))
	return nil
}

func inFolder(folderID *string, id string) bool {
	return folderID != nil && *folderID == id
}

func (m *Manager) unfileNotes(ctx context.Context, f *models.Folder) (int, error) {
	items, err := m.db.ListItems(ctx, f.WorkspaceID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, it := range items {
		note, ok := it.(*models.Note)
		if !ok || !inFolder(note.FolderID, f.ID) {
			continue
		}
		note.FolderID = nil
		if err := m.db.SaveItem(ctx, note); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (m *Manager) unfileChats(ctx context.Context, f *models.Folder) (int, error) {
	sessions, err := m.db.ListChatSessions(ctx, f.WorkspaceID)
	if err != nil {
		return 0, err
	}
	n := 0
	for i := range sessions {
		s := &sessions[i]
		if !inFolder(s.FolderID, f.ID) {
			continue
		}
		s.FolderID = nil
		if err := m.db.SaveChatSession(ctx, s); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (m *Manager) unfileImages(ctx context.Context, f *models.Folder) (int, error) {
	images, err := m.db.ListSavedImages(ctx, f.WorkspaceID)
	if err != nil {
		return 0, err
	}
	n := 0
	for i := range images {
		img := &images[i]
		if !inFolder(img.FolderID, f.ID) {
			continue
		}
		img.FolderID = nil
		if err := m.db.SaveSavedImage(ctx, img); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// MoveNote files a note under folderID, or at the root when folderID is nil.
func (m *Manager) MoveNote(ctx context.Context, noteID string, folderID *string) (*models.Note, error) {
	it, err := m.db.GetItem(ctx, noteID)
	if err != nil {
		return nil, err
	}
	note, ok := it.(*models.Note)
	if !ok {
		return nil, fmt.Errorf("note %q: %w", noteID, apperr.ErrNotFound)
	}
	if err := m.CheckFolder(ctx, folderID, models.FolderNote, note.WorkspaceID); err != nil {
		return nil, err
	}
	note.FolderID = folderID
	if err := m.db.SaveItem(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

// MoveChatSession files a chat session under folderID, or at the root.
func (m *Manager) MoveChatSession(ctx context.Context, sessionID string, folderID *string) (*models.ChatSession, error) {
	s, err := m.db.GetChatSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("chat session %q: %w", sessionID, apperr.ErrNotFound)
	}
	if err := m.CheckFolder(ctx, folderID, models.FolderChat, s.WorkspaceID); err != nil {
		return nil, err
	}
	s.FolderID = folderID
	if err := m.db.SaveChatSession(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// MoveSavedImage files an image under folderID, or at the root.
func (m *Manager) MoveSavedImage(ctx context.Context, imageID string, folderID *string) (*models.SavedImage, error) {
	img, err := m.db.GetSavedImage(ctx, imageID)
	if err != nil {
		return nil, err
	}
	if img == nil {
		return nil, fmt.Errorf("image %q: %w", imageID, apperr.ErrNotFound)
	}
	if err := m.CheckFolder(ctx, folderID, models.FolderImage, img.WorkspaceID); err != nil {
		return nil, err
	}
	img.FolderID = folderID
	if err := m.db.SaveSavedImage(ctx, img); err != nil {
		return nil, err
	}
	return img, nil
}

// Lookup is the read access needed to check references to workspaces and
// folders. store.Gateway satisfies it.
type Lookup interface {
	GetWorkspace(ctx context.Context, id string) (*models.Workspace, error)
	GetFolder(ctx context.Context, id string) (*models.Folder, error)
}

// RequireWorkspace returns the workspace named id, or apperr.ErrNotFound.
func RequireWorkspace(ctx context.Context, db Lookup, id string) (*models.Workspace, error) {
	ws, err := db.GetWorkspace(ctx, id)
	if err != nil {
		return nil, err
	}
	if ws == nil {
		return nil, fmt.Errorf("workspace %q: %w", id, apperr.ErrNotFound)
	}
	return ws, nil
}

// CheckFolder verifies that folderID, when set, names an existing folder of
// type want in workspace ws. A nil folderID means the root and always passes.
func CheckFolder(ctx context.Context, db Lookup, folderID *string, want models.FolderType, ws string) error {
	if folderID == nil {
		return nil
	}
	f, err := db.GetFolder(ctx, *folderID)
	if err != nil {
		return err
	}
	if f == nil {
		return fmt.Errorf("folder %q: %w", *folderID, apperr.ErrNotFound)
	}
	if f.Type != want {
		return fmt.Errorf("%w: folder %q holds %s, not %s", apperr.ErrFolderTypeMismatch, f.ID, f.Type, want)
	}
	if f.WorkspaceID != ws {
		return fmt.Errorf("%w: folder %q belongs to another workspace", apperr.ErrInvalidInput, f.ID)
	}
	return nil
}

// CheckFolder is the package-level CheckFolder over the manager's storage.
func (m *Manager) CheckFolder(ctx context.Context, folderID *string, want models.FolderType, ws string) error {
	return CheckFolder(ctx, m.db, folderID, want, ws)
}

func (m *Manager) folder(ctx context.Context, id string) (*models.Folder, error) {
	f, err := m.db.GetFolder(ctx, id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("folder %q: %w", id, apperr.ErrNotFound)
	}
	return f, nil
}
