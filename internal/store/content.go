package store

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/starford/synergy/internal/models"
)

// newestFirst orders by created_at descending, breaking ties by id.
func newestFirst(aAt, bAt time.Time, aID, bID string) int {
	if c := bAt.Compare(aAt); c != 0 {
		return c
	}
	return strings.Compare(bID, aID)
}

// ListChatSessions returns the chat sessions of a workspace, newest first.
func (db *DB) ListChatSessions(ctx context.Context, workspaceID string) ([]models.ChatSession, error) {
	out, err := list[models.ChatSession](ctx, db, StoreChatSessions, "workspace_id = ?", workspaceID)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(out, func(a, b models.ChatSession) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return out, nil
}

// GetChatSession returns the session with id, or nil.
func (db *DB) GetChatSession(ctx context.Context, id string) (*models.ChatSession, error) {
	return get[models.ChatSession](ctx, db, StoreChatSessions, "id = ?", id)
}

// SaveChatSession upserts a chat session.
func (db *DB) SaveChatSession(ctx context.Context, s *models.ChatSession) error {
	return db.put(ctx, StoreChatSessions, s.ID, s)
}

// DeleteChatSession removes a chat session.
func (db *DB) DeleteChatSession(ctx context.Context, id string) error {
	return db.remove(ctx, StoreChatSessions, id)
}

// ListSavedImages returns the gallery of a workspace, newest first.
func (db *DB) ListSavedImages(ctx context.Context, workspaceID string) ([]models.SavedImage, error) {
	out, err := list[models.SavedImage](ctx, db, StoreSavedImages, "workspace_id = ?", workspaceID)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(out, func(a, b models.SavedImage) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return out, nil
}

// GetSavedImage returns the image with id, or nil.
func (db *DB) GetSavedImage(ctx context.Context, id string) (*models.SavedImage, error) {
	return get[models.SavedImage](ctx, db, StoreSavedImages, "id = ?", id)
}

// SaveSavedImage upserts an image.
func (db *DB) SaveSavedImage(ctx context.Context, img *models.SavedImage) error {
	return db.put(ctx, StoreSavedImages, img.ID, img)
}

// DeleteSavedImage removes an image.
func (db *DB) DeleteSavedImage(ctx context.Context, id string) error {
	return db.remove(ctx, StoreSavedImages, id)
}

// ListWorkflows returns the workflows of a workspace in no particular order.
func (db *DB) ListWorkflows(ctx context.Context, workspaceID string) ([]models.Workflow, error) {
	return list[models.Workflow](ctx, db, StoreWorkflows, "workspace_id = ?", workspaceID)
}

// GetWorkflow returns the workflow with id, or nil.
func (db *DB) GetWorkflow(ctx context.Context, id string) (*models.Workflow, error) {
	return get[models.Workflow](ctx, db, StoreWorkflows, "id = ?", id)
}

// SaveWorkflow upserts a workflow.
func (db *DB) SaveWorkflow(ctx context.Context, wf *models.Workflow) error {
	return db.put(ctx, StoreWorkflows, wf.ID, wf)
}

// DeleteWorkflow removes a workflow.
func (db *DB) DeleteWorkflow(ctx context.Context, id string) error {
	return db.remove(ctx, StoreWorkflows, id)
}

// ListFolders returns the folders of a workspace in no particular order.
func (db *DB) ListFolders(ctx context.Context, workspaceID string) ([]models.Folder, error) {
	return list[models.Folder](ctx, db, StoreFolders, "workspace_id = ?", workspaceID)
}

// GetFolder returns the folder with id, or nil.
func (db *DB) GetFolder(ctx context.Context, id string) (*models.Folder, error) {
	return get[models.Folder](ctx, db, StoreFolders, "id = ?", id)
}

// SaveFolder upserts a folder.
func (db *DB) SaveFolder(ctx context.Context, f *models.Folder) error {
	return db.put(ctx, StoreFolders, f.ID, f)
}

// DeleteFolder removes a folder record only; see lifecycle for reassignment.
func (db *DB) DeleteFolder(ctx context.Context, id string) error {
	return db.remove(ctx, StoreFolders, id)
}
