package store

import (
	"context"

	"github.com/starford/synergy/internal/models"
)

// Gateway is the persistence contract consumed by the lifecycle, service and
// API layers. Depend on it rather than on *DB so fakes can stand in.
type Gateway interface {
	ListItems(ctx context.Context, workspaceID string) ([]models.Item, error)
	GetItem(ctx context.Context, id string) (models.Item, error)
	SaveItem(ctx context.Context, item models.Item) error
	DeleteItem(ctx context.Context, id string) error
	SearchItems(ctx context.Context, workspaceID, query string, limit int) ([]models.Item, error)

	ListChatSessions(ctx context.Context, workspaceID string) ([]models.ChatSession, error)
	GetChatSession(ctx context.Context, id string) (*models.ChatSession, error)
	SaveChatSession(ctx context.Context, s *models.ChatSession) error
	DeleteChatSession(ctx context.Context, id string) error

	ListSavedImages(ctx context.Context, workspaceID string) ([]models.SavedImage, error)
	GetSavedImage(ctx context.Context, id string) (*models.SavedImage, error)
	SaveSavedImage(ctx context.Context, img *models.SavedImage) error
	DeleteSavedImage(ctx context.Context, id string) error

	ListWorkflows(ctx context.Context, workspaceID string) ([]models.Workflow, error)
	GetWorkflow(ctx context.Context, id string) (*models.Workflow, error)
	SaveWorkflow(ctx context.Context, wf *models.Workflow) error
	DeleteWorkflow(ctx context.Context, id string) error

	ListFolders(ctx context.Context, workspaceID string) ([]models.Folder, error)
	GetFolder(ctx context.Context, id string) (*models.Folder, error)
	SaveFolder(ctx context.Context, f *models.Folder) error
	DeleteFolder(ctx context.Context, id string) error

	ListWorkspaces(ctx context.Context) ([]models.Workspace, error)
	GetWorkspace(ctx context.Context, id string) (*models.Workspace, error)
	SaveWorkspace(ctx context.Context, ws *models.Workspace) error
	DeleteWorkspace(ctx context.Context, id string) error

	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	SaveUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id string) error

	ListInvitations(ctx context.Context) ([]models.Invitation, error)
	ListInvitationsTo(ctx context.Context, userID string) ([]models.Invitation, error)
	ListInvitationsFrom(ctx context.Context, userID string) ([]models.Invitation, error)
	GetInvitation(ctx context.Context, id string) (*models.Invitation, error)
	SaveInvitation(ctx context.Context, inv *models.Invitation) error
	DeleteInvitation(ctx context.Context, id string) error

	GetStatuses(ctx context.Context) ([]string, error)
	SaveStatuses(ctx context.Context, statuses []string) error
}

// Verify *DB satisfies Gateway at compile time.
var _ Gateway = (*DB)(nil)
