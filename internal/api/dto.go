package api

import (
	"time"

	"github.com/starford/synergy/internal/models"
)

// UserView is an account without its credential hash.
type UserView struct {
	ID        string          `json:"id"`
	Username  string          `json:"username"`
	Role      models.UserRole `json:"role"`
	CreatedAt time.Time       `json:"created_at"`
	Friends   []string        `json:"friends"`
}

func viewOf(u *models.User) UserView {
	friends := u.Friends
	if friends == nil {
		friends = []string{}
	}
	return UserView{ID: u.ID, Username: u.Username, Role: u.Role, CreatedAt: u.CreatedAt, Friends: friends}
}

func viewsOf(users []models.User) []UserView {
	out := make([]UserView, 0, len(users))
	for i := range users {
		out = append(out, viewOf(&users[i]))
	}
	return out
}

// CredentialsRequest is the body of sign-up and login.
type CredentialsRequest struct {
	Username string          `json:"username"`
	Password string          `json:"password"`
	Role     models.UserRole `json:"role,omitempty"`
}

// ChangePasswordRequest is the body of PUT /users/{id}/password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// WorkspaceRequest creates or updates a workspace. Widgets is applied only
// when present.
type WorkspaceRequest struct {
	Name    string           `json:"name"`
	Widgets *[]models.Widget `json:"dashboard_widgets,omitempty"`
	Reset   bool             `json:"reset_widgets,omitempty"`
}

// FolderRequest creates or renames a folder.
type FolderRequest struct {
	Name string            `json:"name"`
	Type models.FolderType `json:"type"`
}

// MoveRequest files a record under a folder; a null folder_id is the root.
type MoveRequest struct {
	FolderID *string `json:"folder_id"`
}

// ShareRequest replaces a note's share list.
type ShareRequest struct {
	UserIDs []string `json:"user_ids"`
}

// InvitationRequest sends a friend request.
type InvitationRequest struct {
	ToID string `json:"to_id"`
}

// BoardResponse is the kanban view of a workspace.
type BoardResponse struct {
	Statuses []string                  `json:"statuses"`
	Columns  map[string][]*models.Task `json:"columns"`
}
