package store

import (
	"context"

	"github.com/starford/synergy/internal/models"
)

// ListUsers returns every account.
func (db *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	return list[models.User](ctx, db, StoreUsers, "")
}

// GetUser returns the account with id, or nil.
func (db *DB) GetUser(ctx context.Context, id string) (*models.User, error) {
	return get[models.User](ctx, db, StoreUsers, "id = ?", id)
}

// GetUserByUsername looks an account up through the unique username index.
// It returns nil when no account has that username.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return get[models.User](ctx, db, StoreUsers, "username = ?", username)
}

// SaveUser upserts an account. A username already used by another account
// fails with an error wrapping apperr.ErrAlreadyExists.
func (db *DB) SaveUser(ctx context.Context, u *models.User) error {
	return db.put(ctx, StoreUsers, u.ID, u)
}

// DeleteUser removes an account.
func (db *DB) DeleteUser(ctx context.Context, id string) error {
	return db.remove(ctx, StoreUsers, id)
}

// ListInvitations returns every invitation.
func (db *DB) ListInvitations(ctx context.Context) ([]models.Invitation, error) {
	return list[models.Invitation](ctx, db, StoreInvitations, "")
}

// ListInvitationsTo returns the invitations addressed to userID.
func (db *DB) ListInvitationsTo(ctx context.Context, userID string) ([]models.Invitation, error) {
	return list[models.Invitation](ctx, db, StoreInvitations, "to_id = ?", userID)
}

// ListInvitationsFrom returns the invitations sent by userID.
func (db *DB) ListInvitationsFrom(ctx context.Context, userID string) ([]models.Invitation, error) {
	return list[models.Invitation](ctx, db, StoreInvitations, "from_id = ?", userID)
}

// GetInvitation returns the invitation with id, or nil.
func (db *DB) GetInvitation(ctx context.Context, id string) (*models.Invitation, error) {
	return get[models.Invitation](ctx, db, StoreInvitations, "id = ?", id)
}

// SaveInvitation upserts an invitation.
func (db *DB) SaveInvitation(ctx context.Context, inv *models.Invitation) error {
	return db.put(ctx, StoreInvitations, inv.ID, inv)
}

// DeleteInvitation removes an invitation.
func (db *DB) DeleteInvitation(ctx context.Context, id string) error {
	return db.remove(ctx, StoreInvitations, id)
}
