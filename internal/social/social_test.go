package social

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/synergy/internal/apperr"
	"github.com/starford/synergy/internal/models"
	"github.com/starford/synergy/internal/store"
	"github.com/starford/synergy/internal/testutil"
)

func setup(t *testing.T, usernames ...string) (*Service, *store.DB) {
	t.Helper()
	db := testutil.TestStore(t)
	for _, name := range usernames {
		require.NoError(t, db.SaveUser(context.Background(), &models.User{
			ID: name, Username: name, Role: models.RoleMember, Friends: []string{},
		}))
	}
	return NewService(db, testutil.Logger()), db
}

func friendsOf(t *testing.T, db *store.DB, id string) []string {
	t.Helper()
	u, err := db.GetUser(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, u)
	return u.Friends
}

func TestAcceptInvitation_IsSymmetric(t *testing.T) {
	ctx := context.Background()
	s, db := setup(t, "ann", "ben")

	inv, err := s.SendInvitation(ctx, "ann", "ben")
	require.NoError(t, err)
	assert.Equal(t, models.InvitationPending, inv.Status)

	pending, err := s.PendingInvitations(ctx, "ben")
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = s.AcceptInvitation(ctx, inv.ID, "ann")
	assert.ErrorIs(t, err, apperr.ErrForbidden, "the sender cannot accept")

	accepted, err := s.AcceptInvitation(ctx, inv.ID, "ben")
	require.NoError(t, err)
	assert.Equal(t, models.InvitationAccepted, accepted.Status)

	assert.Equal(t, []string{"ben"}, friendsOf(t, db, "ann"))
	assert.Equal(t, []string{"ann"}, friendsOf(t, db, "ben"))

	_, err = s.AcceptInvitation(ctx, inv.ID, "ben")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	pending, err = s.PendingInvitations(ctx, "ben")
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestAcceptInvitation_NoDuplicateFriends(t *testing.T) {
	ctx := context.Background()
	s, db := setup(t, "ann", "ben")

	// A stale one-sided link must not be duplicated on accept.
	require.NoError(t, db.SaveUser(ctx, &models.User{ID: "ann", Username: "ann", Friends: []string{"ben"}}))
	require.NoError(t, db.SaveInvitation(ctx, &models.Invitation{
		ID: "inv1", FromID: "ben", ToID: "ann", Status: models.InvitationPending, CreatedAt: time.Now().UTC(),
	}))

	_, err := s.AcceptInvitation(ctx, "inv1", "ann")
	require.NoError(t, err)
	assert.Equal(t, []string{"ben"}, friendsOf(t, db, "ann"))
	assert.Equal(t, []string{"ann"}, friendsOf(t, db, "ben"))
}

func TestSendInvitation_Rules(t *testing.T) {
	ctx := context.Background()
	s, _ := setup(t, "ann", "ben", "cat")

	_, err := s.SendInvitation(ctx, "ann", "ann")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = s.SendInvitation(ctx, "ann", "ghost")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = s.SendInvitation(ctx, "ann", "ben")
	require.NoError(t, err)
	_, err = s.SendInvitation(ctx, "ann", "ben")
	assert.ErrorIs(t, err, apperr.ErrConflict)
	_, err = s.SendInvitation(ctx, "ben", "ann")
	assert.ErrorIs(t, err, apperr.ErrConflict, "a reverse request while one is pending")

	_, err = s.SendInvitation(ctx, "ann", "cat")
	assert.NoError(t, err)
}

func TestDeclineInvitation(t *testing.T) {
	ctx := context.Background()
	s, db := setup(t, "ann", "ben")

	inv, err := s.SendInvitation(ctx, "ann", "ben")
	require.NoError(t, err)
	declined, err := s.DeclineInvitation(ctx, inv.ID, "ben")
	require.NoError(t, err)
	assert.Equal(t, models.InvitationDeclined, declined.Status)
	assert.Empty(t, friendsOf(t, db, "ann"))

	_, err = s.SendInvitation(ctx, "ann", "ben")
	assert.NoError(t, err, "a declined request does not block a new one")
}

func TestRemoveFriend_IsSymmetric(t *testing.T) {
	ctx := context.Background()
	s, db := setup(t, "ann", "ben", "cat")

	for _, pair := range [][2]string{{"ann", "ben"}, {"ann", "cat"}} {
		inv, err := s.SendInvitation(ctx, pair[0], pair[1])
		require.NoError(t, err)
		_, err = s.AcceptInvitation(ctx, inv.ID, pair[1])
		require.NoError(t, err)
	}

	require.NoError(t, s.RemoveFriend(ctx, "ben", "ann"))
	assert.Equal(t, []string{"cat"}, friendsOf(t, db, "ann"))
	assert.Empty(t, friendsOf(t, db, "ben"))

	friends, err := s.Friends(ctx, "ann")
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, "cat", friends[0].Username)
}

func TestShareNoteAndVisibility(t *testing.T) {
	ctx := context.Background()
	s, db := setup(t, "ann", "ben", "cat")

	inv, err := s.SendInvitation(ctx, "ann", "ben")
	require.NoError(t, err)
	_, err = s.AcceptInvitation(ctx, inv.ID, "ben")
	require.NoError(t, err)

	for _, owner := range []string{"ann", "cat"} {
		require.NoError(t, db.SaveItem(ctx, &models.Note{
			BaseItem:   models.BaseItem{ID: "note-" + owner, Type: models.ItemNote, Title: owner, WorkspaceID: "w"},
			OwnerID:    owner,
			SharedWith: []string{},
		}))
	}

	_, err = s.ShareNote(ctx, "note-ann", "ben", []string{"ben"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = s.ShareNote(ctx, "note-ann", "ann", []string{"cat"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	n, err := s.ShareNote(ctx, "note-ann", "ann", []string{"ben", "ben"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ben"}, n.SharedWith)

	visible, err := s.VisibleNotes(ctx, "w", "ben")
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "note-ann", visible[0].ID)

	visible, err = s.VisibleNotes(ctx, "w", "cat")
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "note-cat", visible[0].ID)
}
