// Package social manages friendships, invitations and note sharing.
//
// Friendship is symmetric: every change updates both users' friend sets.
package social

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/starford/synergy/internal/apperr"
	"github.com/starford/synergy/internal/lifecycle"
	"github.com/starford/synergy/internal/models"
	"github.com/starford/synergy/internal/store"
)

// Service implements the friend workflow over the gateway.
type Service struct {
	db     store.Gateway
	logger *slog.Logger
	now    func() time.Time
}

// NewService returns a Service.
func NewService(db store.Gateway, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// SendInvitation records a pending friend request.
func (s *Service) SendInvitation(ctx context.Context, fromID, toID string) (*models.Invitation, error) {
	if fromID == toID {
		return nil, fmt.Errorf("%w: cannot invite yourself", apperr.ErrInvalidInput)
	}
	from, err := s.user(ctx, fromID)
	if err != nil {
		return nil, err
	}
	if _, err := s.user(ctx, toID); err != nil {
		return nil, err
	}
	if from.HasFriend(toID) {
		return nil, fmt.Errorf("%w: already friends", apperr.ErrConflict)
	}

	sent, err := s.db.ListInvitationsFrom(ctx, fromID)
	if err != nil {
		return nil, err
	}
	received, err := s.db.ListInvitationsTo(ctx, fromID)
	if err != nil {
		return nil, err
	}
	for _, inv := range append(sent, received...) {
		if inv.Status == models.InvitationPending && (inv.ToID == toID || inv.FromID == toID) {
			return nil, fmt.Errorf("%w: invitation %s is already pending", apperr.ErrConflict, inv.ID)
		}
	}

	inv := &models.Invitation{
		ID:        lifecycle.NewID("inv"),
		FromID:    fromID,
		ToID:      toID,
		Status:    models.InvitationPending,
		CreatedAt: s.now(),
	}
	if err := s.db.SaveInvitation(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// AcceptInvitation marks a pending invitation accepted and makes both users
// friends. Only the recipient may accept.
func (s *Service) AcceptInvitation(ctx context.Context, invitationID, actorID string) (*models.Invitation, error) {
	inv, err := s.pending(ctx, invitationID, actorID)
	if err != nil {
		return nil, err
	}
	from, err := s.user(ctx, inv.FromID)
	if err != nil {
		return nil, err
	}
	to, err := s.user(ctx, inv.ToID)
	if err != nil {
		return nil, err
	}

	inv.Status = models.InvitationAccepted
	if err := s.db.SaveInvitation(ctx, inv); err != nil {
		return nil, err
	}
	if err := s.link(ctx, from, to); err != nil {
		return nil, err
	}
	s.logger.Info("social: invitation accepted",
		slog.String("invitation_id", inv.ID),
		slog.String("from_id", inv.FromID),
		slog.String("to_id", inv.ToID))
	return inv, nil
}

// DeclineInvitation marks a pending invitation declined. Only the recipient
// may decline.
func (s *Service) DeclineInvitation(ctx context.Context, invitationID, actorID string) (*models.Invitation, error) {
	inv, err := s.pending(ctx, invitationID, actorID)
	if err != nil {
		return nil, err
	}
	inv.Status = models.InvitationDeclined
	if err := s.db.SaveInvitation(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// RemoveFriend ends a friendship on both sides.
func (s *Service) RemoveFriend(ctx context.Context, userID, friendID string) error {
	u, err := s.user(ctx, userID)
	if err != nil {
		return err
	}
	f, err := s.user(ctx, friendID)
	if err != nil {
		return err
	}
	u.Friends = slices.DeleteFunc(u.Friends, func(id string) bool { return id == friendID })
	f.Friends = slices.DeleteFunc(f.Friends, func(id string) bool { return id == userID })
	if err := s.db.SaveUser(ctx, u); err != nil {
		return err
	}
	return s.db.SaveUser(ctx, f)
}

// Friends returns the accounts in the user's friend set.
func (s *Service) Friends(ctx context.Context, userID string) ([]models.User, error) {
	u, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.User, 0, len(u.Friends))
	for _, id := range u.Friends {
		f, err := s.db.GetUser(ctx, id)
		if err != nil {
			return nil, err
		}
		if f != nil {
			out = append(out, *f)
		}
	}
	return out, nil
}

// PendingInvitations returns the invitations awaiting userID's answer.
func (s *Service) PendingInvitations(ctx context.Context, userID string) ([]models.Invitation, error) {
	all, err := s.db.ListInvitationsTo(ctx, userID)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(all, func(inv models.Invitation) bool {
		return inv.Status != models.InvitationPending
	}), nil
}

// ShareNote replaces the set of users a note is shared with. Only the owner
// may share, and only with friends.
func (s *Service) ShareNote(ctx context.Context, noteID, ownerID string, userIDs []string) (*models.Note, error) {
	it, err := s.db.GetItem(ctx, noteID)
	if err != nil {
		return nil, err
	}
	note, ok := it.(*models.Note)
	if !ok {
		return nil, fmt.Errorf("note %q: %w", noteID, apperr.ErrNotFound)
	}
	if note.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: only the owner can share a note", apperr.ErrForbidden)
	}
	owner, err := s.user(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	shared := []string{}
	for _, id := range userIDs {
		if !owner.HasFriend(id) {
			return nil, fmt.Errorf("%w: %s is not a friend", apperr.ErrInvalidInput, id)
		}
		if !slices.Contains(shared, id) {
			shared = append(shared, id)
		}
	}
	note.SharedWith = shared
	if err := s.db.SaveItem(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

// VisibleNotes returns the notes of a workspace that userID owns or that are
// shared with them.
func (s *Service) VisibleNotes(ctx context.Context, workspaceID, userID string) ([]*models.Note, error) {
	items, err := s.db.ListItems(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	out := []*models.Note{}
	for _, it := range items {
		if n, ok := it.(*models.Note); ok && n.VisibleTo(userID) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *Service) link(ctx context.Context, a, b *models.User) error {
	if !a.HasFriend(b.ID) {
		a.Friends = append(a.Friends, b.ID)
	}
	if !b.HasFriend(a.ID) {
		b.Friends = append(b.Friends, a.ID)
	}
	if err := s.db.SaveUser(ctx, a); err != nil {
		return err
	}
	return s.db.SaveUser(ctx, b)
}

func (s *Service) pending(ctx context.Context, invitationID, actorID string) (*models.Invitation, error) {
	inv, err := s.db.GetInvitation(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, fmt.Errorf("invitation %q: %w", invitationID, apperr.ErrNotFound)
	}
	if inv.ToID != actorID {
		return nil, fmt.Errorf("%w: invitation is addressed to another user", apperr.ErrForbidden)
	}
	if inv.Status != models.InvitationPending {
		return nil, fmt.Errorf("%w: invitation is %s", apperr.ErrConflict, inv.Status)
	}
	return inv, nil
}

func (s *Service) user(ctx context.Context, id string) (*models.User, error) {
	u, err := s.db.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %q: %w", id, apperr.ErrNotFound)
	}
	if u.Friends == nil {
		u.Friends = []string{}
	}
	return u, nil
}
