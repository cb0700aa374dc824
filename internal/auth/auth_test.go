package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/starford/synergy/internal/apperr"
	"github.com/starford/synergy/internal/models"
	"github.com/starford/synergy/internal/testutil"
)

func newService(t *testing.T) *Service {
	t.Helper()
	s := NewService(testutil.TestStore(t), testutil.Logger())
	s.cost = bcrypt.MinCost
	return s
}

func TestSignUpAndLogin(t *testing.T) {
	ctx := context.Background()
	s := newService(t)

	u, err := s.SignUp(ctx, SignUpInput{Username: " alice ", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, models.RoleMember, u.Role)
	assert.NotContains(t, u.PasswordHash, "correct horse")

	got, err := s.Login(ctx, "alice", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.Login(ctx, "alice", "wrong password")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	_, err = s.Login(ctx, "nobody", "correct horse")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestSignUp_RejectsTakenUsername(t *testing.T) {
	ctx := context.Background()
	s := newService(t)

	_, err := s.SignUp(ctx, SignUpInput{Username: "bob", Password: "password1"})
	require.NoError(t, err)
	_, err = s.SignUp(ctx, SignUpInput{Username: "bob", Password: "password2"})
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)
}

func TestSignUp_Validation(t *testing.T) {
	ctx := context.Background()
	s := newService(t)

	tests := []struct {
		name string
		in   SignUpInput
	}{
		{"empty username", SignUpInput{Username: "  ", Password: "password1"}},
		{"short password", SignUpInput{Username: "carol", Password: "short"}},
		{"unknown role", SignUpInput{Username: "carol", Password: "password1", Role: "root"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SignUp(ctx, tt.in)
			assert.ErrorIs(t, err, apperr.ErrInvalidInput)
		})
	}
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	s := newService(t)

	u, err := s.SignUp(ctx, SignUpInput{Username: "dave", Password: "password1"})
	require.NoError(t, err)

	assert.ErrorIs(t, s.ChangePassword(ctx, u.ID, "nope", "password2"), apperr.ErrInvalidCredentials)
	assert.ErrorIs(t, s.ChangePassword(ctx, u.ID, "password1", "x"), apperr.ErrInvalidInput)
	require.NoError(t, s.ChangePassword(ctx, u.ID, "password1", "password2"))

	_, err = s.Login(ctx, "dave", "password2")
	assert.NoError(t, err)
}

func TestDeleteUser_DropsFromFriendLists(t *testing.T) {
	ctx := context.Background()
	s := newService(t)

	a, err := s.SignUp(ctx, SignUpInput{Username: "a", Password: "password1"})
	require.NoError(t, err)
	b, err := s.SignUp(ctx, SignUpInput{Username: "b", Password: "password1"})
	require.NoError(t, err)
	a.Friends = []string{b.ID}
	b.Friends = []string{a.ID}
	require.NoError(t, s.db.SaveUser(ctx, a))
	require.NoError(t, s.db.SaveUser(ctx, b))

	require.NoError(t, s.DeleteUser(ctx, b.ID))

	got, err := s.db.GetUser(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Friends)
	gone, err := s.db.GetUser(ctx, b.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}
