// Package auth manages local accounts with bcrypt-hashed credentials.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/starford/synergy/internal/apperr"
	"github.com/starford/synergy/internal/lifecycle"
	"github.com/starford/synergy/internal/models"
	"github.com/starford/synergy/internal/store"
)

// MinPasswordLength is the shortest password SignUp accepts.
const MinPasswordLength = 8

// Service signs accounts up and in.
type Service struct {
	db     store.Gateway
	logger *slog.Logger
	cost   int
}

// NewService returns a Service using bcrypt.DefaultCost.
func NewService(db store.Gateway, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, logger: logger, cost: bcrypt.DefaultCost}
}

// SignUpInput is the data needed to create an account.
type SignUpInput struct {
	Username string
	Password string
	Role     models.UserRole
}

// Validate checks the input fields.
func (in *SignUpInput) Validate() error {
	return validation.ValidateStruct(in,
		validation.Field(&in.Username, validation.Required, validation.Length(1, 64)),
		validation.Field(&in.Password, validation.Required, validation.Length(MinPasswordLength, 72)),
		validation.Field(&in.Role, validation.In(models.RoleAdmin, models.RoleMember)),
	)
}

// SignUp creates an account. A taken username fails with
// apperr.ErrAlreadyExists, whether caught by the lookup or by the unique
// index when two sign-ups race.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Role == "" {
		in.Role = models.RoleMember
	}
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}

	existing, err := s.db.GetUserByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("username %q: %w", in.Username, apperr.ErrAlreadyExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &models.User{
		ID:           lifecycle.NewID("user"),
		Username:     in.Username,
		PasswordHash: string(hash),
		Role:         in.Role,
		CreatedAt:    time.Now().UTC(),
		Friends:      []string{},
	}
	if err := s.db.SaveUser(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("auth: account created", slog.String("user_id", u.ID), slog.String("role", string(u.Role)))
	return u, nil
}

// Login returns the account matching the credentials. Unknown usernames and
// wrong passwords both fail with apperr.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.db.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if u == nil || u.PasswordHash == "" {
		return nil, apperr.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.ErrInvalidCredentials
	}
	return u, nil
}

// ChangePassword replaces a user's password after checking the old one.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	u, err := s.db.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return fmt.Errorf("user %q: %w", userID, apperr.ErrNotFound)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(oldPassword)); err != nil {
		return apperr.ErrInvalidCredentials
	}
	if err := validation.Validate(newPassword, validation.Required, validation.Length(MinPasswordLength, 72)); err != nil {
		return fmt.Errorf("%w: password %v", apperr.ErrInvalidInput, err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	return s.db.SaveUser(ctx, u)
}

// DeleteUser removes an account and drops it from every friend list.
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	users, err := s.db.ListUsers(ctx)
	if err != nil {
		return err
	}
	for i := range users {
		u := &users[i]
		if u.ID == userID || !u.HasFriend(userID) {
			continue
		}
		u.Friends = without(u.Friends, userID)
		if err := s.db.SaveUser(ctx, u); err != nil {
			return err
		}
	}
	return s.db.DeleteUser(ctx, userID)
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
