package models

import (
	"slices"
	"time"
)

// UserRole is an account's privilege level.
type UserRole string

// Account roles.
const (
	RoleAdmin  UserRole = "admin"
	RoleMember UserRole = "user"
)

// User is a local account. Friends is symmetric: if B is in A.Friends then
// A is in B.Friends.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	Friends      []string  `json:"friends"`
}

// HasFriend reports whether id is in the user's friend set.
func (u *User) HasFriend(id string) bool {
	return slices.Contains(u.Friends, id)
}

// InvitationStatus is the state of a friend request.
type InvitationStatus string

// Invitation states.
const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
)

// Invitation is a friend request from one user to another.
type Invitation struct {
	ID        string           `json:"id"`
	FromID    string           `json:"from_id"`
	ToID      string           `json:"to_id"`
	Status    InvitationStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
}
