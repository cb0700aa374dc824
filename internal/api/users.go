package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/synergy/internal/apperr"
	"github.com/starford/synergy/internal/auth"
	"github.com/starford/synergy/internal/sse"
)

// SignUp handles POST /api/auth/signup.
//
//	@Summary	Create an account
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		CredentialsRequest	true	"Credentials"
//	@Success	201		{object}	UserView
//	@Failure	400		{object}	errResponse
//	@Failure	409		{object}	errResponse	"Username taken"
//	@Router		/auth/signup [post]
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := h.Auth.SignUp(r.Context(), auth.SignUpInput{Username: req.Username, Password: req.Password, Role: req.Role})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.notify("user", sse.KindSaved, u.ID, "")
	writeJSON(w, http.StatusCreated, viewOf(u))
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := h.Auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(u))
}

// ListUsers handles GET /api/users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Store.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewsOf(users))
}

// GetUser handles GET /api/users/{id}.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	u, err := h.Store.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if u == nil {
		writeError(w, r, fmt.Errorf("user %q: %w", id, apperr.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, viewOf(u))
}

// DeleteUser handles DELETE /api/users/{id}.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Auth.DeleteUser(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	h.notify("user", sse.KindDeleted, id, "")
	w.WriteHeader(http.StatusNoContent)
}

// ChangePassword handles PUT /api/users/{id}/password.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Auth.ChangePassword(r.Context(), chi.URLParam(r, "id"), req.OldPassword, req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListFriends handles GET /api/users/{id}/friends.
func (h *Handler) ListFriends(w http.ResponseWriter, r *http.Request) {
	friends, err := h.Social.Friends(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewsOf(friends))
}

// RemoveFriend handles DELETE /api/users/{id}/friends/{friend}.
func (h *Handler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	id, friend := chi.URLParam(r, "id"), chi.URLParam(r, "friend")
	if err := h.Social.RemoveFriend(r.Context(), id, friend); err != nil {
		writeError(w, r, err)
		return
	}
	h.notify("user", sse.KindSaved, id, "")
	h.notify("user", sse.KindSaved, friend, "")
	w.WriteHeader(http.StatusNoContent)
}

// PendingInvitations handles GET /api/users/{id}/invitations.
func (h *Handler) PendingInvitations(w http.ResponseWriter, r *http.Request) {
	invs, err := h.Social.PendingInvitations(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, invs)
}

// SendInvitation handles POST /api/invitations from the acting user.
func (h *Handler) SendInvitation(w http.ResponseWriter, r *http.Request) {
	var req InvitationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	inv, err := h.Social.SendInvitation(r.Context(), actor(r), req.ToID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.notify("invitation", sse.KindSaved, inv.ID, "")
	writeJSON(w, http.StatusCreated, inv)
}

// AcceptInvitation handles POST /api/invitations/{id}/accept.
func (h *Handler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	inv, err := h.Social.AcceptInvitation(r.Context(), chi.URLParam(r, "id"), actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.notify("invitation", sse.KindSaved, inv.ID, "")
	writeJSON(w, http.StatusOK, inv)
}

// DeclineInvitation handles POST /api/invitations/{id}/decline.
func (h *Handler) DeclineInvitation(w http.ResponseWriter, r *http.Request) {
	inv, err := h.Social.DeclineInvitation(r.Context(), chi.URLParam(r, "id"), actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.notify("invitation", sse.KindSaved, inv.ID, "")
	writeJSON(w, http.StatusOK, inv)
}
