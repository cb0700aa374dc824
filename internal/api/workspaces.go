package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/synergy/internal/apperr"
	"github.com/starford/synergy/internal/models"
	"github.com/starford/synergy/internal/sse"
)

// ListWorkspaces handles GET /api/workspaces.
//
//	@Summary	List workspaces, oldest first
//	@Tags		workspaces
//	@Produce	json
//	@Success	200	{array}	models.Workspace
//	@Security	BearerAuth
//	@Router		/workspaces [get]
func (h *Handler) ListWorkspaces(w http.ResponseWriter, r *http.Request) {
	wss, err := h.Store.ListWorkspaces(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	for i := range wss {
		wss[i].DashboardWidgets = wss[i].Widgets()
	}
	writeJSON(w, http.StatusOK, wss)
}

// GetWorkspace handles GET /api/workspaces/{ws}.
func (h *Handler) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "ws")
	ws, err := h.Store.GetWorkspace(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if ws == nil {
		writeError(w, r, fmt.Errorf("workspace %q: %w", id, apperr.ErrNotFound))
		return
	}
	ws.DashboardWidgets = ws.Widgets()
	writeJSON(w, http.StatusOK, ws)
}

// CreateWorkspace handles POST /api/workspaces.
//
//	@Summary	Create a workspace with the default dashboard
//	@Tags		workspaces
//	@Accept		json
//	@Produce	json
//	@Param		body	body		WorkspaceRequest	true	"Workspace name"
//	@Success	201		{object}	models.Workspace
//	@Failure	400		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/workspaces [post]
func (h *Handler) CreateWorkspace(w http.ResponseWriter, r *http.Request) {
	var req WorkspaceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ws, err := h.Lifecycle.CreateWorkspace(r.Context(), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.notify("workspace", sse.KindSaved, ws.ID, ws.ID)
	writeJSON(w, http.StatusCreated, ws)
}

// UpdateWorkspace handles PATCH /api/workspaces/{ws}: rename and/or replace
// the dashboard widgets.
func (h *Handler) UpdateWorkspace(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "ws")
	var req WorkspaceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var (
		ws  *models.Workspace
		err error
	)
	if req.Name != "" {
		if ws, err = h.Lifecycle.RenameWorkspace(r.Context(), id, req.Name); err != nil {
			writeError(w, r, err)
			return
		}
	}
	switch {
	case req.Reset:
		ws, err = h.Lifecycle.SetWidgets(r.Context(), id, nil)
	case req.Widgets != nil:
		ws, err = h.Lifecycle.SetWidgets(r.Context(), id, *req.Widgets)
	case ws == nil:
		err = fmt.Errorf("%w: nothing to update", apperr.ErrInvalidInput)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.notify("workspace", sse.KindSaved, ws.ID, ws.ID)
	writeJSON(w, http.StatusOK, ws)
}

// DeleteWorkspace handles DELETE /api/workspaces/{ws}.
//
//	@Summary	Delete a workspace and everything in it
//	@Tags		workspaces
//	@Param		ws	path	string	true	"Workspace id"
//	@Success	204	"Workspace deleted"
//	@Failure	404	{object}	errResponse
//	@Failure	409	{object}	errResponse	"Last workspace"
//	@Security	BearerAuth
//	@Router		/workspaces/{ws} [delete]
func (h *Handler) DeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "ws")
	if err := h.Lifecycle.DeleteWorkspace(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	h.notify("workspace", sse.KindDeleted, id, "")
	w.WriteHeader(http.StatusNoContent)
}

// ListFolders handles GET /api/workspaces/{ws}/folders.
func (h *Handler) ListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.Store.ListFolders(r.Context(), chi.URLParam(r, "ws"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if t := models.FolderType(r.URL.Query().Get("type")); t != "" {
		kept := folders[:0]
		for _, f := range folders {
			if f.Type == t {
				kept = append(kept, f)
			}
		}
		folders = kept
	}
	writeJSON(w, http.StatusOK, folders)
}

// CreateFolder handles POST /api/workspaces/{ws}/folders.
func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req FolderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	f, err := h.Lifecycle.CreateFolder(r.Context(), chi.URLParam(r, "ws"), req.Name, req.Type)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.notify("folder", sse.KindSaved, f.ID, f.WorkspaceID)
	writeJSON(w, http.StatusCreated, f)
}

// RenameFolder handles PATCH /api/folders/{id}. The type cannot change.
func (h *Handler) RenameFolder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req FolderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Type != "" {
		cur, err := h.Store.GetFolder(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if cur != nil && cur.Type != req.Type {
			writeError(w, r, fmt.Errorf("%w: a folder's type cannot change", apperr.ErrFolderTypeMismatch))
			return
		}
	}
	f, err := h.Lifecycle.RenameFolder(r.Context(), id, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.notify("folder", sse.KindSaved, f.ID, f.WorkspaceID)
	writeJSON(w, http.StatusOK, f)
}

// DeleteFolder handles DELETE /api/folders/{id}. Contents move to the root.
func (h *Handler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	f, err := h.Store.GetFolder(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Lifecycle.DeleteFolder(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	if f != nil {
		h.notify("folder", sse.KindDeleted, id, f.WorkspaceID)
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetStatuses handles GET /api/statuses.
func (h *Handler) GetStatuses(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.Store.GetStatuses(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if statuses == nil {
		statuses = models.DefaultStatuses()
	}
	writeJSON(w, http.StatusOK, statuses)
}

// SaveStatuses handles PUT /api/statuses with a JSON array body.
func (h *Handler) SaveStatuses(w http.ResponseWriter, r *http.Request) {
	var statuses []string
	if err := decodeJSON(w, r, &statuses); err != nil {
		writeError(w, r, err)
		return
	}
	seen := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		if s == "" || seen[s] {
			writeError(w, r, fmt.Errorf("%w: statuses must be unique and non-empty", apperr.ErrInvalidInput))
			return
		}
		seen[s] = true
	}
	if err := h.Store.SaveStatuses(r.Context(), statuses); err != nil {
		writeError(w, r, err)
		return
	}
	h.notify("statuses", sse.KindSaved, "kanban_statuses", "")
	writeJSON(w, http.StatusOK, statuses)
}
