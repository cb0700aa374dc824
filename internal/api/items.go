package api

import (
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/synergy/internal/apperr"
	"github.com/starford/synergy/internal/models"
	"github.com/starford/synergy/internal/sse"
)

func readItem(w http.ResponseWriter, r *http.Request) (models.Item, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read body", apperr.ErrInvalidInput)
	}
	it, err := models.DecodeItem(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	return it, nil
}

// ListItems handles GET /api/workspaces/{ws}/items.
//
//	@Summary	List the tasks, events and notes of a workspace
//	@Tags		items
//	@Produce	json
//	@Param		ws		path	string	true	"Workspace id"
//	@Param		type	query	string	false	"Only items of this type"	Enums(task, event, note)
//	@Success	200		{array}	object
//	@Security	BearerAuth
//	@Router		/workspaces/{ws}/items [get]
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.Store.ListItems(r.Context(), chi.URLParam(r, "ws"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if t := models.ItemType(r.URL.Query().Get("type")); t != "" {
		items = slices.DeleteFunc(items, func(it models.Item) bool { return it.Base().Type != t })
	}
	writeJSON(w, http.StatusOK, items)
}

// CreateItem handles POST /api/workspaces/{ws}/items. Matching task-created
// workflows run, and everything created is returned.
//
//	@Summary	Create a task, event or note
//	@Tags		items
//	@Accept		json
//	@Produce	json
//	@Param		ws	path		string	true	"Workspace id"
//	@Success	201	{object}	map[string][]object
//	@Failure	400	{object}	errResponse
//	@Security	BearerAuth
//	@Router		/workspaces/{ws}/items [post]
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	it, err := readItem(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := h.Workflows.AddItem(r.Context(), chi.URLParam(r, "ws"), actor(r), it)
	if err != nil && len(created) == 0 {
		writeError(w, r, err)
		return
	}
	if err != nil {
		writeError(w, r, fmt.Errorf("item saved but a workflow failed: %w", err))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"items": created})
}

// GetItem handles GET /api/items/{id}.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	it, err := h.Store.GetItem(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if it == nil {
		writeError(w, r, fmt.Errorf("item %q: %w", id, apperr.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// UpdateItem handles PUT /api/items/{id}: a full replace of an existing item.
// The item stays in its workspace whatever the body says.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	it, err := readItem(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Workflows.UpdateItem(r.Context(), id, it); err != nil {
		writeError(w, r, err)
		return
	}
	h.notify("item", sse.KindSaved, id, it.Base().WorkspaceID)
	writeJSON(w, http.StatusOK, it)
}

// DeleteItem handles DELETE /api/items/{id}.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cur, err := h.Store.GetItem(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Store.DeleteItem(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	if cur != nil {
		h.notify("item", sse.KindDeleted, id, cur.Base().WorkspaceID)
	}
	w.WriteHeader(http.StatusNoContent)
}

// MoveNote handles POST /api/items/{id}/move.
func (h *Handler) MoveNote(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	n, err := h.Lifecycle.MoveNote(r.Context(), chi.URLParam(r, "id"), req.FolderID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.notify("item", sse.KindSaved, n.ID, n.WorkspaceID)
	writeJSON(w, http.StatusOK, n)
}

// ShareNote handles POST /api/items/{id}/share on behalf of the note owner.
func (h *Handler) ShareNote(w http.ResponseWriter, r *http.Request) {
	var req ShareRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	n, err := h.Social.ShareNote(r.Context(), chi.URLParam(r, "id"), actor(r), req.UserIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.notify("item", sse.KindSaved, n.ID, n.WorkspaceID)
	writeJSON(w, http.StatusOK, n)
}

// VisibleNotes handles GET /api/workspaces/{ws}/notes: the notes the acting
// user owns or has been shared.
func (h *Handler) VisibleNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.Social.VisibleNotes(r.Context(), chi.URLParam(r, "ws"), actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// Board handles GET /api/workspaces/{ws}/board: tasks and events grouped by
// status, with stale statuses under "unknown".
func (h *Handler) Board(w http.ResponseWriter, r *http.Request) {
	items, err := h.Store.ListItems(r.Context(), chi.URLParam(r, "ws"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	statuses, err := h.Store.GetStatuses(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if statuses == nil {
		statuses = models.DefaultStatuses()
	}
	var tasks []*models.Task
	for _, it := range items {
		if t, ok := it.(*models.Task); ok {
			tasks = append(tasks, t)
		}
	}
	writeJSON(w, http.StatusOK, BoardResponse{Statuses: statuses, Columns: models.GroupByStatus(tasks, statuses)})
}

// Search handles GET /api/workspaces/{ws}/search?q=&limit=.
//
//	@Summary	Search item titles, descriptions and note content
//	@Tags		items
//	@Produce	json
//	@Param		ws		path	string	true	"Workspace id"
//	@Param		q		query	string	true	"Search text"
//	@Param		limit	query	int		false	"Max results (default 20)"
//	@Success	200		{array}	object
//	@Failure	400		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/workspaces/{ws}/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("missing query parameter 'q'"))
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorBody("limit must be a positive integer"))
			return
		}
		limit = n
	}
	items, err := h.Store.SearchItems(r.Context(), chi.URLParam(r, "ws"), q, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}
