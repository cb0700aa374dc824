package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/synergy/internal/apperr"
	"github.com/starford/synergy/internal/models"
	"github.com/starford/synergy/internal/sse"
)

// ListWorkflows handles GET /api/workspaces/{ws}/workflows.
func (h *Handler) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	wfs, err := h.Store.ListWorkflows(r.Context(), chi.URLParam(r, "ws"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wfs)
}

// SaveWorkflow handles POST /api/workspaces/{ws}/workflows.
func (h *Handler) SaveWorkflow(w http.ResponseWriter, r *http.Request) {
	var wf models.Workflow
	if err := decodeJSON(w, r, &wf); err != nil {
		writeError(w, r, err)
		return
	}
	wf.ID = ""
	wf.WorkspaceID = chi.URLParam(r, "ws")
	if err := h.Workflows.SaveWorkflow(r.Context(), &wf); err != nil {
		writeError(w, r, err)
		return
	}
	h.notify("workflow", sse.KindSaved, wf.ID, wf.WorkspaceID)
	writeJSON(w, http.StatusCreated, wf)
}

// UpdateWorkflow handles PUT /api/workflows/{id}.
func (h *Handler) UpdateWorkflow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var wf models.Workflow
	if err := decodeJSON(w, r, &wf); err != nil {
		writeError(w, r, err)
		return
	}
	cur, err := h.Store.GetWorkflow(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if cur == nil {
		writeError(w, r, fmt.Errorf("workflow %q: %w", id, apperr.ErrNotFound))
		return
	}
	wf.ID = id
	wf.WorkspaceID = cur.WorkspaceID
	wf.CreatedAt = cur.CreatedAt
	if err := h.Workflows.SaveWorkflow(r.Context(), &wf); err != nil {
		writeError(w, r, err)
		return
	}
	h.notify("workflow", sse.KindSaved, wf.ID, wf.WorkspaceID)
	writeJSON(w, http.StatusOK, wf)
}

// DeleteWorkflow handles DELETE /api/workflows/{id}.
func (h *Handler) DeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cur, err := h.Store.GetWorkflow(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Store.DeleteWorkflow(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	if cur != nil {
		h.notify("workflow", sse.KindDeleted, id, cur.WorkspaceID)
	}
	w.WriteHeader(http.StatusNoContent)
}

// RunWorkflow handles POST /api/workflows/{id}/run for manual workflows.
//
//	@Summary	Run a manual workflow
//	@Tags		workflows
//	@Produce	json
//	@Param		id	path		string	true	"Workflow id"
//	@Success	200	{object}	map[string][]object
//	@Failure	400	{object}	errResponse	"Not a manual workflow"
//	@Failure	404	{object}	errResponse
//	@Security	BearerAuth
//	@Router		/workflows/{id}/run [post]
func (h *Handler) RunWorkflow(w http.ResponseWriter, r *http.Request) {
	created, err := h.Workflows.Run(r.Context(), chi.URLParam(r, "id"), actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": created})
}
