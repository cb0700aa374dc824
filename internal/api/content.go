package api

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/synergy/internal/apperr"
	"github.com/starford/synergy/internal/lifecycle"
	"github.com/starford/synergy/internal/models"
	"github.com/starford/synergy/internal/sse"
)

const maxUploadBytes = 20 << 20 // 20 MB

// ListChatSessions handles GET /api/workspaces/{ws}/chats, newest first.
func (h *Handler) ListChatSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.Store.ListChatSessions(r.Context(), chi.URLParam(r, "ws"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// CreateChatSession handles POST /api/workspaces/{ws}/chats.
func (h *Handler) CreateChatSession(w http.ResponseWriter, r *http.Request) {
	var s models.ChatSession
	if err := decodeJSON(w, r, &s); err != nil {
		writeError(w, r, err)
		return
	}
	ws := chi.URLParam(r, "ws")
	if _, err := h.Lifecycle.Workspace(r.Context(), ws); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Lifecycle.CheckFolder(r.Context(), s.FolderID, models.FolderChat, ws); err != nil {
		writeError(w, r, err)
		return
	}
	s.ID = lifecycle.NewID("chat")
	s.WorkspaceID = ws
	s.CreatedAt = time.Now().UTC()
	if s.History == nil {
		s.History = []models.ChatMessage{}
	}
	if err := h.Store.SaveChatSession(r.Context(), &s); err != nil {
		writeError(w, r, err)
		return
	}
	h.notify("chat_session", sse.KindSaved, s.ID, s.WorkspaceID)
	writeJSON(w, http.StatusCreated, &s)
}

// GetChatSession handles GET /api/chats/{id}.
func (h *Handler) GetChatSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s, err := h.Store.GetChatSession(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if s == nil {
		writeError(w, r, fmt.Errorf("chat session %q: %w", id, apperr.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// UpdateChatSession handles PUT /api/chats/{id}, replacing title and history.
func (h *Handler) UpdateChatSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req models.ChatSession
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s, err := h.Store.GetChatSession(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if s == nil {
		writeError(w, r, fmt.Errorf("chat session %q: %w", id, apperr.ErrNotFound))
		return
	}
	s.Title = req.Title
	if req.History != nil {
		s.History = req.History
	}
	if err := h.Store.SaveChatSession(r.Context(), s); err != nil {
		writeError(w, r, err)
		return
	}
	h.notify("chat_session", sse.KindSaved, s.ID, s.WorkspaceID)
	writeJSON(w, http.StatusOK, s)
}

// DeleteChatSession handles DELETE /api/chats/{id}.
func (h *Handler) DeleteChatSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s, err := h.Store.GetChatSession(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Store.DeleteChatSession(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	if s != nil {
		h.notify("chat_session", sse.KindDeleted, id, s.WorkspaceID)
	}
	w.WriteHeader(http.StatusNoContent)
}

// MoveChatSession handles POST /api/chats/{id}/move.
func (h *Handler) MoveChatSession(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s, err := h.Lifecycle.MoveChatSession(r.Context(), chi.URLParam(r, "id"), req.FolderID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.notify("chat_session", sse.KindSaved, s.ID, s.WorkspaceID)
	writeJSON(w, http.StatusOK, s)
}

// ListSavedImages handles GET /api/workspaces/{ws}/images, newest first.
func (h *Handler) ListSavedImages(w http.ResponseWriter, r *http.Request) {
	images, err := h.Store.ListSavedImages(r.Context(), chi.URLParam(r, "ws"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, images)
}

// UploadImage handles POST /api/workspaces/{ws}/images (multipart/form-data,
// field "file", optional field "folder_id").
//
//	@Summary	Add an image to the workspace gallery
//	@Tags		images
//	@Accept		mpfd
//	@Produce	json
//	@Param		ws		path		string	true	"Workspace id"
//	@Param		file	formData	file	true	"Image file"
//	@Success	201		{object}	models.SavedImage
//	@Failure	400		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/workspaces/{ws}/images [post]
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	ws := chi.URLParam(r, "ws")
	if _, err := h.Lifecycle.Workspace(r.Context(), ws); err != nil {
		writeError(w, r, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}
	mime := header.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mime, "image/") {
		writeJSON(w, http.StatusBadRequest, errorBody("not an image: "+mime))
		return
	}

	var folderID *string
	if folder := r.FormValue("folder_id"); folder != "" {
		folderID = &folder
	}
	if err := h.Lifecycle.CheckFolder(r.Context(), folderID, models.FolderImage, ws); err != nil {
		writeError(w, r, err)
		return
	}

	img := &models.SavedImage{
		ID:          lifecycle.NewID("img"),
		Name:        filepath.Base(header.Filename),
		Data:        base64.StdEncoding.EncodeToString(data),
		MimeType:    mime,
		CreatedAt:   time.Now().UTC(),
		WorkspaceID: ws,
		FolderID:    folderID,
	}
	if err := h.Store.SaveSavedImage(r.Context(), img); err != nil {
		writeError(w, r, err)
		return
	}
	h.notify("saved_image", sse.KindSaved, img.ID, img.WorkspaceID)
	writeJSON(w, http.StatusCreated, img)
}

func (h *Handler) image(r *http.Request) (*models.SavedImage, error) {
	id := chi.URLParam(r, "id")
	img, err := h.Store.GetSavedImage(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if img == nil {
		return nil, fmt.Errorf("image %q: %w", id, apperr.ErrNotFound)
	}
	return img, nil
}

// GetSavedImage handles GET /api/images/{id}.
func (h *Handler) GetSavedImage(w http.ResponseWriter, r *http.Request) {
	img, err := h.image(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, img)
}

// ServeImage handles GET /api/images/{id}/raw, resolving image:<id>
// references in note content to the decoded bytes.
func (h *Handler) ServeImage(w http.ResponseWriter, r *http.Request) {
	img, err := h.image(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	data, err := base64.StdEncoding.DecodeString(img.Data)
	if err != nil {
		writeError(w, r, fmt.Errorf("decode image %q: %w", img.ID, err))
		return
	}
	w.Header().Set("Content-Type", img.MimeType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// UpdateSavedImage handles PUT /api/images/{id}; only the name is editable.
func (h *Handler) UpdateSavedImage(w http.ResponseWriter, r *http.Request) {
	var req models.SavedImage
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	img, err := h.image(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, r, fmt.Errorf("%w: name is empty", apperr.ErrInvalidInput))
		return
	}
	img.Name = strings.TrimSpace(req.Name)
	if err := h.Store.SaveSavedImage(r.Context(), img); err != nil {
		writeError(w, r, err)
		return
	}
	h.notify("saved_image", sse.KindSaved, img.ID, img.WorkspaceID)
	writeJSON(w, http.StatusOK, img)
}

// DeleteSavedImage handles DELETE /api/images/{id}.
func (h *Handler) DeleteSavedImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	img, err := h.Store.GetSavedImage(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Store.DeleteSavedImage(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	if img != nil {
		h.notify("saved_image", sse.KindDeleted, id, img.WorkspaceID)
	}
	w.WriteHeader(http.StatusNoContent)
}

// MoveSavedImage handles POST /api/images/{id}/move.
func (h *Handler) MoveSavedImage(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	img, err := h.Lifecycle.MoveSavedImage(r.Context(), chi.URLParam(r, "id"), req.FolderID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.notify("saved_image", sse.KindSaved, img.ID, img.WorkspaceID)
	writeJSON(w, http.StatusOK, img)
}
