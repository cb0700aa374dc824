package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/synergy/internal/auth"
	"github.com/starford/synergy/internal/lifecycle"
	"github.com/starford/synergy/internal/social"
	"github.com/starford/synergy/internal/sse"
	"github.com/starford/synergy/internal/store"
	"github.com/starford/synergy/internal/workflow"
)

// Notifier receives a change after each successful write.
type Notifier interface {
	PublishChange(c sse.Change)
}

// Deps are the services the handlers call.
type Deps struct {
	Store     store.Gateway
	Lifecycle *lifecycle.Manager
	Auth      *auth.Service
	Social    *social.Service
	Workflows *workflow.Engine
	Events    Notifier
}

// Handler holds API route handlers.
type Handler struct {
	Deps
}

// NewHandler creates a new Handler.
func NewHandler(d Deps) *Handler {
	return &Handler{Deps: d}
}

func (h *Handler) notify(entity, kind, id, workspaceID string) {
	if h.Events == nil {
		return
	}
	h.Events.PublishChange(sse.Change{Entity: entity, Kind: kind, ID: id, WorkspaceID: workspaceID})
}

// NewRouter creates a chi router with all API routes mounted.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(d Deps, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(d)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Post("/auth/signup", h.SignUp)
	r.Post("/auth/login", h.Login)

	r.Route("/workspaces", func(r chi.Router) {
		r.Get("/", h.ListWorkspaces)
		r.Post("/", h.CreateWorkspace)
		r.Route("/{ws}", func(r chi.Router) {
			r.Get("/", h.GetWorkspace)
			r.Patch("/", h.UpdateWorkspace)
			r.Delete("/", h.DeleteWorkspace)

			r.Get("/items", h.ListItems)
			r.Post("/items", h.CreateItem)
			r.Get("/board", h.Board)
			r.Get("/search", h.Search)
			r.Get("/notes", h.VisibleNotes)

			r.Get("/chats", h.ListChatSessions)
			r.Post("/chats", h.CreateChatSession)
			r.Get("/images", h.ListSavedImages)
			r.Post("/images", h.UploadImage)

			r.Get("/workflows", h.ListWorkflows)
			r.Post("/workflows", h.SaveWorkflow)

			r.Get("/folders", h.ListFolders)
			r.Post("/folders", h.CreateFolder)
		})
	})

	r.Route("/items/{id}", func(r chi.Router) {
		r.Get("/", h.GetItem)
		r.Put("/", h.UpdateItem)
		r.Delete("/", h.DeleteItem)
		r.Post("/move", h.MoveNote)
		r.Post("/share", h.ShareNote)
	})

	r.Route("/chats/{id}", func(r chi.Router) {
		r.Get("/", h.GetChatSession)
		r.Put("/", h.UpdateChatSession)
		r.Delete("/", h.DeleteChatSession)
		r.Post("/move", h.MoveChatSession)
	})

	r.Route("/images/{id}", func(r chi.Router) {
		r.Get("/", h.GetSavedImage)
		r.Get("/raw", h.ServeImage)
		r.Put("/", h.UpdateSavedImage)
		r.Delete("/", h.DeleteSavedImage)
		r.Post("/move", h.MoveSavedImage)
	})

	r.Route("/workflows/{id}", func(r chi.Router) {
		r.Put("/", h.UpdateWorkflow)
		r.Delete("/", h.DeleteWorkflow)
		r.Post("/run", h.RunWorkflow)
	})

	r.Route("/folders/{id}", func(r chi.Router) {
		r.Patch("/", h.RenameFolder)
		r.Delete("/", h.DeleteFolder)
	})

	r.Get("/statuses", h.GetStatuses)
	r.Put("/statuses", h.SaveStatuses)

	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.ListUsers)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetUser)
			r.Delete("/", h.DeleteUser)
			r.Put("/password", h.ChangePassword)
			r.Get("/friends", h.ListFriends)
			r.Delete("/friends/{friend}", h.RemoveFriend)
			r.Get("/invitations", h.PendingInvitations)
		})
	})

	r.Route("/invitations", func(r chi.Router) {
		r.Post("/", h.SendInvitation)
		r.Post("/{id}/accept", h.AcceptInvitation)
		r.Post("/{id}/decline", h.DeclineInvitation)
	})

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
