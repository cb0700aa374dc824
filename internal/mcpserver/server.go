// Package mcpserver exposes workspaces, tasks and notes to assistant clients
// over the Model Context Protocol on stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/synergy/internal/models"
	"github.com/starford/synergy/internal/store"
)

const contractURI = "synergy://content-contract"

// Creator adds items to a workspace, running any matching workflows.
type Creator interface {
	AddItem(ctx context.Context, workspaceID, actorID string, item models.Item) ([]models.Item, error)
}

// Server wraps the MCP server with Synergy tools.
type Server struct {
	mcp   *server.MCPServer
	db    store.Gateway
	items Creator
}

// New creates a server with every tool registered.
func New(db store.Gateway, items Creator, version string) *Server {
	s := &Server{db: db, items: items}

	s.mcp = server.NewMCPServer(
		"Synergy",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_workspaces",
		mcp.WithDescription("List workspaces, oldest first."),
	), s.listWorkspaces)

	s.mcp.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List the tasks and events of a workspace together with the kanban statuses."),
		mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace id")),
		mcp.WithString("status", mcp.Description("Only tasks with this status")),
	), s.listTasks)

	s.mcp.AddTool(mcp.NewTool("create_task",
		mcp.WithDescription("Create a task. Matching automations run and everything created is returned."),
		mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace id")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Task title")),
		mcp.WithString("description", mcp.Description("Optional description")),
		mcp.WithString("status", mcp.Description("Kanban status; empty for the first one")),
		mcp.WithString("due_date", mcp.Description("YYYY-MM-DD or RFC 3339")),
	), s.createTask)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List note ids and titles in a workspace."),
		mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace id")),
		mcp.WithString("folder_id", mcp.Description("Only notes in this folder")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("search_items",
		mcp.WithDescription("Search task titles and descriptions and note titles and content in a workspace."),
		mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace id")),
		mcp.WithString("query", mcp.Required(), mcp.Description("Text to look for, case-insensitive")),
	), s.searchItems)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the Markdown body of a note."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a Markdown note at the root of a workspace. "+
			"Read the content contract first via get_content_contract or the "+contractURI+" resource."),
		mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace id")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown body")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("get_content_contract",
		mcp.WithDescription("Returns how tasks and notes are structured. Call this before creating content."),
	), s.getContract)

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Content Contract",
			mcp.WithResourceDescription("How Synergy tasks and notes are structured."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

	return s
}

// ServeStdio serves on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listWorkspaces(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	wss, err := s.db.ListWorkspaces(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	type row struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	out := make([]row, 0, len(wss))
	for _, ws := range wss {
		out = append(out, row{ID: ws.ID, Name: ws.Name})
	}
	return jsonResult(out)
}

// workspace resolves the workspace_id argument, reporting a tool error when it
// is missing or unknown.
func (s *Server) workspace(ctx context.Context, req mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	id, err := req.RequireString("workspace_id")
	if err != nil {
		return "", mcp.NewToolResultError(err.Error())
	}
	ws, err := s.db.GetWorkspace(ctx, id)
	if err != nil {
		return "", mcp.NewToolResultError(err.Error())
	}
	if ws == nil {
		return "", mcp.NewToolResultError(fmt.Sprintf("workspace not found: %s", id))
	}
	return id, nil
}

func (s *Server) statuses(ctx context.Context) ([]string, error) {
	statuses, err := s.db.GetStatuses(ctx)
	if err != nil {
		return nil, err
	}
	if statuses == nil {
		statuses = models.DefaultStatuses()
	}
	return statuses, nil
}

func (s *Server) listTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ws, errResult := s.workspace(ctx, req)
	if errResult != nil {
		return errResult, nil
	}
	status := req.GetString("status", "")

	items, err := s.db.ListItems(ctx, ws)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	statuses, err := s.statuses(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tasks := []*models.Task{}
	for _, it := range items {
		if t, ok := it.(*models.Task); ok && (status == "" || t.Status == status) {
			tasks = append(tasks, t)
		}
	}
	return jsonResult(map[string]any{"statuses": statuses, "tasks": tasks})
}

func parseDue(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("due_date %q is neither YYYY-MM-DD nor RFC 3339", s)
}

func (s *Server) createTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ws, errResult := s.workspace(ctx, req)
	if errResult != nil {
		return errResult, nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	due, err := parseDue(req.GetString("due_date", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	status := req.GetString("status", "")
	if status != "" {
		statuses, err := s.statuses(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !slices.Contains(statuses, status) {
			return mcp.NewToolResultError(fmt.Sprintf("unknown status %q; use one of: %s", status, strings.Join(statuses, ", "))), nil
		}
	}

	task := &models.Task{
		BaseItem:    models.BaseItem{Type: models.ItemTask, Title: title},
		Description: req.GetString("description", ""),
		Status:      status,
		DueDate:     due,
	}
	created, err := s.items.AddItem(ctx, ws, models.SystemUserID, task)
	if err != nil && len(created) == 0 {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(created)
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ws, errResult := s.workspace(ctx, req)
	if errResult != nil {
		return errResult, nil
	}
	folder := req.GetString("folder_id", "")

	items, err := s.db.ListItems(ctx, ws)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var lines []string
	for _, it := range items {
		n, ok := it.(*models.Note)
		if !ok || (folder != "" && (n.FolderID == nil || *n.FolderID != folder)) {
			continue
		}
		lines = append(lines, n.ID+"\t"+n.Title)
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("no notes found"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) searchItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ws, errResult := s.workspace(ctx, req)
	if errResult != nil {
		return errResult, nil
	}
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	items, err := s.db.SearchItems(ctx, ws, query, store.DefaultSearchLimit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(items)
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	it, err := s.db.GetItem(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, ok := it.(*models.Note)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("note not found: %s", id)), nil
	}
	return mcp.NewToolResultText(n.Content), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ws, errResult := s.workspace(ctx, req)
	if errResult != nil {
		return errResult, nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	note := &models.Note{BaseItem: models.BaseItem{Type: models.ItemNote, Title: title}, Content: content}
	if _, err := s.items.AddItem(ctx, ws, models.SystemUserID, note); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", note.ID)), nil
}

func (s *Server) getContract(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ContentContract), nil
}

func (s *Server) readContractResource(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     ContentContract,
		},
	}, nil
}
