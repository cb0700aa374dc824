package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/synergy/internal/lifecycle"
	"github.com/starford/synergy/internal/models"
	"github.com/starford/synergy/internal/store"
	"github.com/starford/synergy/internal/testutil"
	"github.com/starford/synergy/internal/workflow"
)

func testServer(t *testing.T) (*Server, *store.DB, string) {
	t.Helper()
	db := testutil.TestStore(t)
	logger := testutil.Logger()
	if err := lifecycle.New(db, lifecycle.Config{}, logger).Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	wss, err := db.ListWorkspaces(context.Background())
	if err != nil || len(wss) != 1 {
		t.Fatalf("ListWorkspaces = %v, %v", wss, err)
	}
	return New(db, workflow.NewEngine(db, logger), "test"), db, wss[0].ID
}

// callTool invokes a handler directly; mcp-go has no in-process call helper.
func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"list_workspaces": srv.listWorkspaces,
		"list_tasks":      srv.listTasks,
		"create_task":     srv.createTask,
		"list_notes":      srv.listNotes,
		"search_items":    srv.searchItems,
		"read_note":       srv.readNote,
		"create_note":     srv.createNote,
	}
	h, ok := handlers[name]
	if !ok {
		t.Fatalf("unknown tool: %s", name)
	}
	result, err := h(ctx, req)
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListWorkspaces(t *testing.T) {
	srv, _, ws := testServer(t)
	text := resultText(callTool(t, srv, "list_workspaces", nil))
	if !strings.Contains(text, ws) || !strings.Contains(text, lifecycle.DefaultWorkspaceName) {
		t.Errorf("list_workspaces = %q", text)
	}
}

func TestCreateAndListTasks(t *testing.T) {
	srv, _, ws := testServer(t)

	r := callTool(t, srv, "create_task", map[string]any{
		"workspace_id": ws,
		"title":        "Write report",
		"due_date":     "2024-06-30",
		"status":       "Done",
	})
	if r.IsError {
		t.Fatalf("create_task: %s", resultText(r))
	}

	r = callTool(t, srv, "list_tasks", map[string]any{"workspace_id": ws, "status": "Done"})
	var got struct {
		Statuses []string       `json:"statuses"`
		Tasks    []*models.Task `json:"tasks"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Tasks) != 1 || got.Tasks[0].Title != "Write report" {
		t.Fatalf("tasks = %+v", got.Tasks)
	}
	if got.Tasks[0].DueDate == nil || got.Tasks[0].DueDate.Day() != 30 {
		t.Errorf("due = %v", got.Tasks[0].DueDate)
	}
	if got.Tasks[0].CreatedBy != models.SystemUserID {
		t.Errorf("created_by = %q", got.Tasks[0].CreatedBy)
	}
	if len(got.Statuses) != len(models.DefaultStatuses()) {
		t.Errorf("statuses = %v", got.Statuses)
	}
}

func TestCreateTask_Rejections(t *testing.T) {
	srv, _, ws := testServer(t)

	cases := []map[string]any{
		{"workspace_id": "ws_missing", "title": "x"},
		{"workspace_id": ws},
		{"workspace_id": ws, "title": "x", "status": "Someday"},
		{"workspace_id": ws, "title": "x", "due_date": "next week"},
	}
	for _, args := range cases {
		if r := callTool(t, srv, "create_task", args); !r.IsError {
			t.Errorf("args %v: expected tool error, got %q", args, resultText(r))
		}
	}
}

func TestCreateAndReadNote(t *testing.T) {
	srv, _, ws := testServer(t)

	r := callTool(t, srv, "create_note", map[string]any{
		"workspace_id": ws,
		"title":        "Test",
		"content":      "# Test\nHello",
	})
	text := resultText(r)
	if r.IsError || !strings.HasPrefix(text, "created: note_") {
		t.Fatalf("create result = %q", text)
	}
	id := strings.TrimPrefix(text, "created: ")

	if text := resultText(callTool(t, srv, "read_note", map[string]any{"id": id})); text != "# Test\nHello" {
		t.Errorf("read result = %q", text)
	}

	list := resultText(callTool(t, srv, "list_notes", map[string]any{"workspace_id": ws}))
	if list != id+"\tTest" {
		t.Errorf("list = %q", list)
	}
}

func TestListNotes_FolderFilter(t *testing.T) {
	srv, db, ws := testServer(t)
	folder := "folder_1"
	if err := db.SaveFolder(context.Background(), &models.Folder{ID: folder, Name: "Filed", Type: models.FolderNote, WorkspaceID: ws}); err != nil {
		t.Fatal(err)
	}
	n := &models.Note{
		BaseItem: models.BaseItem{ID: "n1", Type: models.ItemNote, Title: "Filed", WorkspaceID: ws},
		FolderID: &folder,
	}
	if err := db.SaveItem(context.Background(), n); err != nil {
		t.Fatal(err)
	}

	if text := resultText(callTool(t, srv, "list_notes", map[string]any{"workspace_id": ws, "folder_id": "other"})); text != "no notes found" {
		t.Errorf("other folder = %q", text)
	}
	if text := resultText(callTool(t, srv, "list_notes", map[string]any{"workspace_id": ws, "folder_id": folder})); text != "n1\tFiled" {
		t.Errorf("folder = %q", text)
	}
}

func TestReadNote_MissingOrTask(t *testing.T) {
	srv, _, ws := testServer(t)
	r := callTool(t, srv, "read_note", map[string]any{"id": "nope"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}

	r = callTool(t, srv, "create_task", map[string]any{"workspace_id": ws, "title": "a task"})
	var created []json.RawMessage
	if err := json.Unmarshal([]byte(resultText(r)), &created); err != nil || len(created) != 1 {
		t.Fatalf("created = %s, %v", resultText(r), err)
	}
	it, err := models.DecodeItem(created[0])
	if err != nil {
		t.Fatal(err)
	}
	if r := callTool(t, srv, "read_note", map[string]any{"id": it.Base().ID}); !r.IsError {
		t.Error("expected error reading a task as a note")
	}
}

func TestSearchItems(t *testing.T) {
	srv, _, ws := testServer(t)
	_ = callTool(t, srv, "create_note", map[string]any{"workspace_id": ws, "title": "Trip", "content": "pack the passport"})
	_ = callTool(t, srv, "create_task", map[string]any{"workspace_id": ws, "title": "Renew passport"})
	_ = callTool(t, srv, "create_task", map[string]any{"workspace_id": ws, "title": "Unrelated"})

	r := callTool(t, srv, "search_items", map[string]any{"workspace_id": ws, "query": "Passport"})
	var hits []json.RawMessage
	if err := json.Unmarshal([]byte(resultText(r)), &hits); err != nil {
		t.Fatalf("decode %q: %v", resultText(r), err)
	}
	if len(hits) != 2 {
		t.Errorf("hits = %d, want 2", len(hits))
	}
}
