package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ItemType discriminates the Item variants stored in the items store.
type ItemType string

// Item kinds. Tasks and events share the Task shape.
const (
	ItemTask  ItemType = "task"
	ItemEvent ItemType = "event"
	ItemNote  ItemType = "note"
)

// IsTask reports whether t uses the Task shape.
func (t ItemType) IsTask() bool {
	return t == ItemTask || t == ItemEvent
}

// SystemUserID is recorded as creator/owner of records that predate accounts.
const SystemUserID = "system"

// Item is either a *Task or a *Note.
type Item interface {
	Base() *BaseItem
}

// BaseItem holds the fields shared by every Item variant.
type BaseItem struct {
	ID          string   `json:"id"`
	Type        ItemType `json:"type"`
	Title       string   `json:"title"`
	WorkspaceID string   `json:"workspace_id"`
}

// Base returns the shared fields.
func (b *BaseItem) Base() *BaseItem { return b }

// Task is a task or calendar event.
type Task struct {
	BaseItem
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"due_date"`
	ImageID     string     `json:"image_id,omitempty"`
	CreatedBy   string     `json:"created_by"`
	AssignedTo  []string   `json:"assigned_to"`
}

// Note is a markdown note. Content may reference saved images as image:<id>.
type Note struct {
	BaseItem
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	FolderID   *string   `json:"folder_id"`
	OwnerID    string    `json:"owner_id"`
	SharedWith []string  `json:"shared_with"`
}

// VisibleTo reports whether userID owns the note or has it shared with them.
func (n *Note) VisibleTo(userID string) bool {
	if n.OwnerID == userID {
		return true
	}
	for _, id := range n.SharedWith {
		if id == userID {
			return true
		}
	}
	return false
}

var (
	_ Item = (*Task)(nil)
	_ Item = (*Note)(nil)
)

// DecodeItem decodes a JSON document into the variant named by its type tag.
func DecodeItem(data []byte) (Item, error) {
	var tag struct {
		Type ItemType `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	var it Item
	switch {
	case tag.Type.IsTask():
		it = &Task{}
	case tag.Type == ItemNote:
		it = &Note{}
	default:
		return nil, fmt.Errorf("decode item: unknown type %q", tag.Type)
	}
	if err := json.Unmarshal(data, it); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	return it, nil
}

// StatusUnknown groups tasks whose status is no longer configured.
const StatusUnknown = "unknown"

// DefaultStatuses is the kanban vocabulary seeded on first run.
func DefaultStatuses() []string {
	return []string{"To Do", "In Progress", "Done"}
}

// GroupByStatus buckets tasks by status. Tasks with a stale status land in
// StatusUnknown; their stored status is left untouched.
func GroupByStatus(tasks []*Task, statuses []string) map[string][]*Task {
	known := make(map[string]struct{}, len(statuses))
	out := make(map[string][]*Task, len(statuses)+1)
	for _, s := range statuses {
		known[s] = struct{}{}
		out[s] = []*Task{}
	}
	for _, t := range tasks {
		key := t.Status
		if _, ok := known[key]; !ok {
			key = StatusUnknown
		}
		out[key] = append(out[key], t)
	}
	return out
}
