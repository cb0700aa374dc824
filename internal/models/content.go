package models

import "time"

// Role is the author of a chat message.
type Role string

// Chat roles.
const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// InlineData is binary content embedded in a chat message.
type InlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"` // base64
}

// MessagePart is either text or inline binary data.
type MessagePart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inline_data,omitempty"`
}

// ChatMessage is one turn of a chat transcript.
type ChatMessage struct {
	Role  Role          `json:"role"`
	Parts []MessagePart `json:"parts"`
}

// ChatSession is a persisted conversation with the assistant.
type ChatSession struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	History     []ChatMessage `json:"history"`
	CreatedAt   time.Time     `json:"created_at"`
	WorkspaceID string        `json:"workspace_id"`
	FolderID    *string       `json:"folder_id"`
}

// SavedImage is an image kept in the workspace gallery.
type SavedImage struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Data        string    `json:"data"` // base64
	MimeType    string    `json:"mime_type"`
	CreatedAt   time.Time `json:"created_at"`
	WorkspaceID string    `json:"workspace_id"`
	FolderID    *string   `json:"folder_id"`
}
