// Package models defines the domain types for Synergy.
package models

import "time"

// WidgetType identifies a dashboard widget kind.
type WidgetType string

// Dashboard widget kinds.
const (
	WidgetPomodoro        WidgetType = "pomodoro"
	WidgetQuote           WidgetType = "quote"
	WidgetStreak          WidgetType = "streak"
	WidgetTaskStats       WidgetType = "task_stats"
	WidgetStatusChart     WidgetType = "status_chart"
	WidgetCompletionChart WidgetType = "completion_chart"
	WidgetUpcomingTasks   WidgetType = "upcoming_tasks"
	WidgetRecentNotes     WidgetType = "recent_notes"
)

// Widget is one entry of a workspace dashboard.
type Widget struct {
	ID   string     `json:"id"`
	Type WidgetType `json:"type"`
}

// DefaultWidgets returns the dashboard layout used when a workspace has none.
func DefaultWidgets() []Widget {
	return []Widget{
		{ID: "widget_default_1", Type: WidgetTaskStats},
		{ID: "widget_default_2", Type: WidgetStatusChart},
		{ID: "widget_default_3", Type: WidgetUpcomingTasks},
		{ID: "widget_default_4", Type: WidgetRecentNotes},
		{ID: "widget_default_5", Type: WidgetStreak},
		{ID: "widget_default_6", Type: WidgetQuote},
		{ID: "widget_default_7", Type: WidgetPomodoro},
	}
}

// Workspace is the top-level container scoping all user content.
//
// A nil DashboardWidgets means "use defaults"; an empty non-nil slice means
// the user removed every widget.
type Workspace struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	CreatedAt        time.Time `json:"created_at"`
	DashboardWidgets []Widget  `json:"dashboard_widgets"`
}

// Widgets returns the workspace widgets, falling back to DefaultWidgets.
func (w *Workspace) Widgets() []Widget {
	if w.DashboardWidgets == nil {
		return DefaultWidgets()
	}
	return w.DashboardWidgets
}

// FolderType is the kind of content a folder holds.
type FolderType string

// Folder kinds. Folders are never shared across kinds.
const (
	FolderNote  FolderType = "note"
	FolderChat  FolderType = "chat"
	FolderImage FolderType = "image"
)

// Valid reports whether t is a known folder type.
func (t FolderType) Valid() bool {
	switch t {
	case FolderNote, FolderChat, FolderImage:
		return true
	}
	return false
}

// Folder groups notes, chat sessions or images inside a workspace.
type Folder struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Type        FolderType `json:"type"`
	WorkspaceID string     `json:"workspace_id"`
	CreatedAt   time.Time  `json:"created_at"`
}
