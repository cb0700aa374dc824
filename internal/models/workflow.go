package models

import "time"

// TriggerType selects when a workflow runs.
type TriggerType string

// Workflow triggers.
const (
	TriggerManual      TriggerType = "manual"
	TriggerTaskCreated TriggerType = "task_created"
)

// TriggerConfig holds trigger parameters.
type TriggerConfig struct {
	TitleKeywords string `json:"title_keywords,omitempty"` // task_created only
}

// WorkflowTrigger is the tagged trigger of a workflow.
type WorkflowTrigger struct {
	Type   TriggerType   `json:"type"`
	Config TriggerConfig `json:"config"`
}

// ActionType selects what a workflow action creates.
type ActionType string

// Workflow actions.
const (
	ActionCreateTask ActionType = "create_task"
	ActionCreateNote ActionType = "create_note"
)

// ActionConfig is the template an action instantiates. String fields may
// contain {{trigger.title}}.
type ActionConfig struct {
	Title             string `json:"title"`
	Description       string `json:"description,omitempty"`
	Content           string `json:"content,omitempty"`
	Status            string `json:"status,omitempty"`
	DueDateOffsetDays *int   `json:"due_date_offset_days,omitempty"`
}

// WorkflowAction is one step of a workflow.
type WorkflowAction struct {
	ID     string       `json:"id"`
	Type   ActionType   `json:"type"`
	Config ActionConfig `json:"config"`
}

// Workflow is a user-defined automation.
type Workflow struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Trigger     WorkflowTrigger  `json:"trigger"`
	Actions     []WorkflowAction `json:"actions"`
	CreatedAt   time.Time        `json:"created_at"`
	WorkspaceID string           `json:"workspace_id"`
}
