// Package workflow creates items and runs user-defined automations.
//
// Items created through the Engine fire TaskCreated workflows. Items created
// by a workflow action never do, so workflows cannot trigger each other.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/synergy/internal/apperr"
	"github.com/starford/synergy/internal/lifecycle"
	"github.com/starford/synergy/internal/models"
	"github.com/starford/synergy/internal/store"
)

// TriggerTitle is the placeholder replaced by the triggering item's title.
const TriggerTitle = "{{trigger.title}}"

// Listener is told about every item the engine creates.
type Listener func(item models.Item)

// Engine creates items and executes workflows.
type Engine struct {
	db       store.Gateway
	logger   *slog.Logger
	now      func() time.Time
	listener Listener
}

// NewEngine returns an Engine.
func NewEngine(db store.Gateway, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{db: db, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// OnCreate registers fn to be called after each item the engine saves.
func (e *Engine) OnCreate(fn Listener) {
	e.listener = fn
}

// AddItem fills in the identity and defaults of a new item, saves it into
// workspaceID on behalf of actorID, then runs matching TaskCreated workflows.
// It returns the saved item followed by anything the workflows created.
func (e *Engine) AddItem(ctx context.Context, workspaceID, actorID string, item models.Item) ([]models.Item, error) {
	if err := e.add(ctx, workspaceID, actorID, item); err != nil {
		return nil, err
	}
	created := []models.Item{item}
	more, err := e.OnItemCreated(ctx, actorID, item)
	created = append(created, more...)
	if err != nil {
		return created, err
	}
	return created, nil
}

func (e *Engine) add(ctx context.Context, workspaceID, actorID string, item models.Item) error {
	if item == nil {
		return fmt.Errorf("%w: nil item", apperr.ErrInvalidInput)
	}
	b := item.Base()
	if strings.TrimSpace(b.Title) == "" {
		return fmt.Errorf("%w: title is empty", apperr.ErrInvalidInput)
	}
	if _, err := lifecycle.RequireWorkspace(ctx, e.db, workspaceID); err != nil {
		return err
	}
	b.WorkspaceID = workspaceID

	switch it := item.(type) {
	case *models.Task:
		if b.Type == "" {
			b.Type = models.ItemTask
		}
		if b.ID == "" {
			b.ID = lifecycle.NewID("task")
		}
		if it.Status == "" {
			status, err := e.firstStatus(ctx)
			if err != nil {
				return err
			}
			it.Status = status
		}
		if it.CreatedBy == "" {
			it.CreatedBy = actorID
		}
		if it.AssignedTo == nil {
			it.AssignedTo = []string{}
		}
	case *models.Note:
		b.Type = models.ItemNote
		if b.ID == "" {
			b.ID = lifecycle.NewID("note")
		}
		if it.CreatedAt.IsZero() {
			it.CreatedAt = e.now()
		}
		if it.OwnerID == "" {
			it.OwnerID = actorID
		}
		if it.SharedWith == nil {
			it.SharedWith = []string{}
		}
		if err := lifecycle.CheckFolder(ctx, e.db, it.FolderID, models.FolderNote, workspaceID); err != nil {
			return err
		}
	}

	if err := e.db.SaveItem(ctx, item); err != nil {
		return err
	}
	if e.listener != nil {
		e.listener(item)
	}
	return nil
}

// UpdateItem replaces the stored item id with item. The item keeps its id,
// type family and workspace; a note's folder must exist in that workspace and
// hold notes. Update does not run workflows.
func (e *Engine) UpdateItem(ctx context.Context, id string, item models.Item) error {
	if item == nil {
		return fmt.Errorf("%w: nil item", apperr.ErrInvalidInput)
	}
	cur, err := e.db.GetItem(ctx, id)
	if err != nil {
		return err
	}
	if cur == nil {
		return fmt.Errorf("item %q: %w", id, apperr.ErrNotFound)
	}
	b := item.Base()
	if strings.TrimSpace(b.Title) == "" {
		return fmt.Errorf("%w: title is empty", apperr.ErrInvalidInput)
	}
	if b.Type.IsTask() != cur.Base().Type.IsTask() {
		return fmt.Errorf("%w: item %q cannot change from %s to %s", apperr.ErrInvalidInput, id, cur.Base().Type, b.Type)
	}
	b.ID = id
	b.WorkspaceID = cur.Base().WorkspaceID
	if n, ok := item.(*models.Note); ok {
		if err := lifecycle.CheckFolder(ctx, e.db, n.FolderID, models.FolderNote, b.WorkspaceID); err != nil {
			return err
		}
	}
	return e.db.SaveItem(ctx, item)
}

func (e *Engine) firstStatus(ctx context.Context) (string, error) {
	statuses, err := e.db.GetStatuses(ctx)
	if err != nil {
		return "", err
	}
	if len(statuses) == 0 {
		statuses = models.DefaultStatuses()
	}
	return statuses[0], nil
}

// OnItemCreated runs every TaskCreated workflow of the item's workspace whose
// keyword occurs in the title of a new task or event, ignoring case.
func (e *Engine) OnItemCreated(ctx context.Context, actorID string, item models.Item) ([]models.Item, error) {
	b := item.Base()
	if !b.Type.IsTask() {
		return nil, nil
	}
	wfs, err := e.db.ListWorkflows(ctx, b.WorkspaceID)
	if err != nil {
		return nil, err
	}
	title := strings.ToLower(b.Title)
	var created []models.Item
	for i := range wfs {
		wf := &wfs[i]
		if wf.Trigger.Type != models.TriggerTaskCreated {
			continue
		}
		kw := strings.ToLower(strings.TrimSpace(wf.Trigger.Config.TitleKeywords))
		if kw == "" || !strings.Contains(title, kw) {
			continue
		}
		out, err := e.execute(ctx, wf, actorID, item)
		created = append(created, out...)
		if err != nil {
			return created, fmt.Errorf("workflow %q: %w", wf.ID, err)
		}
	}
	return created, nil
}

// Run executes a manual workflow on behalf of actorID.
func (e *Engine) Run(ctx context.Context, workflowID, actorID string) ([]models.Item, error) {
	wf, err := e.db.GetWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	if wf == nil {
		return nil, fmt.Errorf("workflow %q: %w", workflowID, apperr.ErrNotFound)
	}
	if wf.Trigger.Type != models.TriggerManual {
		return nil, fmt.Errorf("%w: workflow %q is not manual", apperr.ErrInvalidInput, workflowID)
	}
	return e.execute(ctx, wf, actorID, nil)
}

func (e *Engine) execute(ctx context.Context, wf *models.Workflow, actorID string, trigger models.Item) ([]models.Item, error) {
	created := make([]models.Item, 0, len(wf.Actions))
	for _, a := range wf.Actions {
		cfg := render(a.Config, trigger)
		var item models.Item
		switch a.Type {
		case models.ActionCreateTask:
			t := &models.Task{
				BaseItem:    models.BaseItem{Type: models.ItemTask, Title: cfg.Title},
				Description: cfg.Description,
				Status:      cfg.Status,
				CreatedBy:   actorID,
				AssignedTo:  []string{},
			}
			if cfg.DueDateOffsetDays != nil {
				due := e.now().AddDate(0, 0, *cfg.DueDateOffsetDays)
				t.DueDate = &due
			}
			item = t
		case models.ActionCreateNote:
			item = &models.Note{
				BaseItem:   models.BaseItem{Type: models.ItemNote, Title: cfg.Title},
				Content:    cfg.Content,
				OwnerID:    actorID,
				SharedWith: []string{},
			}
		default:
			return created, fmt.Errorf("%w: action type %q", apperr.ErrInvalidInput, a.Type)
		}
		if err := e.add(ctx, wf.WorkspaceID, actorID, item); err != nil {
			return created, fmt.Errorf("action %q: %w", a.ID, err)
		}
		created = append(created, item)
	}
	e.logger.Info("workflow: executed",
		slog.String("workflow_id", wf.ID),
		slog.Bool("manual", trigger == nil),
		slog.Int("created", len(created)))
	return created, nil
}

// render substitutes the trigger title into the config's text fields. With
// no trigger the templates are left as written.
func render(cfg models.ActionConfig, trigger models.Item) models.ActionConfig {
	if trigger == nil {
		return cfg
	}
	title := trigger.Base().Title
	cfg.Title = strings.ReplaceAll(cfg.Title, TriggerTitle, title)
	cfg.Description = strings.ReplaceAll(cfg.Description, TriggerTitle, title)
	cfg.Content = strings.ReplaceAll(cfg.Content, TriggerTitle, title)
	return cfg
}

// SaveWorkflow validates and upserts a workflow, assigning an id and
// creation time to new ones.
func (e *Engine) SaveWorkflow(ctx context.Context, wf *models.Workflow) error {
	if err := validateWorkflow(wf); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	if _, err := lifecycle.RequireWorkspace(ctx, e.db, wf.WorkspaceID); err != nil {
		return err
	}
	if wf.ID == "" {
		wf.ID = lifecycle.NewID("wf")
	}
	if wf.CreatedAt.IsZero() {
		wf.CreatedAt = e.now()
	}
	for i := range wf.Actions {
		if wf.Actions[i].ID == "" {
			wf.Actions[i].ID = lifecycle.NewID("action")
		}
	}
	return e.db.SaveWorkflow(ctx, wf)
}

func validateWorkflow(wf *models.Workflow) error {
	if err := validation.ValidateStruct(wf,
		validation.Field(&wf.Name, validation.Required),
		validation.Field(&wf.WorkspaceID, validation.Required),
		validation.Field(&wf.Actions, validation.Required),
	); err != nil {
		return err
	}
	switch wf.Trigger.Type {
	case models.TriggerManual:
	case models.TriggerTaskCreated:
		if strings.TrimSpace(wf.Trigger.Config.TitleKeywords) == "" {
			return fmt.Errorf("trigger: title keywords are required")
		}
	default:
		return fmt.Errorf("trigger: unknown type %q", wf.Trigger.Type)
	}
	for i := range wf.Actions {
		a := &wf.Actions[i]
		if err := validation.ValidateStruct(a,
			validation.Field(&a.Type, validation.Required, validation.In(models.ActionCreateTask, models.ActionCreateNote)),
		); err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}
		if err := validation.Validate(a.Config.Title, validation.Required); err != nil {
			return fmt.Errorf("action %d: title: %w", i, err)
		}
	}
	return nil
}
