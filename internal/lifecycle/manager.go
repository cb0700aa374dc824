// Package lifecycle seeds first-run data and runs the multi-store procedures
// that the persistence gateway cannot express as a single call.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/starford/synergy/internal/apperr"
	"github.com/starford/synergy/internal/models"
	"github.com/starford/synergy/internal/store"
)

// Storage is the gateway plus the ability to open it.
type Storage interface {
	store.Gateway
	Open(ctx context.Context) error
}

// Config controls first-run seeding.
type Config struct {
	AdminUsername string
	AdminPassword string
	WorkspaceName string
}

// DefaultWorkspaceName is used when Config.WorkspaceName is empty.
const DefaultWorkspaceName = "My Workspace"

// Manager owns workspace and folder lifecycles.
type Manager struct {
	db     Storage
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	// mu serialises bootstrap and the last-workspace check with its delete.
	mu sync.Mutex
}

// New returns a Manager over db.
func New(db Storage, cfg Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.WorkspaceName == "" {
		cfg.WorkspaceName = DefaultWorkspaceName
	}
	return &Manager{db: db, cfg: cfg, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// NewID returns a fresh identifier with the given prefix, e.g. "ws_<uuid>".
func NewID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// Open opens storage and bootstraps it. Both failures are fatal and reported
// as *apperr.InitError.
func (m *Manager) Open(ctx context.Context) error {
	if err := m.db.Open(ctx); err != nil {
		return err
	}
	if err := m.Bootstrap(ctx); err != nil {
		return &apperr.InitError{Op: "bootstrap", Err: err}
	}
	return nil
}

// Bootstrap makes sure the admin account, at least one workspace and the
// status list exist. Running it again changes nothing.
func (m *Manager) Bootstrap(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.seedAdmin(ctx); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if err := m.ensureWorkspace(ctx); err != nil {
		return fmt.Errorf("seed workspace: %w", err)
	}
	if err := m.ensureStatuses(ctx); err != nil {
		return fmt.Errorf("seed statuses: %w", err)
	}
	return nil
}

func (m *Manager) seedAdmin(ctx context.Context) error {
	if m.cfg.AdminUsername == "" {
		return nil
	}
	existing, err := m.db.GetUserByUsername(ctx, m.cfg.AdminUsername)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	if m.cfg.AdminPassword == "" {
		return fmt.Errorf("%w: admin password is empty", apperr.ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(m.cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := &models.User{
		ID:           NewID("user"),
		Username:     m.cfg.AdminUsername,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		CreatedAt:    m.now(),
		Friends:      []string{},
	}
	if err := m.db.SaveUser(ctx, admin); err != nil {
		return err
	}
	m.logger.Info("lifecycle: admin seeded", slog.String("username", admin.Username))
	return nil
}

func (m *Manager) ensureWorkspace(ctx context.Context) error {
	wss, err := m.db.ListWorkspaces(ctx)
	if err != nil {
		return err
	}
	if len(wss) > 0 {
		return nil
	}
	ws, err := m.createWorkspace(ctx, m.cfg.WorkspaceName)
	if err != nil {
		return err
	}
	m.logger.Info("lifecycle: default workspace created", slog.String("workspace_id", ws.ID))
	return nil
}

func (m *Manager) ensureStatuses(ctx context.Context) error {
	statuses, err := m.db.GetStatuses(ctx)
	if err != nil {
		return err
	}
	if statuses != nil {
		return nil
	}
	return m.db.SaveStatuses(ctx, models.DefaultStatuses())
}

// CreateWorkspace adds a workspace with the default dashboard.
func (m *Manager) CreateWorkspace(ctx context.Context, name string) (*models.Workspace, error) {
	return m.createWorkspace(ctx, name)
}

func (m *Manager) createWorkspace(ctx context.Context, name string) (*models.Workspace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: workspace name is empty", apperr.ErrInvalidInput)
	}
	ws := &models.Workspace{
		ID:               NewID("ws"),
		Name:             name,
		CreatedAt:        m.now(),
		DashboardWidgets: models.DefaultWidgets(),
	}
	if err := m.db.SaveWorkspace(ctx, ws); err != nil {
		return nil, err
	}
	return ws, nil
}

// RenameWorkspace changes a workspace's name.
func (m *Manager) RenameWorkspace(ctx context.Context, id, name string) (*models.Workspace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: workspace name is empty", apperr.ErrInvalidInput)
	}
	ws, err := m.Workspace(ctx, id)
	if err != nil {
		return nil, err
	}
	ws.Name = name
	if err := m.db.SaveWorkspace(ctx, ws); err != nil {
		return nil, err
	}
	return ws, nil
}

// SetWidgets replaces a workspace's dashboard. A nil slice restores defaults.
func (m *Manager) SetWidgets(ctx context.Context, id string, widgets []models.Widget) (*models.Workspace, error) {
	ws, err := m.Workspace(ctx, id)
	if err != nil {
		return nil, err
	}
	ws.DashboardWidgets = widgets
	if err := m.db.SaveWorkspace(ctx, ws); err != nil {
		return nil, err
	}
	return ws, nil
}

// DeleteWorkspace removes a workspace and everything scoped to it. The last
// remaining workspace cannot be deleted.
func (m *Manager) DeleteWorkspace(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	wss, err := m.db.ListWorkspaces(ctx)
	if err != nil {
		return err
	}
	found := false
	for _, ws := range wss {
		if ws.ID == id {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("workspace %q: %w", id, apperr.ErrNotFound)
	}
	if len(wss) <= 1 {
		return apperr.ErrLastWorkspace
	}
	return m.db.DeleteWorkspace(ctx, id)
}

// Workspace returns the workspace named id, or apperr.ErrNotFound.
func (m *Manager) Workspace(ctx context.Context, id string) (*models.Workspace, error) {
	return RequireWorkspace(ctx, m.db, id)
}
