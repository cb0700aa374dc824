// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/synergy/internal/api"
	"github.com/starford/synergy/internal/auth"
	"github.com/starford/synergy/internal/lifecycle"
	"github.com/starford/synergy/internal/mcpserver"
	"github.com/starford/synergy/internal/models"
	"github.com/starford/synergy/internal/social"
	"github.com/starford/synergy/internal/sse"
	"github.com/starford/synergy/internal/storage"
	"github.com/starford/synergy/internal/store"
	"github.com/starford/synergy/internal/vault"
	"github.com/starford/synergy/internal/workflow"
)

const sseThrottle = 2 * time.Second

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev", logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func (a *application) logger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(a.logOutput, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// open opens and bootstraps the database. Failures are *apperr.InitError and
// stop startup.
func (a *application) open(ctx context.Context, logger *slog.Logger) (*store.DB, *lifecycle.Manager, error) {
	db := store.New(a.config.SQLite.Path, logger)
	mgr := lifecycle.New(db, lifecycle.Config{
		AdminUsername: a.config.Bootstrap.AdminUsername,
		AdminPassword: a.config.Bootstrap.AdminPassword,
		WorkspaceName: a.config.Bootstrap.WorkspaceName,
	}, logger)
	if err := mgr.Open(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, mgr, nil
}

func (a *application) vault(db store.Gateway, engine *workflow.Engine, logger *slog.Logger) (*vault.Vault, error) {
	if err := os.MkdirAll(a.config.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}
	files, err := storage.NewFS(a.config.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init vault storage: %w", err)
	}
	return vault.New(db, files, engine, logger), nil
}

// Run starts the HTTP server, and the vault watcher when enabled, until ctx is
// cancelled or a shutdown signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger()

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("vault_path", cfg.Vault.Path),
		slog.Bool("vault_watch", cfg.Vault.Watch),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	db, mgr, err := app.open(ctx, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	broker := sse.NewBroker(sseThrottle)
	defer broker.Close()

	engine := workflow.NewEngine(db, logger)
	engine.OnCreate(func(it models.Item) {
		b := it.Base()
		broker.PublishChange(sse.Change{Entity: "item", Kind: sse.KindSaved, ID: b.ID, WorkspaceID: b.WorkspaceID})
	})

	var vlt *vault.Vault
	if cfg.Vault.Watch {
		if vlt, err = app.vault(db, engine, logger); err != nil {
			return err
		}
		if _, err := vlt.Sync(ctx); err != nil {
			logger.Warn("initial vault sync failed", slog.String("error", err.Error()))
		}
	}

	apiRouter := api.NewRouter(api.Deps{
		Store:     db,
		Lifecycle: mgr,
		Auth:      auth.NewService(db, logger),
		Social:    social.NewService(db, logger),
		Workflows: engine,
		Events:    broker,
	}, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := db.Version(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if vlt != nil {
		g.Go(func() error {
			return vlt.Watch(gCtx, func(n *models.Note) {
				broker.PublishChange(sse.Change{Entity: "item", Kind: sse.KindSaved, ID: n.ID, WorkspaceID: n.WorkspaceID})
			})
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// Migrate opens the database, bringing the schema to the current version,
// and reports the version.
func Migrate(ctx context.Context, opts ...Option) (int, error) {
	app, err := newApplication(opts)
	if err != nil {
		return 0, err
	}
	logger := app.logger()
	db, _, err := app.open(ctx, logger)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	return db.Version(ctx)
}

// Export writes the notes of a workspace to the vault directory. An empty
// workspaceID selects the oldest workspace.
func Export(ctx context.Context, workspaceID string, opts ...Option) ([]string, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	logger := app.logger()
	db, _, err := app.open(ctx, logger)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if workspaceID == "" {
		wss, err := db.ListWorkspaces(ctx)
		if err != nil {
			return nil, err
		}
		workspaceID = wss[0].ID
	}
	vlt, err := app.vault(db, workflow.NewEngine(db, logger), logger)
	if err != nil {
		return nil, err
	}
	return vlt.Export(ctx, workspaceID)
}

// ServeMCP serves the MCP tools on stdio until the client disconnects.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.logger()
	db, _, err := app.open(ctx, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info("mcp: serving on stdio")
	return mcpserver.New(db, workflow.NewEngine(db, logger), app.version).ServeStdio()
}
