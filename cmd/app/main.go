package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/synergy/internal"
	pkgconfig "github.com/starford/synergy/pkg/config"
)

const (
	defaultConfigFile = "config/config.yaml"
	version           = "0.1.0"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadWithDefaults(cmd.String("config"), defaultConfigFile, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func migrate(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	v, err := internal.Migrate(ctx, internal.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	fmt.Printf("schema version %d\n", v)
	return nil
}

func export(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if dir := cmd.String("dir"); dir != "" {
		cfg.Vault.Path = dir
	}
	paths, err := internal.Export(ctx, cmd.String("workspace"), internal.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	for _, p := range paths {
		fmt.Println(p)
	}
	return nil
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx,
		internal.WithConfig(cfg),
		internal.WithVersion(version),
		internal.WithLogOutput(os.Stderr),
	)
}

func main() {
	cmd := &cli.Command{
		Name:    "synergy",
		Usage:   "Workspaces, tasks, notes and automations on an embedded SQLite store",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: defaultConfigFile,
				Value:       defaultConfigFile,
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API (default)",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "Bring the database schema to the current version and exit",
				Action: migrate,
			},
			{
				Name:  "export",
				Usage: "Write the notes of a workspace to the vault as Markdown",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "workspace",
						Usage: "Workspace id; the oldest workspace when empty",
					},
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Target directory; vault.path when empty",
					},
				},
				Action: export,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools on stdio",
				Action: mcp,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
