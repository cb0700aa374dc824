package vault

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/synergy/internal/models"
	"github.com/starford/synergy/internal/storage"
)

// ImportFunc is called after the watcher imports a note.
type ImportFunc func(n *models.Note)

// Watch imports Markdown files as they are created or written until ctx is
// cancelled. New directories are watched as they appear. Removing a file
// leaves its note in place.
func (v *Vault) Watch(ctx context.Context, cb ImportFunc) error {
	root, err := v.files.Abs("")
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirs(w, root); err != nil {
		return err
	}
	v.logger.Info("watcher: started", slog.String("root", root))

	for {
		select {
		case <-ctx.Done():
			v.logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addDirs(w, ev.Name); err != nil {
						v.logger.Warn("watcher: add dir failed", slog.String("path", ev.Name), slog.String("error", err.Error()))
					}
					v.importDir(ctx, root, ev.Name, cb)
					continue
				}
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 || !storage.IsMarkdown(ev.Name) {
				continue
			}
			v.importFile(ctx, root, ev.Name, cb)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			v.logger.Error("watcher: error", slog.String("error", err.Error()))
		}
	}
}

func (v *Vault) importFile(ctx context.Context, root, abs string, cb ImportFunc) {
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)
	n, err := v.Import(ctx, rel)
	if err != nil {
		v.logger.Warn("watcher: import failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	if n != nil && cb != nil {
		cb(n)
	}
}

// importDir picks up files that landed in a directory before it was watched.
func (v *Vault) importDir(ctx context.Context, root, dir string, cb ImportFunc) {
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && storage.IsMarkdown(d.Name()) {
			v.importFile(ctx, root, p, cb)
		}
		return nil
	})
}

func addDirs(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return w.Add(p)
		}
		return nil
	})
}
