package app

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/vk/graft/internal/ctxlog"
	"github.com/vk/graft/internal/document"
	"github.com/vk/graft/internal/progress"
)

// reloadDelay coalesces the bursts of events editors produce on save.
const reloadDelay = 200 * time.Millisecond

// watch reloads documents under the configured path as they change.
func (a *App) watch(ctx context.Context, report progress.Func) error {
	logger := ctxlog.FromContext(ctx)
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Close()

	root := filepath.Clean(a.config.DocumentPath)
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("error accessing path %s: %w", root, err)
	}
	single := !info.IsDir()
	dirs, err := watchDirs(root, single)
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	logger.Info("Watching documents for changes.", "path", root, "directories", len(dirs))

	timer := time.NewTimer(reloadDelay)
	timer.Stop()
	pending := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Watch stopped.")
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevant(ev, root, single) {
				continue
			}
			logger.Debug("Document changed.", "path", ev.Name, "op", ev.Op.String())
			pending[ev.Name] = struct{}{}
			timer.Reset(reloadDelay)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error.", "error", err)
		case <-timer.C:
			files := make([]string, 0, len(pending))
			for path := range pending {
				if _, err := os.Stat(path); err == nil {
					files = append(files, path)
				}
			}
			clear(pending)
			if len(files) == 0 {
				continue
			}
			sort.Strings(files)
			if err := a.loadFiles(ctx, files, report); err != nil {
				logger.Error("Reload failed.", "error", err)
			}
		}
	}
}

func relevant(ev fsnotify.Event, root string, single bool) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	if single {
		return filepath.Clean(ev.Name) == root
	}
	return filepath.Ext(ev.Name) == document.Ext
}

// watchDirs returns the directories to watch: the file's directory, or the
// directory tree under root without hidden directories.
func watchDirs(root string, single bool) ([]string, error) {
	if single {
		return []string{filepath.Dir(root)}, nil
	}
	var dirs []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && p != root {
			return filepath.SkipDir
		}
		dirs = append(dirs, p)
		return nil
	})
	return dirs, err
}
