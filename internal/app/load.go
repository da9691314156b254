package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/vk/graft/internal/ctxlog"
	"github.com/vk/graft/internal/depmgr"
	"github.com/vk/graft/internal/document"
	"github.com/vk/graft/internal/engine"
	"github.com/vk/graft/internal/progress"
	"golang.org/x/sync/errgroup"
)

// loadAll loads every document under the configured path.
func (a *App) loadAll(ctx context.Context, report progress.Func) error {
	files, err := document.Find(ctx, a.config.DocumentPath)
	if err != nil {
		return fmt.Errorf("failed to resolve document path '%s': %w", a.config.DocumentPath, err)
	}
	if len(files) == 0 {
		ctxlog.FromContext(ctx).Warn("No documents found at the specified path.", "path", a.config.DocumentPath)
		return nil
	}
	return a.loadFiles(ctx, files, report)
}

// loadFiles loads the documents concurrently, bounded by the configured
// worker count. Every document is attempted; the failures are joined.
func (a *App) loadFiles(ctx context.Context, files []string, report progress.Func) error {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Loading documents.", "count", len(files))

	workers := a.config.Workers
	if workers <= 0 {
		workers = depmgr.DefaultWorkers
	}
	errs := make([]error, len(files))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, path := range files {
		g.Go(func() error {
			res, err := a.engine.LoadFile(ctx, path, engine.Options{Progress: report})
			a.record(path, err)
			if err != nil {
				errs[i] = err
				return nil
			}
			a.printSummary(path, res)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func (a *App) record(path string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.last[path] = err
}

// failures returns the documents whose latest load failed, sorted.
func (a *App) failures() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []string
	for path, err := range a.last {
		if err != nil {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out
}

// printSummary writes what a load built to the app's output.
func (a *App) printSummary(path string, res *engine.Result) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: built %T with %d instances\n", path, res.Root, res.Instances())
	for _, id := range res.ControllerIDs() {
		inst, _ := res.Lookup(id)
		fmt.Fprintf(&b, "  #%s -> %T\n", id, inst)
	}
	if res.Controller != nil {
		fmt.Fprintf(&b, "  controller %T", res.Controller)
		if len(res.FailedInjections) > 0 {
			fmt.Fprintf(&b, " (not injected: %s)", strings.Join(res.FailedInjections, ", "))
		}
		b.WriteString("\n")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprint(a.outW, b.String())
}
