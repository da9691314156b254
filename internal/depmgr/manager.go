// Package depmgr owns the document's dependency set. It resolves artifact
// coordinates through a repository, and exposes the classpath as a layered
// loader that is rebuilt and atomically swapped whenever the set changes.
package depmgr

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/vk/graft/internal/classpath"
	"github.com/vk/graft/internal/coord"
	"github.com/vk/graft/internal/ctxlog"
	"github.com/vk/graft/internal/repository"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds concurrent repository lookups.
const DefaultWorkers = 4

// DependencyResolutionError means at least one coordinate of an AddDeps call
// could not be resolved. The dependency set is left unchanged.
type DependencyResolutionError struct {
	Failed map[string]error
}

func (e *DependencyResolutionError) Error() string {
	keys := make([]string, 0, len(e.Failed))
	for k := range e.Failed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s (%v)", k, e.Failed[k])
	}
	return "dependency resolution failed: " + strings.Join(parts, ", ")
}

// Manager tracks the resolved artifacts and the current loader.
type Manager struct {
	repo    repository.Repository
	host    *classpath.Loader
	workers int

	mu        sync.Mutex
	artifacts map[string]*repository.Artifact
	dirty     bool

	loader atomic.Pointer[classpath.Loader]

	subsMu sync.Mutex
	subs   []func(*classpath.Loader)
}

// Option configures a Manager.
type Option func(*Manager)

// WithWorkers sets the size of the resolution worker pool.
func WithWorkers(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.workers = n
		}
	}
}

// New returns a manager whose loaders sit on top of host. Until the first
// Refresh the current loader is an empty dependency layer over host, so a
// dependencies-scoped search never sees host types.
func New(repo repository.Repository, host *classpath.Loader, opts ...Option) *Manager {
	if host == nil {
		host, _ = classpath.NewLoader(nil)
	}
	empty, _ := classpath.NewLoader(host)
	m := &Manager{
		repo:      repo,
		host:      host,
		workers:   DefaultWorkers,
		artifacts: make(map[string]*repository.Artifact),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.loader.Store(empty)
	return m
}

// AddDeps resolves every coordinate together with its transitive closure.
// Nothing is added unless the whole closure resolves. When the closure holds
// several versions of one module path, the highest version is kept.
func (m *Manager) AddDeps(ctx context.Context, coords ...coord.Coordinate) error {
	logger := ctxlog.FromContext(ctx)
	if len(coords) == 0 {
		return nil
	}
	if m.repo == nil {
		return fmt.Errorf("add dependencies: no repository configured")
	}
	logger.Debug("Resolving dependencies.", "count", len(coords))

	m.mu.Lock()
	defer m.mu.Unlock()

	selected := make(map[string]*repository.Artifact)
	for path, a := range m.artifacts {
		selected[path] = a
	}

	frontier := m.pending(selected, coords)
	for len(frontier) > 0 {
		resolved, failed := m.resolveLevel(ctx, frontier)
		if len(failed) > 0 {
			err := &DependencyResolutionError{Failed: failed}
			logger.Error("Dependency resolution failed.", "error", err)
			return err
		}
		var next []coord.Coordinate
		for _, a := range resolved {
			if cur, ok := selected[a.Coordinate.Path]; ok && !a.Coordinate.Newer(cur.Coordinate) {
				continue
			}
			selected[a.Coordinate.Path] = a
			next = append(next, a.Dependencies...)
		}
		frontier = m.pending(selected, next)
	}

	added := 0
	for path, a := range selected {
		if cur, ok := m.artifacts[path]; ok && cur.Coordinate == a.Coordinate {
			continue
		}
		m.artifacts[path] = a
		added++
	}
	if added > 0 {
		m.dirty = true
	}
	logger.Info("Dependencies resolved.", "added", added, "total", len(m.artifacts))
	return nil
}

// pending filters out coordinates already satisfied by an equal or newer
// selected version, and duplicates.
func (m *Manager) pending(selected map[string]*repository.Artifact, coords []coord.Coordinate) []coord.Coordinate {
	var out []coord.Coordinate
	seen := make(map[coord.Coordinate]struct{})
	for _, c := range coords {
		if cur, ok := selected[c.Path]; ok && !c.Newer(cur.Coordinate) {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// resolveLevel looks up one breadth-first level of coordinates on the worker
// pool. Every failure is collected so the error names all of them.
func (m *Manager) resolveLevel(ctx context.Context, level []coord.Coordinate) ([]*repository.Artifact, map[string]error) {
	results := make([]*repository.Artifact, len(level))
	var (
		failMu sync.Mutex
		failed = make(map[string]error)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for i, c := range level {
		g.Go(func() error {
			a, err := m.repo.Resolve(gctx, c)
			if err == nil && a == nil {
				err = fmt.Errorf("repository returned no artifact")
			}
			if err != nil {
				failMu.Lock()
				failed[c.String()] = err
				failMu.Unlock()
				return nil
			}
			results[i] = a
			return nil
		})
	}
	_ = g.Wait()
	return results, failed
}

// CleanDeps empties the dependency set. The loader keeps serving the old set
// until the next Refresh.
func (m *Manager) CleanDeps() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.artifacts) == 0 {
		return
	}
	m.artifacts = make(map[string]*repository.Artifact)
	m.dirty = true
}

// Coordinates returns the current dependency set, sorted.
func (m *Manager) Coordinates() []coord.Coordinate {
	m.mu.Lock()
	out := make([]coord.Coordinate, 0, len(m.artifacts))
	for _, a := range m.artifacts {
		out = append(out, a.Coordinate)
	}
	m.mu.Unlock()
	coord.Sort(out)
	return out
}

// Dirty reports whether the set changed since the last Refresh.
func (m *Manager) Dirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirty
}

// Refresh builds a new loader over exactly the current artifact set when the
// set is dirty or force is true, and swaps it in. The previous loader is
// never modified.
func (m *Manager) Refresh(ctx context.Context, force bool) error {
	logger := ctxlog.FromContext(ctx)

	m.mu.Lock()
	if !m.dirty && !force {
		m.mu.Unlock()
		logger.Debug("Classpath is up to date, refresh skipped.")
		return nil
	}
	artifacts := m.ordered()
	libs, err := buildLibraries(ctx, m.host, artifacts)
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("refresh classpath: %w", err)
	}
	next, err := classpath.NewLoader(m.host, libs...)
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("refresh classpath: %w", err)
	}
	m.loader.Store(next)
	m.dirty = false
	m.mu.Unlock()

	logger.Info("Classpath refreshed.", "libraries", len(libs))
	m.notify(next)
	return nil
}

// ordered returns the artifacts sorted so that dependencies come before the
// artifacts that need them; ties are broken by module path.
func (m *Manager) ordered() []*repository.Artifact {
	paths := make([]string, 0, len(m.artifacts))
	for p := range m.artifacts {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var out []*repository.Artifact
	state := make(map[string]uint8, len(paths))
	var visit func(p string)
	visit = func(p string) {
		a, ok := m.artifacts[p]
		if !ok || state[p] != 0 {
			return
		}
		state[p] = 1
		for _, d := range a.Dependencies {
			visit(d.Path)
		}
		state[p] = 2
		out = append(out, a)
	}
	for _, p := range paths {
		visit(p)
	}
	return out
}

// Loader returns the current loader snapshot.
func (m *Manager) Loader() *classpath.Loader {
	return m.loader.Load()
}

// Host returns the host layer shared by every loader.
func (m *Manager) Host() *classpath.Loader {
	return m.host
}

// LoadClass looks a qualified name up in the current loader. A miss is
// reported as false, not as an error.
func (m *Manager) LoadClass(name string) (*classpath.Class, bool) {
	return m.Loader().LoadClass(name)
}

// Subscribe registers fn to run after every loader swap.
func (m *Manager) Subscribe(fn func(*classpath.Loader)) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	m.subs = append(m.subs, fn)
}

func (m *Manager) notify(l *classpath.Loader) {
	m.subsMu.Lock()
	subs := slices.Clone(m.subs)
	m.subsMu.Unlock()
	for _, fn := range subs {
		fn(l)
	}
}
