package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/graft/internal/classpath"
	"github.com/vk/graft/internal/ctxlog"
	"github.com/vk/graft/internal/depmgr"
	"github.com/vk/graft/internal/document"
	"github.com/vk/graft/internal/progress"
	"github.com/vk/graft/internal/reflector"
	"github.com/vk/graft/internal/registry"
	"github.com/vk/graft/internal/resolver"
	"github.com/vk/graft/internal/scanner"
)

// ChildrenCollection is the collection the default attach callback adds
// children to.
const ChildrenCollection = "children"

// Options configures one load.
type Options struct {
	// Controller receives the identified instances. When nil, the document's
	// controller type is instantiated.
	Controller any
	// ControllerFactory, when set, builds the controller for the document's
	// controller type instead of the registry or the type's constructors.
	ControllerFactory func(cls *classpath.Class) (any, error)
	Injections        map[string]any
	// Attach overrides the default, which adds children to the parent's
	// "children" collection.
	Attach   resolver.AttachFunc
	Progress progress.Func
	// Location overrides the document's own location as the base for
	// resource values.
	Location string
}

// Result is the outcome of a successful load.
type Result struct {
	Document   *document.Document
	Root       any
	Controller any
	// FailedInjections lists the controller ids that could not be set on the
	// controller.
	FailedInjections []string

	rctx *resolver.Context
}

// Lookup returns the instance recorded under a controller id.
func (r *Result) Lookup(id string) (any, bool) {
	return r.rctx.Lookup(id)
}

// ControllerIDs returns the recorded controller ids in document order.
func (r *Result) ControllerIDs() []string {
	return r.rctx.ControllerIDs()
}

// Instances returns the number of instances the load built.
func (r *Result) Instances() int {
	return r.rctx.Len()
}

// Engine loads documents against one dependency set. Loads may run
// concurrently; each owns its resolution state.
type Engine struct {
	deps      *depmgr.Manager
	reflector *reflector.Reflector
	registry  *registry.Registry
}

// New returns an Engine and hooks the reflector caches to loader swaps. reg
// may be nil.
func New(deps *depmgr.Manager, r *reflector.Reflector, reg *registry.Registry) *Engine {
	deps.Subscribe(func(*classpath.Loader) {
		r.Scanner().Invalidate()
		r.Invalidate()
	})
	return &Engine{deps: deps, reflector: r, registry: reg}
}

// Reflector returns the engine's reflector.
func (e *Engine) Reflector() *reflector.Reflector {
	return e.reflector
}

// LoadFile parses the document at path and loads it.
func (e *Engine) LoadFile(ctx context.Context, path string, opts Options) (*Result, error) {
	doc, err := document.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load document '%s': %w", path, err)
	}
	return e.Load(ctx, doc, opts)
}

// Load builds the document's object graph. It yields either a complete
// result or an error, never a partial graph.
func (e *Engine) Load(ctx context.Context, doc *document.Document, opts Options) (*Result, error) {
	if doc == nil || doc.Root == nil {
		return nil, errors.New("load: document has no root object")
	}
	logger := ctxlog.FromContext(ctx).With("document", doc.Filename)
	ctx = ctxlog.WithLogger(ctx, logger)
	report := opts.Progress
	logger.Info("Load started.", "nodes", doc.Len())

	report.Report(progress.AddingDependencies, 0)
	if len(doc.Dependencies) > 0 {
		if err := e.deps.AddDeps(ctx, doc.Dependencies...); err != nil {
			return nil, fmt.Errorf("load %s: %w", doc.Filename, err)
		}
	}
	if err := e.deps.Refresh(ctx, false); err != nil {
		return nil, fmt.Errorf("load %s: %w", doc.Filename, err)
	}

	report.Report(progress.AddingImports, 0.2)
	imports, err := scanner.ParseImports(doc.Imports...)
	if err != nil {
		return nil, fmt.Errorf("load %s: imports: %w", doc.Filename, err)
	}

	report.Report(progress.HandlingController, 0.4)
	controller, err := e.controller(ctx, doc, imports, opts)
	if err != nil {
		return nil, fmt.Errorf("load %s: controller: %w", doc.Filename, err)
	}

	report.Report(progress.Building, progress.Indeterminate)
	attach := opts.Attach
	if attach == nil {
		attach = resolver.CollectionAttach(e.reflector, ChildrenCollection)
	}
	location := opts.Location
	if location == "" {
		location = doc.Location
	}
	rctx := resolver.NewContext(e.reflector, resolver.Options{
		Imports:    imports,
		Injections: opts.Injections,
		Location:   location,
		Attach:     attach,
	})
	root, err := rctx.Resolve(ctx, doc.Root)
	if err != nil {
		logger.Error("Load failed.", "error", err)
		return nil, fmt.Errorf("load %s: %w", doc.Filename, err)
	}

	report.Report(progress.InjectingController, 0.9)
	failed := rctx.InjectController(ctx, controller)
	for _, id := range failed {
		logger.Warn("Controller injection failed.", "id", id, "controller", fmt.Sprintf("%T", controller))
	}

	report.Report(progress.Done, 1)
	logger.Info("Load finished.", "instances", rctx.Len(), "controller_ids", len(rctx.ControllerIDs()))
	return &Result{
		Document:         doc,
		Root:             root,
		Controller:       controller,
		FailedInjections: failed,
		rctx:             rctx,
	}, nil
}

// controller returns the explicit controller, or builds the document's
// controller type through the options' factory, a registered factory or the
// type's own constructors, in that order.
func (e *Engine) controller(ctx context.Context, doc *document.Document, imports *scanner.Imports, opts Options) (any, error) {
	logger := ctxlog.FromContext(ctx)
	if opts.Controller != nil {
		if doc.Controller != "" {
			logger.Debug("Explicit controller takes precedence over the document's.", "declared", doc.Controller)
		}
		return opts.Controller, nil
	}
	if doc.Controller == "" {
		return nil, nil
	}

	cls, err := e.reflector.Scanner().Resolve(ctx, doc.Controller, imports)
	if err != nil {
		return nil, err
	}
	if opts.ControllerFactory != nil {
		return opts.ControllerFactory(cls)
	}
	if e.registry != nil {
		if factory, ok := e.registry.Controller(cls.Name); ok {
			logger.Debug("Using registered controller factory.", "type", cls.Name)
			return factory(), nil
		}
	}
	return e.reflector.InstantiateClass(ctx, cls, nil)
}
