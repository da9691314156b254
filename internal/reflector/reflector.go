// Package reflector is the only place where document values meet the
// reflect package. Everything above it handles instances as opaque values.
package reflector

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/vk/graft/internal/classpath"
	"github.com/vk/graft/internal/ctxlog"
	"github.com/vk/graft/internal/scanner"
)

// Reflector instantiates types and reads, writes and invokes members by
// name. It is safe for concurrent use.
type Reflector struct {
	scanner *scanner.Scanner
	enums   atomic.Pointer[enumCache]
}

// enumCache holds the typed constants found for each type on one loader.
type enumCache struct {
	loader *classpath.Loader
	consts sync.Map // reflect.Type -> []classpath.Symbol
}

// New returns a reflector resolving type names through s.
func New(s *scanner.Scanner) *Reflector {
	r := &Reflector{scanner: s}
	r.enums.Store(&enumCache{loader: s.Loader()})
	return r
}

// Invalidate drops the cached constants. Subscribe it to loader swaps so
// the previous loader is not kept alive.
func (r *Reflector) Invalidate() {
	r.enums.Store(&enumCache{loader: r.scanner.Loader()})
}

// enumsFor returns the constant cache of loader, replacing a cache built for
// another loader.
func (r *Reflector) enumsFor(loader *classpath.Loader) *enumCache {
	c := r.enums.Load()
	if c.loader == loader {
		return c
	}
	fresh := &enumCache{loader: loader}
	if r.enums.CompareAndSwap(c, fresh) {
		return fresh
	}
	return r.enums.Load()
}

// Scanner returns the scanner used for type names.
func (r *Reflector) Scanner() *scanner.Scanner {
	return r.scanner
}

// Instantiate resolves typeName and builds an instance from args.
func (r *Reflector) Instantiate(ctx context.Context, typeName string, args []any, imports *scanner.Imports) (any, error) {
	cls, err := r.scanner.Resolve(ctx, typeName, imports)
	if err != nil {
		return nil, fmt.Errorf("instantiate %s: %w", typeName, err)
	}
	return r.InstantiateClass(ctx, cls, args)
}

// InstantiateClass picks the constructor of cls that best matches args.
// Without arguments and without a zero-argument constructor it falls back to
// new(T). Struct results are returned by pointer.
func (r *Reflector) InstantiateClass(ctx context.Context, cls *classpath.Class, args []any) (any, error) {
	logger := ctxlog.FromContext(ctx).With("type", cls.Name)
	fail := func(err error) error {
		logger.Debug("Construction failed.", "error", err)
		return &ConstructionError{Type: cls.Name, Err: err}
	}

	if cls.Package != nil && cls.Package.Path == "" {
		return r.instantiateBuiltin(cls, args, fail)
	}

	cands := make([]callable, 0, len(cls.Constructors()))
	for _, sym := range cls.Constructors() {
		cands = append(cands, callable{name: sym.Name, fn: sym.Value})
	}
	b, err := r.choose(ctx, cls.Name, cands, args)
	if err != nil {
		if len(args) == 0 {
			return r.zero(cls, fail)
		}
		return nil, fail(err)
	}
	logger.Debug("Calling constructor.", "constructor", b.name, "args", len(args), "cost", b.cost)
	out, err := b.call()
	if err != nil {
		return nil, fail(fmt.Errorf("%s: %w", b.name, err))
	}
	inst := present(out)
	if inst == nil {
		return nil, fail(fmt.Errorf("%s returned nil", b.name))
	}
	if out.Kind() == reflect.Struct {
		p := reflect.New(out.Type())
		p.Elem().Set(out)
		return p.Interface(), nil
	}
	return inst, nil
}

func (r *Reflector) zero(cls *classpath.Class, fail func(error) error) (any, error) {
	t := cls.Type
	switch t.Kind() {
	case reflect.Interface:
		return nil, fail(fmt.Errorf("interface type has no constructor"))
	case reflect.Map:
		return reflect.MakeMap(t).Interface(), nil
	case reflect.Slice:
		return reflect.MakeSlice(t, 0, 0).Interface(), nil
	case reflect.Struct:
		return reflect.New(t).Interface(), nil
	default:
		return reflect.Zero(t).Interface(), nil
	}
}

func (r *Reflector) instantiateBuiltin(cls *classpath.Class, args []any, fail func(error) error) (any, error) {
	switch len(args) {
	case 0:
		return r.zero(cls, fail)
	case 1:
		v, _, ok := r.convert(args[0], cls.Type)
		if !ok {
			return nil, fail(fmt.Errorf("cannot convert %s", describe(args[0])))
		}
		return v.Interface(), nil
	default:
		return nil, fail(fmt.Errorf("predeclared type takes at most one argument, got %d", len(args)))
	}
}

// NewArray builds a []T of the resolved component type. Every item must be
// of type T or convert to it without loss.
func (r *Reflector) NewArray(ctx context.Context, componentType string, items []any, imports *scanner.Imports) (any, error) {
	cls, err := r.scanner.Resolve(ctx, componentType, imports)
	if err != nil {
		return nil, fmt.Errorf("array of %s: %w", componentType, err)
	}
	out := reflect.MakeSlice(reflect.SliceOf(cls.Type), 0, len(items))
	for i, it := range items {
		v, _, ok := r.convert(it, cls.Type)
		if !ok {
			return nil, fmt.Errorf("array of %s: item %d: cannot use %s", cls.Name, i, describe(it))
		}
		out = reflect.Append(out, v)
	}
	return out.Interface(), nil
}
