// Package scanner resolves type names written in a document to classpath
// types. Results are cached per Scanner and dropped whenever the classpath
// loader changes.
package scanner

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/vk/graft/internal/classpath"
	"github.com/vk/graft/internal/ctxlog"
	"golang.org/x/sync/singleflight"
)

// Source provides the current classpath loader. *depmgr.Manager satisfies it.
type Source interface {
	Loader() *classpath.Loader
}

// Owner is the target of a static member access: a type, or a package when
// the name denotes one.
type Owner struct {
	Class   *classpath.Class
	Package *classpath.Package
}

func (o Owner) String() string {
	if o.Class != nil {
		return o.Class.Name
	}
	if o.Package != nil {
		return o.Package.Path
	}
	return "<none>"
}

// Stats counts scanner activity.
type Stats struct {
	Searches  int64
	CacheHits int64
}

type caches struct {
	loader *classpath.Loader
	gen    uint64
	simple sync.Map // fingerprint + "\x00" + name -> *classpath.Class
	search sync.Map // name -> []*classpath.Class
}

// Scanner resolves names against a Source. It is safe for concurrent use.
type Scanner struct {
	src   Source
	scope classpath.Scope

	caches atomic.Pointer[caches]
	gens   atomic.Uint64
	group  singleflight.Group

	searches  atomic.Int64
	cacheHits atomic.Int64
}

// New returns a scanner whose classpath searches are limited to scope.
func New(src Source, scope classpath.Scope) *Scanner {
	s := &Scanner{src: src, scope: scope}
	s.caches.Store(s.newCaches(src.Loader()))
	return s
}

func (s *Scanner) newCaches(loader *classpath.Loader) *caches {
	return &caches{loader: loader, gen: s.gens.Add(1)}
}

// flightKey scopes a singleflight key to one cache generation, so callers
// arriving after a loader swap never share a search of the old loader.
func (c *caches) flightKey(kind, name string) string {
	return strconv.FormatUint(c.gen, 10) + "\x00" + kind + "\x00" + name
}

// Scope returns the search scope.
func (s *Scanner) Scope() classpath.Scope {
	return s.scope
}

// Loader returns the loader names are currently resolved against.
func (s *Scanner) Loader() *classpath.Loader {
	return s.src.Loader()
}

// Invalidate drops every cached result.
func (s *Scanner) Invalidate() {
	s.caches.Store(s.newCaches(s.src.Loader()))
}

// Stats returns a snapshot of the counters.
func (s *Scanner) Stats() Stats {
	return Stats{Searches: s.searches.Load(), CacheHits: s.cacheHits.Load()}
}

// current returns the caches for the live loader, replacing them if the
// loader was swapped without an Invalidate call.
func (s *Scanner) current() (*caches, *classpath.Loader) {
	loader := s.src.Loader()
	c := s.caches.Load()
	if c.loader == loader {
		return c, loader
	}
	fresh := s.newCaches(loader)
	if s.caches.CompareAndSwap(c, fresh) {
		return fresh, loader
	}
	return s.caches.Load(), loader
}

// Resolve returns the single type called name. Predeclared names resolve
// first, then qualified names, cached simple names, imports, and finally a
// search of the scanner's scope.
func (s *Scanner) Resolve(ctx context.Context, name string, imports *Imports) (*classpath.Class, error) {
	logger := ctxlog.FromContext(ctx)
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ClassNotFoundError{Name: name}
	}
	if c, ok := classpath.Builtin(name); ok {
		return c, nil
	}

	c, loader := s.current()
	if strings.Contains(name, ".") {
		return s.resolveQualified(loader, name, imports)
	}

	key := imports.Fingerprint() + "\x00" + name
	if hit, ok := c.simple.Load(key); ok {
		s.cacheHits.Add(1)
		logger.Debug("Type cache hit.", "name", name)
		return hit.(*classpath.Class), nil
	}

	v, err, _ := s.group.Do(c.flightKey("simple", key), func() (any, error) {
		if hit, ok := c.simple.Load(key); ok {
			return hit, nil
		}
		for _, q := range imports.candidates(name) {
			if cls, ok := loader.LoadClass(q); ok {
				logger.Debug("Type resolved through import.", "name", name, "type", cls.Name)
				c.simple.Store(key, cls)
				return cls, nil
			}
		}
		found, err := s.search(ctx, c, loader, name)
		if err != nil {
			return nil, err
		}
		switch len(found) {
		case 0:
			return nil, &ClassNotFoundError{Name: name, Scope: s.scope.String()}
		case 1:
			c.simple.Store(key, found[0])
			return found[0], nil
		default:
			names := make([]string, len(found))
			for i, f := range found {
				names[i] = f.Name
			}
			return nil, &AmbiguousClassError{Name: name, Candidates: names}
		}
	})
	if err != nil {
		return nil, err
	}
	return v.(*classpath.Class), nil
}

// resolveQualified loads "import/path.Name" directly. A short package
// qualifier ("widgets.Button") is matched against the imported packages.
// Qualified names never fall back to searching.
func (s *Scanner) resolveQualified(loader *classpath.Loader, name string, imports *Imports) (*classpath.Class, error) {
	if cls, ok := loader.LoadClass(name); ok {
		return cls, nil
	}
	if qual, simple, ok := classpath.SplitQualified(name); ok && !strings.Contains(qual, "/") {
		for _, path := range imports.packagePaths() {
			pkg, ok := loader.Package(path)
			if !ok || pkg.Name != qual {
				continue
			}
			if cls, ok := pkg.Class(simple); ok {
				return cls, nil
			}
		}
	}
	return nil, &ClassNotFoundError{Name: name}
}

// search runs the indexed classpath search once per name and loader.
func (s *Scanner) search(ctx context.Context, c *caches, loader *classpath.Loader, name string) ([]*classpath.Class, error) {
	if hit, ok := c.search.Load(name); ok {
		return hit.([]*classpath.Class), nil
	}
	v, err, _ := s.group.Do(c.flightKey("search", name), func() (any, error) {
		if hit, ok := c.search.Load(name); ok {
			return hit, nil
		}
		found := loader.Search(name, s.scope)
		s.searches.Add(1)
		ctxlog.FromContext(ctx).Debug("Searched classpath.", "name", name, "scope", s.scope.String(), "matches", len(found))
		c.search.Store(name, found)
		return found, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*classpath.Class), nil
}

// ResolveOwner resolves the owner of a static access. When name is not a
// type it may denote a package, either by import path or by the package name
// of an import.
func (s *Scanner) ResolveOwner(ctx context.Context, name string, imports *Imports) (Owner, error) {
	cls, err := s.Resolve(ctx, name, imports)
	if err == nil {
		return Owner{Class: cls, Package: cls.Package}, nil
	}
	var notFound *ClassNotFoundError
	if !errors.As(err, &notFound) {
		return Owner{}, err
	}
	_, loader := s.current()
	if pkg, ok := loader.Package(name); ok {
		return Owner{Package: pkg}, nil
	}
	for _, path := range imports.packagePaths() {
		if pkg, ok := loader.Package(path); ok && (pkg.Name == name || pkg.Path == name) {
			return Owner{Package: pkg}, nil
		}
	}
	return Owner{}, err
}
