// Package classpath models the set of Go packages a document may reference.
//
// Libraries are symbol tables in the yaegi export format
// (interp.Exports: "import/path/pkgname" -> symbol -> reflect.Value). A Loader
// indexes one layer of libraries on top of an optional parent layer. Loaders
// are immutable: extending the classpath means building a new Loader, so
// values created from types of an older Loader stay valid.
package classpath

import (
	"fmt"
	"sort"
	"strings"

	"github.com/traefik/yaegi/interp"
)

// Scope selects which layers a simple-name search inspects.
type Scope int

const (
	// ScopeClasspath searches every layer, host packages included.
	ScopeClasspath Scope = iota
	// ScopeDependencies searches only the dependency layer, which avoids
	// false matches against host packages.
	ScopeDependencies
)

func (s Scope) String() string {
	switch s {
	case ScopeDependencies:
		return "dependencies"
	default:
		return "classpath"
	}
}

// ParseScope maps "classpath" and "dependencies" to a Scope.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "classpath":
		return ScopeClasspath, nil
	case "dependencies", "deps":
		return ScopeDependencies, nil
	default:
		return ScopeClasspath, fmt.Errorf("unknown scan scope %q", s)
	}
}

// Library is a named symbol table contributed to the classpath.
type Library struct {
	Name    string
	Symbols interp.Exports
}

// Loader is one immutable layer of the classpath.
type Loader struct {
	parent    *Loader
	libraries []*Library
	packages  map[string]*Package
	index     map[string][]*Class
}

// NewLoader indexes libs as a new layer over parent (which may be nil).
// Two libraries of the same layer may contribute to the same package only if
// their symbol names do not collide.
func NewLoader(parent *Loader, libs ...*Library) (*Loader, error) {
	l := &Loader{
		parent:    parent,
		libraries: append([]*Library(nil), libs...),
		packages:  make(map[string]*Package),
		index:     make(map[string][]*Class),
	}
	for _, lib := range libs {
		if lib == nil {
			continue
		}
		for _, key := range sortedKeys(lib.Symbols) {
			path, name := SplitKey(key)
			pkg, ok := l.packages[path]
			if !ok {
				pkg = newPackage(path, name, lib.Name)
				l.packages[path] = pkg
			}
			syms := lib.Symbols[key]
			for _, sym := range sortedKeys(syms) {
				if _, dup := pkg.lookup(sym); dup {
					return nil, fmt.Errorf("classpath: symbol %s.%s provided by both %s and %s", path, sym, pkg.Library, lib.Name)
				}
				pkg.add(sym, syms[sym])
			}
		}
	}
	for _, pkg := range l.packages {
		pkg.seal()
		for _, c := range pkg.classes {
			l.index[c.Simple] = append(l.index[c.Simple], c)
		}
	}
	for simple := range l.index {
		sort.Slice(l.index[simple], func(i, j int) bool {
			return l.index[simple][i].Name < l.index[simple][j].Name
		})
	}
	return l, nil
}

// SplitKey splits a yaegi export key "import/path/pkgname" into the import
// path and the package name.
func SplitKey(key string) (path, name string) {
	i := strings.LastIndex(key, "/")
	if i < 0 {
		return key, key
	}
	return key[:i], key[i+1:]
}

// SplitQualified splits "import/path.Name" at its last dot.
func SplitQualified(qualified string) (path, simple string, ok bool) {
	i := strings.LastIndex(qualified, ".")
	if i <= 0 || i == len(qualified)-1 {
		return "", "", false
	}
	// A dot inside the last path element belongs to the path ("gopkg.in/yaml.v3").
	if strings.Contains(qualified[i+1:], "/") {
		return "", "", false
	}
	return qualified[:i], qualified[i+1:], true
}

// Parent returns the layer this loader delegates to first.
func (l *Loader) Parent() *Loader {
	return l.parent
}

// Libraries returns the libraries of this layer only.
func (l *Loader) Libraries() []*Library {
	return append([]*Library(nil), l.libraries...)
}

// LoadClass finds a type by qualified name, parent layer first. It reports
// false instead of failing so callers can try other strategies.
func (l *Loader) LoadClass(qualified string) (*Class, bool) {
	path, simple, ok := SplitQualified(qualified)
	if !ok {
		return nil, false
	}
	pkg, ok := l.Package(path)
	if !ok {
		return nil, false
	}
	return pkg.Class(simple)
}

// Package finds a package by import path, parent layer first.
func (l *Loader) Package(path string) (*Package, bool) {
	if l == nil {
		return nil, false
	}
	if pkg, ok := l.parent.Package(path); ok {
		return pkg, true
	}
	pkg, ok := l.packages[path]
	return pkg, ok
}

// Packages returns the import paths visible through this loader, sorted.
func (l *Loader) Packages() []string {
	seen := make(map[string]struct{})
	for cur := l; cur != nil; cur = cur.parent {
		for path := range cur.packages {
			seen[path] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// Search returns every type whose simple name matches, ordered by qualified
// name. A package shadowed by the parent layer is reported once.
func (l *Loader) Search(simple string, scope Scope) []*Class {
	if l == nil {
		return nil
	}
	var out []*Class
	seen := make(map[string]struct{})
	add := func(cs []*Class) {
		for _, c := range cs {
			if _, dup := seen[c.Name]; dup {
				continue
			}
			seen[c.Name] = struct{}{}
			out = append(out, c)
		}
	}
	if scope == ScopeClasspath {
		for p := l.parent; p != nil; p = p.parent {
			add(p.index[simple])
		}
	}
	add(l.index[simple])
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
