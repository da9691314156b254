package registry

import (
	"fmt"
	"sort"

	"github.com/traefik/yaegi/interp"
	"github.com/vk/graft/internal/classpath"
	"github.com/vk/graft/internal/coord"
	"github.com/vk/graft/internal/repository"
)

// Module is the interface that all compiled-in modules implement to be
// registered.
type Module interface {
	Register(r *Registry)
}

// ControllerFactory builds a fresh controller instance.
type ControllerFactory func() any

// Registry holds everything modules contribute to one application instance.
type Registry struct {
	host        []*classpath.Library
	hostNames   map[string]struct{}
	catalog     *repository.Catalog
	controllers map[string]ControllerFactory
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		hostNames:   make(map[string]struct{}),
		catalog:     repository.NewCatalog(),
		controllers: make(map[string]ControllerFactory),
	}
}

// RegisterHostLibrary adds a library to the host layer of every loader.
// Registering the same name twice is a programmer error and panics.
func (r *Registry) RegisterHostLibrary(name string, symbols interp.Exports) {
	if _, dup := r.hostNames[name]; dup {
		panic(fmt.Sprintf("registry: host library %q registered twice", name))
	}
	r.hostNames[name] = struct{}{}
	r.host = append(r.host, &classpath.Library{Name: name, Symbols: symbols})
}

// RegisterArtifact makes a compiled library resolvable as a dependency.
func (r *Registry) RegisterArtifact(at coord.Coordinate, symbols interp.Exports, deps ...coord.Coordinate) {
	r.catalog.MustAdd(at, symbols, deps...)
}

// RegisterController registers the factory used when a document names
// typeName (a qualified type name) as its controller.
func (r *Registry) RegisterController(typeName string, factory ControllerFactory) {
	if _, dup := r.controllers[typeName]; dup {
		panic(fmt.Sprintf("registry: controller %q registered twice", typeName))
	}
	r.controllers[typeName] = factory
}

// HostLibraries returns the host libraries in registration order.
func (r *Registry) HostLibraries() []*classpath.Library {
	return append([]*classpath.Library(nil), r.host...)
}

// Catalog returns the compiled artifacts.
func (r *Registry) Catalog() *repository.Catalog {
	return r.catalog
}

// Controller returns the factory registered for typeName.
func (r *Registry) Controller(typeName string) (ControllerFactory, bool) {
	f, ok := r.controllers[typeName]
	return f, ok
}

// Controllers lists the registered controller type names, sorted.
func (r *Registry) Controllers() []string {
	out := make([]string, 0, len(r.controllers))
	for name := range r.controllers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
