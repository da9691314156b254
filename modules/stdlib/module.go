// Package stdlib puts the Go standard library on the host layer, using the
// symbol tables extracted by yaegi.
package stdlib

import (
	"github.com/traefik/yaegi/stdlib"
	"github.com/vk/graft/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register adds the standard library as a host library.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHostLibrary("stdlib", stdlib.Symbols)
}
