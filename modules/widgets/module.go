package widgets

import (
	"github.com/vk/graft/internal/coord"
	"github.com/vk/graft/internal/registry"
)

// Version is the artifact version the toolkit is published under.
const Version = "v1.0.0"

// Coordinate is the dependency documents declare to use the toolkit.
var Coordinate = coord.MustParse(Path + "@" + Version)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register publishes the toolkit as an artifact and its Controller type.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterArtifact(Coordinate, Symbols)
	r.RegisterController(Path+".Controller", func() any { return NewController() })
}
