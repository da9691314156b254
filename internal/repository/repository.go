// Package repository provides the collaborators that turn artifact
// coordinates into loadable libraries: an in-memory catalog of compiled
// symbol tables, a directory of source artifacts described by YAML manifests,
// and a chain that consults several repositories in order.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/traefik/yaegi/interp"
	"github.com/vk/graft/internal/coord"
)

// ErrNotFound is returned when a repository does not hold a coordinate.
var ErrNotFound = errors.New("artifact not found")

// Artifact is a resolved coordinate together with its direct dependencies.
// Exactly one of Exports (a compiled library) or Sources (Go files to be
// interpreted) is normally set.
type Artifact struct {
	Coordinate   coord.Coordinate
	Dependencies []coord.Coordinate
	Exports      interp.Exports
	Dir          string
	Sources      []string
}

// Repository resolves one coordinate at a time.
type Repository interface {
	Resolve(ctx context.Context, c coord.Coordinate) (*Artifact, error)
}

// Chain consults each repository in order and returns the first hit.
type Chain []Repository

// Resolve implements Repository.
func (ch Chain) Resolve(ctx context.Context, c coord.Coordinate) (*Artifact, error) {
	var errs []error
	for _, repo := range ch {
		if repo == nil {
			continue
		}
		a, err := repo.Resolve(ctx, c)
		if err == nil {
			return a, nil
		}
		if !errors.Is(err, ErrNotFound) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("resolve %s: %w", c, errors.Join(errs...))
	}
	return nil, fmt.Errorf("resolve %s: %w", c, ErrNotFound)
}
