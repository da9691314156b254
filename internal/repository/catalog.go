package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/traefik/yaegi/interp"
	"github.com/vk/graft/internal/coord"
)

// Catalog holds compiled libraries registered by the host program, keyed by
// coordinate.
type Catalog struct {
	mu      sync.RWMutex
	entries map[coord.Coordinate]*Artifact
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[coord.Coordinate]*Artifact)}
}

// Add registers a compiled library under c.
func (c *Catalog) Add(at coord.Coordinate, exports interp.Exports, deps ...coord.Coordinate) error {
	if len(exports) == 0 {
		return fmt.Errorf("catalog: %s has no symbols", at)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[at]; exists {
		return fmt.Errorf("catalog: %s already registered", at)
	}
	c.entries[at] = &Artifact{
		Coordinate:   at,
		Dependencies: append([]coord.Coordinate(nil), deps...),
		Exports:      exports,
	}
	return nil
}

// MustAdd panics if registration fails; intended for bootstrap code paths.
func (c *Catalog) MustAdd(at coord.Coordinate, exports interp.Exports, deps ...coord.Coordinate) {
	if err := c.Add(at, exports, deps...); err != nil {
		panic(err)
	}
}

// Resolve implements Repository.
func (c *Catalog) Resolve(_ context.Context, at coord.Coordinate) (*Artifact, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.entries[at]
	if !ok {
		return nil, fmt.Errorf("catalog: %s: %w", at, ErrNotFound)
	}
	return a, nil
}

// Coordinates lists every registered coordinate, sorted.
func (c *Catalog) Coordinates() []coord.Coordinate {
	c.mu.RLock()
	out := make([]coord.Coordinate, 0, len(c.entries))
	for at := range c.entries {
		out = append(out, at)
	}
	c.mu.RUnlock()
	coord.Sort(out)
	return out
}
