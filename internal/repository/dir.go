package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/graft/internal/coord"
	"github.com/vk/graft/internal/ctxlog"
	"gopkg.in/yaml.v3"
)

// ManifestFile is the name of the manifest inside each artifact directory.
const ManifestFile = "artifact.yaml"

// Manifest describes a source artifact stored in a Dir repository.
type Manifest struct {
	Dependencies []string `yaml:"dependencies,omitempty"`
	Sources      []string `yaml:"sources"`
}

// Dir is a repository rooted at a local directory. Each artifact lives in
// <Root>/<escaped path>@<escaped version>/ next to its artifact.yaml.
type Dir struct {
	Root string
}

// NewDir returns a repository reading from root.
func NewDir(root string) *Dir {
	return &Dir{Root: root}
}

// Resolve implements Repository.
func (d *Dir) Resolve(ctx context.Context, c coord.Coordinate) (*Artifact, error) {
	logger := ctxlog.FromContext(ctx)
	escaped, err := c.Escaped()
	if err != nil {
		return nil, fmt.Errorf("dir repository: %w", err)
	}
	dir := filepath.Join(d.Root, filepath.FromSlash(escaped))
	manifestPath := filepath.Join(dir, ManifestFile)

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("dir repository: %s: %w", c, ErrNotFound)
		}
		return nil, fmt.Errorf("dir repository: read %s: %w", manifestPath, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("dir repository: parse %s: %w", manifestPath, err)
	}
	if len(m.Sources) == 0 {
		return nil, fmt.Errorf("dir repository: %s declares no sources", manifestPath)
	}

	deps, err := coord.ParseAll(m.Dependencies)
	if err != nil {
		return nil, fmt.Errorf("dir repository: %s: %w", manifestPath, err)
	}

	sources := make([]string, 0, len(m.Sources))
	for _, src := range m.Sources {
		p := filepath.Join(dir, filepath.FromSlash(src))
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("dir repository: %s source %s: %w", c, src, err)
		}
		sources = append(sources, p)
	}

	logger.Debug("Resolved source artifact.", "coordinate", c.String(), "dir", dir, "sources", len(sources), "dependencies", len(deps))
	return &Artifact{
		Coordinate:   c,
		Dependencies: deps,
		Dir:          dir,
		Sources:      sources,
	}, nil
}

// WriteManifest stores m as the manifest of artifact c under root, creating
// the artifact directory. It returns that directory.
func WriteManifest(root string, c coord.Coordinate, m Manifest) (string, error) {
	escaped, err := c.Escaped()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(root, filepath.FromSlash(escaped))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	data, err := yaml.Marshal(&m)
	if err != nil {
		return "", err
	}
	return dir, os.WriteFile(filepath.Join(dir, ManifestFile), data, 0o644)
}
