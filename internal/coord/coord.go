// Package coord defines artifact coordinates: Go module paths pinned to a
// semantic version, written as "path@version".
package coord

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/mod/module"
	"golang.org/x/mod/semver"
)

// Coordinate identifies one artifact in a repository.
type Coordinate struct {
	Path    string
	Version string
}

// Parse validates and splits a "path@version" string.
func Parse(raw string) (Coordinate, error) {
	raw = strings.TrimSpace(raw)
	path, version, ok := strings.Cut(raw, "@")
	if !ok || path == "" || version == "" {
		return Coordinate{}, fmt.Errorf("invalid coordinate %q: expected path@version", raw)
	}
	if err := module.Check(path, version); err != nil {
		return Coordinate{}, fmt.Errorf("invalid coordinate %q: %w", raw, err)
	}
	return Coordinate{Path: path, Version: semver.Canonical(version)}, nil
}

// ParseAll parses every entry, failing on the first invalid one.
func ParseAll(raw []string) ([]Coordinate, error) {
	out := make([]Coordinate, 0, len(raw))
	for _, r := range raw {
		c, err := Parse(r)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// MustParse is Parse for coordinates known at compile time.
func MustParse(raw string) Coordinate {
	c, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Coordinate) String() string {
	return c.Path + "@" + c.Version
}

// Module returns the coordinate as a golang.org/x/mod module.Version.
func (c Coordinate) Module() module.Version {
	return module.Version{Path: c.Path, Version: c.Version}
}

// Escaped returns the case-escaped "path@version" form used for directory
// names in file-backed repositories.
func (c Coordinate) Escaped() (string, error) {
	p, err := module.EscapePath(c.Path)
	if err != nil {
		return "", err
	}
	v, err := module.EscapeVersion(c.Version)
	if err != nil {
		return "", err
	}
	return p + "@" + v, nil
}

// Newer reports whether c has a higher version than other.
func (c Coordinate) Newer(other Coordinate) bool {
	return semver.Compare(c.Version, other.Version) > 0
}

// Sort orders coordinates by path, then by ascending version.
func Sort(cs []Coordinate) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].Path != cs[j].Path {
			return cs[i].Path < cs[j].Path
		}
		return semver.Compare(cs[i].Version, cs[j].Version) < 0
	})
}
