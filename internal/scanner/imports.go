package scanner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vk/graft/internal/classpath"
)

// Imports is the immutable import set of one load. An import is either a
// single type ("time.Duration") or every type of a package
// ("example.com/widgets.*").
type Imports struct {
	exact     map[string]string
	wildcards []string
	specs     []string
}

// ParseImports validates specs and returns the import set. Duplicate specs
// are kept once, in first occurrence order.
func ParseImports(specs ...string) (*Imports, error) {
	return (&Imports{}).Add(specs...)
}

// MustParseImports panics if specs are invalid.
func MustParseImports(specs ...string) *Imports {
	im, err := ParseImports(specs...)
	if err != nil {
		panic(err)
	}
	return im
}

// Add returns a new import set extended with specs.
func (im *Imports) Add(specs ...string) (*Imports, error) {
	out := &Imports{exact: make(map[string]string)}
	if im != nil {
		for k, v := range im.exact {
			out.exact[k] = v
		}
		out.wildcards = append(out.wildcards, im.wildcards...)
		out.specs = append(out.specs, im.specs...)
	}
	seen := make(map[string]struct{}, len(out.specs))
	for _, s := range out.specs {
		seen[s] = struct{}{}
	}
	for _, raw := range specs {
		spec := strings.TrimSpace(raw)
		if _, dup := seen[spec]; dup {
			continue
		}
		if path, ok := strings.CutSuffix(spec, ".*"); ok {
			if path == "" || strings.HasSuffix(path, "/") {
				return nil, fmt.Errorf("invalid wildcard import %q", raw)
			}
			out.wildcards = append(out.wildcards, path)
		} else {
			path, simple, ok := classpath.SplitQualified(spec)
			if !ok || path == "" {
				return nil, fmt.Errorf("invalid import %q: want \"path.Name\" or \"path.*\"", raw)
			}
			if prev, clash := out.exact[simple]; clash && prev != spec {
				return nil, fmt.Errorf("import %q conflicts with %q", spec, prev)
			}
			out.exact[simple] = spec
		}
		seen[spec] = struct{}{}
		out.specs = append(out.specs, spec)
	}
	return out, nil
}

// Specs returns the imports in declaration order.
func (im *Imports) Specs() []string {
	if im == nil {
		return nil
	}
	return append([]string(nil), im.specs...)
}

// Len returns the number of imports.
func (im *Imports) Len() int {
	if im == nil {
		return 0
	}
	return len(im.specs)
}

// Fingerprint identifies the set regardless of declaration order.
func (im *Imports) Fingerprint() string {
	if im.Len() == 0 {
		return ""
	}
	specs := im.Specs()
	sort.Strings(specs)
	return strings.Join(specs, ";")
}

// candidates lists the qualified names an import set derives for simple:
// the exact import first, then every wildcard package in order.
func (im *Imports) candidates(simple string) []string {
	if im == nil {
		return nil
	}
	var out []string
	if q, ok := im.exact[simple]; ok {
		out = append(out, q)
	}
	for _, path := range im.wildcards {
		out = append(out, path+"."+simple)
	}
	return out
}

// packagePaths returns the import paths brought in by the set, exact imports
// included, without duplicates.
func (im *Imports) packagePaths() []string {
	if im == nil {
		return nil
	}
	var out []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, dup := seen[p]; !dup {
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	for _, p := range im.wildcards {
		add(p)
	}
	for _, spec := range im.specs {
		if path, _, ok := classpath.SplitQualified(spec); ok && !strings.HasSuffix(spec, ".*") {
			add(path)
		}
	}
	return out
}
