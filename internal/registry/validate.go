package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vk/graft/internal/classpath"
	"github.com/vk/graft/internal/ctxlog"
)

// ValidateRegistry checks that the host libraries index into one loader
// without symbol collisions and that every controller factory names a type
// visible on the host layer or in a registered artifact.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	var errs []string

	host, err := classpath.NewLoader(nil, r.host...)
	if err != nil {
		errs = append(errs, err.Error())
	}

	var artifactPaths []string
	for _, at := range r.catalog.Coordinates() {
		artifactPaths = append(artifactPaths, at.Path)
	}

	for _, name := range r.Controllers() {
		if r.controllers[name] == nil {
			errs = append(errs, fmt.Sprintf("controller %q: nil factory", name))
			continue
		}
		path, _, ok := classpath.SplitQualified(name)
		if !ok {
			errs = append(errs, fmt.Sprintf("controller %q: not a qualified type name", name))
			continue
		}
		if host != nil {
			if _, found := host.LoadClass(name); found {
				continue
			}
		}
		if !providedBy(path, artifactPaths) {
			errs = append(errs, fmt.Sprintf("controller %q: no host library or artifact provides %s", name, path))
		}
	}

	if len(errs) > 0 {
		return errors.New("registry validation failed:\n- " + strings.Join(errs, "\n- "))
	}
	logger.Debug("Registry validated.", "host_libraries", len(r.host), "artifacts", len(artifactPaths), "controllers", len(r.controllers))
	return nil
}

// providedBy reports whether pkgPath is an artifact module path or one of
// its subpackages.
func providedBy(pkgPath string, modulePaths []string) bool {
	for _, m := range modulePaths {
		if pkgPath == m || strings.HasPrefix(pkgPath, m+"/") {
			return true
		}
	}
	return false
}
