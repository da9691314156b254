// Package env_vars lets documents read the process environment. With
// "github.com/vk/graft/modules/env_vars.*" imported a document can write
// call("env_vars::Lookup", "HOME", "/tmp").
package env_vars

import (
	"os"
	"reflect"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/vk/graft/internal/registry"
)

// Path is the import path of the host library.
const Path = "github.com/vk/graft/modules/env_vars"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Get returns the variable or an empty string.
func Get(name string) string {
	return os.Getenv(name)
}

// Lookup returns the variable, or fallback when it is unset.
func Lookup(name, fallback string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return fallback
}

// All returns the whole environment.
func All() map[string]string {
	envMap := make(map[string]string)
	for _, e := range os.Environ() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) == 2 {
			envMap[pair[0]] = pair[1]
		}
	}
	return envMap
}

// Register adds the package to the host layer.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHostLibrary("env_vars", interp.Exports{
		Path + "/env_vars": {
			"All":    reflect.ValueOf(All),
			"Get":    reflect.ValueOf(Get),
			"Lookup": reflect.ValueOf(Lookup),
		},
	})
}
