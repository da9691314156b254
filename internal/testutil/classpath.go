package testutil

import (
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/traefik/yaegi/interp"
	"github.com/vk/graft/internal/classpath"
	"github.com/vk/graft/modules/widgets"
)

// AltPath is the import path of AltLibrary.
const AltPath = "example.com/alt"

// AltButton is exported by AltLibrary as example.com/alt.Button so that the
// simple name Button becomes ambiguous next to the widgets toolkit.
type AltButton struct {
	Caption string
}

// NewAltButton is the constructor of AltButton.
func NewAltButton(caption string) *AltButton {
	return &AltButton{Caption: caption}
}

// WidgetsLibrary returns the widgets toolkit as a classpath library.
func WidgetsLibrary() *classpath.Library {
	return &classpath.Library{Name: widgets.Coordinate.String(), Symbols: widgets.Symbols}
}

// AltLibrary returns a library with a second Button type.
func AltLibrary() *classpath.Library {
	return &classpath.Library{Name: AltPath + "@v0.1.0", Symbols: interp.Exports{
		AltPath + "/alt": {
			"Button":    reflect.ValueOf((*AltButton)(nil)),
			"NewButton": reflect.ValueOf(NewAltButton),
		},
	}}
}

// Loader builds a host layer from host and a dependency layer from deps.
func Loader(t *testing.T, host []*classpath.Library, deps ...*classpath.Library) *classpath.Loader {
	t.Helper()
	h, err := classpath.NewLoader(nil, host...)
	require.NoError(t, err)
	l, err := classpath.NewLoader(h, deps...)
	require.NoError(t, err)
	return l
}

// StaticSource serves a fixed loader until Swap replaces it.
type StaticSource struct {
	loader atomic.Pointer[classpath.Loader]
}

// NewStaticSource returns a source serving l.
func NewStaticSource(l *classpath.Loader) *StaticSource {
	s := &StaticSource{}
	s.loader.Store(l)
	return s
}

// Loader returns the current loader.
func (s *StaticSource) Loader() *classpath.Loader {
	return s.loader.Load()
}

// Swap replaces the loader.
func (s *StaticSource) Swap(l *classpath.Loader) {
	s.loader.Store(l)
}
