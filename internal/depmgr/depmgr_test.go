package depmgr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"github.com/vk/graft/internal/classpath"
	"github.com/vk/graft/internal/coord"
	"github.com/vk/graft/internal/repository"
	"github.com/vk/graft/internal/scanner"
)

func versionLibrary(path, version string) interp.Exports {
	return interp.Exports{
		path + "/" + filepath.Base(path): {
			"Version": reflect.ValueOf(func() string { return version }),
		},
	}
}

// newCatalog holds base v1.0.0 and v1.2.0, lib v1.0.0 (needs base v1.0.0)
// and app v1.0.0 (needs lib v1.0.0 and base v1.2.0).
func newCatalog() *repository.Catalog {
	cat := repository.NewCatalog()
	cat.MustAdd(coord.MustParse("example.com/base@v1.0.0"), versionLibrary("example.com/base", "1.0.0"))
	cat.MustAdd(coord.MustParse("example.com/base@v1.2.0"), versionLibrary("example.com/base", "1.2.0"))
	cat.MustAdd(coord.MustParse("example.com/lib@v1.0.0"), versionLibrary("example.com/lib", "lib"), coord.MustParse("example.com/base@v1.0.0"))
	cat.MustAdd(coord.MustParse("example.com/app@v1.0.0"), versionLibrary("example.com/app", "app"),
		coord.MustParse("example.com/lib@v1.0.0"), coord.MustParse("example.com/base@v1.2.0"))
	return cat
}

func callVersion(t *testing.T, l *classpath.Loader, path string) string {
	t.Helper()
	pkg, ok := l.Package(path)
	require.True(t, ok, path)
	fn, ok := pkg.Func("Version")
	require.True(t, ok)
	return fn.Call(nil)[0].String()
}

func TestAddDeps_TransitiveHighestVersion(t *testing.T) {
	ctx := context.Background()
	m := New(newCatalog(), nil, WithWorkers(2))

	require.NoError(t, m.AddDeps(ctx, coord.MustParse("example.com/app@v1.0.0")))
	assert.True(t, m.Dirty())
	assert.Equal(t, []coord.Coordinate{
		coord.MustParse("example.com/app@v1.0.0"),
		coord.MustParse("example.com/base@v1.2.0"),
		coord.MustParse("example.com/lib@v1.0.0"),
	}, m.Coordinates())

	require.NoError(t, m.AddDeps(ctx, coord.MustParse("example.com/base@v1.0.0")))
	assert.Contains(t, m.Coordinates(), coord.MustParse("example.com/base@v1.2.0"), "an older version never replaces a newer one")
}

func TestAddDeps_FailureLeavesSetUnchanged(t *testing.T) {
	ctx := context.Background()
	m := New(newCatalog(), nil)
	require.NoError(t, m.AddDeps(ctx, coord.MustParse("example.com/lib@v1.0.0")))
	before := m.Coordinates()

	err := m.AddDeps(ctx, coord.MustParse("example.com/app@v1.0.0"), coord.MustParse("example.com/missing@v1.0.0"), coord.MustParse("example.com/gone@v2.0.0"))
	var resErr *DependencyResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.Len(t, resErr.Failed, 2)
	assert.Contains(t, err.Error(), "example.com/gone@v2.0.0")
	assert.Contains(t, err.Error(), "example.com/missing@v1.0.0")
	assert.Equal(t, before, m.Coordinates())

	assert.Error(t, New(nil, nil).AddDeps(ctx, coord.MustParse("example.com/lib@v1.0.0")), "no repository configured")
	assert.NoError(t, New(nil, nil).AddDeps(ctx))
}

func TestRefresh_SwapsLoader(t *testing.T) {
	ctx := context.Background()
	host, err := classpath.NewLoader(nil, &classpath.Library{Name: "host", Symbols: versionLibrary("example.com/host", "host")})
	require.NoError(t, err)
	m := New(newCatalog(), host)
	assert.Same(t, host, m.Loader().Parent(), "until the first refresh an empty layer sits over the host")
	assert.Empty(t, m.Loader().Libraries())

	var swaps []*classpath.Loader
	m.Subscribe(func(l *classpath.Loader) { swaps = append(swaps, l) })

	require.NoError(t, m.AddDeps(ctx, coord.MustParse("example.com/app@v1.0.0")))
	old := m.Loader()
	require.NoError(t, m.Refresh(ctx, false))
	next := m.Loader()
	assert.NotSame(t, old, next)
	assert.Same(t, host, next.Parent())
	assert.False(t, m.Dirty())
	require.Len(t, swaps, 1)
	assert.Same(t, next, swaps[0])

	assert.Equal(t, "1.2.0", callVersion(t, next, "example.com/base"))
	assert.Equal(t, "host", callVersion(t, next, "example.com/host"))
	_, ok := old.Package("example.com/base")
	assert.False(t, ok, "the previous loader is never modified")

	require.NoError(t, m.Refresh(ctx, false))
	assert.Same(t, next, m.Loader(), "a clean set skips the refresh")
	require.NoError(t, m.Refresh(ctx, true))
	assert.NotSame(t, next, m.Loader())
	assert.Len(t, swaps, 2)

	m.CleanDeps()
	assert.True(t, m.Dirty())
	assert.Empty(t, m.Coordinates())
	_, ok = m.LoadClass("example.com/base.Nothing")
	assert.False(t, ok)
	require.NoError(t, m.Refresh(ctx, false))
	_, ok = m.Loader().Package("example.com/base")
	assert.False(t, ok)
}

func TestNew_DependencyScopeExcludesHost(t *testing.T) {
	ctx := context.Background()
	host, err := classpath.NewLoader(nil, &classpath.Library{Name: "stdlib", Symbols: stdlib.Symbols})
	require.NoError(t, err)
	m := New(repository.Chain{}, host)
	require.NoError(t, m.Refresh(ctx, false))

	testCases := []struct {
		name  string
		scope classpath.Scope
		found bool
	}{
		{name: "dependencies", scope: classpath.ScopeDependencies, found: false},
		{name: "classpath", scope: classpath.ScopeClasspath, found: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cls, err := scanner.New(m, tc.scope).Resolve(ctx, "Duration", scanner.MustParseImports())
			if !tc.found {
				var notFound *scanner.ClassNotFoundError
				require.True(t, errors.As(err, &notFound), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "time.Duration", cls.Name)
		})
	}

	c, ok := m.LoadClass("time.Duration")
	require.True(t, ok, "qualified names still reach the host layer")
	assert.Equal(t, "Duration", c.Simple)
}

func writeSourceArtifact(t *testing.T, root string, at coord.Coordinate, deps []string, files map[string]string) {
	t.Helper()
	var sources []string
	for name := range files {
		sources = append(sources, name)
	}
	dir, err := repository.WriteManifest(root, at, repository.Manifest{Dependencies: deps, Sources: sources})
	require.NoError(t, err)
	for name, src := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
	}
}

func TestRefresh_InterpretsSourceArtifacts(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	at := coord.MustParse("example.com/script@v0.1.0")
	writeSourceArtifact(t, root, at, []string{"example.com/base@v1.2.0"}, map[string]string{
		"script.go": `package script

import "example.com/base"

var Prefix = "script on "

func Describe() string { return Prefix + base.Version() }
`,
	})

	m := New(repository.Chain{newCatalog(), repository.NewDir(root)}, nil)
	require.NoError(t, m.AddDeps(ctx, at))
	require.NoError(t, m.Refresh(ctx, false))

	pkg, ok := m.Loader().Package("example.com/script")
	require.True(t, ok)
	fn, ok := pkg.Func("Describe")
	require.True(t, ok)
	assert.Equal(t, "script on 1.2.0", fn.Call(nil)[0].String())
	v, ok := pkg.Value("Prefix")
	require.True(t, ok)
	assert.True(t, v.CanAddr())
}

func TestRefresh_BrokenSourceKeepsLoader(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	at := coord.MustParse("example.com/broken@v0.1.0")
	writeSourceArtifact(t, root, at, nil, map[string]string{"broken.go": "package broken\n\nfunc Oops( {\n"})

	m := New(repository.NewDir(root), nil)
	require.NoError(t, m.AddDeps(ctx, at))
	before := m.Loader()
	err := m.Refresh(ctx, false)
	require.Error(t, err)
	assert.Same(t, before, m.Loader())
	assert.True(t, m.Dirty())
}

func TestOrdered_DependenciesFirst(t *testing.T) {
	ctx := context.Background()
	m := New(newCatalog(), nil)
	require.NoError(t, m.AddDeps(ctx, coord.MustParse("example.com/app@v1.0.0")))

	var paths []string
	for _, a := range m.ordered() {
		paths = append(paths, a.Coordinate.Path)
	}
	assert.Equal(t, []string{"example.com/base", "example.com/lib", "example.com/app"}, paths)
}
