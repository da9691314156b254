package scanner

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/traefik/yaegi/interp"
	"github.com/vk/graft/internal/classpath"
)

type (
	button    struct{}
	altButton struct{}
	label     struct{}
	hostClock struct{}
)

type fakeSource struct {
	loader atomic.Pointer[classpath.Loader]
}

func (f *fakeSource) Loader() *classpath.Loader { return f.loader.Load() }

func newSource(t *testing.T, deps ...*classpath.Library) *fakeSource {
	t.Helper()
	host, err := classpath.NewLoader(nil, &classpath.Library{
		Name: "host",
		Symbols: interp.Exports{
			"example.com/host/host": {
				"Clock": reflect.ValueOf((*hostClock)(nil)),
				"Label": reflect.ValueOf((*label)(nil)),
			},
		},
	})
	require.NoError(t, err)
	l, err := classpath.NewLoader(host, deps...)
	require.NoError(t, err)
	src := &fakeSource{}
	src.loader.Store(l)
	return src
}

func widgetsLib() *classpath.Library {
	return &classpath.Library{Name: "widgets", Symbols: interp.Exports{
		"example.com/widgets/widgets": {
			"Button": reflect.ValueOf((*button)(nil)),
			"Label":  reflect.ValueOf((*label)(nil)),
		},
	}}
}

func altLib() *classpath.Library {
	return &classpath.Library{Name: "alt", Symbols: interp.Exports{
		"example.com/alt/alt": {
			"Button": reflect.ValueOf((*altButton)(nil)),
		},
	}}
}

func TestResolve_SimpleNameSearchesOnce(t *testing.T) {
	ctx := context.Background()
	s := New(newSource(t, widgetsLib()), classpath.ScopeClasspath)

	first, err := s.Resolve(ctx, "Button", nil)
	require.NoError(t, err)
	assert.Equal(t, "example.com/widgets.Button", first.Name)

	for i := 0; i < 5; i++ {
		again, err := s.Resolve(ctx, "Button", nil)
		require.NoError(t, err)
		assert.Same(t, first, again)
	}
	assert.Equal(t, int64(1), s.Stats().Searches)
	assert.Equal(t, int64(5), s.Stats().CacheHits)
}

func TestResolve_ConcurrentCallersShareOneSearch(t *testing.T) {
	ctx := context.Background()
	s := New(newSource(t, widgetsLib()), classpath.ScopeDependencies)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Resolve(ctx, "Button", nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1), s.Stats().Searches)
}

func TestResolve_AmbiguousVersusQualified(t *testing.T) {
	ctx := context.Background()
	s := New(newSource(t, widgetsLib(), altLib()), classpath.ScopeClasspath)

	_, err := s.Resolve(ctx, "Button", nil)
	var ambiguous *AmbiguousClassError
	require.True(t, errors.As(err, &ambiguous))
	assert.Equal(t, []string{"example.com/alt.Button", "example.com/widgets.Button"}, ambiguous.Candidates)

	for _, q := range []string{"example.com/widgets.Button", "example.com/alt.Button"} {
		for i := 0; i < 2; i++ {
			c, err := s.Resolve(ctx, q, nil)
			require.NoError(t, err)
			assert.Equal(t, q, c.Name)
		}
	}
}

func TestResolve_Strategies(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name    string
		scope   classpath.Scope
		imports []string
		lookup  string
		want    string
		wantErr any
	}{
		{name: "predeclared", lookup: "int64", want: "int64"},
		{name: "qualified", lookup: "example.com/alt.Button", want: "example.com/alt.Button"},
		{name: "qualified miss is terminal", lookup: "example.com/alt.Label", wantErr: &ClassNotFoundError{}},
		{name: "package qualifier through import", imports: []string{"example.com/alt.*"}, lookup: "alt.Button", want: "example.com/alt.Button"},
		{name: "exact import breaks tie", imports: []string{"example.com/alt.Button"}, lookup: "Button", want: "example.com/alt.Button"},
		{name: "wildcard import breaks tie", imports: []string{"example.com/widgets.*"}, lookup: "Button", want: "example.com/widgets.Button"},
		{name: "host label is ambiguous on classpath", lookup: "Label", wantErr: &AmbiguousClassError{}},
		{name: "dependency scope skips host", scope: classpath.ScopeDependencies, lookup: "Label", want: "example.com/widgets.Label"},
		{name: "dependency scope misses host only type", scope: classpath.ScopeDependencies, lookup: "Clock", wantErr: &ClassNotFoundError{}},
		{name: "classpath scope finds host type", lookup: "Clock", want: "example.com/host.Clock"},
		{name: "unknown", lookup: "Nope", wantErr: &ClassNotFoundError{}},
		{name: "empty", lookup: " ", wantErr: &ClassNotFoundError{}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := New(newSource(t, widgetsLib(), altLib()), tc.scope)
			imports := MustParseImports(tc.imports...)
			got, err := s.Resolve(ctx, tc.lookup, imports)
			if tc.wantErr != nil {
				require.Error(t, err)
				assert.IsType(t, tc.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Name)
		})
	}
}

func TestResolve_ImportSetsDoNotShareCache(t *testing.T) {
	ctx := context.Background()
	s := New(newSource(t, widgetsLib(), altLib()), classpath.ScopeClasspath)

	a, err := s.Resolve(ctx, "Button", MustParseImports("example.com/alt.*"))
	require.NoError(t, err)
	w, err := s.Resolve(ctx, "Button", MustParseImports("example.com/widgets.*"))
	require.NoError(t, err)
	assert.NotEqual(t, a.Name, w.Name)
}

func TestInvalidate_OnLoaderSwap(t *testing.T) {
	ctx := context.Background()
	src := newSource(t, widgetsLib())
	s := New(src, classpath.ScopeClasspath)

	_, err := s.Resolve(ctx, "Button", nil)
	require.NoError(t, err)

	swapped, err := classpath.NewLoader(src.Loader().Parent(), widgetsLib(), altLib())
	require.NoError(t, err)
	src.loader.Store(swapped)

	_, err = s.Resolve(ctx, "Button", nil)
	assert.IsType(t, &AmbiguousClassError{}, err, "a swapped loader must not serve stale results")
	assert.Equal(t, int64(2), s.Stats().Searches)

	s.Invalidate()
	_, _ = s.Resolve(ctx, "Button", nil)
	assert.Equal(t, int64(3), s.Stats().Searches)
}

func TestFlightKey_ChangesWithLoader(t *testing.T) {
	src := newSource(t, widgetsLib())
	s := New(src, classpath.ScopeClasspath)
	before, _ := s.current()

	swapped, err := classpath.NewLoader(src.Loader().Parent(), widgetsLib())
	require.NoError(t, err)
	src.loader.Store(swapped)
	after, loader := s.current()

	require.Same(t, swapped, loader)
	assert.NotEqual(t, before.flightKey("search", "Button"), after.flightKey("search", "Button"))
	assert.NotEqual(t, before.flightKey("simple", "Button"), after.flightKey("simple", "Button"))
	assert.Equal(t, after.flightKey("search", "Button"), after.flightKey("search", "Button"))

	s.Invalidate()
	again, _ := s.current()
	assert.NotEqual(t, after.flightKey("search", "Button"), again.flightKey("search", "Button"), "an invalidation starts a new generation")
}

func TestResolveOwner(t *testing.T) {
	ctx := context.Background()
	s := New(newSource(t, widgetsLib(), altLib()), classpath.ScopeClasspath)
	imports := MustParseImports("example.com/widgets.*")

	o, err := s.ResolveOwner(ctx, "Button", imports)
	require.NoError(t, err)
	assert.Equal(t, "example.com/widgets.Button", o.Class.Name)

	o, err = s.ResolveOwner(ctx, "example.com/alt", imports)
	require.NoError(t, err)
	assert.Nil(t, o.Class)
	assert.Equal(t, "example.com/alt", o.Package.Path)

	o, err = s.ResolveOwner(ctx, "widgets", imports)
	require.NoError(t, err)
	assert.Equal(t, "example.com/widgets", o.Package.Path)

	_, err = s.ResolveOwner(ctx, "missing", imports)
	assert.IsType(t, &ClassNotFoundError{}, err)
}

func TestParseImports(t *testing.T) {
	im, err := ParseImports("example.com/widgets.*", "time.Duration", "time.Duration")
	require.NoError(t, err)
	assert.Equal(t, []string{"example.com/widgets.*", "time.Duration"}, im.Specs())
	assert.Equal(t, []string{"time.Duration", "example.com/widgets.Duration"}, im.candidates("Duration"))

	other, err := ParseImports("time.Duration", "example.com/widgets.*")
	require.NoError(t, err)
	assert.Equal(t, im.Fingerprint(), other.Fingerprint())

	for _, bad := range []string{"fmt", "example.com/widgets", ".*", "a.Dup"} {
		_, err := im.Add(bad, "b.Dup")
		assert.Error(t, err, bad)
	}
	assert.Equal(t, "", (*Imports)(nil).Fingerprint())
}
