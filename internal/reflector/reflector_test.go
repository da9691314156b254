package reflector

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/traefik/yaegi/interp"
	"github.com/vk/graft/internal/classpath"
	"github.com/vk/graft/internal/scanner"
	"github.com/vk/graft/internal/testutil"
	"github.com/vk/graft/modules/widgets"
)

var widgetImports = scanner.MustParseImports(widgets.Path + ".*")

type pair struct{ picked string }

func newPairA(v any) *pair { return &pair{picked: "A"} }
func newPairB(v any) *pair { return &pair{picked: "B"} }

type bomb struct{}

type (
	flag    bool
	tagName string
)

type bag struct{ items []string }

func (b *bag) Add(s string) { b.items = append(b.items, s) }
func (b *bag) Clear()       { b.items = nil }

// bagHolder hands out its bag by value.
type bagHolder struct{ bag bag }

func (h *bagHolder) Bag() bag     { return h.bag }
func (h *bagHolder) SetBag(b bag) { h.bag = b }

type sealedBagHolder struct{ bag bag }

func (h *sealedBagHolder) Bag() bag { return h.bag }

type bagRef struct{ bag *bag }

func (h *bagRef) Bag() *bag { return h.bag }

func fixturesLibrary() *classpath.Library {
	return &classpath.Library{Name: "fixtures", Symbols: interp.Exports{
		"example.com/fixtures/fixtures": {
			"Pair":     reflect.ValueOf((*pair)(nil)),
			"NewPairB": reflect.ValueOf(newPairB),
			"NewPairA": reflect.ValueOf(newPairA),
			"Bomb":     reflect.ValueOf((*bomb)(nil)),
			"NewBomb":  reflect.ValueOf(func() *bomb { panic("kaboom") }),
		},
	}}
}

func newTestReflector(t *testing.T) (*Reflector, context.Context, *testutil.SafeBuffer) {
	t.Helper()
	ctx, logs := testutil.Context(t)
	loader := testutil.Loader(t, nil, testutil.WidgetsLibrary(), fixturesLibrary())
	return New(scanner.New(testutil.NewStaticSource(loader), classpath.ScopeClasspath)), ctx, logs
}

func TestInstantiate(t *testing.T) {
	r, ctx, _ := newTestReflector(t)

	testCases := []struct {
		name    string
		typ     string
		args    []any
		check   func(t *testing.T, got any)
		wantErr any
	}{
		{
			name: "default constructor when no zero-arity constructor exists",
			typ:  "Window",
			check: func(t *testing.T, got any) {
				w := got.(*widgets.Window)
				assert.Equal(t, "", w.Title)
				assert.Zero(t, w.Width)
			},
		},
		{
			name: "single string argument",
			typ:  "Window", args: []any{"main"},
			check: func(t *testing.T, got any) {
				assert.Equal(t, 800, got.(*widgets.Window).Width)
			},
		},
		{
			name: "numbers are narrowed to int",
			typ:  "Window", args: []any{"main", int64(3), int64(4)},
			check: func(t *testing.T, got any) {
				assert.Equal(t, 3, got.(*widgets.Window).Width)
				assert.Equal(t, 4, got.(*widgets.Window).Height)
			},
		},
		{
			name: "exact match beats interface parameter",
			typ:  "Label", args: []any{"x"},
			check: func(t *testing.T, got any) { assert.Equal(t, "x", got.(*widgets.Label).Text) },
		},
		{
			name: "interface parameter accepts anything",
			typ:  "Label", args: []any{int64(5)},
			check: func(t *testing.T, got any) { assert.Equal(t, "5", got.(*widgets.Label).Text) },
		},
		{
			name: "arity selects constructor",
			typ:  "Label", args: []any{"ab", int64(2)},
			check: func(t *testing.T, got any) { assert.Equal(t, "abab", got.(*widgets.Label).Text) },
		},
		{
			name: "struct results are returned by pointer",
			typ:  "Font", args: []any{"mono", int64(10)},
			check: func(t *testing.T, got any) {
				assert.Equal(t, &widgets.Font{Family: "mono", Size: 10}, got)
			},
		},
		{
			name:  "qualified name",
			typ:   widgets.Path + ".Panel",
			check: func(t *testing.T, got any) { assert.IsType(t, &widgets.Panel{}, got) },
		},
		{
			name: "predeclared type converts its argument",
			typ:  "int32", args: []any{int64(7)},
			check: func(t *testing.T, got any) { assert.Equal(t, int32(7), got) },
		},
		{name: "interface types cannot be built", typ: "Widget", wantErr: &ConstructionError{}},
		{name: "no constructor matches", typ: "Window", args: []any{true}, wantErr: &ConstructionError{}},
		{name: "panicking constructor", typ: "Bomb", args: []any{}, wantErr: &ConstructionError{}},
		{name: "unknown type", typ: "Missing", wantErr: &scanner.ClassNotFoundError{}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := r.Instantiate(ctx, tc.typ, tc.args, widgetImports)
			if tc.wantErr != nil {
				require.Error(t, err)
				target := reflect.New(reflect.TypeOf(tc.wantErr)).Interface()
				assert.True(t, errors.As(err, target), "got %v", err)
				return
			}
			require.NoError(t, err)
			tc.check(t, got)
		})
	}
}

func TestInstantiate_TieGoesToFirstConstructorAndIsLogged(t *testing.T) {
	r, ctx, logs := newTestReflector(t)

	got, err := r.Instantiate(ctx, "Pair", []any{"x"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "A", got.(*pair).picked)
	assert.Contains(t, logs.String(), "Several overloads match equally")
	assert.Contains(t, logs.String(), "chosen=NewPairA")
}

func TestInstantiate_PanicIsRecovered(t *testing.T) {
	r, ctx, _ := newTestReflector(t)
	_, err := r.Instantiate(ctx, "Bomb", nil, nil)
	var panicErr *PanicError
	require.True(t, errors.As(err, &panicErr))
	assert.Equal(t, "kaboom", panicErr.Value)
}

func TestGet(t *testing.T) {
	r, ctx, logs := newTestReflector(t)
	button := widgets.NewButton("ok")
	window := widgets.NewWindow("main")

	v, ok := r.Get(ctx, button, "text")
	assert.True(t, ok)
	assert.Equal(t, "ok", v)

	v, ok = r.Get(ctx, window, "title")
	assert.True(t, ok)
	assert.Equal(t, "main", v)

	v, ok = r.Get(ctx, window, "children")
	assert.True(t, ok)
	assert.IsType(t, &widgets.ChildList{}, v)

	v, ok = r.Get(ctx, map[string]int{"a": 1}, "a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = r.Get(ctx, window, "missing")
	assert.False(t, ok)
	assert.Contains(t, logs.String(), "Property not found.")

	_, ok = r.Get(ctx, nil, "x")
	assert.False(t, ok)
}

func TestGetStatic(t *testing.T) {
	r, ctx, _ := newTestReflector(t)

	v, ok := r.GetStatic(ctx, "widgets", "DefaultFont", widgetImports)
	assert.True(t, ok)
	assert.Equal(t, widgets.DefaultFont, v)

	v, ok = r.GetStatic(ctx, "Alignment", "AlignRight", widgetImports)
	assert.True(t, ok)
	assert.Equal(t, widgets.AlignRight, v)

	v, ok = r.GetStatic(ctx, "Alignment", "Center", widgetImports)
	assert.True(t, ok)
	assert.Equal(t, widgets.AlignCenter, v)

	_, ok = r.GetStatic(ctx, "widgets", "Nope", widgetImports)
	assert.False(t, ok)
	_, ok = r.GetStatic(ctx, "nowhere", "X", widgetImports)
	assert.False(t, ok)
}

func TestSet(t *testing.T) {
	r, ctx, _ := newTestReflector(t)

	testCases := []struct {
		name   string
		target func() any
		prop   string
		value  any
		ok     bool
		check  func(t *testing.T, target any)
	}{
		{
			name: "setter", target: func() any { return widgets.NewButton("a") }, prop: "text", value: "b", ok: true,
			check: func(t *testing.T, target any) {
				assert.Equal(t, "b", target.(*widgets.Button).Text())
				assert.Equal(t, 1, target.(*widgets.Button).SetCalls())
			},
		},
		{
			name: "field with narrowing", target: func() any { return widgets.NewWindow("w") }, prop: "width", value: int64(1024), ok: true,
			check: func(t *testing.T, target any) { assert.Equal(t, 1024, target.(*widgets.Window).Width) },
		},
		{
			name: "enum by constant name", target: func() any { return widgets.NewButton("a") }, prop: "align", value: "AlignRight", ok: true,
			check: func(t *testing.T, target any) { assert.Equal(t, widgets.AlignRight, target.(*widgets.Button).Align) },
		},
		{
			name: "enum by String form", target: func() any { return widgets.NewButton("a") }, prop: "align", value: "center", ok: true,
			check: func(t *testing.T, target any) { assert.Equal(t, widgets.AlignCenter, target.(*widgets.Button).Align) },
		},
		{
			name: "duration from string", target: func() any { return widgets.NewWindow("w") }, prop: "timeout", value: "1m30s", ok: true,
			check: func(t *testing.T, target any) { assert.Equal(t, 90*time.Second, target.(*widgets.Window).Timeout) },
		},
		{
			name: "pointer to value", target: func() any { return widgets.NewButton("a") }, prop: "font", value: &widgets.Font{Family: "mono"}, ok: true,
			check: func(t *testing.T, target any) { assert.Equal(t, "mono", target.(*widgets.Button).Font.Family) },
		},
		{
			name: "list to typed slice", target: func() any { return widgets.NewWindow("w") }, prop: "sizes", value: []any{int64(1), int64(2)}, ok: true,
			check: func(t *testing.T, target any) { assert.Equal(t, []int{1, 2}, target.(*widgets.Window).Sizes) },
		},
		{
			name: "list to array", target: func() any { return &widgets.Panel{} }, prop: "padding", value: []any{int64(1), int64(2), int64(3), int64(4)}, ok: true,
			check: func(t *testing.T, target any) { assert.Equal(t, [4]int{1, 2, 3, 4}, target.(*widgets.Panel).Padding) },
		},
		{
			name: "map to typed map", target: func() any { return widgets.NewWindow("w") }, prop: "tags", value: map[any]any{"k": "v"}, ok: true,
			check: func(t *testing.T, target any) {
				assert.Equal(t, map[string]string{"k": "v"}, target.(*widgets.Window).Tags)
			},
		},
		{
			name: "snake case name", target: func() any { return widgets.NewController() }, prop: "ok_button", value: widgets.NewButton("ok"), ok: true,
			check: func(t *testing.T, target any) { assert.Equal(t, "ok", target.(*widgets.Controller).OkButton.Text()) },
		},
		{
			name: "nil into pointer field", target: func() any { return &widgets.Controller{OkButton: widgets.NewButton("x")} }, prop: "okButton", value: nil, ok: true,
			check: func(t *testing.T, target any) { assert.Nil(t, target.(*widgets.Controller).OkButton) },
		},
		{name: "unconvertible value", target: func() any { return widgets.NewWindow("w") }, prop: "width", value: "wide"},
		{name: "lossy number", target: func() any { return widgets.NewWindow("w") }, prop: "width", value: 1.5},
		{name: "unknown property", target: func() any { return widgets.NewWindow("w") }, prop: "nope", value: 1},
		{name: "struct copy is not settable", target: func() any { return widgets.Font{} }, prop: "family", value: "x"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			target := tc.target()
			assert.Equal(t, tc.ok, r.Set(ctx, target, tc.prop, tc.value))
			if tc.check != nil {
				tc.check(t, target)
			}
		})
	}
}

func TestInvoke(t *testing.T) {
	r, ctx, _ := newTestReflector(t)
	window := widgets.NewWindow("w")

	got, err := r.Invoke(ctx, window, "show", nil)
	require.NoError(t, err)
	assert.Same(t, window, got)
	assert.True(t, window.Visible)

	got, err = r.Invoke(ctx, window, "Named", []any{"renamed"})
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.(*widgets.Window).Title)

	panel := &widgets.Panel{}
	got, err = r.Invoke(ctx, panel, "AddAll", []any{widgets.NewButton("a"), widgets.NewLabel("b")})
	require.NoError(t, err)
	assert.Equal(t, 2, got)

	got, err = r.Invoke(ctx, panel, "AddAll", []any{[]widgets.Widget{widgets.NewButton("c")}})
	require.NoError(t, err)
	assert.Equal(t, 3, got, "an already built slice is passed through")

	got, err = r.Invoke(ctx, panel, "AddAll", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, got)

	got, err = r.Invoke(ctx, panel, "Find", []any{"nothing"})
	require.NoError(t, err)
	assert.Nil(t, got, "nil interface results are absent")

	got, err = r.Invoke(ctx, widgets.DefaultFont, "WithSize", []any{int64(20)})
	require.NoError(t, err)
	assert.Equal(t, 20.0, got.(widgets.Font).Size)

	_, err = r.Invoke(ctx, widgets.NewWindowBuilder(), "Build", nil)
	var invErr *InvocationError
	require.True(t, errors.As(err, &invErr))
	assert.Equal(t, "Build", invErr.Method)

	_, err = r.Invoke(ctx, window, "fly", nil)
	assert.True(t, errors.As(err, &invErr))

	_, err = r.Invoke(ctx, nil, "show", nil)
	assert.True(t, errors.As(err, &invErr))
}

func TestInvokeStatic(t *testing.T) {
	r, ctx, _ := newTestReflector(t)

	testCases := []struct {
		name    string
		owner   string
		method  string
		args    []any
		want    any
		wantErr bool
	}{
		{name: "varargs packing", owner: "widgets", method: "Sum", args: []any{int64(1), int64(2), int64(3)}, want: 6},
		{name: "empty varargs", owner: "widgets", method: "Sum", want: 0},
		{name: "fixed plus varargs", owner: widgets.Path, method: "Join", args: []any{"-", "a", "b"}, want: "a-b"},
		{name: "spread slice", owner: "widgets", method: "Sum", args: []any{[]int{4, 5}}, want: 9},
		{name: "method expression", owner: "Font", method: "WithSize", args: []any{&widgets.Font{Family: "f"}, 3.5}, want: widgets.Font{Family: "f", Size: 3.5}},
		{name: "constructor as function", owner: "widgets", method: "NewFont", args: []any{"f", int64(2)}, want: widgets.Font{Family: "f", Size: 2}},
		{name: "panic becomes error", owner: "widgets", method: "Explode", wantErr: true},
		{name: "wrong argument", owner: "widgets", method: "Sum", args: []any{"x"}, wantErr: true},
		{name: "unknown function", owner: "widgets", method: "Nope", wantErr: true},
		{name: "unknown owner", owner: "ghost", method: "Sum", wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := r.InvokeStatic(ctx, tc.owner, tc.method, tc.args, widgetImports)
			if tc.wantErr {
				var invErr *InvocationError
				assert.True(t, errors.As(err, &invErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestHandleCollection_Strategies(t *testing.T) {
	r, ctx, _ := newTestReflector(t)
	items := []any{int64(4), int64(5)}

	testCases := []struct {
		name  string
		clear bool
		want  []int
	}{
		{name: "add appends", clear: false, want: []int{1, 2, 3, 4, 5}},
		{name: "set replaces", clear: true, want: []int{4, 5}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := &widgets.Window{Sizes: []int{1, 2, 3}}
			require.True(t, r.HandleCollection(ctx, w, "sizes", items, tc.clear))
			assert.Equal(t, tc.want, w.Sizes)
		})
	}
}

func TestHandleCollection_Shapes(t *testing.T) {
	r, ctx, _ := newTestReflector(t)

	t.Run("collection with Add and Clear methods", func(t *testing.T) {
		w := widgets.NewWindow("w")
		list := w.Children()
		require.True(t, r.HandleCollection(ctx, w, "children", []any{widgets.NewButton("a"), widgets.NewButton("b")}, false))
		require.True(t, r.HandleCollection(ctx, w, "children", []any{widgets.NewLabel("c")}, true))
		assert.Same(t, list, w.Children(), "the collection keeps its identity")
		require.Equal(t, 1, w.Children().Len())
		assert.Equal(t, "label", w.Children().Items()[0].Kind())
		assert.Equal(t, 3, w.Children().Adds(), "items are added one at a time")
	})

	t.Run("copied slice is written back through the setter", func(t *testing.T) {
		l := widgets.NewLabel("x")
		l.SetLines([]string{"a"})
		require.True(t, r.HandleCollection(ctx, l, "lines", []any{"b"}, false))
		assert.Equal(t, []string{"a", "b"}, l.Lines())
		require.True(t, r.HandleCollection(ctx, l, "lines", []any{"c"}, true))
		assert.Equal(t, []string{"c"}, l.Lines())
	})

	t.Run("maps are updated in place", func(t *testing.T) {
		w := widgets.NewWindow("w")
		require.True(t, r.HandleCollection(ctx, w, "tags", map[any]any{"a": "1"}, false))
		tags := w.Tags
		require.True(t, r.HandleCollection(ctx, w, "tags", map[any]any{"b": "2"}, false))
		assert.Equal(t, map[string]string{"a": "1", "b": "2"}, w.Tags)
		require.True(t, r.HandleCollection(ctx, w, "tags", map[any]any{"c": "3"}, true))
		assert.Equal(t, map[string]string{"c": "3"}, tags)
	})

	t.Run("copied value with pointer adders is written back", func(t *testing.T) {
		h := &bagHolder{bag: bag{items: []string{"a"}}}
		require.True(t, r.HandleCollection(ctx, h, "bag", []any{"b", "c"}, false))
		assert.Equal(t, []string{"a", "b", "c"}, h.bag.items)
		require.True(t, r.HandleCollection(ctx, h, "bag", []any{"d"}, true))
		assert.Equal(t, []string{"d"}, h.bag.items)
	})

	t.Run("copied value without a setter fails", func(t *testing.T) {
		h := &sealedBagHolder{bag: bag{items: []string{"a"}}}
		assert.False(t, r.HandleCollection(ctx, h, "bag", []any{"b"}, false))
		assert.Equal(t, []string{"a"}, h.bag.items)
	})

	t.Run("set strategy keeps items when one does not fit", func(t *testing.T) {
		h := &bagRef{bag: &bag{items: []string{"a", "b"}}}
		assert.False(t, r.HandleCollection(ctx, h, "bag", []any{"c", struct{}{}}, true))
		assert.Equal(t, []string{"a", "b"}, h.bag.items)
	})

	t.Run("shape mismatch fails", func(t *testing.T) {
		w := &widgets.Window{Sizes: []int{1}}
		assert.False(t, r.HandleCollection(ctx, w, "sizes", map[any]any{"a": 1}, false))
		assert.False(t, r.HandleCollection(ctx, w, "sizes", []any{"x"}, false))
		assert.False(t, r.HandleCollection(ctx, w, "nothing", []any{1}, false))
		assert.False(t, r.HandleCollection(ctx, nil, "sizes", []any{1}, false))
	})
}

func TestNewArray(t *testing.T) {
	r, ctx, _ := newTestReflector(t)

	got, err := r.NewArray(ctx, "int", []any{int64(1), int64(2), int64(3)}, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)

	got, err = r.NewArray(ctx, "Widget", []any{widgets.NewButton("a"), nil}, widgetImports)
	require.NoError(t, err)
	require.Len(t, got.([]widgets.Widget), 2)

	got, err = r.NewArray(ctx, "string", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{}, got)

	_, err = r.NewArray(ctx, "byte", []any{int64(300)}, nil)
	assert.Error(t, err, "lossy items are rejected")
	_, err = r.NewArray(ctx, "string", []any{int64(1)}, nil)
	assert.Error(t, err)
	_, err = r.NewArray(ctx, "Nope", nil, nil)
	assert.Error(t, err)
}

func TestCoerce_Numbers(t *testing.T) {
	r, _, _ := newTestReflector(t)

	testCases := []struct {
		in   any
		to   any
		want any
		ok   bool
	}{
		{in: int64(5), to: uint8(0), want: uint8(5), ok: true},
		{in: int64(-1), to: uint(0), ok: false},
		{in: int64(300), to: int8(0), ok: false},
		{in: 2.0, to: int(0), want: 2, ok: true},
		{in: 2.5, to: int(0), ok: false},
		{in: int64(3), to: float32(0), want: float32(3), ok: true},
		{in: 0.1, to: float32(0), want: float32(0.1), ok: true},
		{in: int64(1) << 60, to: float64(0), want: float64(int64(1) << 60), ok: true},
		{in: "x", to: int(0), ok: false},
		{in: int64(1)<<60 + 1, to: float64(0), ok: false},
		{in: 1e300, to: float32(0), ok: false},
		{in: 1e300, to: int64(0), ok: false},
		{in: uint64(7), to: int16(0), want: int16(7), ok: true},
		{in: int64(2), to: widgets.Alignment(0), want: widgets.Alignment(2), ok: true},
		{in: true, to: flag(false), want: flag(true), ok: true},
		{in: "ok", to: tagName(""), want: tagName("ok"), ok: true},
	}
	for _, tc := range testCases {
		got, err := r.Coerce(tc.in, reflect.TypeOf(tc.to))
		if !tc.ok {
			assert.Error(t, err, "%v -> %T", tc.in, tc.to)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func TestCoerce_Times(t *testing.T) {
	r, _, _ := newTestReflector(t)
	timeType := reflect.TypeOf(time.Time{})

	testCases := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{in: "2024-03-01T10:30:00Z", want: time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC), ok: true},
		{in: "2024-03-01", want: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), ok: true},
		{in: "not a date", ok: false},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := r.Coerce(tc.in, timeType)
			if !tc.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(got.(time.Time)), "got %v", got)
		})
	}
}

func TestMemberNames(t *testing.T) {
	testCases := []struct {
		in   string
		want []string
	}{
		{in: "text", want: []string{"Text"}},
		{in: "okButton", want: []string{"OkButton"}},
		{in: "ok_button", want: []string{"OkButton"}},
		{in: "main-window", want: []string{"MainWindow"}},
		{in: "imageUrl", want: []string{"ImageUrl", "ImageURL"}},
		{in: "id", want: []string{"Id", "ID"}},
		{in: "", want: nil},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, memberNames(tc.in))
		})
	}
}

func TestEnumCache_FollowsLoader(t *testing.T) {
	src := testutil.NewStaticSource(testutil.Loader(t, nil, testutil.WidgetsLibrary()))
	r := New(scanner.New(src, classpath.ScopeClasspath))
	alignment := reflect.TypeOf(widgets.AlignLeft)

	got, err := r.Coerce("center", alignment)
	require.NoError(t, err)
	assert.Equal(t, widgets.AlignCenter, got)
	first := r.enums.Load()
	_, cached := first.consts.Load(alignment)
	assert.True(t, cached)

	r.Invalidate()
	second := r.enums.Load()
	assert.NotSame(t, first, second)
	_, cached = second.consts.Load(alignment)
	assert.False(t, cached, "invalidation drops the constants")

	src.Swap(testutil.Loader(t, nil, testutil.WidgetsLibrary()))
	_, err = r.Coerce("Right", alignment)
	require.NoError(t, err)
	third := r.enums.Load()
	assert.Same(t, src.Loader(), third.loader, "a swapped loader gets its own cache")
	assert.NotSame(t, second, third)
}
