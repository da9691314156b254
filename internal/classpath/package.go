package classpath

import (
	"go/constant"
	"reflect"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

var constantValueType = reflect.TypeOf((*constant.Value)(nil)).Elem()

// Symbol is one named entry of a package's symbol table.
type Symbol struct {
	Name  string
	Value reflect.Value
}

// Package is one importable package of a Library. It is immutable once its
// Loader has been built.
type Package struct {
	Path    string
	Name    string
	Library string

	funcs   map[string]reflect.Value
	values  map[string]reflect.Value
	classes map[string]*Class
}

func newPackage(path, name, library string) *Package {
	return &Package{
		Path:    path,
		Name:    name,
		Library: library,
		funcs:   make(map[string]reflect.Value),
		values:  make(map[string]reflect.Value),
		classes: make(map[string]*Class),
	}
}

// add classifies a symbol using the yaegi export conventions: types are typed
// nil pointers, variables are addressable values, functions are funcs and
// everything else is a constant.
func (p *Package) add(name string, v reflect.Value) bool {
	if name == "" || strings.HasPrefix(name, "_") || !v.IsValid() {
		return false
	}
	if _, dup := p.lookup(name); dup {
		return false
	}
	switch {
	case v.Kind() == reflect.Ptr && v.IsNil() && !v.CanAddr():
		t := v.Type().Elem()
		p.classes[name] = &Class{
			Name:    qualify(p.Path, name),
			Simple:  name,
			Package: p,
			Type:    t,
		}
	case v.Kind() == reflect.Func && !v.CanAddr():
		p.funcs[name] = v
	default:
		p.values[name] = v
	}
	return true
}

func (p *Package) lookup(name string) (reflect.Value, bool) {
	if c, ok := p.classes[name]; ok {
		return reflect.Zero(reflect.PointerTo(c.Type)), true
	}
	if f, ok := p.funcs[name]; ok {
		return f, true
	}
	v, ok := p.values[name]
	return v, ok
}

// seal computes the constructor sets once every symbol has been added.
func (p *Package) seal() {
	for _, c := range p.classes {
		c.constructors = p.constructorsFor(c)
	}
}

func (p *Package) constructorsFor(c *Class) []Symbol {
	prefix := "New" + c.Simple
	var out []Symbol
	for _, name := range sortedKeys(p.funcs) {
		if name != "New" && name != prefix {
			if !strings.HasPrefix(name, prefix) {
				continue
			}
			next, _ := utf8.DecodeRuneInString(name[len(prefix):])
			if !unicode.IsUpper(next) && !unicode.IsDigit(next) {
				continue
			}
		}
		fn := p.funcs[name]
		ft := fn.Type()
		if ft.NumOut() == 0 {
			continue
		}
		res := ft.Out(0)
		if res != c.Type && !(res.Kind() == reflect.Ptr && res.Elem() == c.Type) {
			continue
		}
		out = append(out, Symbol{Name: name, Value: fn})
	}
	return out
}

// Class returns the type named simple declared by this package.
func (p *Package) Class(simple string) (*Class, bool) {
	c, ok := p.classes[simple]
	return c, ok
}

// Classes returns every type of the package ordered by name.
func (p *Package) Classes() []*Class {
	out := make([]*Class, 0, len(p.classes))
	for _, name := range sortedKeys(p.classes) {
		out = append(out, p.classes[name])
	}
	return out
}

// Func returns the package-level function called name.
func (p *Package) Func(name string) (reflect.Value, bool) {
	f, ok := p.funcs[name]
	return f, ok
}

// Value returns a package-level variable or constant. Untyped constants
// stored as go/constant values are converted to their natural Go type.
func (p *Package) Value(name string) (reflect.Value, bool) {
	v, ok := p.values[name]
	if !ok {
		return reflect.Value{}, false
	}
	if v.Type() == constantValueType || v.Type().Implements(constantValueType) {
		if cv, ok := v.Interface().(constant.Value); ok {
			return reflect.ValueOf(fromConstant(cv)), true
		}
	}
	return v, true
}

// Constants returns the package values whose type is exactly t, ordered by
// name. Typed constants are how Go expresses enumerations.
func (p *Package) Constants(t reflect.Type) []Symbol {
	var out []Symbol
	for _, name := range sortedKeys(p.values) {
		v := p.values[name]
		if v.Type() == t {
			out = append(out, Symbol{Name: name, Value: v})
		}
	}
	return out
}

func (p *Package) String() string {
	return p.Path
}

func fromConstant(cv constant.Value) any {
	switch cv.Kind() {
	case constant.Bool:
		return constant.BoolVal(cv)
	case constant.String:
		return constant.StringVal(cv)
	case constant.Int:
		if i, exact := constant.Int64Val(cv); exact {
			return i
		}
		if u, exact := constant.Uint64Val(cv); exact {
			return u
		}
		f, _ := constant.Float64Val(cv)
		return f
	case constant.Float:
		f, _ := constant.Float64Val(cv)
		return f
	default:
		return cv.ExactString()
	}
}

func qualify(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
