package reflector

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/vk/graft/internal/classpath"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Match costs. Lower is more specific.
const (
	costExact   = 0
	costCoerce  = 1
	costAssign  = 2
	costVarargs = 1
)

var (
	errorType    = reflect.TypeOf((*error)(nil)).Elem()
	durationType = reflect.TypeOf(time.Duration(0))
	timeType     = reflect.TypeOf(time.Time{})
	stringerType = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
)

// Coerce converts v to t using the same rules as argument matching.
func (r *Reflector) Coerce(v any, t reflect.Type) (any, error) {
	out, _, ok := r.convert(v, t)
	if !ok {
		return nil, fmt.Errorf("cannot use %s as %s", describe(v), t)
	}
	return out.Interface(), nil
}

func (r *Reflector) convert(arg any, t reflect.Type) (reflect.Value, int, bool) {
	if arg == nil {
		if nillable(t) {
			return reflect.Zero(t), costCoerce, true
		}
		return reflect.Value{}, 0, false
	}
	return r.convertValue(reflect.ValueOf(arg), t)
}

func (r *Reflector) convertValue(v reflect.Value, t reflect.Type) (reflect.Value, int, bool) {
	for v.Kind() == reflect.Interface {
		if v.IsNil() {
			if nillable(t) {
				return reflect.Zero(t), costCoerce, true
			}
			return reflect.Value{}, 0, false
		}
		v = v.Elem()
	}
	at := v.Type()
	switch {
	case at == t:
		return v, costExact, true
	case at.AssignableTo(t):
		if t.Kind() == reflect.Interface {
			return v, costAssign, true
		}
		return v.Convert(t), costCoerce, true
	}
	if out, ok := r.coerce(v, t); ok {
		return out, costCoerce, true
	}
	return reflect.Value{}, 0, false
}

func (r *Reflector) coerce(v reflect.Value, t reflect.Type) (reflect.Value, bool) {
	at := v.Type()
	if t.Kind() == reflect.Ptr && at.Kind() != reflect.Ptr {
		inner, _, ok := r.convertValue(v, t.Elem())
		if !ok {
			return reflect.Value{}, false
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(inner)
		return p, true
	}
	if at.Kind() == reflect.Ptr && t.Kind() != reflect.Ptr && t.Kind() != reflect.Interface {
		if v.IsNil() || at.Elem() != t {
			return reflect.Value{}, false
		}
		return v.Elem(), true
	}

	switch {
	case v.Kind() == reflect.String:
		return r.fromString(v, t)
	case isNumber(v.Kind()) && isNumber(t.Kind()):
		return convertNumber(v, t)
	case v.Kind() == reflect.Bool && t.Kind() == reflect.Bool:
		return fromCty(cty.BoolVal(v.Bool()), t)
	case v.Kind() == reflect.Slice && t.Kind() == reflect.Slice:
		out := reflect.MakeSlice(t, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			item, _, ok := r.convertValue(v.Index(i), t.Elem())
			if !ok {
				return reflect.Value{}, false
			}
			out = reflect.Append(out, item)
		}
		return out, true
	case v.Kind() == reflect.Slice && t.Kind() == reflect.Array:
		if v.Len() != t.Len() {
			return reflect.Value{}, false
		}
		out := reflect.New(t).Elem()
		for i := 0; i < v.Len(); i++ {
			item, _, ok := r.convertValue(v.Index(i), t.Elem())
			if !ok {
				return reflect.Value{}, false
			}
			out.Index(i).Set(item)
		}
		return out, true
	case v.Kind() == reflect.Map && t.Kind() == reflect.Map:
		out := reflect.MakeMapWithSize(t, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			k, _, ok := r.convertValue(iter.Key(), t.Key())
			if !ok {
				return reflect.Value{}, false
			}
			val, _, ok := r.convertValue(iter.Value(), t.Elem())
			if !ok {
				return reflect.Value{}, false
			}
			out.SetMapIndex(k, val)
		}
		return out, true
	}
	return reflect.Value{}, false
}

// fromString handles durations, timestamps, typed constants and named
// string types.
func (r *Reflector) fromString(v reflect.Value, t reflect.Type) (reflect.Value, bool) {
	s := v.String()
	if t == durationType {
		d, err := time.ParseDuration(s)
		if err != nil {
			return reflect.Value{}, false
		}
		return reflect.ValueOf(d), true
	}
	if t == timeType {
		tm, err := dateparse.ParseIn(s, time.UTC)
		if err != nil {
			return reflect.Value{}, false
		}
		return reflect.ValueOf(tm), true
	}
	if t.PkgPath() != "" {
		if c, ok := r.enumConstant(s, t); ok {
			return c, true
		}
	}
	if t.Kind() == reflect.String {
		return fromCty(cty.StringVal(s), t)
	}
	return reflect.Value{}, false
}

// constantsOf returns the typed constants of t: first those of the package
// with t's import path, otherwise those of any package on the classpath.
func (r *Reflector) constantsOf(t reflect.Type) []classpath.Symbol {
	loader := r.scanner.Loader()
	cache := r.enumsFor(loader)
	if hit, ok := cache.consts.Load(t); ok {
		return hit.([]classpath.Symbol)
	}
	var out []classpath.Symbol
	if pkg, ok := loader.Package(t.PkgPath()); ok {
		out = pkg.Constants(t)
	}
	if len(out) == 0 {
		for _, path := range loader.Packages() {
			if pkg, ok := loader.Package(path); ok {
				out = append(out, pkg.Constants(t)...)
			}
		}
	}
	cache.consts.Store(t, out)
	return out
}

// enumConstant matches s against the constants of t by name, then
// case-insensitively, then by String() output, then by unique name suffix
// ("Center" selects AlignCenter).
func (r *Reflector) enumConstant(s string, t reflect.Type) (reflect.Value, bool) {
	consts := r.constantsOf(t)
	if len(consts) == 0 {
		return reflect.Value{}, false
	}
	for _, c := range consts {
		if c.Name == s {
			return c.Value, true
		}
	}
	for _, c := range consts {
		if strings.EqualFold(c.Name, s) {
			return c.Value, true
		}
	}
	if t.Implements(stringerType) {
		for _, c := range consts {
			if str, ok := c.Value.Interface().(fmt.Stringer); ok && strings.EqualFold(str.String(), s) {
				return c.Value, true
			}
		}
	}
	var suffix []classpath.Symbol
	lower := strings.ToLower(Export(s))
	for _, c := range consts {
		if strings.HasSuffix(strings.ToLower(c.Name), lower) {
			suffix = append(suffix, c)
		}
	}
	if len(suffix) == 1 {
		return suffix[0].Value, true
	}
	return reflect.Value{}, false
}

// convertNumber moves a number between Go numeric types through cty, which
// rejects fractions and out-of-range values for integer targets. Float
// targets must also hold integers and finite values without loss.
func convertNumber(v reflect.Value, t reflect.Type) (reflect.Value, bool) {
	var n cty.Value
	switch {
	case isSigned(v.Kind()):
		n = cty.NumberIntVal(v.Int())
	case isUnsigned(v.Kind()):
		n = cty.NumberUIntVal(v.Uint())
	default:
		f := v.Float()
		if math.IsNaN(f) {
			if t.Kind() != reflect.Float32 && t.Kind() != reflect.Float64 {
				return reflect.Value{}, false
			}
			return reflect.ValueOf(f).Convert(t), true
		}
		n = cty.NumberFloatVal(f)
	}
	out := reflect.New(t)
	if err := gocty.FromCtyValue(n, out.Interface()); err != nil {
		return reflect.Value{}, false
	}
	res := out.Elem()
	if res.Kind() == reflect.Float32 || res.Kind() == reflect.Float64 {
		f := res.Float()
		switch {
		case isSigned(v.Kind()):
			if math.IsInf(f, 0) || int64(f) != v.Int() {
				return reflect.Value{}, false
			}
		case isUnsigned(v.Kind()):
			if math.IsInf(f, 0) || uint64(f) != v.Uint() {
				return reflect.Value{}, false
			}
		default:
			if math.IsInf(f, 0) && !math.IsInf(v.Float(), 0) {
				return reflect.Value{}, false
			}
		}
	}
	return res, true
}

// fromCty decodes a scalar into t, which must be of the scalar's kind.
func fromCty(val cty.Value, t reflect.Type) (reflect.Value, bool) {
	out := reflect.New(t)
	if err := gocty.FromCtyValue(val, out.Interface()); err != nil {
		return reflect.Value{}, false
	}
	return out.Elem(), true
}

func isSigned(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUnsigned(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

func isNumber(k reflect.Kind) bool {
	return isSigned(k) || isUnsigned(k) || k == reflect.Float32 || k == reflect.Float64
}

func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return true
	}
	return false
}

// present turns a reflected result into an instance handle; nil-valued
// pointers, maps, slices and interfaces become an untyped nil.
func present(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	if nillable(v.Type()) && v.IsNil() {
		return nil
	}
	return v.Interface()
}

func describe(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}
