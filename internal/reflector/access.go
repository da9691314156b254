package reflector

import (
	"context"
	"fmt"
	"reflect"

	"github.com/vk/graft/internal/ctxlog"
	"github.com/vk/graft/internal/scanner"
)

// Get reads member name of target through an accessor (Name, GetName,
// IsName), an exported field, or a string-keyed map entry. A failed read is
// logged and reported as absent.
func (r *Reflector) Get(ctx context.Context, target any, name string) (any, bool) {
	logger := ctxlog.FromContext(ctx)
	if target == nil {
		logger.Warn("Cannot read property of nil.", "property", name)
		return nil, false
	}
	v, ok, err := r.get(reflect.ValueOf(target), name)
	if err != nil {
		logger.Warn("Property read failed.", "property", name, "target", describe(target), "error", err)
		return nil, false
	}
	if !ok {
		logger.Warn("Property not found.", "property", name, "target", describe(target))
		return nil, false
	}
	return present(v), true
}

func (r *Reflector) get(v reflect.Value, name string) (reflect.Value, bool, error) {
	for _, m := range methods(v, accessorNames(name)) {
		ft := m.fn.Type()
		if ft.NumIn() != 0 || ft.NumOut() == 0 || ft.Out(0) == errorType {
			continue
		}
		out, err := binding{callable: m}.call()
		if err != nil {
			return reflect.Value{}, false, err
		}
		return out, true, nil
	}
	if f, ok := field(v, name); ok {
		return f, true, nil
	}
	if e, ok := mapEntry(v, name); ok {
		return e, true, nil
	}
	return reflect.Value{}, false, nil
}

// field returns the exported struct field matching name, dereferencing
// pointers. The field is settable when v was reached through a pointer.
func field(v reflect.Value, name string) (reflect.Value, bool) {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	for _, n := range memberNames(name) {
		sf, ok := v.Type().FieldByName(n)
		if !ok || !sf.IsExported() {
			continue
		}
		f, err := v.FieldByIndexErr(sf.Index)
		if err != nil {
			continue
		}
		return f, true
	}
	return reflect.Value{}, false
}

func mapEntry(v reflect.Value, name string) (reflect.Value, bool) {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Map || v.Type().Key().Kind() != reflect.String {
		return reflect.Value{}, false
	}
	e := v.MapIndex(reflect.ValueOf(name).Convert(v.Type().Key()))
	return e, e.IsValid()
}

// GetStatic reads a package-level variable or constant, or calls a
// zero-argument function, of owner's package. A typed constant of an owner
// type may also be named the way string coercion accepts it.
func (r *Reflector) GetStatic(ctx context.Context, owner, name string, imports *scanner.Imports) (any, bool) {
	logger := ctxlog.FromContext(ctx).With("owner", owner, "member", name)
	o, err := r.scanner.ResolveOwner(ctx, owner, imports)
	if err != nil {
		logger.Warn("Static owner not found.", "error", err)
		return nil, false
	}
	if o.Package != nil {
		for _, n := range append([]string{name}, memberNames(name)...) {
			if v, ok := o.Package.Value(n); ok {
				return present(v), true
			}
			if fn, ok := o.Package.Func(n); ok && fn.Type().NumIn() == 0 {
				out, err := binding{callable: callable{name: n, fn: fn}}.call()
				if err != nil {
					logger.Warn("Static read failed.", "error", err)
					return nil, false
				}
				return present(out), true
			}
		}
	}
	if o.Class != nil {
		if c, ok := r.enumConstant(name, o.Class.Type); ok {
			return c.Interface(), true
		}
	}
	logger.Warn("Static member not found.", "resolved", o.String())
	return nil, false
}

// Set writes value into member name of target through SetName or a settable
// exported field, coercing it first. A failed write is logged and reported
// as false.
func (r *Reflector) Set(ctx context.Context, target any, name string, value any) bool {
	logger := ctxlog.FromContext(ctx)
	if target == nil {
		logger.Warn("Cannot set property of nil.", "property", name)
		return false
	}
	if err := r.set(ctx, reflect.ValueOf(target), name, value); err != nil {
		logger.Warn("Property set failed.", "property", name, "target", describe(target), "value", describe(value), "error", err)
		return false
	}
	return true
}

func (r *Reflector) set(ctx context.Context, v reflect.Value, name string, value any) error {
	var setters []callable
	for _, m := range methods(v, setterNames(name)) {
		if m.fn.Type().NumIn() == 1 || m.fn.Type().IsVariadic() {
			setters = append(setters, m)
		}
	}
	if len(setters) > 0 {
		b, err := r.choose(ctx, describe(v.Interface())+"."+setters[0].name, setters, []any{value})
		if err != nil {
			return err
		}
		_, err = b.call()
		return err
	}
	if f, ok := field(v, name); ok {
		if !f.CanSet() {
			return fmt.Errorf("field %s is not settable, target must be a pointer", name)
		}
		cv, _, ok := r.convert(value, f.Type())
		if !ok {
			return fmt.Errorf("cannot use %s as %s", describe(value), f.Type())
		}
		f.Set(cv)
		return nil
	}
	m := v
	for m.Kind() == reflect.Ptr && !m.IsNil() {
		m = m.Elem()
	}
	if m.Kind() == reflect.Map && m.Type().Key().Kind() == reflect.String && !m.IsNil() {
		cv, _, ok := r.convert(value, m.Type().Elem())
		if !ok {
			return fmt.Errorf("cannot use %s as %s", describe(value), m.Type().Elem())
		}
		m.SetMapIndex(reflect.ValueOf(name).Convert(m.Type().Key()), cv)
		return nil
	}
	return fmt.Errorf("no setter or field %q", name)
}

// Invoke calls method name on target with args and returns its first
// non-error result, nil when there is none.
func (r *Reflector) Invoke(ctx context.Context, target any, name string, args []any) (any, error) {
	if target == nil {
		return nil, &InvocationError{Target: "nil", Method: name, Err: fmt.Errorf("nil target")}
	}
	tname := describe(target)
	cands := methods(reflect.ValueOf(target), memberNames(name))
	if len(cands) == 0 {
		return nil, &InvocationError{Target: tname, Method: name, Err: fmt.Errorf("no such method")}
	}
	return r.invoke(ctx, tname, name, cands, args)
}

// InvokeStatic calls a package function of owner, or a method expression of
// the owner type whose first argument is the receiver.
func (r *Reflector) InvokeStatic(ctx context.Context, owner, name string, args []any, imports *scanner.Imports) (any, error) {
	o, err := r.scanner.ResolveOwner(ctx, owner, imports)
	if err != nil {
		return nil, &InvocationError{Target: owner, Method: name, Err: err}
	}
	var cands []callable
	names := append([]string{name}, memberNames(name)...)
	seen := make(map[string]bool)
	if o.Package != nil {
		for _, n := range names {
			if fn, ok := o.Package.Func(n); ok && !seen[n] {
				seen[n] = true
				cands = append(cands, callable{name: o.Package.Path + "." + n, fn: fn})
			}
		}
	}
	if o.Class != nil && o.Class.Type.Kind() != reflect.Interface {
		for _, t := range []reflect.Type{o.Class.Type, reflect.PointerTo(o.Class.Type)} {
			for _, n := range memberNames(name) {
				if m, ok := t.MethodByName(n); ok {
					cands = append(cands, callable{name: t.String() + "." + n, fn: m.Func})
				}
			}
		}
	}
	if len(cands) == 0 {
		return nil, &InvocationError{Target: o.String(), Method: name, Err: fmt.Errorf("no such function")}
	}
	return r.invoke(ctx, o.String(), name, cands, args)
}

func (r *Reflector) invoke(ctx context.Context, target, name string, cands []callable, args []any) (any, error) {
	b, err := r.choose(ctx, target+"."+name, cands, args)
	if err != nil {
		return nil, &InvocationError{Target: target, Method: name, Err: err}
	}
	out, err := b.call()
	if err != nil {
		return nil, &InvocationError{Target: target, Method: name, Err: err}
	}
	return present(out), nil
}
