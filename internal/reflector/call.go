package reflector

import (
	"context"
	"reflect"

	"github.com/vk/graft/internal/ctxlog"
)

// callable is one overload candidate.
type callable struct {
	name string
	fn   reflect.Value
}

func (c callable) String() string {
	return c.name + signature(c.fn.Type())
}

type binding struct {
	callable
	in     []reflect.Value
	cost   int
	spread bool
}

// bind matches args against c's parameters and sums the per-argument cost.
// Trailing arguments of a variadic function are packed unless a single
// argument already converts to the variadic slice.
func (r *Reflector) bind(c callable, args []any) (binding, bool) {
	ft := c.fn.Type()
	n := ft.NumIn()
	b := binding{callable: c, in: make([]reflect.Value, 0, len(args))}

	fixed := n
	if ft.IsVariadic() {
		fixed = n - 1
	}
	if len(args) < fixed || (!ft.IsVariadic() && len(args) != n) {
		return binding{}, false
	}
	for i := 0; i < fixed; i++ {
		v, cost, ok := r.convert(args[i], ft.In(i))
		if !ok {
			return binding{}, false
		}
		b.in = append(b.in, v)
		b.cost += cost
	}
	if !ft.IsVariadic() {
		return b, true
	}

	sliceType := ft.In(fixed)
	if len(args) == n && args[fixed] != nil {
		if v, cost, ok := r.convert(args[fixed], sliceType); ok && reflect.TypeOf(args[fixed]).Kind() == reflect.Slice {
			b.in = append(b.in, v)
			b.cost += cost
			b.spread = true
			return b, true
		}
	}
	for _, a := range args[fixed:] {
		v, cost, ok := r.convert(a, sliceType.Elem())
		if !ok {
			return binding{}, false
		}
		b.in = append(b.in, v)
		b.cost += cost
	}
	if len(args) > fixed {
		b.cost += costVarargs
	}
	return b, true
}

// choose binds args to every candidate and keeps the cheapest. Candidates
// are expected in declaration order; equal costs keep the earlier one.
func (r *Reflector) choose(ctx context.Context, what string, cands []callable, args []any) (binding, error) {
	var (
		best  binding
		found bool
		ties  []string
	)
	for _, c := range cands {
		b, ok := r.bind(c, args)
		if !ok {
			continue
		}
		switch {
		case !found || b.cost < best.cost:
			best, found, ties = b, true, nil
		case b.cost == best.cost:
			ties = append(ties, c.name)
		}
	}
	if !found {
		tried := make([]string, len(cands))
		for i, c := range cands {
			tried[i] = c.String()
		}
		argTypes := make([]string, len(args))
		for i, a := range args {
			argTypes[i] = describe(a)
		}
		return binding{}, &NoMatchError{Args: argTypes, Candidates: tried}
	}
	if len(ties) > 0 {
		ctxlog.FromContext(ctx).Debug("Several overloads match equally, using the first.",
			"member", what, "chosen", best.name, "others", ties, "cost", best.cost)
	}
	return best, nil
}

// call runs the binding and splits the results into the first non-error
// value and the trailing error. Panics are recovered.
func (b binding) call() (result reflect.Value, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &PanicError{Value: p}
		}
	}()
	var out []reflect.Value
	if b.spread {
		out = b.fn.CallSlice(b.in)
	} else {
		out = b.fn.Call(b.in)
	}
	if n := len(out); n > 0 && out[n-1].Type() == errorType {
		if !out[n-1].IsNil() {
			return reflect.Value{}, out[n-1].Interface().(error)
		}
		out = out[:n-1]
	}
	if len(out) == 0 {
		return reflect.Value{}, nil
	}
	return out[0], nil
}

func signature(ft reflect.Type) string {
	s := "("
	for i := 0; i < ft.NumIn(); i++ {
		if i > 0 {
			s += ", "
		}
		if ft.IsVariadic() && i == ft.NumIn()-1 {
			s += "..." + ft.In(i).Elem().String()
			continue
		}
		s += ft.In(i).String()
	}
	return s + ")"
}

// methods returns the exported methods of v named by names, looking through
// a pointer to an addressable copy when v is not a pointer.
func methods(v reflect.Value, names []string) []callable {
	var out []callable
	seen := make(map[string]bool)
	lookup := func(v reflect.Value) {
		for _, n := range names {
			if seen[n] {
				continue
			}
			if m := v.MethodByName(n); m.IsValid() {
				seen[n] = true
				out = append(out, callable{name: n, fn: m})
			}
		}
	}
	lookup(v)
	if v.Kind() != reflect.Ptr && v.Kind() != reflect.Interface {
		p := reflect.New(v.Type())
		p.Elem().Set(v)
		lookup(p)
	}
	return out
}
