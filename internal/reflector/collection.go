package reflector

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/vk/graft/internal/ctxlog"
)

var (
	addNames   = []string{"Add", "Append", "Put", "Push", "Insert"}
	clearNames = []string{"Clear", "Reset", "RemoveAll"}
)

// HandleCollection adds the items of native ([]any or map[any]any, as built
// by a value.CollectionKind) one at a time to the existing collection held
// by member name of target, emptying it first when clear is set. Collection
// values with Add-style methods, maps and slices are supported. A failure is
// logged and reported as false.
func (r *Reflector) HandleCollection(ctx context.Context, target any, name string, native any, clear bool) bool {
	logger := ctxlog.FromContext(ctx).With("property", name, "target", describe(target))
	if target == nil {
		logger.Warn("Cannot populate collection of nil.")
		return false
	}
	if err := r.handleCollection(ctx, reflect.ValueOf(target), name, native, clear); err != nil {
		logger.Warn("Collection update failed.", "error", err)
		return false
	}
	logger.Debug("Collection updated.", "clear", clear)
	return true
}

func (r *Reflector) handleCollection(ctx context.Context, tv reflect.Value, name string, native any, clear bool) error {
	items, entries, err := flatten(native)
	if err != nil {
		return err
	}

	coll, settable, found, err := r.collection(tv, name)
	if err != nil {
		return err
	}
	if !found || isNil(coll) {
		// Nothing to add to: build the collection and assign it.
		if err := r.set(ctx, tv, name, native); err != nil {
			return fmt.Errorf("no existing collection and assignment failed: %w", err)
		}
		return nil
	}
	for coll.Kind() == reflect.Interface {
		coll = coll.Elem()
	}
	if coll.Kind() != reflect.Ptr && coll.CanAddr() {
		coll = coll.Addr()
	}

	if coll.Kind() != reflect.Ptr {
		// A copy returned by a getter: mutate our own copy, then write it
		// back. Maps share their storage, so they need no write back.
		p := reflect.New(coll.Type())
		p.Elem().Set(coll)
		if adders := methods(p, addNames); len(adders) > 0 {
			if err := r.viaMethods(ctx, p, adders, items, entries, clear); err != nil {
				return err
			}
			if coll.Kind() == reflect.Map {
				return nil
			}
			if err := r.set(ctx, tv, name, p.Elem().Interface()); err != nil {
				return fmt.Errorf("%s is a copy and cannot be written back: %w", coll.Type(), err)
			}
			return nil
		}
	} else if adders := methods(coll, addNames); len(adders) > 0 {
		return r.viaMethods(ctx, coll, adders, items, entries, clear)
	}
	if coll.Kind() == reflect.Ptr && (coll.Elem().Kind() == reflect.Slice || coll.Elem().Kind() == reflect.Map) {
		coll, settable = coll.Elem(), true
	}

	switch coll.Kind() {
	case reflect.Map:
		if entries == nil {
			return fmt.Errorf("cannot add list items to %s", coll.Type())
		}
		if clear {
			coll.Clear()
		}
		for _, e := range entries {
			k, _, ok := r.convert(e.key, coll.Type().Key())
			if !ok {
				return fmt.Errorf("map key %s does not fit %s", describe(e.key), coll.Type().Key())
			}
			v, _, ok := r.convert(e.value, coll.Type().Elem())
			if !ok {
				return fmt.Errorf("map value %s does not fit %s", describe(e.value), coll.Type().Elem())
			}
			coll.SetMapIndex(k, v)
		}
		return nil
	case reflect.Slice:
		if entries != nil {
			return fmt.Errorf("cannot add map entries to %s", coll.Type())
		}
		out := coll
		if !settable {
			// A copy: rebuild it and write it back.
			out = reflect.MakeSlice(coll.Type(), 0, coll.Len()+len(items))
			if !clear {
				out = reflect.AppendSlice(out, coll)
			}
		} else if clear {
			out.Set(out.Slice(0, 0))
		}
		for i, it := range items {
			v, _, ok := r.convert(it, coll.Type().Elem())
			if !ok {
				return fmt.Errorf("item %d: %s does not fit %s", i, describe(it), coll.Type().Elem())
			}
			if settable {
				out.Set(reflect.Append(out, v))
			} else {
				out = reflect.Append(out, v)
			}
		}
		if !settable {
			return r.set(ctx, tv, name, out.Interface())
		}
		return nil
	}
	return fmt.Errorf("%s is not a supported collection", coll.Type())
}

// collection fetches the current collection through an accessor, else the
// exported field. Fields reached through a pointer are settable.
func (r *Reflector) collection(tv reflect.Value, name string) (coll reflect.Value, settable, found bool, err error) {
	for _, m := range methods(tv, accessorNames(name)) {
		ft := m.fn.Type()
		if ft.NumIn() != 0 || ft.NumOut() == 0 || ft.Out(0) == errorType {
			continue
		}
		out, err := binding{callable: m}.call()
		if err != nil {
			return reflect.Value{}, false, false, err
		}
		return out, false, true, nil
	}
	if f, ok := field(tv, name); ok {
		return f, f.CanSet(), true, nil
	}
	return reflect.Value{}, false, false, nil
}

// viaMethods binds every item to an adder before touching the collection,
// so an item that fits no adder leaves the collection as it was.
func (r *Reflector) viaMethods(ctx context.Context, coll reflect.Value, adders []callable, items []any, entries []entry, clear bool) error {
	what := coll.Type().String()
	args := make([][]any, 0, len(items)+len(entries))
	if entries != nil {
		for _, e := range entries {
			args = append(args, []any{e.key, e.value})
		}
	} else {
		for _, it := range items {
			args = append(args, []any{it})
		}
	}
	bound := make([]binding, 0, len(args))
	for _, a := range args {
		b, err := r.choose(ctx, what+".Add", adders, a)
		if err != nil {
			return err
		}
		bound = append(bound, b)
	}

	if clear {
		cleared := false
		for _, m := range methods(coll, clearNames) {
			if m.fn.Type().NumIn() != 0 {
				continue
			}
			if _, err := (binding{callable: m}).call(); err != nil {
				return fmt.Errorf("%s: %w", m.name, err)
			}
			cleared = true
			break
		}
		if !cleared {
			return fmt.Errorf("%s has no Clear method", coll.Type())
		}
	}
	for _, b := range bound {
		if _, err := b.call(); err != nil {
			return fmt.Errorf("%s: %w", b.name, err)
		}
	}
	return nil
}

type entry struct {
	key, value any
}

// flatten splits a native collection into list items or map entries.
// Entries are sorted by their printed key so updates are deterministic.
func flatten(native any) ([]any, []entry, error) {
	switch n := native.(type) {
	case nil:
		return []any{}, nil, nil
	case []any:
		return n, nil, nil
	case map[any]any:
		entries := make([]entry, 0, len(n))
		for k, v := range n {
			entries = append(entries, entry{key: k, value: v})
		}
		sort.Slice(entries, func(i, j int) bool {
			return fmt.Sprint(entries[i].key) < fmt.Sprint(entries[j].key)
		})
		return nil, entries, nil
	}
	v := reflect.ValueOf(native)
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]any, v.Len())
		for i := range items {
			items[i] = v.Index(i).Interface()
		}
		return items, nil, nil
	case reflect.Map:
		m := make(map[any]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			m[iter.Key().Interface()] = iter.Value().Interface()
		}
		return flatten(m)
	}
	return nil, nil, fmt.Errorf("%s is not a collection", describe(native))
}

func isNil(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	return nillable(v.Type()) && v.IsNil()
}
