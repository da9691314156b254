package value

import (
	"fmt"
	"reflect"
)

// CollectionHandleStrategy decides how items reach an existing collection.
type CollectionHandleStrategy int

const (
	// Add appends to whatever the collection already holds.
	Add CollectionHandleStrategy = iota
	// Set clears the collection before adding.
	Set
)

func (s CollectionHandleStrategy) String() string {
	if s == Set {
		return "set"
	}
	return "add"
}

// Clear reports whether the strategy empties the target first.
func (s CollectionHandleStrategy) Clear() bool {
	return s == Set
}

// OddMapItemsError is returned when map items do not form key/value pairs.
type OddMapItemsError struct {
	Count int
}

func (e *OddMapItemsError) Error() string {
	return fmt.Sprintf("map collection needs an even number of items, got %d", e.Count)
}

// UnhashableKeyError is returned when a map or set item cannot be a map key.
type UnhashableKeyError struct {
	Kind string
	Key  any
}

func (e *UnhashableKeyError) Error() string {
	return fmt.Sprintf("%s item of type %T cannot be used as a key", e.Kind, e.Key)
}

// CollectionKind is a collection variant together with its construction rule.
type CollectionKind struct {
	name  string
	build func(items []any) (any, error)
}

var (
	// ListKind keeps items in order as []any.
	ListKind = &CollectionKind{name: "list", build: buildList}
	// MapKind pairs items as key, value, key, value into map[any]any.
	MapKind = &CollectionKind{name: "map", build: buildMap}
	// SetKind keeps the first occurrence of each item, in order, as []any.
	SetKind = &CollectionKind{name: "set", build: buildSet}
)

// Kinds lists every collection kind.
func Kinds() []*CollectionKind {
	return []*CollectionKind{ListKind, MapKind, SetKind}
}

func (k *CollectionKind) String() string {
	return k.name
}

// Build turns resolved items into the kind's native collection.
func (k *CollectionKind) Build(items []any) (any, error) {
	return k.build(items)
}

func buildList(items []any) (any, error) {
	out := make([]any, len(items))
	copy(out, items)
	return out, nil
}

func buildMap(items []any) (any, error) {
	if len(items)%2 != 0 {
		return nil, &OddMapItemsError{Count: len(items)}
	}
	out := make(map[any]any, len(items)/2)
	for i := 0; i < len(items); i += 2 {
		if !hashable(items[i]) {
			return nil, &UnhashableKeyError{Kind: "map", Key: items[i]}
		}
		out[items[i]] = items[i+1]
	}
	return out, nil
}

func buildSet(items []any) (any, error) {
	out := make([]any, 0, len(items))
	seen := make(map[any]struct{}, len(items))
	for _, it := range items {
		if !hashable(it) {
			return nil, &UnhashableKeyError{Kind: "set", Key: it}
		}
		if _, dup := seen[it]; dup {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out, nil
}

func hashable(v any) bool {
	if v == nil {
		return true
	}
	return reflect.TypeOf(v).Comparable()
}
