package value

import (
	"fmt"
	"strconv"
	"strings"
)

// Dump renders v compactly for logs and error messages. Nested nodes are
// rendered by type only.
func Dump(v Value) string {
	if v == nil {
		return "<nil>"
	}
	var b strings.Builder
	dump(&b, v)
	return b.String()
}

func dump(b *strings.Builder, v Value) {
	switch t := v.(type) {
	case *ObjectNode:
		fmt.Fprintf(b, "new(%s)", t)
	case FieldRef:
		if t.Owner != "" {
			b.WriteString(t.Owner)
			b.WriteString("::")
		}
		b.WriteString(t.Name)
	case Keyword:
		if t.Kind == Injection {
			fmt.Fprintf(b, "inject(%q)", t.Name)
		} else {
			b.WriteString(t.Kind.String())
		}
	case MethodsChain:
		for i, c := range t {
			if i > 0 {
				b.WriteString(".")
			}
			b.WriteString(c.String())
		}
	case Array:
		fmt.Fprintf(b, "[]%s", t.ComponentType)
		list(b, t.Items)
	case Collection:
		b.WriteString(t.Kind.String())
		list(b, t.Items)
	case Bool:
		b.WriteString(strconv.FormatBool(bool(t)))
	case Char:
		b.WriteString(strconv.QuoteRune(rune(t)))
	case String:
		b.WriteString(strconv.Quote(string(t)))
	case Number:
		b.WriteString(t.String())
	case *ResourceURL:
		fmt.Fprintf(b, "resource(%q)", t.Raw())
	default:
		fmt.Fprintf(b, "%v", v)
	}
}

func list(b *strings.Builder, items []Value) {
	b.WriteString("{")
	for i, it := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		dump(b, it)
	}
	b.WriteString("}")
}
