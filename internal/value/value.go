// Package value defines the closed set of values a parsed document hands to
// the resolver. Every variant implements Value; Visitor has one method per
// variant so a new variant breaks every visitor at compile time.
package value

import (
	"fmt"
	"strings"
)

// Value is a resolvable unit of document data.
type Value interface {
	Accept(v Visitor) (any, error)
	isValue()
}

// Visitor dispatches on the variant of a Value.
type Visitor interface {
	VisitObject(n *ObjectNode) (any, error)
	VisitFieldRef(f FieldRef) (any, error)
	VisitKeyword(k Keyword) (any, error)
	VisitChain(c MethodsChain) (any, error)
	VisitArray(a Array) (any, error)
	VisitCollection(c Collection) (any, error)
	VisitBool(b Bool) (any, error)
	VisitChar(c Char) (any, error)
	VisitString(s String) (any, error)
	VisitNumber(n Number) (any, error)
	VisitResource(r *ResourceURL) (any, error)
}

// Constructor selects how an ObjectNode is instantiated. A nil Constructor
// means the zero-argument default.
type Constructor interface {
	isConstructor()
}

// Args instantiates through the type's constructors.
type Args []Value

// Builder instantiates by running a method chain; its result is the instance.
type Builder struct {
	Chain MethodsChain
}

func (Args) isConstructor()    {}
func (Builder) isConstructor() {}

// Property is one declared property assignment.
type Property struct {
	Name     string
	Value    Value
	Strategy CollectionHandleStrategy
}

// ObjectNode is one object to construct. It is immutable once parsed and is
// identified by its pointer.
type ObjectNode struct {
	Type         string
	Constructor  Constructor
	Properties   []Property
	Chains       []MethodsChain
	Children     []*ObjectNode
	ControllerID string
}

// FieldRef reads a member. An empty Owner reads from the current instance.
type FieldRef struct {
	Owner string
	Name  string
}

// Static reports whether the reference names an owner type or package.
func (f FieldRef) Static() bool {
	return f.Owner != ""
}

// KeywordKind enumerates the keywords.
type KeywordKind int

const (
	This KeywordKind = iota
	Null
	Injection
)

func (k KeywordKind) String() string {
	switch k {
	case This:
		return "this"
	case Null:
		return "null"
	case Injection:
		return "inject"
	default:
		return fmt.Sprintf("keyword(%d)", int(k))
	}
}

// Keyword is a special token; Name is only meaningful for Injection.
type Keyword struct {
	Kind KeywordKind
	Name string
}

// MethodCall is one link of a chain.
type MethodCall struct {
	Owner string
	Name  string
	Args  []Value
}

// MethodsChain is an ordered list of calls; each result is the next target.
type MethodsChain []MethodCall

// Array builds a typed slice of ComponentType.
type Array struct {
	ComponentType string
	Items         []Value
}

// Collection builds a native collection according to Kind.
type Collection struct {
	Kind  *CollectionKind
	Items []Value
}

type (
	Bool   bool
	Char   rune
	String string
)

// Number is int64 when integral, float64 otherwise.
type Number struct {
	v any
}

// Int returns an integral number.
func Int(i int64) Number { return Number{v: i} }

// Float returns a number, normalized to Int when f is integral.
func Float(f float64) Number {
	if f >= -1<<63 && f < 1<<63 && f == float64(int64(f)) {
		return Number{v: int64(f)}
	}
	return Number{v: f}
}

// Native returns the int64 or float64 payload.
func (n Number) Native() any {
	if n.v == nil {
		return int64(0)
	}
	return n.v
}

func (n Number) String() string {
	return fmt.Sprint(n.Native())
}

// NullValue is the shared NULL keyword.
var NullValue = Keyword{Kind: Null}

// ThisValue is the shared THIS keyword.
var ThisValue = Keyword{Kind: This}

// Inject returns an INJECTION keyword for name.
func Inject(name string) Keyword {
	return Keyword{Kind: Injection, Name: name}
}

func (*ObjectNode) isValue()  {}
func (FieldRef) isValue()     {}
func (Keyword) isValue()      {}
func (MethodsChain) isValue() {}
func (Array) isValue()        {}
func (Collection) isValue()   {}
func (Bool) isValue()         {}
func (Char) isValue()         {}
func (String) isValue()       {}
func (Number) isValue()       {}
func (*ResourceURL) isValue() {}

func (n *ObjectNode) Accept(v Visitor) (any, error)  { return v.VisitObject(n) }
func (f FieldRef) Accept(v Visitor) (any, error)     { return v.VisitFieldRef(f) }
func (k Keyword) Accept(v Visitor) (any, error)      { return v.VisitKeyword(k) }
func (c MethodsChain) Accept(v Visitor) (any, error) { return v.VisitChain(c) }
func (a Array) Accept(v Visitor) (any, error)        { return v.VisitArray(a) }
func (c Collection) Accept(v Visitor) (any, error)   { return v.VisitCollection(c) }
func (b Bool) Accept(v Visitor) (any, error)         { return v.VisitBool(b) }
func (c Char) Accept(v Visitor) (any, error)         { return v.VisitChar(c) }
func (s String) Accept(v Visitor) (any, error)       { return v.VisitString(s) }
func (n Number) Accept(v Visitor) (any, error)       { return v.VisitNumber(n) }
func (r *ResourceURL) Accept(v Visitor) (any, error) { return v.VisitResource(r) }

// Walk calls fn on n and every descendant node, depth first in document order.
func Walk(n *ObjectNode, fn func(*ObjectNode)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

func (n *ObjectNode) String() string {
	if n == nil {
		return "<nil node>"
	}
	if n.ControllerID != "" {
		return n.Type + "#" + n.ControllerID
	}
	return n.Type
}

func (c MethodCall) String() string {
	var b strings.Builder
	if c.Owner != "" {
		b.WriteString(c.Owner)
		b.WriteString("::")
	}
	b.WriteString(c.Name)
	b.WriteString("(")
	for i, a := range c.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(Dump(a))
	}
	b.WriteString(")")
	return b.String()
}
