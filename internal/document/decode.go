package document

import (
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/graft/internal/value"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Functions understood inside expressions.
const (
	fnList     = "list"
	fnSet      = "set"
	fnMap      = "map"
	fnArray    = "array"
	fnField    = "field"
	fnInject   = "inject"
	fnResource = "resource"
	fnChar     = "char"
	fnCall     = "call"
	fnChain    = "chain"
	fnNew      = "new"

	// replacePrefix turns a collection function into its SET variant.
	replacePrefix = "set_"

	keywordThis = "this"
	memberSep   = "::"
)

var collectionKinds = map[string]*value.CollectionKind{
	fnList: value.ListKind,
	fnSet:  value.SetKind,
	fnMap:  value.MapKind,
}

type decoder struct {
	diags hcl.Diagnostics
}

func (d *decoder) errorf(rng hcl.Range, summary, format string, args ...any) {
	d.diags = append(d.diags, &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   fmt.Sprintf(format, args...),
		Subject:  rng.Ptr(),
	})
}

func (d *decoder) object(b *hclsyntax.Block) *value.ObjectNode {
	if len(b.Labels) != 1 || b.Labels[0] == "" {
		d.errorf(b.TypeRange, "Invalid object block", "An %q block takes exactly one label, the type name.", ObjectBlock)
		return &value.ObjectNode{}
	}
	n := &value.ObjectNode{Type: b.Labels[0]}

	for _, attr := range orderedAttributes(b.Body.Attributes) {
		switch attr.Name {
		case attrID:
			n.ControllerID = d.string(attr.Expr)
		case attrArgs:
			n.Constructor = value.Args(d.args(attr.Expr))
		case attrBuilder:
			if chain, ok := d.chain(attr.Expr); ok {
				n.Constructor = value.Builder{Chain: chain}
			}
		default:
			n.Properties = append(n.Properties, d.property(attr))
		}
	}
	if _, hasArgs := b.Body.Attributes[attrArgs]; hasArgs {
		if _, hasBuilder := b.Body.Attributes[attrBuilder]; hasBuilder {
			d.errorf(b.TypeRange, "Conflicting constructors", "An object takes either %q or %q, not both.", attrArgs, attrBuilder)
		}
	}

	for _, child := range b.Body.Blocks {
		switch child.Type {
		case ObjectBlock:
			n.Children = append(n.Children, d.object(child))
		case InvokeBlock:
			attr, ok := child.Body.Attributes[attrChain]
			if !ok || len(child.Body.Attributes) != 1 || len(child.Body.Blocks) > 0 {
				d.errorf(child.TypeRange, "Invalid invoke block", "An %q block holds a single %q argument.", InvokeBlock, attrChain)
				continue
			}
			if chain, ok := d.chain(attr.Expr); ok {
				n.Chains = append(n.Chains, chain)
			}
		default:
			d.errorf(child.TypeRange, "Unsupported block type", "Blocks of type %q are not expected inside an object.", child.Type)
		}
	}
	return n
}

// property decodes an attribute; a top-level set_* collection selects the
// SET strategy.
func (d *decoder) property(attr *hclsyntax.Attribute) value.Property {
	p := value.Property{Name: attr.Name, Strategy: value.Add}
	if call, ok := attr.Expr.(*hclsyntax.FunctionCallExpr); ok && strings.HasPrefix(call.Name, replacePrefix) {
		if _, isColl := collectionKinds[strings.TrimPrefix(call.Name, replacePrefix)]; isColl {
			p.Strategy = value.Set
		}
	}
	p.Value = d.expr(attr.Expr)
	return p
}

func (d *decoder) args(expr hclsyntax.Expression) []value.Value {
	tuple, ok := expr.(*hclsyntax.TupleConsExpr)
	if !ok {
		d.errorf(expr.Range(), "Invalid args", "Constructor arguments are written as a list, for example [1, \"a\"].")
		return nil
	}
	return d.exprs(tuple.Exprs)
}

func (d *decoder) exprs(exprs []hclsyntax.Expression) []value.Value {
	out := make([]value.Value, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, d.expr(e))
	}
	return out
}

func (d *decoder) expr(expr hclsyntax.Expression) value.Value {
	switch e := expr.(type) {
	case *hclsyntax.ParenthesesExpr:
		return d.expr(e.Expression)
	case *hclsyntax.ScopeTraversalExpr:
		return d.traversal(e)
	case *hclsyntax.FunctionCallExpr:
		return d.call(e)
	case *hclsyntax.TupleConsExpr:
		return value.Collection{Kind: value.ListKind, Items: d.exprs(e.Exprs)}
	case *hclsyntax.ObjectConsExpr:
		items := make([]value.Value, 0, 2*len(e.Items))
		for _, item := range e.Items {
			items = append(items, d.expr(item.KeyExpr), d.expr(item.ValueExpr))
		}
		return value.Collection{Kind: value.MapKind, Items: items}
	case *hclsyntax.ObjectConsKeyExpr:
		v, diags := e.Value(nil)
		d.diags = append(d.diags, diags...)
		return d.literal(v, e.Range())
	default:
		v, diags := expr.Value(nil)
		d.diags = append(d.diags, diags...)
		if diags.HasErrors() {
			return value.NullValue
		}
		return d.literal(v, expr.Range())
	}
}

// traversal decodes "this" and "this.name"; a field of this is read through
// the current instance's accessors.
func (d *decoder) traversal(e *hclsyntax.ScopeTraversalExpr) value.Value {
	if e.Traversal.RootName() != keywordThis {
		d.errorf(e.SrcRange, "Unknown variable", "Only %q can be referenced; use a function such as inject or field for anything else.", keywordThis)
		return value.NullValue
	}
	switch len(e.Traversal) {
	case 1:
		return value.ThisValue
	case 2:
		if attr, ok := e.Traversal[1].(hcl.TraverseAttr); ok {
			return value.FieldRef{Name: attr.Name}
		}
	}
	d.errorf(e.SrcRange, "Unsupported traversal", "Only %q and %q.<name> are supported.", keywordThis, keywordThis)
	return value.NullValue
}

func (d *decoder) literal(v cty.Value, rng hcl.Range) value.Value {
	if v.IsNull() {
		return value.NullValue
	}
	if !v.IsKnown() {
		d.errorf(rng, "Unknown value", "The value of this expression is not known.")
		return value.NullValue
	}
	t := v.Type()
	switch {
	case t == cty.String:
		return value.String(v.AsString())
	case t == cty.Bool:
		return value.Bool(v.True())
	case t == cty.Number:
		return number(v.AsBigFloat())
	case t.IsTupleType() || t.IsListType() || t.IsSetType():
		var items []value.Value
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			items = append(items, d.literal(ev, rng))
		}
		return value.Collection{Kind: value.ListKind, Items: items}
	case t.IsObjectType() || t.IsMapType():
		var items []value.Value
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			items = append(items, value.String(k.AsString()), d.literal(ev, rng))
		}
		return value.Collection{Kind: value.MapKind, Items: items}
	default:
		d.errorf(rng, "Unsupported value", "Values of type %s are not supported.", t.FriendlyName())
		return value.NullValue
	}
}

func number(f *big.Float) value.Number {
	if f.IsInt() {
		if i, acc := f.Int64(); acc == big.Exact {
			return value.Int(i)
		}
	}
	out, _ := f.Float64()
	return value.Float(out)
}

func (d *decoder) call(e *hclsyntax.FunctionCallExpr) value.Value {
	name := e.Name
	if kind, ok := collectionKinds[strings.TrimPrefix(name, replacePrefix)]; ok {
		return value.Collection{Kind: kind, Items: d.exprs(e.Args)}
	}

	switch name {
	case fnArray:
		if len(e.Args) == 0 {
			d.errorf(e.NameRange, "Invalid array", "array needs a component type as its first argument.")
			return value.NullValue
		}
		return value.Array{ComponentType: d.string(e.Args[0]), Items: d.exprs(e.Args[1:])}
	case fnField:
		if !d.arity(e, 1) {
			return value.NullValue
		}
		owner, member := splitMember(d.string(e.Args[0]))
		return value.FieldRef{Owner: owner, Name: member}
	case fnInject:
		if !d.arity(e, 1) {
			return value.NullValue
		}
		return value.Inject(d.string(e.Args[0]))
	case fnResource:
		if !d.arity(e, 1) {
			return value.NullValue
		}
		return value.NewResourceURL(d.string(e.Args[0]))
	case fnChar:
		if !d.arity(e, 1) {
			return value.NullValue
		}
		s := d.string(e.Args[0])
		if utf8.RuneCountInString(s) != 1 {
			d.errorf(e.Args[0].Range(), "Invalid character", "char takes a string of exactly one character, got %q.", s)
			return value.NullValue
		}
		r, _ := utf8.DecodeRuneInString(s)
		return value.Char(r)
	case fnCall, fnChain:
		chain, ok := d.chain(e)
		if !ok {
			return value.NullValue
		}
		return chain
	case fnNew:
		if len(e.Args) == 0 {
			d.errorf(e.NameRange, "Invalid new", "new needs a type name as its first argument.")
			return value.NullValue
		}
		return &value.ObjectNode{Type: d.string(e.Args[0]), Constructor: value.Args(d.exprs(e.Args[1:]))}
	default:
		d.errorf(e.NameRange, "Call to unknown function", "There is no function named %q.", name)
		return value.NullValue
	}
}

// chain decodes call(...) as a one-link chain and chain(...) as the
// concatenation of its links. A plain string link is a call without
// arguments.
func (d *decoder) chain(expr hclsyntax.Expression) (value.MethodsChain, bool) {
	e, ok := expr.(*hclsyntax.FunctionCallExpr)
	if !ok || (e.Name != fnCall && e.Name != fnChain) {
		d.errorf(expr.Range(), "Invalid method chain", "Expected call(...) or chain(...).")
		return nil, false
	}
	if e.Name == fnCall {
		if len(e.Args) == 0 {
			d.errorf(e.NameRange, "Invalid call", "call needs a method name as its first argument.")
			return nil, false
		}
		owner, member := splitMember(d.string(e.Args[0]))
		return value.MethodsChain{{Owner: owner, Name: member, Args: d.exprs(e.Args[1:])}}, true
	}

	var out value.MethodsChain
	for _, link := range e.Args {
		if _, isCall := link.(*hclsyntax.FunctionCallExpr); !isCall {
			out = append(out, value.MethodCall{Name: d.string(link)})
			continue
		}
		sub, ok := d.chain(link)
		if !ok {
			return nil, false
		}
		out = append(out, sub...)
	}
	if len(out) == 0 {
		d.errorf(e.NameRange, "Empty chain", "chain needs at least one link.")
		return nil, false
	}
	return out, true
}

func (d *decoder) arity(e *hclsyntax.FunctionCallExpr, n int) bool {
	if len(e.Args) != n {
		d.errorf(e.NameRange, "Wrong number of arguments", "%s takes %d argument(s), got %d.", e.Name, n, len(e.Args))
		return false
	}
	return true
}

// string evaluates expr as a string constant.
func (d *decoder) string(expr hclsyntax.Expression) string {
	v, diags := expr.Value(nil)
	d.diags = append(d.diags, diags...)
	if diags.HasErrors() {
		return ""
	}
	var s string
	if err := gocty.FromCtyValue(v, &s); err != nil {
		d.errorf(expr.Range(), "Invalid value", "A string is required: %v.", err)
		return ""
	}
	return s
}

// strings evaluates attr as a list of strings.
func (d *decoder) strings(attr *hclsyntax.Attribute) []string {
	v, diags := attr.Expr.Value(nil)
	d.diags = append(d.diags, diags...)
	if diags.HasErrors() {
		return nil
	}
	list, err := convert.Convert(v, cty.List(cty.String))
	if err != nil {
		d.errorf(attr.Expr.Range(), "Invalid value", "%q must be a list of strings: %v.", attr.Name, err)
		return nil
	}
	var out []string
	if err := gocty.FromCtyValue(list, &out); err != nil {
		d.errorf(attr.Expr.Range(), "Invalid value", "%q must be a list of strings: %v.", attr.Name, err)
		return nil
	}
	return out
}

// splitMember splits "owner::Name", or "owner.Name" on the last dot, into
// owner and member. Without a separator the owner is empty.
func splitMember(s string) (owner, member string) {
	if i := strings.LastIndex(s, memberSep); i >= 0 {
		return s[:i], s[i+len(memberSep):]
	}
	if i := strings.LastIndex(s, "."); i >= 0 {
		return s[:i], s[i+1:]
	}
	return "", s
}
