package resolver

import (
	"context"
	"fmt"

	"github.com/vk/graft/internal/ctxlog"
	"github.com/vk/graft/internal/value"
)

// ResolveValue turns v into a Go value in the current Context.
func (c *Context) ResolveValue(ctx context.Context, v value.Value) (any, error) {
	if v == nil {
		return nil, nil
	}
	return v.Accept(&visitor{c: c, ctx: ctx})
}

func (c *Context) resolveAll(ctx context.Context, vs []value.Value) ([]any, error) {
	out := make([]any, len(vs))
	for i, v := range vs {
		r, err := c.ResolveValue(ctx, v)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

func (c *Context) buildCollection(ctx context.Context, coll value.Collection) (any, error) {
	items, err := c.resolveAll(ctx, coll.Items)
	if err != nil {
		return nil, err
	}
	kind := coll.Kind
	if kind == nil {
		kind = value.ListKind
	}
	return kind.Build(items)
}

// runChain invokes the links in order, each on the previous result. The
// first link without an owner targets "this". A failing or empty link
// breaks the chain unless it is the last one, whose failure is only logged.
func (c *Context) runChain(ctx context.Context, chain value.MethodsChain) (any, error) {
	logger := ctxlog.FromContext(ctx)
	var target any
	for i, call := range chain {
		last := i == len(chain)-1
		broken := func(err error) error {
			return &ChainBrokenError{Chain: value.Dump(chain), Link: i, Method: call.Name, Err: err}
		}

		args, err := c.resolveAll(ctx, call.Args)
		if err != nil {
			return nil, broken(err)
		}

		var res any
		switch {
		case call.Owner != "":
			res, err = c.reflector.InvokeStatic(ctx, call.Owner, call.Name, args, c.imports)
		case i == 0:
			this, ok := c.This()
			if !ok {
				err = fmt.Errorf("no current instance")
				break
			}
			res, err = c.reflector.Invoke(ctx, this, call.Name, args)
		default:
			res, err = c.reflector.Invoke(ctx, target, call.Name, args)
		}

		if err != nil {
			if last {
				logger.Warn("Method invocation failed.", "chain", value.Dump(chain), "method", call.Name, "error", err)
				return nil, nil
			}
			return nil, broken(err)
		}
		if res == nil && !last {
			return nil, broken(fmt.Errorf("no result"))
		}
		target = res
	}
	return target, nil
}

type visitor struct {
	c   *Context
	ctx context.Context
}

func (v *visitor) VisitObject(n *value.ObjectNode) (any, error) {
	return v.c.Resolve(v.ctx, n)
}

func (v *visitor) VisitFieldRef(f value.FieldRef) (any, error) {
	if f.Static() {
		out, _ := v.c.reflector.GetStatic(v.ctx, f.Owner, f.Name, v.c.imports)
		return out, nil
	}
	this, ok := v.c.This()
	if !ok {
		ctxlog.FromContext(v.ctx).Warn("Field reference outside of any node.", "field", f.Name)
		return nil, nil
	}
	out, _ := v.c.reflector.Get(v.ctx, this, f.Name)
	return out, nil
}

func (v *visitor) VisitKeyword(k value.Keyword) (any, error) {
	switch k.Kind {
	case value.This:
		this, ok := v.c.This()
		if !ok {
			ctxlog.FromContext(v.ctx).Warn("this used outside of any node.")
		}
		return this, nil
	case value.Null:
		return nil, nil
	case value.Injection:
		inj, ok := v.c.injections[k.Name]
		if !ok {
			ctxlog.FromContext(v.ctx).Warn("Injection not found, using nil.", "name", k.Name)
			return nil, nil
		}
		return inj, nil
	default:
		return nil, fmt.Errorf("unknown keyword %s", k.Kind)
	}
}

func (v *visitor) VisitChain(chain value.MethodsChain) (any, error) {
	return v.c.runChain(v.ctx, chain)
}

func (v *visitor) VisitArray(a value.Array) (any, error) {
	items, err := v.c.resolveAll(v.ctx, a.Items)
	if err != nil {
		return nil, err
	}
	return v.c.reflector.NewArray(v.ctx, a.ComponentType, items, v.c.imports)
}

func (v *visitor) VisitCollection(coll value.Collection) (any, error) {
	return v.c.buildCollection(v.ctx, coll)
}

func (v *visitor) VisitBool(b value.Bool) (any, error)     { return bool(b), nil }
func (v *visitor) VisitChar(ch value.Char) (any, error)    { return rune(ch), nil }
func (v *visitor) VisitString(s value.String) (any, error) { return string(s), nil }
func (v *visitor) VisitNumber(n value.Number) (any, error) { return n.Native(), nil }

func (v *visitor) VisitResource(r *value.ResourceURL) (any, error) {
	logger := ctxlog.FromContext(v.ctx)
	if v.c.location == "" {
		logger.Warn("Resource resolution unavailable without a document location.", "resource", r.Raw())
		return nil, nil
	}
	out, err := r.Resolve(v.c.location, ResolveResource)
	if err != nil {
		logger.Warn("Resource resolution failed.", "resource", r.Raw(), "error", err)
		return nil, nil
	}
	return out, nil
}
