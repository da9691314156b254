// Package resolver turns a tree of value.ObjectNode into live instances.
// A Context holds the state of one load and is used by one goroutine.
package resolver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vk/graft/internal/ctxlog"
	"github.com/vk/graft/internal/reflector"
	"github.com/vk/graft/internal/scanner"
	"github.com/vk/graft/internal/value"
)

// AttachFunc hands a node's resolved children, in document order, to their
// parent. It is called at most once per parent.
type AttachFunc func(ctx context.Context, parent any, children []any) error

// Options configures a Context.
type Options struct {
	Imports    *scanner.Imports
	Injections map[string]any
	// Location is the document's base URL, used for resource values.
	Location string
	Attach   AttachFunc
}

type frame struct {
	node     *value.ObjectNode
	instance any
}

// Context is the per-load resolution state: the node to instance identity
// map, the controller ids, the stack of nodes providing "this" and the
// injection table.
type Context struct {
	reflector  *reflector.Reflector
	imports    *scanner.Imports
	injections map[string]any
	location   string
	attach     AttachFunc

	instances map[*value.ObjectNode]any
	ids       []string
	byID      map[string]*value.ObjectNode
	stack     []frame
}

// NewContext returns an empty Context.
func NewContext(r *reflector.Reflector, opts Options) *Context {
	return &Context{
		reflector:  r,
		imports:    opts.Imports,
		injections: opts.Injections,
		location:   opts.Location,
		attach:     opts.Attach,
		instances:  make(map[*value.ObjectNode]any),
		byID:       make(map[string]*value.ObjectNode),
	}
}

// Instance returns the instance a node resolved to in this Context.
func (c *Context) Instance(n *value.ObjectNode) (any, bool) {
	inst, ok := c.instances[n]
	return inst, ok
}

// Len returns the number of resolved nodes.
func (c *Context) Len() int {
	return len(c.instances)
}

// ControllerIDs returns the recorded ids in the order they were met.
func (c *Context) ControllerIDs() []string {
	return append([]string(nil), c.ids...)
}

// Node returns the node recorded under a controller id.
func (c *Context) Node(id string) (*value.ObjectNode, bool) {
	n, ok := c.byID[id]
	return n, ok
}

// Lookup returns the instance of the node recorded under a controller id.
func (c *Context) Lookup(id string) (any, bool) {
	n, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	return c.Instance(n)
}

// This returns the instance of the node on top of the stack.
func (c *Context) This() (any, bool) {
	if len(c.stack) == 0 {
		return nil, false
	}
	return c.stack[len(c.stack)-1].instance, true
}

// Depth returns the stack depth.
func (c *Context) Depth() int {
	return len(c.stack)
}

// Resolve builds the instance of n and, recursively, of everything it
// references. A node already resolved in this Context is returned as is.
func (c *Context) Resolve(ctx context.Context, n *value.ObjectNode) (any, error) {
	if n == nil {
		return nil, fmt.Errorf("resolve: nil node")
	}
	if inst, ok := c.instances[n]; ok {
		return inst, nil
	}
	logger := ctxlog.FromContext(ctx).With("node", n.String(), "depth", len(c.stack))

	inst, err := c.instantiate(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", n, err)
	}
	if inst == nil {
		return nil, fmt.Errorf("resolve %s: construction yielded nil", n)
	}
	logger.Debug("Instantiated node.", "instance", fmt.Sprintf("%T", inst))

	c.instances[n] = inst
	c.stack = append(c.stack, frame{node: n, instance: inst})
	defer func() { c.stack = c.stack[:len(c.stack)-1] }()
	if n.ControllerID != "" {
		c.record(logger, n)
	}

	for _, p := range n.Properties {
		if err := c.initProperty(ctx, inst, p); err != nil {
			return nil, fmt.Errorf("resolve %s: property %s: %w", n, p.Name, err)
		}
	}
	for _, chain := range n.Chains {
		if _, err := c.runChain(ctx, chain); err != nil {
			return nil, fmt.Errorf("resolve %s: %w", n, err)
		}
	}

	if len(n.Children) > 0 {
		children := make([]any, 0, len(n.Children))
		for _, child := range n.Children {
			ci, err := c.Resolve(ctx, child)
			if err != nil {
				return nil, err
			}
			children = append(children, ci)
		}
		if c.attach != nil {
			if err := c.attach(ctx, inst, children); err != nil {
				return nil, &AttachError{Parent: n.String(), Err: err}
			}
			logger.Debug("Attached children.", "count", len(children))
		} else {
			logger.Warn("No attach callback, children were built but not attached.", "count", len(children))
		}
	}
	return inst, nil
}

func (c *Context) record(logger *slog.Logger, n *value.ObjectNode) {
	id := n.ControllerID
	if prev, dup := c.byID[id]; dup && prev != n {
		logger.Warn("Controller id used twice, the later node wins.", "id", id)
	} else if !dup {
		c.ids = append(c.ids, id)
	}
	c.byID[id] = n
}

func (c *Context) instantiate(ctx context.Context, n *value.ObjectNode) (any, error) {
	switch ctor := n.Constructor.(type) {
	case nil:
		return c.reflector.Instantiate(ctx, n.Type, nil, c.imports)
	case value.Args:
		args, err := c.resolveAll(ctx, ctor)
		if err != nil {
			return nil, fmt.Errorf("constructor arguments: %w", err)
		}
		return c.reflector.Instantiate(ctx, n.Type, args, c.imports)
	case value.Builder:
		inst, err := c.runChain(ctx, ctor.Chain)
		if err != nil {
			return nil, fmt.Errorf("builder: %w", err)
		}
		if inst == nil {
			return nil, &reflector.ConstructionError{Type: n.Type, Err: fmt.Errorf("builder %s yielded nil", value.Dump(ctor.Chain))}
		}
		return inst, nil
	default:
		return nil, fmt.Errorf("unsupported constructor %T", ctor)
	}
}

// initProperty routes collections through HandleCollection and everything
// else through Set. Failed writes are logged by the reflector and skipped.
func (c *Context) initProperty(ctx context.Context, inst any, p value.Property) error {
	if coll, ok := p.Value.(value.Collection); ok {
		native, err := c.buildCollection(ctx, coll)
		if err != nil {
			return err
		}
		c.reflector.HandleCollection(ctx, inst, p.Name, native, p.Strategy.Clear())
		return nil
	}
	v, err := c.ResolveValue(ctx, p.Value)
	if err != nil {
		return err
	}
	c.reflector.Set(ctx, inst, p.Name, v)
	return nil
}

// InjectController sets every recorded instance onto controller under its
// id and returns the ids that could not be set.
func (c *Context) InjectController(ctx context.Context, controller any) []string {
	logger := ctxlog.FromContext(ctx)
	if controller == nil {
		return nil
	}
	var failed []string
	for _, id := range c.ids {
		inst, _ := c.Lookup(id)
		if !c.reflector.Set(ctx, controller, id, inst) {
			failed = append(failed, id)
			continue
		}
		logger.Debug("Injected into controller.", "id", id)
	}
	return failed
}

// CollectionAttach returns an AttachFunc adding the children to the
// collection property name of the parent.
func CollectionAttach(r *reflector.Reflector, name string) AttachFunc {
	return func(ctx context.Context, parent any, children []any) error {
		if !r.HandleCollection(ctx, parent, name, children, false) {
			return fmt.Errorf("%T has no usable %q collection", parent, name)
		}
		return nil
	}
}
