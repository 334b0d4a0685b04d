package traversal

import (
	"kloc/internal/graph"
	"kloc/internal/model"
)

// DepthCeiling is the hard upper bound on traversal depth. Depth and
// result limits are the only bounding mechanism the engine has, so a
// misconfigured depth is treated as a resource-exhaustion risk and
// clamped here.
const DepthCeiling = 10

// Options controls a single context query.
type Options struct {
	MaxDepth    int
	Limit       int
	IncludeImpl bool
	DirectOnly  bool
	WithImports bool
}

// DefaultOptions are the per-query defaults.
func DefaultOptions() Options {
	return Options{MaxDepth: 2, Limit: 100}
}

func (o Options) normalized() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultOptions().MaxDepth
	}
	if o.MaxDepth > DepthCeiling {
		o.MaxDepth = DepthCeiling
	}
	if o.DirectOnly {
		o.MaxDepth = 1
	}
	if o.Limit <= 0 {
		o.Limit = DefaultOptions().Limit
	}
	return o
}

// Engine runs context queries against an immutable store. An Engine is
// stateless and safe for concurrent use; each query owns its own walk
// context.
type Engine struct {
	store *graph.Store
}

// New creates a context engine over the store.
func New(store *graph.Store) *Engine {
	return &Engine{store: store}
}

// Context is the full result of a context query.
type Context struct {
	Node       *model.Node
	UsedBy     []*Entry
	Uses       []*Entry
	Definition *Definition
}

// QueryContext builds the bidirectional context of a node: who uses it,
// what it uses, and its structural definition.
func (e *Engine) QueryContext(id string, opts Options) (*Context, error) {
	node := e.store.Node(id)
	if node == nil {
		return nil, &model.NotFoundError{ID: id}
	}
	usedBy, err := e.UsedBy(id, opts)
	if err != nil {
		return nil, err
	}
	uses, err := e.Uses(id, opts)
	if err != nil {
		return nil, err
	}
	return &Context{
		Node:       node,
		UsedBy:     usedBy,
		Uses:       uses,
		Definition: e.BuildDefinition(id),
	}, nil
}

// UsedBy builds the incoming-direction context tree, dispatched by the
// queried node's kind.
func (e *Engine) UsedBy(id string, opts Options) ([]*Entry, error) {
	node := e.store.Node(id)
	if node == nil {
		return nil, &model.NotFoundError{ID: id}
	}
	opts = opts.normalized()
	w := newWalk(opts)

	switch node.Kind {
	case model.KindClass, model.KindTrait, model.KindEnum:
		return e.usedByClass(w, node), nil
	case model.KindInterface:
		return e.usedByInterface(w, node), nil
	case model.KindProperty:
		return e.usedByProperty(w, node), nil
	case model.KindMethod, model.KindFunction:
		return e.usedByMethod(w, node), nil
	case model.KindValue:
		return e.usedByValue(w, node), nil
	case model.KindFile, model.KindArgument, model.KindCall, model.KindConstant, model.KindVariable:
		return e.usedByGeneric(w, node), nil
	}
	return e.usedByGeneric(w, node), nil
}

// Uses builds the outgoing-direction context tree.
func (e *Engine) Uses(id string, opts Options) ([]*Entry, error) {
	node := e.store.Node(id)
	if node == nil {
		return nil, &model.NotFoundError{ID: id}
	}
	opts = opts.normalized()
	w := newWalk(opts)
	w.startID = id

	switch node.Kind {
	case model.KindMethod, model.KindFunction:
		return e.usesMethod(w, node, 1), nil
	case model.KindClass, model.KindTrait, model.KindEnum:
		return e.usesClass(w, node), nil
	case model.KindInterface:
		return e.usesInterface(w, node), nil
	case model.KindValue:
		return e.usesValue(w, node, 1), nil
	case model.KindFile, model.KindProperty, model.KindArgument, model.KindCall, model.KindConstant, model.KindVariable:
		return e.usesGeneric(w, node), nil
	}
	return e.usesGeneric(w, node), nil
}

// walkCtx is the per-query mutable traversal state: visited sets, crossing
// budget, emitted count. The USED BY direction deduplicates globally
// through visited; USES deduplicates per parent and only excludes the
// start node globally (see perParent in uses.go).
type walkCtx struct {
	opts Options

	// startID is the queried node. The USES direction rejects it at every
	// nesting level, not just under the first parent.
	startID string

	// visited holds node ids already emitted in the USED BY direction.
	// First occurrence wins: ids are claimed before children expand so a
	// deeper branch cannot steal a node that belongs at a shallower depth.
	visited map[string]bool

	// shownImpl guards implementation expansion: the same interface or
	// class is never polymorphically expanded twice within one query,
	// which would loop forever on mutually referential interfaces.
	shownImpl map[string]bool

	// crossedMethods guards cross-method data-flow tracing against
	// ping-pong between mutually recursive call chains.
	crossedMethods map[string]bool
	crossings      int
	maxCrossings   int

	emitted int
}

func newWalk(opts Options) *walkCtx {
	maxCrossings := opts.MaxDepth
	if maxCrossings > 10 {
		maxCrossings = 10
	}
	return &walkCtx{
		opts:           opts,
		visited:        make(map[string]bool),
		shownImpl:      make(map[string]bool),
		crossedMethods: make(map[string]bool),
		maxCrossings:   maxCrossings,
	}
}

// claim marks id as emitted, returning false when it was already claimed.
func (w *walkCtx) claim(id string) bool {
	if w.visited[id] {
		return false
	}
	w.visited[id] = true
	return true
}

// take consumes one slot of the result budget.
func (w *walkCtx) take() bool {
	if w.emitted >= w.opts.Limit {
		return false
	}
	w.emitted++
	return true
}

func (w *walkCtx) depthLeft(depth int) bool {
	return depth < w.opts.MaxDepth
}
