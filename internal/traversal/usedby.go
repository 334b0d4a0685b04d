package traversal

import (
	"strings"

	"kloc/internal/model"
	"kloc/internal/refs"
)

// displayFQN renders a node's FQN the way entries show it: callables carry
// a trailing call marker.
func displayFQN(n *model.Node) string {
	if n.Kind.IsCallable() && !strings.HasSuffix(n.FQN, "()") {
		return n.FQN + "()"
	}
	return n.FQN
}

// entryFor builds a bare entry for a node at a depth.
func (e *Engine) entryFor(n *model.Node, depth int, ref refs.Type) *Entry {
	ent := &Entry{
		Depth:   depth,
		NodeID:  n.ID,
		FQN:     displayFQN(n),
		Kind:    n.Kind,
		File:    n.File,
		Line:    n.Line(),
		RefType: ref,
	}
	if n.Kind.IsCallable() {
		ent.Signature = e.signatureOf(n)
	}
	return ent
}

// usedByMethod answers "who calls this method". Constructors are
// redirected to the class-level builder: a `new ClassName()` expression
// records its uses edge against the Class, so a direct query on
// __construct would find nothing.
func (e *Engine) usedByMethod(w *walkCtx, node *model.Node) []*Entry {
	if node.Name == refs.ConstructorName {
		if owner, ok := e.store.ContainingType(node.ID); ok {
			return e.usedByClass(w, owner)
		}
	}
	return e.methodCallers(w, node, 1)
}

// methodCallers builds caller entries for every incoming uses edge of a
// callable. Chainable reference types expand to depth+1 by finding the
// callers of the referencing method; structural references stay leaves.
func (e *Engine) methodCallers(w *walkCtx, method *model.Node, depth int) []*Entry {
	var out []*Entry
	for _, edge := range e.store.Incoming(method.ID, model.EdgeUses) {
		ent := e.callerEntry(w, edge, method, depth)
		if ent == nil {
			continue
		}
		out = append(out, ent)
	}
	sortEntries(out)
	return out
}

// callerEntry turns one uses edge into a caller-side entry, resolving the
// concrete call site for access chains and argument mappings.
func (e *Engine) callerEntry(w *walkCtx, edge *model.Edge, target *model.Node, depth int) *Entry {
	source := e.store.Node(edge.From)
	if source == nil {
		return nil
	}

	refType := refs.InferType(e.store, edge, target)
	file, line := edgeSite(edge, source)
	call, hasCall := refs.FindCallForUsage(e.store, edge.From, target.ID, file, line)
	if hasCall {
		refType = refs.Refine(refType, call)
	}

	holder := source
	if !source.Kind.IsCallable() {
		if m, ok := e.store.ContainingCallable(source.ID); ok {
			holder = m
		}
	}
	if !w.claim(holder.ID) || !w.take() {
		return nil
	}

	ent := e.entryFor(holder, depth, refType)
	ent.File, ent.Line = file, line
	if hasCall {
		if chain := refs.BuildAccessChain(e.store, call.ID); chain != "" {
			ent.Member = &MemberRef{
				NodeID:      target.ID,
				FQN:         target.FQN,
				Name:        target.Name,
				AccessChain: chain,
			}
		}
		ent.Arguments = e.argumentMappings(call.ID)
		if call.File != "" {
			ent.File, ent.Line = call.File, call.Line()
		}
	}

	if refType.Chainable() && w.depthLeft(depth) {
		ent.Children = e.methodCallers(w, holder, depth+1)
	}
	return ent
}

// argumentMappings resolves a call's argument edges into ordered
// argument-to-parameter mappings.
func (e *Engine) argumentMappings(callID string) []ArgumentMapping {
	args := e.store.GetArguments(callID)
	out := make([]ArgumentMapping, 0, len(args))
	for _, a := range args {
		out = append(out, ArgumentMapping{
			Position:   a.Position,
			Expression: a.Expression,
			Parameter:  a.Parameter,
			ParamName:  model.ShortName(a.Parameter),
		})
	}
	return out
}

// usedByGeneric is the flat fallback for kinds without a specialized
// builder: one depth-1 entry per incoming uses edge.
func (e *Engine) usedByGeneric(w *walkCtx, node *model.Node) []*Entry {
	var out []*Entry
	for _, edge := range e.store.Incoming(node.ID, model.EdgeUses) {
		source := e.store.Node(edge.From)
		if source == nil || !w.claim(source.ID) || !w.take() {
			continue
		}
		ent := e.entryFor(source, 1, refs.InferType(e.store, edge, node))
		ent.File, ent.Line = edgeSite(edge, source)
		out = append(out, ent)
	}
	sortEntries(out)
	return out
}

// edgeSite prefers the edge's own occurrence location over the source
// node's declaration site.
func edgeSite(edge *model.Edge, source *model.Node) (string, int) {
	if edge.Loc != nil {
		return edge.Loc.File, edge.Loc.Line
	}
	return source.File, source.Line()
}
