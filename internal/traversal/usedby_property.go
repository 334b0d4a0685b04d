package traversal

import (
	"kloc/internal/model"
	"kloc/internal/refs"
)

// usedByProperty builds the USED BY tree for a property. Promoted
// constructor properties are traced through the parameter they are
// assigned from to every call site supplying that argument; regular
// properties are traced through the access Calls targeting them, grouped
// by accessing method.
func (e *Engine) usedByProperty(w *walkCtx, prop *model.Node) []*Entry {
	if param, ok := e.promotedParameter(prop); ok {
		return e.promotedPropertyCallers(w, prop, param)
	}
	return e.propertyAccessEntries(w, prop)
}

// promotedParameter resolves the Value(parameter) a promoted constructor
// property is assigned from.
func (e *Engine) promotedParameter(prop *model.Node) (*model.Node, bool) {
	for _, edge := range e.store.Outgoing(prop.ID, model.EdgeAssignedFrom) {
		v := e.store.Node(edge.To)
		if v != nil && v.Kind == model.KindValue && v.ValueKind == model.ValueParameter {
			return v, true
		}
	}
	return nil, false
}

// promotedPropertyCallers finds every Call passing an argument to the
// promoted parameter, by a global scan of argument edges matching the
// parameter FQN. Only the one matching argument is attached, not the
// call's whole argument list.
func (e *Engine) promotedPropertyCallers(w *walkCtx, prop, param *model.Node) []*Entry {
	var out []*Entry
	edges := e.store.Edges()
	for i := range edges {
		edge := &edges[i]
		if edge.Type != model.EdgeArgument || edge.Parameter != param.FQN {
			continue
		}
		call := e.store.Node(edge.From)
		if call == nil || call.Kind != model.KindCall {
			continue
		}
		holder, ok := e.store.ContainingCallable(call.ID)
		if !ok {
			continue
		}
		if !w.claim(holder.ID) || !w.take() {
			continue
		}
		ent := e.entryFor(holder, 1, refs.Instantiation)
		ent.File, ent.Line = call.File, call.Line()
		ent.Member = &MemberRef{NodeID: prop.ID, FQN: prop.FQN, Name: prop.Name}
		ent.Arguments = []ArgumentMapping{{
			Position:   edge.Pos(),
			Expression: edge.Expression,
			Parameter:  edge.Parameter,
			ParamName:  param.Name,
		}}
		if w.depthLeft(1) {
			ent.Children = e.methodCallers(w, holder, 2)
		}
		out = append(out, ent)
	}
	sortEntries(out)
	return out
}

// propertyAccessEntries traces the access Calls whose calls edge targets
// the property, grouped by containing method with an access count. At
// depth 2 the result of each access is traced forward into its consumer
// chain; when nothing consumes the result the expansion falls back to
// showing the accessing method's own callers.
func (e *Engine) propertyAccessEntries(w *walkCtx, prop *model.Node) []*Entry {
	type group struct {
		ent   *Entry
		calls []*model.Node
	}
	groups := make(map[string]*group)
	var order []string

	for _, edge := range e.store.Incoming(prop.ID, model.EdgeCalls) {
		call := e.store.Node(edge.From)
		if call == nil || call.Kind != model.KindCall {
			continue
		}
		holder, ok := e.store.ContainingCallable(call.ID)
		if !ok {
			continue
		}
		g, seen := groups[holder.ID]
		if !seen {
			if !w.claim(holder.ID) || !w.take() {
				continue
			}
			ent := e.entryFor(holder, 1, refs.PropertyAccess)
			ent.File, ent.Line = call.File, call.Line()
			if chain := refs.BuildAccessChain(e.store, call.ID); chain != "" {
				ent.Member = &MemberRef{NodeID: prop.ID, FQN: prop.FQN, Name: prop.Name, AccessChain: chain}
			} else {
				ent.Member = &MemberRef{NodeID: prop.ID, FQN: prop.FQN, Name: prop.Name}
			}
			g = &group{ent: ent}
			groups[holder.ID] = g
			order = append(order, holder.ID)
		}
		g.ent.Count++
		g.ent.Sites = append(g.ent.Sites, Site{File: call.File, Line: call.Line()})
		g.calls = append(g.calls, call)
	}

	var out []*Entry
	for _, holderID := range order {
		g := groups[holderID]
		if g.ent.Count <= 1 {
			g.ent.Sites = nil
		} else {
			sortSites(g.ent.Sites)
		}
		if w.depthLeft(1) {
			for _, call := range g.calls {
				g.ent.Children = append(g.ent.Children, e.accessResultConsumers(w, call, 2)...)
			}
			if len(g.ent.Children) == 0 {
				if holder := e.store.Node(holderID); holder != nil {
					g.ent.Children = e.methodCallers(w, holder, 2)
				}
			}
			sortEntries(g.ent.Children)
		}
		out = append(out, g.ent)
	}
	sortEntries(out)
	return out
}

// accessResultConsumers traces the Value produced by an access Call into
// its downstream consumers.
func (e *Engine) accessResultConsumers(w *walkCtx, call *model.Node, depth int) []*Entry {
	var out []*Entry
	for _, edge := range e.store.Outgoing(call.ID, model.EdgeProduces) {
		result := e.store.Node(edge.To)
		if result == nil || result.Kind != model.KindValue {
			continue
		}
		out = append(out, e.valueConsumers(w, result, depth)...)
	}
	return out
}
