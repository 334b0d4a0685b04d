package traversal

import (
	"kloc/internal/graph"
	"kloc/internal/model"
	"kloc/internal/refs"
)

// usesValue traces a Value backward to its sources: the call that
// produced it, and recursively the source chains of that call's own
// arguments. Parameter values have no local source; their suppliers are
// found by a global scan for argument edges naming the parameter.
func (e *Engine) usesValue(w *walkCtx, value *model.Node, depth int) []*Entry {
	if value.ValueKind == model.ValueParameter {
		return e.parameterSuppliers(w, value, depth)
	}
	return e.sourceChain(w, value, depth)
}

func (e *Engine) sourceChain(w *walkCtx, value *model.Node, depth int) []*Entry {
	var out []*Entry
	for _, edge := range e.store.Outgoing(value.ID, model.EdgeAssignedFrom) {
		source := e.store.Node(edge.To)
		if source == nil || source.Kind != model.KindValue {
			continue
		}
		call, ok := producingCallOf(e.store, source.ID)
		if !ok {
			// A plain value-to-value assignment; keep following it.
			out = append(out, e.sourceChain(w, source, depth)...)
			continue
		}
		callee, ok := refs.Callee(e.store, call.ID)
		if !ok || !w.take() {
			continue
		}
		ent := e.entryFor(callee, depth, callRefType(call))
		ent.File, ent.Line = call.File, call.Line()
		ent.Arguments = e.argumentMappings(call.ID)
		if chain := refs.BuildAccessChain(e.store, call.ID); chain != "" {
			ent.Member = &MemberRef{NodeID: callee.ID, FQN: callee.FQN, Name: callee.Name, AccessChain: chain}
		}
		if w.depthLeft(depth) {
			for _, arg := range e.store.Outgoing(call.ID, model.EdgeArgument) {
				argValue := e.store.Node(arg.To)
				if argValue == nil || argValue.Kind != model.KindValue {
					continue
				}
				ent.Children = append(ent.Children, e.usesValue(w, argValue, depth+1)...)
			}
			sortEntries(ent.Children)
		}
		out = append(out, ent)
	}
	sortEntries(out)
	return out
}

// parameterSuppliers finds the call sites that supplied this parameter,
// matching argument edges against the parameter's FQN.
func (e *Engine) parameterSuppliers(w *walkCtx, param *model.Node, depth int) []*Entry {
	if w.crossings >= w.maxCrossings {
		return nil
	}
	w.crossings++

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
		if !ok || w.crossedMethods[holder.ID] {
			continue
		}
		w.crossedMethods[holder.ID] = true
		if !w.take() {
			break
		}
		ent := e.entryFor(holder, depth, refs.MethodCall)
		ent.File, ent.Line = call.File, call.Line()
		ent.CrossedFrom = param.Name
		ent.Arguments = []ArgumentMapping{{
			Position:   edge.Pos(),
			Expression: edge.Expression,
			Parameter:  edge.Parameter,
			ParamName:  param.Name,
		}}
		if w.depthLeft(depth) {
			if argValue := e.store.Node(edge.To); argValue != nil && argValue.Kind == model.KindValue {
				ent.Children = e.usesValue(w, argValue, depth+1)
			}
		}
		out = append(out, ent)
	}
	sortEntries(out)
	return out
}

func producingCallOf(s *graph.Store, valueID string) (*model.Node, bool) {
	for _, e := range s.Incoming(valueID, model.EdgeProduces) {
		if n := s.Node(e.From); n != nil && n.Kind == model.KindCall {
			return n, true
		}
	}
	return nil, false
}
