package traversal

import (
	"kloc/internal/graph"
	"kloc/internal/model"
	"kloc/internal/refs"
)

// usedByValue builds the consumer tree of a Value. Values have no incoming
// uses edges; consumption happens through receiver edges (the value is
// accessed) and argument edges (the value is passed on). Crossing a method
// boundary continues the trace inside the callee's matching parameter.
func (e *Engine) usedByValue(w *walkCtx, value *model.Node) []*Entry {
	return e.valueConsumers(w, value, 1)
}

func (e *Engine) valueConsumers(w *walkCtx, value *model.Node, depth int) []*Entry {
	var out []*Entry
	out = append(out, e.receiverConsumers(w, value, depth)...)
	out = append(out, e.argumentConsumers(w, value, depth)...)
	if len(out) == 0 {
		out = e.crossIntoCallersViaReturn(w, value, depth)
	}
	sortEntries(out)
	return out
}

// receiverConsumers finds Calls using the value as their receiver. The
// access itself is shown as member detail; the chain continues through the
// access result.
func (e *Engine) receiverConsumers(w *walkCtx, value *model.Node, depth int) []*Entry {
	var out []*Entry
	for _, edge := range e.store.Incoming(value.ID, model.EdgeReceiver) {
		call := e.store.Node(edge.From)
		if call == nil || call.Kind != model.KindCall {
			continue
		}
		callee, hasCallee := refs.Callee(e.store, call.ID)
		if !hasCallee || !w.take() {
			continue
		}
		ent := e.entryFor(callee, depth, accessRefType(call))
		ent.File, ent.Line = call.File, call.Line()
		if chain := refs.BuildAccessChain(e.store, call.ID); chain != "" {
			ent.Member = &MemberRef{NodeID: callee.ID, FQN: callee.FQN, Name: callee.Name, AccessChain: chain}
		}
		if w.depthLeft(depth) {
			for _, prod := range e.store.Outgoing(call.ID, model.EdgeProduces) {
				if result := e.store.Node(prod.To); result != nil && result.Kind == model.KindValue {
					ent.Children = append(ent.Children, e.valueConsumers(w, result, depth+1)...)
				}
			}
			sortEntries(ent.Children)
		}
		out = append(out, ent)
	}
	return out
}

// argumentConsumers finds Calls the value is passed into. When the
// argument maps to a named formal parameter the trace crosses into the
// callee and continues from the parameter's own consumer chain.
func (e *Engine) argumentConsumers(w *walkCtx, value *model.Node, depth int) []*Entry {
	var out []*Entry
	for _, edge := range e.store.Incoming(value.ID, model.EdgeArgument) {
		call := e.store.Node(edge.From)
		if call == nil || call.Kind != model.KindCall {
			continue
		}
		callee, hasCallee := refs.Callee(e.store, call.ID)
		if !hasCallee || !w.take() {
			continue
		}
		ent := e.entryFor(callee, depth, refs.MethodCall)
		ent.File, ent.Line = call.File, call.Line()
		ent.Arguments = []ArgumentMapping{{
			Position:   edge.Pos(),
			Expression: edge.Expression,
			Parameter:  edge.Parameter,
			ParamName:  model.ShortName(edge.Parameter),
		}}
		if w.depthLeft(depth) {
			ent.Children = e.crossIntoCallee(w, edge, depth+1)
		}
		out = append(out, ent)
	}
	return out
}

// crossIntoCallee resolves the formal parameter named by an argument edge
// to the Value(parameter) node inside the callee and recurses into its
// consumers. This is how data flow is traced through arbitrary call depth,
// bounded by the crossing counter and a per-method visited set that stops
// ping-pong between mutually recursive chains.
func (e *Engine) crossIntoCallee(w *walkCtx, edge *model.Edge, depth int) []*Entry {
	if edge.Parameter == "" || w.crossings >= w.maxCrossings {
		return nil
	}
	var param *model.Node
	for _, n := range e.store.NodesByFQN(edge.Parameter) {
		if n.Kind == model.KindValue && n.ValueKind == model.ValueParameter {
			param = n
			break
		}
	}
	if param == nil {
		return nil
	}
	holder, ok := e.store.ContainingCallable(param.ID)
	if !ok || w.crossedMethods[holder.ID] {
		return nil
	}
	w.crossedMethods[holder.ID] = true
	w.crossings++

	children := e.valueConsumers(w, param, depth)
	for _, c := range children {
		if c.CrossedFrom == "" {
			c.CrossedFrom = param.Name
		}
	}
	return children
}

// crossIntoCallersViaReturn handles a value that is the tail expression of
// its containing method: nothing local consumes it, so the trace continues
// in callers whose local assignment matches the produced value's type.
func (e *Engine) crossIntoCallersViaReturn(w *walkCtx, value *model.Node, depth int) []*Entry {
	if value.ValueKind != model.ValueResult || w.crossings >= w.maxCrossings {
		return nil
	}
	holder, ok := e.store.ContainingCallable(value.ID)
	if !ok || w.crossedMethods[holder.ID] {
		return nil
	}
	w.crossedMethods[holder.ID] = true
	w.crossings++

	var out []*Entry
	for _, edge := range e.store.Incoming(holder.ID, model.EdgeUses) {
		caller := e.store.Node(edge.From)
		if caller == nil {
			continue
		}
		callerMethod := caller
		if !caller.Kind.IsCallable() {
			m, ok := e.store.ContainingCallable(caller.ID)
			if !ok {
				continue
			}
			callerMethod = m
		}
		for _, call := range refs.CallsUnder(e.store, callerMethod.ID) {
			if !callMatches(e.store, call.ID, holder.ID) {
				continue
			}
			for _, prod := range e.store.Outgoing(call.ID, model.EdgeProduces) {
				local := e.localAssignedFrom(prod.To, value.TypeSymbol)
				if local == nil || !w.take() {
					continue
				}
				ent := e.entryFor(callerMethod, depth, refs.MethodCall)
				ent.File, ent.Line = call.File, call.Line()
				ent.Variable = &VariableInfo{Name: local.Name, TypeFQN: e.typeName(local)}
				if w.depthLeft(depth) {
					ent.Children = e.valueConsumers(w, local, depth+1)
				}
				out = append(out, ent)
			}
		}
	}
	return out
}

// localAssignedFrom finds the local Value assigned from the produced
// result, requiring a matching declared type when one is known.
func (e *Engine) localAssignedFrom(resultID, typeSymbol string) *model.Node {
	result := e.store.Node(resultID)
	if result == nil || result.Kind != model.KindValue {
		return nil
	}
	for _, edge := range e.store.Incoming(resultID, model.EdgeAssignedFrom) {
		local := e.store.Node(edge.From)
		if local == nil || local.Kind != model.KindValue || local.ValueKind != model.ValueLocal {
			continue
		}
		if typeSymbol != "" && local.TypeSymbol != "" && local.TypeSymbol != typeSymbol {
			continue
		}
		return local
	}
	if result.ValueKind == model.ValueLocal {
		return result
	}
	return nil
}

// typeName resolves a value's type symbol to a display FQN.
func (e *Engine) typeName(value *model.Node) string {
	if value.TypeSymbol == "" {
		return ""
	}
	if t := e.store.NodeBySymbol(value.TypeSymbol); t != nil {
		return t.FQN
	}
	return value.TypeSymbol
}

func accessRefType(call *model.Node) refs.Type {
	switch call.CallKind {
	case model.CallAccess, model.CallAccessStatic:
		return refs.PropertyAccess
	case model.CallMethodStatic:
		return refs.StaticCall
	}
	return refs.MethodCall
}

// callMatches reports whether the call invokes the given callable.
func callMatches(s *graph.Store, callID, calleeID string) bool {
	for _, e := range s.Outgoing(callID, model.EdgeCalls) {
		if e.To == calleeID {
			return true
		}
	}
	return false
}
