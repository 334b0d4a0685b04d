package traversal

import (
	"strings"

	"kloc/internal/model"
	"kloc/internal/refs"
)

// flowFunc builds the execution flow of a callable. implFunc expands a
// type into its implementations. The two are mutually recursive:
// polymorphic callees expand into implementations, and each
// implementation's methods expand back into execution flow. Each
// takes the other as an explicit function value, wired together once in
// wireFlowBuilders.
type flowFunc func(w *walkCtx, method *model.Node, depth int) []*Entry

type implFunc func(w *walkCtx, node *model.Node, depth int) []*Entry

func (e *Engine) wireFlowBuilders() (flowFunc, implFunc) {
	var flow flowFunc
	var impl implFunc
	flow = func(w *walkCtx, m *model.Node, d int) []*Entry {
		return e.executionFlow(w, m, d, impl)
	}
	impl = func(w *walkCtx, n *model.Node, d int) []*Entry {
		return e.implementationTree(w, n, d, flow)
	}
	return flow, impl
}

// usesMethod builds the outgoing context of a method or function as an
// execution-flow listing: its calls in source order, with call results
// that feed later calls nested rather than repeated as siblings.
func (e *Engine) usesMethod(w *walkCtx, method *model.Node, depth int) []*Entry {
	flow, _ := e.wireFlowBuilders()
	return flow(w, method, depth)
}

func (e *Engine) executionFlow(w *walkCtx, method *model.Node, depth int, impl implFunc) []*Entry {
	calls := refs.CallsUnder(e.store, method.ID)
	consumed := e.consumedResults(calls)
	dedup := newPerParent(w, method.ID)

	var out []*Entry
	for _, call := range calls {
		if consumed[call.ID] {
			continue
		}
		ent := e.flowEntry(w, call, depth, dedup, impl)
		if ent != nil {
			out = append(out, ent)
		}
	}
	out = filterOrphanPropertyAccesses(out)
	out = append(out, e.structuralTypeEntries(w, method, dedup, depth)...)
	sortEntries(out)
	return out
}

// consumedResults marks calls whose produced value is the receiver or an
// argument of another call in the same method; those appear nested under
// their consumer, not as top-level flow entries.
func (e *Engine) consumedResults(calls []*model.Node) map[string]bool {
	inMethod := make(map[string]bool, len(calls))
	for _, c := range calls {
		inMethod[c.ID] = true
	}
	consumed := make(map[string]bool)
	for _, c := range calls {
		for _, prod := range e.store.Outgoing(c.ID, model.EdgeProduces) {
			for _, recv := range e.store.Incoming(prod.To, model.EdgeReceiver) {
				if inMethod[recv.From] && recv.From != c.ID {
					consumed[c.ID] = true
				}
			}
			for _, arg := range e.store.Incoming(prod.To, model.EdgeArgument) {
				if inMethod[arg.From] && arg.From != c.ID {
					consumed[c.ID] = true
				}
			}
		}
	}
	return consumed
}

// flowEntry renders one top-level call of the execution flow: either a
// local-variable entry (the result is bound to a local; the variable is
// primary and the call nests under it as source_call) or a plain call
// entry whose result is discarded.
func (e *Engine) flowEntry(w *walkCtx, call *model.Node, depth int, dedup *perParent, impl implFunc) *Entry {
	callee, ok := refs.Callee(e.store, call.ID)
	if !ok || !dedup.admit(callee.ID) || !w.take() {
		return nil
	}

	callEnt := e.entryFor(callee, depth, callRefType(call))
	callEnt.File, callEnt.Line = call.File, call.Line()
	callEnt.Arguments = e.argumentMappings(call.ID)
	if chain := refs.BuildAccessChain(e.store, call.ID); chain != "" {
		callEnt.Member = &MemberRef{NodeID: callee.ID, FQN: callee.FQN, Name: callee.Name, AccessChain: chain}
	}
	if w.opts.IncludeImpl && w.depthLeft(depth) {
		callEnt.Implementations = impl(w, callee, depth+1)
	}

	if local := e.boundLocal(call); local != nil {
		ent := &Entry{
			Depth:      depth,
			NodeID:     local.ID,
			FQN:        local.FQN,
			Kind:       model.KindValue,
			File:       call.File,
			Line:       call.Line(),
			RefType:    callEnt.RefType,
			Variable:   &VariableInfo{Name: local.Name, TypeFQN: e.typeName(local)},
			SourceCall: callEnt,
		}
		return ent
	}
	return callEnt
}

// boundLocal finds the local variable a call result is assigned to.
func (e *Engine) boundLocal(call *model.Node) *model.Node {
	for _, prod := range e.store.Outgoing(call.ID, model.EdgeProduces) {
		for _, asg := range e.store.Incoming(prod.To, model.EdgeAssignedFrom) {
			local := e.store.Node(asg.From)
			if local != nil && local.Kind == model.KindValue && local.ValueKind == model.ValueLocal {
				return local
			}
		}
	}
	return nil
}

// filterOrphanPropertyAccesses drops property-access entries whose access
// expression textually reappears inside another entry's argument
// expressions. The access is already visible there and a top-level
// sibling would be redundant.
func filterOrphanPropertyAccesses(entries []*Entry) []*Entry {
	var argTexts []string
	for _, ent := range entries {
		for _, a := range ent.Arguments {
			if a.Expression != "" {
				argTexts = append(argTexts, a.Expression)
			}
		}
		if ent.SourceCall != nil {
			for _, a := range ent.SourceCall.Arguments {
				if a.Expression != "" {
					argTexts = append(argTexts, a.Expression)
				}
			}
		}
	}

	out := entries[:0]
	for _, ent := range entries {
		if ent.RefType == refs.PropertyAccess && ent.Member != nil && ent.Member.AccessChain != "" {
			expr := ent.Member.AccessChain
			redundant := false
			for _, text := range argTexts {
				if strings.Contains(text, expr) {
					redundant = true
					break
				}
			}
			if redundant {
				continue
			}
		}
		out = append(out, ent)
	}
	return out
}

func callRefType(call *model.Node) refs.Type {
	switch call.CallKind {
	case model.CallConstructor:
		return refs.Instantiation
	case model.CallMethodStatic:
		return refs.StaticCall
	case model.CallAccess, model.CallAccessStatic:
		return refs.PropertyAccess
	case model.CallFunction:
		return refs.FunctionCall
	}
	return refs.MethodCall
}
