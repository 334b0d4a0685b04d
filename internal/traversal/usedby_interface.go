package traversal

import (
	"kloc/internal/model"
	"kloc/internal/refs"
)

// usedByInterface builds the USED BY tree for an interface: direct
// implementors, child interfaces, and property injection points that are
// actually used to invoke a contract method. Plain method_call and
// signature-type references are suppressed; they are subsumed by the
// injection view and would only repeat it as noise.
func (e *Engine) usedByInterface(w *walkCtx, iface *model.Node) []*Entry {
	var out []*Entry
	out = append(out, e.implementorEntries(w, iface)...)
	out = append(out, e.childInterfaceEntries(w, iface)...)
	out = append(out, e.interfaceInjectionEntries(w, iface)...)
	return out
}

// implementorEntries lists direct implementors; at depth 2 each expands
// into the methods it overrides from this interface's contract.
func (e *Engine) implementorEntries(w *walkCtx, iface *model.Node) []*Entry {
	var out []*Entry
	for _, implID := range e.store.Implementors(iface.ID) {
		impl := e.store.Node(implID)
		if impl == nil || !w.claim(impl.ID) || !w.take() {
			continue
		}
		ent := e.entryFor(impl, 1, refs.Implements)
		if w.depthLeft(1) {
			ent.Children = e.overrideMethodEntries(w, iface.ID, implID, 2)
		}
		out = append(out, ent)
	}
	sortEntries(out)
	return out
}

// childInterfaceEntries lists interfaces extending this one; at depth 2
// each expands into its own declared methods plus deeper extensions.
func (e *Engine) childInterfaceEntries(w *walkCtx, iface *model.Node) []*Entry {
	var out []*Entry
	for _, childID := range e.store.ExtendsChildren(iface.ID) {
		child := e.store.Node(childID)
		if child == nil || child.Kind != model.KindInterface {
			continue
		}
		if !w.claim(child.ID) || !w.take() {
			continue
		}
		ent := e.entryFor(child, 1, refs.Extends)
		if w.depthLeft(1) {
			for _, memberID := range e.store.ContainsChildren(childID) {
				member := e.store.Node(memberID)
				if member == nil || member.Kind != model.KindMethod {
					continue
				}
				if !w.take() {
					break
				}
				ent.Children = append(ent.Children, e.entryFor(member, 2, refs.MethodCall))
			}
			sortEntries(ent.Children)
			ent.Children = append(ent.Children, e.childInterfaceEntriesAt(w, child, 2)...)
		}
		out = append(out, ent)
	}
	sortEntries(out)
	return out
}

func (e *Engine) childInterfaceEntriesAt(w *walkCtx, iface *model.Node, depth int) []*Entry {
	if !w.depthLeft(depth - 1) {
		return nil
	}
	var out []*Entry
	for _, childID := range e.store.ExtendsChildren(iface.ID) {
		child := e.store.Node(childID)
		if child == nil || child.Kind != model.KindInterface {
			continue
		}
		if !w.claim(child.ID) || !w.take() {
			continue
		}
		ent := e.entryFor(child, depth, refs.Extends)
		if w.depthLeft(depth) {
			ent.Children = e.childInterfaceEntriesAt(w, child, depth+1)
		}
		out = append(out, ent)
	}
	sortEntries(out)
	return out
}

// interfaceInjectionEntries finds properties typed to this interface whose
// containing class actually invokes a contract method through them. A
// property that is typed to the interface but never used to call into the
// contract is suppressed, best-effort noise reduction over call-site
// data, not a completeness guarantee.
func (e *Engine) interfaceInjectionEntries(w *walkCtx, iface *model.Node) []*Entry {
	var out []*Entry
	for _, edge := range e.store.Incoming(iface.ID, model.EdgeUses) {
		source := e.store.Node(edge.From)
		if source == nil || source.Kind != model.KindProperty {
			continue
		}
		if refs.InferType(e.store, edge, iface) != refs.PropertyType {
			continue
		}
		if !e.propertyInvokesContract(source, iface.ID) {
			continue
		}
		if ent := e.injectionEntry(w, source, 1); ent != nil {
			out = append(out, ent)
		}
	}
	sortEntries(out)
	return out
}

// propertyInvokesContract reports whether any call in the property's
// containing class goes through the property to a method declared by the
// interface itself.
func (e *Engine) propertyInvokesContract(prop *model.Node, ifaceID string) bool {
	owner, ok := e.store.ContainingType(prop.ID)
	if !ok {
		return false
	}
	for _, call := range refs.CallsUnder(e.store, owner.ID) {
		if refs.ResolveChainSymbol(e.store, call.ID) != prop.FQN {
			continue
		}
		callee, ok := refs.Callee(e.store, call.ID)
		if !ok {
			continue
		}
		declarer, ok := e.store.ContainingType(callee.ID)
		if ok && declarer.ID == ifaceID {
			return true
		}
		// The callee may be recorded against the implementing class; the
		// override root then points back at the contract.
		root := e.store.OverrideRoot(callee.ID)
		if declarer, ok := e.store.ContainingType(root); ok && declarer.ID == ifaceID {
			return true
		}
	}
	return false
}
