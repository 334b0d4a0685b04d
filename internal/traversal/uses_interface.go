package traversal

import (
	"kloc/internal/model"
	"kloc/internal/refs"
)

// usesInterface builds the outgoing context of an interface: the parent
// interface and the non-primitive types appearing in its method
// signatures, including those inherited from ancestor interfaces.
// Contracts have no behavior, so there is no execution flow; with the
// include-implementations flag each implementing class contributes its
// own dependency tree instead.
func (e *Engine) usesInterface(w *walkCtx, iface *model.Node) []*Entry {
	dedup := newPerParent(w, iface.ID)
	var out []*Entry

	for _, edge := range e.store.Outgoing(iface.ID, model.EdgeExtends) {
		parent := e.store.Node(edge.To)
		if parent == nil || !dedup.admit(parent.ID) || !w.take() {
			continue
		}
		out = append(out, e.entryFor(parent, 1, refs.Extends))
	}

	members := e.store.ContainsChildren(iface.ID)
	for _, ancestorID := range e.store.Ancestors(iface.ID) {
		members = append(members, e.store.ContainsChildren(ancestorID)...)
	}
	for _, memberID := range members {
		member := e.store.Node(memberID)
		if member == nil || member.Kind != model.KindMethod {
			continue
		}
		out = append(out, e.structuralTypeEntries(w, member, dedup, 1)...)
	}

	if w.opts.IncludeImpl && w.depthLeft(1) {
		for _, implID := range e.store.Implementors(iface.ID) {
			impl := e.store.Node(implID)
			if impl == nil || w.shownImpl[implID] {
				continue
			}
			w.shownImpl[implID] = true
			if !w.take() {
				break
			}
			ent := e.entryFor(impl, 1, refs.Implements)
			ent.Children = e.usesClass(w, impl)
			for _, c := range ent.Children {
				c.Depth = 2
			}
			out = append(out, ent)
		}
	}

	sortEntries(out)
	return out
}
