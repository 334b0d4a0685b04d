package traversal

import (
	"kloc/internal/model"
	"kloc/internal/refs"
)

// usesClass builds the grouped, deduplicated dependency listing of a
// class: inheritance edges first, then member-aggregated uses targets.
// At depth 2 each method-level dependency expands behaviorally through
// the execution-flow builder.
func (e *Engine) usesClass(w *walkCtx, class *model.Node) []*Entry {
	flow, impl := e.wireFlowBuilders()
	dedup := newPerParent(w, class.ID)
	var out []*Entry

	addStructural := func(edges []*model.Edge) {
		for _, edge := range edges {
			target := e.store.Node(edge.To)
			if target == nil || !dedup.admit(target.ID) || !w.take() {
				continue
			}
			ent := e.entryFor(target, 1, refs.InferType(e.store, edge, target))
			if w.opts.IncludeImpl && w.depthLeft(1) {
				ent.Implementations = impl(w, target, 2)
			}
			out = append(out, ent)
		}
	}
	addStructural(e.store.Outgoing(class.ID, model.EdgeExtends))
	addStructural(e.store.Outgoing(class.ID, model.EdgeImplements))
	addStructural(e.store.Outgoing(class.ID, model.EdgeUsesTrait))

	for _, edge := range e.store.GetDeps(class.ID, true) {
		target := e.store.Node(edge.To)
		if target == nil || !dedup.admit(target.ID) || !w.take() {
			continue
		}
		refType := refs.InferType(e.store, edge, target)
		ent := e.entryFor(target, 1, refType)
		if edge.Loc != nil {
			ent.File, ent.Line = edge.Loc.File, edge.Loc.Line
		}
		if target.Kind.IsCallable() && w.depthLeft(1) {
			ent.Children = flow(w, target, 2)
		}
		out = append(out, ent)
	}

	sortEntries(out)
	return out
}
