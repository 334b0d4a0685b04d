package traversal

import (
	"kloc/internal/model"
	"kloc/internal/refs"
)

// implementationTree flattens the polymorphic expansion of a node: the
// implementors and subclasses of a type, or the overrides of a method,
// each expanded behaviorally through the injected execution-flow builder.
// The shownImpl guard ensures the same type is never expanded twice within
// one query; mutually referential interfaces would otherwise recurse
// forever.
func (e *Engine) implementationTree(w *walkCtx, node *model.Node, depth int, flow flowFunc) []*Entry {
	if w.shownImpl[node.ID] {
		return nil
	}
	w.shownImpl[node.ID] = true

	switch node.Kind {
	case model.KindInterface:
		var ids []string
		ids = append(ids, e.store.Implementors(node.ID)...)
		ids = append(ids, e.store.ExtendsChildren(node.ID)...)
		return e.implEntries(w, ids, refs.Implements, depth, flow)
	case model.KindClass, model.KindTrait, model.KindEnum:
		return e.implEntries(w, e.store.Descendants(node.ID), refs.Extends, depth, flow)
	case model.KindMethod, model.KindFunction:
		return e.implEntries(w, e.store.OverrideChainDown(node.ID), refs.MethodCall, depth, flow)
	}
	return nil
}

func (e *Engine) implEntries(w *walkCtx, ids []string, ref refs.Type, depth int, flow flowFunc) []*Entry {
	var out []*Entry
	for _, id := range ids {
		n := e.store.Node(id)
		if n == nil || w.shownImpl[id] {
			continue
		}
		w.shownImpl[id] = true
		if !w.take() {
			break
		}
		ent := e.entryFor(n, depth, ref)
		if n.Kind.IsCallable() && w.depthLeft(depth) {
			ent.Children = flow(w, n, depth+1)
		}
		out = append(out, ent)
	}
	sortEntries(out)
	return out
}
