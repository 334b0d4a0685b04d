package traversal

import (
	"kloc/internal/model"
	"kloc/internal/refs"
)

// In the USES direction deduplication is per parent, not global: the same
// target may legitimately appear under two different parents (a true
// re-use), but never twice as siblings. The queried node is excluded
// globally, at every nesting level, which blocks trivial self-cycles; the
// parent is excluded so a method does not list itself under itself.
type perParent struct {
	walk     *walkCtx
	parentID string
	seen     map[string]bool
}

func newPerParent(w *walkCtx, parentID string) *perParent {
	return &perParent{walk: w, parentID: parentID, seen: make(map[string]bool)}
}

func (p *perParent) admit(id string) bool {
	if id == p.walk.startID || id == p.parentID || p.seen[id] {
		return false
	}
	p.seen[id] = true
	return true
}

// usesGeneric is the flat fallback for kinds without a specialized USES
// builder: one entry per outgoing uses edge, deduplicated by target.
func (e *Engine) usesGeneric(w *walkCtx, node *model.Node) []*Entry {
	dedup := newPerParent(w, node.ID)
	var out []*Entry
	for _, edge := range e.store.Outgoing(node.ID, model.EdgeUses) {
		target := e.store.Node(edge.To)
		if target == nil || !dedup.admit(target.ID) || !w.take() {
			continue
		}
		ent := e.entryFor(target, 1, refs.InferType(e.store, edge, target))
		if edge.Loc != nil {
			ent.File, ent.Line = edge.Loc.File, edge.Loc.Line
		}
		out = append(out, ent)
	}
	sortEntries(out)
	return out
}

// structuralTypeEntries collects the signature-level references of a
// callable (parameter types, return types, property types) that Call
// traversal cannot see.
func (e *Engine) structuralTypeEntries(w *walkCtx, node *model.Node, dedup *perParent, depth int) []*Entry {
	var out []*Entry
	for _, edge := range e.store.Outgoing(node.ID, model.EdgeUses) {
		target := e.store.Node(edge.To)
		if target == nil || !target.Kind.IsTypeLike() {
			continue
		}
		refType := refs.InferType(e.store, edge, target)
		switch refType {
		case refs.ParameterType, refs.ReturnType, refs.PropertyType, refs.TypeHint:
		default:
			continue
		}
		if !dedup.admit(target.ID) || !w.take() {
			continue
		}
		ent := e.entryFor(target, depth, refType)
		if edge.Loc != nil {
			ent.File, ent.Line = edge.Loc.File, edge.Loc.Line
		}
		out = append(out, ent)
	}
	return out
}
