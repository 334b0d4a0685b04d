package traversal

import (
	"kloc/internal/model"
	"kloc/internal/refs"
)

// usedByClass builds the USED BY tree for a class, trait or enum. Incoming
// references are bucketed by inferred reference type and merged in a fixed
// priority order: instantiation, subclassing, property injection,
// via-interface injection, direct method calls, grouped property accesses,
// signature types. References from the class's own members are filtered
// out as self-references.
func (e *Engine) usedByClass(w *walkCtx, class *model.Node) []*Entry {
	var instantiations, directCalls, hints []*Entry
	var propertyTypes []*Entry
	sigGroups := newSignatureGroups()

	for _, edge := range e.store.Incoming(class.ID, model.EdgeUses) {
		source := e.store.Node(edge.From)
		if source == nil || e.isSelfReference(class.ID, source) {
			continue
		}
		if source.Kind == model.KindFile && !w.opts.WithImports {
			continue
		}

		refType := refs.InferType(e.store, edge, class)
		file, line := edgeSite(edge, source)
		call, hasCall := refs.FindCallForUsage(e.store, edge.From, class.ID, file, line)
		if hasCall {
			refType = refs.Refine(refType, call)
		}

		switch refType {
		case refs.Instantiation:
			if ent := e.callerEntry(w, edge, class, 1); ent != nil {
				instantiations = append(instantiations, ent)
			}
		case refs.MethodCall, refs.StaticCall:
			if ent := e.callerEntry(w, edge, class, 1); ent != nil {
				directCalls = append(directCalls, ent)
			}
		case refs.PropertyType:
			if ent := e.injectionEntry(w, source, 1); ent != nil {
				propertyTypes = append(propertyTypes, ent)
			}
		case refs.ParameterType, refs.ReturnType:
			sigGroups.add(e, source, refType, file, line)
		default:
			if (source.Kind == model.KindFile || w.claim(source.ID)) && w.take() {
				ent := e.entryFor(source, 1, refType)
				ent.File, ent.Line = file, line
				hints = append(hints, ent)
			}
		}
	}

	inheritance := e.subtypeEntries(w, class)
	viaInterface := e.viaInterfaceEntries(w, class)
	methodCalls := e.memberMethodCalls(w, class)
	propertyAccesses := e.memberPropertyAccesses(w, class)

	sortEntries(instantiations)
	sortEntries(directCalls)
	sortEntries(propertyTypes)
	sortEntries(hints)

	var out []*Entry
	out = append(out, instantiations...)
	out = append(out, inheritance...)
	out = append(out, propertyTypes...)
	out = append(out, viaInterface...)
	out = append(out, directCalls...)
	out = append(out, methodCalls...)
	out = append(out, propertyAccesses...)
	out = append(out, sigGroups.entries(e, w)...)
	out = append(out, hints...)
	return out
}

// isSelfReference reports whether the referencing node lives inside the
// class being queried, i.e. its own methods touching its own members.
func (e *Engine) isSelfReference(classID string, source *model.Node) bool {
	if source.ID == classID {
		return true
	}
	owner, ok := e.store.ContainingType(source.ID)
	return ok && owner.ID == classID
}

// subtypeEntries lists direct subclasses and implementors. At depth 2 each
// subtype expands into the methods it overrides from this class.
func (e *Engine) subtypeEntries(w *walkCtx, class *model.Node) []*Entry {
	var out []*Entry
	add := func(ids []string, ref refs.Type) {
		for _, id := range ids {
			sub := e.store.Node(id)
			if sub == nil || !w.claim(sub.ID) || !w.take() {
				continue
			}
			ent := e.entryFor(sub, 1, ref)
			if w.depthLeft(1) {
				ent.Children = e.overrideMethodEntries(w, class.ID, sub.ID, 2)
			}
			out = append(out, ent)
		}
	}
	add(e.store.ExtendsChildren(class.ID), refs.Extends)
	add(e.store.Implementors(class.ID), refs.Implements)
	sortEntries(out)
	return out
}

// overrideMethodEntries lists the methods of subID that override methods
// declared by baseID.
func (e *Engine) overrideMethodEntries(w *walkCtx, baseID, subID string, depth int) []*Entry {
	var out []*Entry
	for _, memberID := range e.store.ContainsChildren(subID) {
		member := e.store.Node(memberID)
		if member == nil || member.Kind != model.KindMethod {
			continue
		}
		parent, ok := e.store.OverridesParent(memberID)
		if !ok {
			continue
		}
		if owner, ok := e.store.ContainingType(parent); !ok || owner.ID != baseID {
			continue
		}
		if !w.take() {
			break
		}
		out = append(out, e.entryFor(member, depth, refs.MethodCall))
	}
	sortEntries(out)
	return out
}

// injectionEntry turns a class-typed property into an injection-point
// entry. Depth 2 expands into the method calls made through the property;
// depth 3 into the callers of the methods making those calls.
func (e *Engine) injectionEntry(w *walkCtx, prop *model.Node, depth int) *Entry {
	if !w.claim(prop.ID) || !w.take() {
		return nil
	}
	ent := e.entryFor(prop, depth, refs.PropertyType)
	if !w.depthLeft(depth) {
		return ent
	}

	owner, ok := e.store.ContainingType(prop.ID)
	if !ok {
		return ent
	}
	for _, call := range refs.CallsUnder(e.store, owner.ID) {
		if refs.ResolveChainSymbol(e.store, call.ID) != prop.FQN {
			continue
		}
		callee, ok := refs.Callee(e.store, call.ID)
		if !ok || !w.take() {
			continue
		}
		child := e.entryFor(callee, depth+1, refs.MethodCall)
		child.File, child.Line = call.File, call.Line()
		if chain := refs.BuildAccessChain(e.store, call.ID); chain != "" {
			child.Member = &MemberRef{
				NodeID:      callee.ID,
				FQN:         callee.FQN,
				Name:        callee.Name,
				AccessChain: chain,
			}
		}
		if w.depthLeft(depth + 1) {
			if m, ok := e.store.ContainingCallable(call.ID); ok {
				child.Children = e.methodCallers(w, m, depth+2)
			}
		}
		ent.Children = append(ent.Children, child)
	}
	sortEntries(ent.Children)
	return ent
}

// viaInterfaceEntries finds indirect injection points: properties typed to
// an interface this class implements. The interface's own incoming edges
// are walked because the property's uses edge lands on the interface, not
// on the class.
func (e *Engine) viaInterfaceEntries(w *walkCtx, class *model.Node) []*Entry {
	var out []*Entry
	for _, ifaceID := range e.store.AllInterfaces(class.ID) {
		iface := e.store.Node(ifaceID)
		if iface == nil {
			continue
		}
		for _, edge := range e.store.Incoming(ifaceID, model.EdgeUses) {
			source := e.store.Node(edge.From)
			if source == nil || source.Kind != model.KindProperty {
				continue
			}
			if e.isSelfReference(class.ID, source) {
				continue
			}
			if refs.InferType(e.store, edge, iface) != refs.PropertyType {
				continue
			}
			if ent := e.injectionEntry(w, source, 1); ent != nil {
				out = append(out, ent)
			}
		}
	}
	sortEntries(out)
	return out
}

// memberMethodCalls lists direct calls to the class's methods from
// instances obtained some other way than a typed property: calls whose
// receiver resolves to a property typed to this class already appear
// under the injection view and are excluded here.
func (e *Engine) memberMethodCalls(w *walkCtx, class *model.Node) []*Entry {
	var out []*Entry
	for _, memberID := range e.store.ContainsChildren(class.ID) {
		member := e.store.Node(memberID)
		if member == nil || member.Kind != model.KindMethod || member.Name == refs.ConstructorName {
			continue
		}
		for _, edge := range e.store.Incoming(memberID, model.EdgeUses) {
			source := e.store.Node(edge.From)
			if source == nil || e.isSelfReference(class.ID, source) {
				continue
			}
			file, line := edgeSite(edge, source)
			call, hasCall := refs.FindCallForUsage(e.store, edge.From, memberID, file, line)
			if hasCall && e.receiverIsTypedProperty(call.ID, class.ID) {
				continue
			}
			if ent := e.callerEntry(w, edge, member, 1); ent != nil {
				out = append(out, ent)
			}
		}
	}
	sortEntries(out)
	return out
}

// receiverIsTypedProperty reports whether the call's receiver chain lands
// on a property whose declared type is the given class.
func (e *Engine) receiverIsTypedProperty(callID, classID string) bool {
	symbol := refs.ResolveChainSymbol(e.store, callID)
	if symbol == "" {
		return false
	}
	for _, prop := range e.store.NodesByFQN(symbol) {
		if prop.Kind != model.KindProperty {
			continue
		}
		for _, edge := range e.store.Outgoing(prop.ID, model.EdgeUses) {
			if edge.To == classID {
				return true
			}
		}
		for _, edge := range e.store.Outgoing(prop.ID, model.EdgeTypeOf) {
			if edge.To == classID {
				return true
			}
		}
	}
	return false
}

// memberPropertyAccesses groups access sites of the class's properties by
// (accessed property, accessing method), collapsing repeats into one entry
// with a count and a sites list instead of one entry per call site.
func (e *Engine) memberPropertyAccesses(w *walkCtx, class *model.Node) []*Entry {
	type groupKey struct {
		propID   string
		holderID string
	}
	groups := make(map[groupKey]*Entry)
	var order []groupKey

	for _, memberID := range e.store.ContainsChildren(class.ID) {
		member := e.store.Node(memberID)
		if member == nil || member.Kind != model.KindProperty {
			continue
		}
		for _, edge := range e.store.Incoming(memberID, model.EdgeUses) {
			source := e.store.Node(edge.From)
			if source == nil || e.isSelfReference(class.ID, source) {
				continue
			}
			holder := source
			if !source.Kind.IsCallable() {
				if m, ok := e.store.ContainingCallable(source.ID); ok {
					holder = m
				}
			}
			file, line := edgeSite(edge, source)
			key := groupKey{propID: memberID, holderID: holder.ID}
			ent, ok := groups[key]
			if !ok {
				if !w.take() {
					continue
				}
				ent = e.entryFor(holder, 1, refs.PropertyAccess)
				ent.File, ent.Line = file, line
				ent.Member = &MemberRef{NodeID: memberID, FQN: member.FQN, Name: member.Name}
				ent.Count = 0
				groups[key] = ent
				order = append(order, key)
			}
			ent.Count++
			ent.Sites = append(ent.Sites, Site{File: file, Line: line})
		}
	}

	var out []*Entry
	for _, key := range order {
		ent := groups[key]
		if ent.Count <= 1 {
			ent.Sites = nil
		} else {
			sortSites(ent.Sites)
		}
		out = append(out, ent)
	}
	sortEntries(out)
	return out
}

// signatureGroups collapses parameter_type/return_type references by the
// containing class of the referencing method, so a class appearing in five
// signatures of one service shows once.
type signatureGroups struct {
	groups map[string]*sigGroup
	order  []string
}

type sigGroup struct {
	ownerID string
	ref     refs.Type
	sites   []Site
}

func newSignatureGroups() *signatureGroups {
	return &signatureGroups{groups: make(map[string]*sigGroup)}
}

func (g *signatureGroups) add(e *Engine, source *model.Node, ref refs.Type, file string, line int) {
	ownerID := source.ID
	if owner, ok := e.store.ContainingType(source.ID); ok {
		ownerID = owner.ID
	}
	key := ownerID + "|" + string(ref)
	grp, ok := g.groups[key]
	if !ok {
		grp = &sigGroup{ownerID: ownerID, ref: ref}
		g.groups[key] = grp
		g.order = append(g.order, key)
	}
	grp.sites = append(grp.sites, Site{File: file, Line: line})
}

func (g *signatureGroups) entries(e *Engine, w *walkCtx) []*Entry {
	var out []*Entry
	for _, key := range g.order {
		grp := g.groups[key]
		owner := e.store.Node(grp.ownerID)
		if owner == nil || !w.claim(owner.ID) || !w.take() {
			continue
		}
		ent := e.entryFor(owner, 1, grp.ref)
		ent.Count = len(grp.sites)
		if len(grp.sites) > 0 {
			sortSites(grp.sites)
			ent.File, ent.Line = grp.sites[0].File, grp.sites[0].Line
			if ent.Count > 1 {
				ent.Sites = grp.sites
			}
		}
		out = append(out, ent)
	}
	sortEntries(out)
	return out
}
