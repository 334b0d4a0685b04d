package graph

import "kloc/internal/model"

// Derived accessors. All of them answer from the precomputed closures in
// O(1); each falls back to a direct edge walk when closures are absent
// (a store deserialized without its derived data).

// ContainsParent returns the direct container of id.
func (s *Store) ContainsParent(id string) (string, bool) {
	if s.closures != nil {
		p, ok := s.closures.ContainsParent[id]
		return p, ok
	}
	for _, e := range s.Incoming(id, model.EdgeContains) {
		return e.From, true
	}
	return "", false
}

// ContainsChildren returns the directly contained node ids.
func (s *Store) ContainsChildren(id string) []string {
	if s.closures != nil {
		return s.closures.ContainsChildren[id]
	}
	return edgeTargets(s.Outgoing(id, model.EdgeContains))
}

// ExtendsParent returns the direct superclass of id.
func (s *Store) ExtendsParent(id string) (string, bool) {
	if s.closures != nil {
		p, ok := s.closures.ExtendsParent[id]
		return p, ok
	}
	for _, e := range s.Outgoing(id, model.EdgeExtends) {
		return e.To, true
	}
	return "", false
}

// ExtendsChildren returns the direct subclasses of id.
func (s *Store) ExtendsChildren(id string) []string {
	if s.closures != nil {
		return s.closures.ExtendsChildren[id]
	}
	return edgeSources(s.Incoming(id, model.EdgeExtends))
}

// Implements returns the interfaces directly implemented by id.
func (s *Store) Implements(id string) []string {
	if s.closures != nil {
		return s.closures.Implements[id]
	}
	return edgeTargets(s.Outgoing(id, model.EdgeImplements))
}

// Implementors returns the classes directly implementing interface id.
func (s *Store) Implementors(id string) []string {
	if s.closures != nil {
		return s.closures.Implementors[id]
	}
	return edgeSources(s.Incoming(id, model.EdgeImplements))
}

// OverridesParent returns the method id overrides, if any.
func (s *Store) OverridesParent(id string) (string, bool) {
	if s.closures != nil {
		p, ok := s.closures.OverridesParent[id]
		return p, ok
	}
	for _, e := range s.Outgoing(id, model.EdgeOverrides) {
		return e.To, true
	}
	return "", false
}

// OverriddenBy returns the methods directly overriding id.
func (s *Store) OverriddenBy(id string) []string {
	if s.closures != nil {
		return s.closures.OverriddenBy[id]
	}
	return edgeSources(s.Incoming(id, model.EdgeOverrides))
}

// Ancestors returns the extends chain of id, nearest first.
func (s *Store) Ancestors(id string) []string {
	if s.closures != nil {
		return s.closures.Ancestors[id]
	}
	var chain []string
	visited := map[string]bool{id: true}
	cur := id
	for {
		parent, ok := s.ExtendsParent(cur)
		if !ok || visited[parent] {
			return chain
		}
		visited[parent] = true
		chain = append(chain, parent)
		cur = parent
	}
}

// Descendants returns every transitive subclass of id, sorted.
func (s *Store) Descendants(id string) []string {
	if s.closures != nil {
		return s.closures.Descendants[id]
	}
	var out []string
	visited := map[string]bool{id: true}
	queue := s.ExtendsChildren(id)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		out = append(out, cur)
		queue = append(queue, s.ExtendsChildren(cur)...)
	}
	return out
}

// AllInterfaces returns the node's own and inherited interfaces.
func (s *Store) AllInterfaces(id string) []string {
	if s.closures != nil {
		return s.closures.AllInterfaces[id]
	}
	seen := make(map[string]bool)
	var out []string
	add := func(ids []string) {
		for _, i := range ids {
			if !seen[i] {
				seen[i] = true
				out = append(out, i)
			}
		}
	}
	add(s.Implements(id))
	for _, a := range s.Ancestors(id) {
		add(s.Implements(a))
	}
	return out
}

// OverrideRoot walks overrides to the topmost declaration, returning id
// itself when nothing is overridden.
func (s *Store) OverrideRoot(id string) string {
	if s.closures != nil {
		if root, ok := s.closures.OverrideRoot[id]; ok {
			return root
		}
		return id
	}
	cur := id
	visited := map[string]bool{id: true}
	for {
		parent, ok := s.OverridesParent(cur)
		if !ok || visited[parent] {
			return cur
		}
		visited[parent] = true
		cur = parent
	}
}

// OverrideChainUp returns the overridden methods of id, nearest first.
func (s *Store) OverrideChainUp(id string) []string {
	if s.closures != nil {
		return s.closures.OverrideChainUp[id]
	}
	var chain []string
	visited := map[string]bool{id: true}
	cur := id
	for {
		parent, ok := s.OverridesParent(cur)
		if !ok || visited[parent] {
			return chain
		}
		visited[parent] = true
		chain = append(chain, parent)
		cur = parent
	}
}

// OverrideChainDown returns every transitive override of id.
func (s *Store) OverrideChainDown(id string) []string {
	if s.closures != nil {
		return s.closures.OverrideChainDown[id]
	}
	var out []string
	visited := map[string]bool{id: true}
	queue := s.OverriddenBy(id)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		out = append(out, cur)
		queue = append(queue, s.OverriddenBy(cur)...)
	}
	return out
}

// ContainmentPath returns the root-to-leaf ownership chain ending at id.
func (s *Store) ContainmentPath(id string) []string {
	if s.closures != nil {
		if path := s.closures.ContainmentPath[id]; len(path) > 0 {
			return path
		}
		return []string{id}
	}
	path := []string{id}
	visited := map[string]bool{id: true}
	cur := id
	for {
		parent, ok := s.ContainsParent(cur)
		if !ok || visited[parent] {
			break
		}
		visited[parent] = true
		path = append([]string{parent}, path...)
		cur = parent
	}
	return path
}

// ContainingCallable walks up the containment chain to the nearest Method
// or Function owning id.
func (s *Store) ContainingCallable(id string) (*model.Node, bool) {
	cur := id
	visited := map[string]bool{cur: true}
	for {
		parent, ok := s.ContainsParent(cur)
		if !ok || visited[parent] {
			return nil, false
		}
		visited[parent] = true
		if n := s.nodes[parent]; n != nil && n.Kind.IsCallable() {
			return n, true
		}
		cur = parent
	}
}

// ContainingType walks up the containment chain to the nearest type-like
// container owning id.
func (s *Store) ContainingType(id string) (*model.Node, bool) {
	cur := id
	visited := map[string]bool{cur: true}
	for {
		parent, ok := s.ContainsParent(cur)
		if !ok || visited[parent] {
			return nil, false
		}
		visited[parent] = true
		if n := s.nodes[parent]; n != nil && n.Kind.IsTypeLike() {
			return n, true
		}
		cur = parent
	}
}

func edgeTargets(edges []*model.Edge) []string {
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.To)
	}
	return out
}

func edgeSources(edges []*model.Edge) []string {
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.From)
	}
	return out
}
