// Package closure precomputes the transitive relations the query layer
// needs at O(1): inheritance chains, interface sets, override chains and
// containment paths. Everything here is a pure function of the edge set
// and is recomputed wholesale whenever the source graph changes.
package closure

import (
	"sort"

	"kloc/internal/model"
)

// Closures holds the direct maps and transitive closures derived from the
// edge set. Read-only after Compute returns.
type Closures struct {
	ExtendsParent    map[string]string
	ExtendsChildren  map[string][]string
	Implements       map[string][]string
	Implementors     map[string][]string
	OverridesParent  map[string]string
	OverriddenBy     map[string][]string
	ContainsParent   map[string]string
	ContainsChildren map[string][]string

	Ancestors         map[string][]string
	Descendants       map[string][]string
	AllInterfaces     map[string][]string
	OverrideRoot      map[string]string
	OverrideChainUp   map[string][]string
	OverrideChainDown map[string][]string
	ContainmentPath   map[string][]string
}

// Compute extracts direct relation maps from the edges, then runs the
// closure passes. It is total over every node id present in nodes: lookups
// on the result never need a missing-key branch (accessors default to
// empty/self).
func Compute(nodes map[string]*model.Node, edges []model.Edge) *Closures {
	c := &Closures{
		ExtendsParent:     make(map[string]string),
		ExtendsChildren:   make(map[string][]string),
		Implements:        make(map[string][]string),
		Implementors:      make(map[string][]string),
		OverridesParent:   make(map[string]string),
		OverriddenBy:      make(map[string][]string),
		ContainsParent:    make(map[string]string),
		ContainsChildren:  make(map[string][]string),
		Ancestors:         make(map[string][]string),
		Descendants:       make(map[string][]string),
		AllInterfaces:     make(map[string][]string),
		OverrideRoot:      make(map[string]string),
		OverrideChainUp:   make(map[string][]string),
		OverrideChainDown: make(map[string][]string),
		ContainmentPath:   make(map[string][]string),
	}

	// 1. Direct maps.
	for i := range edges {
		e := &edges[i]
		switch e.Type {
		case model.EdgeExtends:
			c.ExtendsParent[e.From] = e.To
			c.ExtendsChildren[e.To] = append(c.ExtendsChildren[e.To], e.From)
		case model.EdgeImplements:
			c.Implements[e.From] = append(c.Implements[e.From], e.To)
			c.Implementors[e.To] = append(c.Implementors[e.To], e.From)
		case model.EdgeOverrides:
			c.OverridesParent[e.From] = e.To
			c.OverriddenBy[e.To] = append(c.OverriddenBy[e.To], e.From)
		case model.EdgeContains:
			c.ContainsParent[e.To] = e.From
			c.ContainsChildren[e.From] = append(c.ContainsChildren[e.From], e.To)
		}
	}

	// 2. Ancestors, interfaces, override chains, containment per node.
	for id := range nodes {
		c.Ancestors[id] = c.walkUp(id, c.ExtendsParent)
		c.OverrideChainUp[id] = c.walkUp(id, c.OverridesParent)
		c.OverrideRoot[id] = lastOrSelf(id, c.OverrideChainUp[id])
		c.AllInterfaces[id] = c.collectInterfaces(id)
		c.OverrideChainDown[id] = c.walkDown(id, c.OverriddenBy)
		c.ContainmentPath[id] = c.containmentPath(id)
	}

	// 3. Descendants by inverting the ancestor map, sorted for determinism
	// (tests must not depend on edge insertion order).
	for id, ancestors := range c.Ancestors {
		for _, a := range ancestors {
			c.Descendants[a] = append(c.Descendants[a], id)
		}
	}
	for id := range c.Descendants {
		sort.Strings(c.Descendants[id])
	}

	return c
}

// walkUp follows a single-parent relation iteratively, nearest first.
// Cycles in malformed input stop the walk and return the partial chain.
func (c *Closures) walkUp(id string, parent map[string]string) []string {
	var chain []string
	visited := map[string]bool{id: true}
	cur := id
	for {
		next, ok := parent[cur]
		if !ok || visited[next] {
			return chain
		}
		visited[next] = true
		chain = append(chain, next)
		cur = next
	}
}

// walkDown is a breadth-first search over an inverted one-to-many relation,
// cycle-guarded, excluding the seed itself.
func (c *Closures) walkDown(id string, children map[string][]string) []string {
	var out []string
	visited := map[string]bool{id: true}
	queue := append([]string(nil), children[id]...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		out = append(out, cur)
		queue = append(queue, children[cur]...)
	}
	return out
}

// collectInterfaces unions the node's own implemented interfaces with those
// of every ancestor, deduplicated and sorted.
func (c *Closures) collectInterfaces(id string) []string {
	seen := make(map[string]bool)
	add := func(ids []string) {
		for _, i := range ids {
			seen[i] = true
		}
	}
	add(c.Implements[id])
	for _, a := range c.Ancestors[id] {
		add(c.Implements[a])
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for i := range seen {
		out = append(out, i)
	}
	sort.Strings(out)
	return out
}

// containmentPath is the root-to-leaf chain via contains, ending at the
// node itself. The first element is a File or root container.
func (c *Closures) containmentPath(id string) []string {
	bottomUp := []string{id}
	visited := map[string]bool{id: true}
	cur := id
	for {
		parent, ok := c.ContainsParent[cur]
		if !ok || visited[parent] {
			break
		}
		visited[parent] = true
		bottomUp = append(bottomUp, parent)
		cur = parent
	}
	// Reverse to root-first.
	for i, j := 0, len(bottomUp)-1; i < j; i, j = i+1, j-1 {
		bottomUp[i], bottomUp[j] = bottomUp[j], bottomUp[i]
	}
	return bottomUp
}

func lastOrSelf(id string, chain []string) string {
	if len(chain) == 0 {
		return id
	}
	return chain[len(chain)-1]
}
