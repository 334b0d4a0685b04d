package graph

import (
	"path/filepath"
	"sort"
	"strings"

	"kloc/internal/model"
)

// GetUsages returns the incoming uses edges of id. With includeMembers set
// and a container node, the direct edges of every transitively contained
// node are unioned in, deduplicated by the referencing endpoint: "usages
// of a class" then include usages of any of its methods and properties.
func (s *Store) GetUsages(id string, includeMembers bool) []*model.Edge {
	return s.aggregate(id, includeMembers, func(nodeID string) []*model.Edge {
		return s.Incoming(nodeID, model.EdgeUses)
	}, func(e *model.Edge) string {
		return e.From
	})
}

// GetDeps returns the outgoing uses edges of id, optionally unioned over
// contained members and deduplicated by the target endpoint.
func (s *Store) GetDeps(id string, includeMembers bool) []*model.Edge {
	return s.aggregate(id, includeMembers, func(nodeID string) []*model.Edge {
		return s.Outgoing(nodeID, model.EdgeUses)
	}, func(e *model.Edge) string {
		return e.To
	})
}

func (s *Store) aggregate(id string, includeMembers bool, direct func(string) []*model.Edge, otherEnd func(*model.Edge) string) []*model.Edge {
	node := s.nodes[id]
	if node == nil {
		return nil
	}
	if !includeMembers || !node.Kind.IsContainer() {
		return direct(id)
	}

	seen := make(map[string]bool)
	var out []*model.Edge
	add := func(edges []*model.Edge) {
		for _, e := range edges {
			key := otherEnd(e)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, e)
		}
	}

	add(direct(id))
	queue := s.ContainsChildren(id)
	visited := map[string]bool{id: true}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		add(direct(cur))
		queue = append(queue, s.ContainsChildren(cur)...)
	}
	return out
}

// ResolveFileToClass maps a File node to its primary declared type. With a
// single contained type it is that type; with several, the one whose short
// name matches the file's base name wins (one canonical type per file named
// after the file); otherwise the first in input order.
func (s *Store) ResolveFileToClass(fileID string) (*model.Node, bool) {
	file := s.nodes[fileID]
	if file == nil || file.Kind != model.KindFile {
		return nil, false
	}

	var types []*model.Node
	for _, childID := range s.ContainsChildren(fileID) {
		if child := s.nodes[childID]; child != nil && child.Kind.IsTypeLike() {
			types = append(types, child)
		}
	}
	switch len(types) {
	case 0:
		return nil, false
	case 1:
		return types[0], true
	}

	base := strings.TrimSuffix(filepath.Base(file.File), filepath.Ext(file.File))
	if base == "" {
		base = strings.TrimSuffix(filepath.Base(file.Name), filepath.Ext(file.Name))
	}
	for _, t := range types {
		if t.ShortName() == base {
			return t, true
		}
	}
	return types[0], true
}

// Argument is one resolved argument edge of a Call.
type Argument struct {
	ValueID    string
	Position   int
	Expression string
	Parameter  string
}

// GetArguments returns the Call's argument edges ordered by position.
// Absent positions default to 0 and keep their input order among
// themselves, a known limitation of the upstream data, preserved rather
// than guessed around.
func (s *Store) GetArguments(callID string) []Argument {
	edges := s.Outgoing(callID, model.EdgeArgument)
	out := make([]Argument, 0, len(edges))
	for _, e := range edges {
		out = append(out, Argument{
			ValueID:    e.To,
			Position:   e.Pos(),
			Expression: e.Expression,
			Parameter:  e.Parameter,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Position < out[j].Position
	})
	return out
}

// Stats summarizes the built index.
type Stats struct {
	Nodes       int                    `json:"nodes"`
	Edges       int                    `json:"edges"`
	NodesByKind map[model.NodeKind]int `json:"nodes_by_kind"`
	EdgesByType map[model.EdgeType]int `json:"edges_by_type"`
}

// ComputeStats counts nodes and edges by kind.
func (s *Store) ComputeStats() Stats {
	st := Stats{
		Nodes:       len(s.nodes),
		Edges:       len(s.edges),
		NodesByKind: make(map[model.NodeKind]int),
		EdgesByType: make(map[model.EdgeType]int),
	}
	for _, n := range s.nodes {
		st.NodesByKind[n.Kind]++
	}
	for i := range s.edges {
		st.EdgesByType[s.edges[i].Type]++
	}
	return st
}
