// Package graph holds the in-memory index over the analyzer's node/edge
// document: adjacency indexes, symbol lookup tables, precomputed closures
// and the fuzzy search trie. A Store is immutable after Build; concurrent
// queries may share it freely.
package graph

import (
	"sort"
	"strings"

	"kloc/internal/closure"
	"kloc/internal/model"
	"kloc/internal/trie"
)

// Store is the built graph index.
type Store struct {
	nodes map[string]*model.Node
	order []string // node ids in input order, for deterministic iteration
	edges []model.Edge

	symbolToID map[string]string
	fqnIndex   map[string][]string
	fqnLower   map[string][]string
	nameIndex  map[string][]string
	nameLower  map[string][]string

	// Flat edge arena with index vectors keyed by endpoint and type.
	outgoing map[string]map[model.EdgeType][]int
	incoming map[string]map[model.EdgeType][]int

	closures *closure.Closures
	search   *trie.Index
}

// Build constructs the full index from a loaded document. Nodes and edges
// are copied into the store; the caller's slices are not retained.
func Build(doc *model.Document) *Store {
	s := &Store{
		nodes:      make(map[string]*model.Node, len(doc.Nodes)),
		order:      make([]string, 0, len(doc.Nodes)),
		edges:      append([]model.Edge(nil), doc.Edges...),
		symbolToID: make(map[string]string, len(doc.Nodes)),
		fqnIndex:   make(map[string][]string),
		fqnLower:   make(map[string][]string),
		nameIndex:  make(map[string][]string),
		nameLower:  make(map[string][]string),
		outgoing:   make(map[string]map[model.EdgeType][]int),
		incoming:   make(map[string]map[model.EdgeType][]int),
	}

	for i := range doc.Nodes {
		n := doc.Nodes[i]
		s.addNode(&n)
	}
	for i := range s.edges {
		e := &s.edges[i]
		s.index(s.outgoing, e.From, e.Type, i)
		s.index(s.incoming, e.To, e.Type, i)
	}

	s.closures = closure.Compute(s.nodes, s.edges)
	s.search = trie.New()
	for _, id := range s.order {
		s.search.Insert(id, s.nodes[id].FQN)
	}
	return s
}

func (s *Store) addNode(n *model.Node) {
	if _, exists := s.nodes[n.ID]; !exists {
		s.order = append(s.order, n.ID)
	}
	s.nodes[n.ID] = n
	if n.Symbol != "" {
		s.symbolToID[n.Symbol] = n.ID
	}
	if n.FQN != "" {
		s.fqnIndex[n.FQN] = append(s.fqnIndex[n.FQN], n.ID)
		key := strings.ToLower(n.FQN)
		s.fqnLower[key] = append(s.fqnLower[key], n.ID)
	}
	if n.Name != "" {
		s.nameIndex[n.Name] = append(s.nameIndex[n.Name], n.ID)
		key := strings.ToLower(n.Name)
		s.nameLower[key] = append(s.nameLower[key], n.ID)
	}
}

func (s *Store) index(m map[string]map[model.EdgeType][]int, id string, t model.EdgeType, i int) {
	byType, ok := m[id]
	if !ok {
		byType = make(map[model.EdgeType][]int)
		m[id] = byType
	}
	byType[t] = append(byType[t], i)
}

// Node returns the node for id, or nil when unknown.
func (s *Store) Node(id string) *model.Node {
	return s.nodes[id]
}

// NodeBySymbol resolves an analyzer symbol key to its node.
func (s *Store) NodeBySymbol(symbol string) *model.Node {
	if id, ok := s.symbolToID[symbol]; ok {
		return s.nodes[id]
	}
	return nil
}

// NodesByFQN returns all nodes sharing an exact FQN.
func (s *Store) NodesByFQN(fqn string) []*model.Node {
	return s.toNodes(s.fqnIndex[fqn])
}

// NodeIDs returns every node id in input order.
func (s *Store) NodeIDs() []string {
	return s.order
}

// NodeCount returns the number of nodes in the store.
func (s *Store) NodeCount() int { return len(s.nodes) }

// EdgeCount returns the number of edges in the store.
func (s *Store) EdgeCount() int { return len(s.edges) }

// Edges exposes the edge arena for whole-graph scans (argument-edge
// matching in data-flow traces, cache serialization).
func (s *Store) Edges() []model.Edge { return s.edges }

// Outgoing returns the outgoing edges of the given type. The result is
// never nil-significant: absent buckets yield an empty slice, so callers
// never branch on missing keys.
func (s *Store) Outgoing(id string, t model.EdgeType) []*model.Edge {
	return s.toEdges(s.outgoing[id][t])
}

// Incoming returns the incoming edges of the given type.
func (s *Store) Incoming(id string, t model.EdgeType) []*model.Edge {
	return s.toEdges(s.incoming[id][t])
}

// OutgoingAll returns every outgoing edge regardless of type, in arena order.
func (s *Store) OutgoingAll(id string) []*model.Edge {
	return s.allOf(s.outgoing[id])
}

// IncomingAll returns every incoming edge regardless of type, in arena order.
func (s *Store) IncomingAll(id string) []*model.Edge {
	return s.allOf(s.incoming[id])
}

// Closures exposes the precomputed transitive relations.
func (s *Store) Closures() *closure.Closures { return s.closures }

func (s *Store) toEdges(idx []int) []*model.Edge {
	out := make([]*model.Edge, len(idx))
	for i, j := range idx {
		out[i] = &s.edges[j]
	}
	return out
}

func (s *Store) allOf(byType map[model.EdgeType][]int) []*model.Edge {
	var idx []int
	for _, v := range byType {
		idx = append(idx, v...)
	}
	// Arena order keeps output independent of map iteration.
	sort.Ints(idx)
	return s.toEdges(idx)
}

func (s *Store) toNodes(ids []string) []*model.Node {
	out := make([]*model.Node, 0, len(ids))
	for _, id := range ids {
		if n, ok := s.nodes[id]; ok {
			out = append(out, n)
		}
	}
	return out
}
