package query

import (
	"fmt"
	"sort"

	"kloc/internal/graph"
	"kloc/internal/model"
	"kloc/internal/traversal"
)

// NotFoundError and InvalidArgumentError form the query error taxonomy.
// Empty results are never an error; these fire only for unknown ids and
// kind mismatches.
type (
	NotFoundError        = model.NotFoundError
	InvalidArgumentError = model.InvalidArgumentError
)

// Direction selects which way an inheritance or override query walks.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Item is one flat result row of a simple traversal.
type Item struct {
	Depth  int
	NodeID string
	FQN    string
	Kind   model.NodeKind
	File   string
	Line   int
}

// Service exposes the query surface consumed by the CLI and MCP layers:
// symbol resolution, context trees, and the flat closure traversals.
type Service struct {
	store  *graph.Store
	engine *traversal.Engine
}

// New creates a query service over a built store.
func New(store *graph.Store) *Service {
	return &Service{store: store, engine: traversal.New(store)}
}

// Store exposes the underlying graph store.
func (s *Service) Store() *graph.Store {
	return s.store
}

// Resolve returns every node matching the symbol query, best stage first.
// An empty slice is a valid outcome; ambiguity is the caller's contract to
// enforce.
func (s *Service) Resolve(symbol string) []*model.Node {
	return s.store.ResolveSymbol(symbol)
}

// Usages builds the USED BY tree of a node.
func (s *Service) Usages(id string, opts traversal.Options) ([]*traversal.Entry, error) {
	return s.engine.UsedBy(id, opts)
}

// Deps builds the USES tree of a node.
func (s *Service) Deps(id string, opts traversal.Options) ([]*traversal.Entry, error) {
	return s.engine.Uses(id, opts)
}

// Context builds the full bidirectional context of a node.
func (s *Service) Context(id string, opts traversal.Options) (*traversal.Context, error) {
	return s.engine.QueryContext(id, opts)
}

// Owners returns the ownership chain of a node, the node itself first and
// its outermost container (normally a File) last.
func (s *Service) Owners(id string) ([]Item, error) {
	if s.store.Node(id) == nil {
		return nil, &model.NotFoundError{ID: id}
	}
	path := s.store.ContainmentPath(id)
	out := make([]Item, 0, len(path))
	for i := len(path) - 1; i >= 0; i-- {
		out = append(out, s.item(path[i], len(path)-1-i))
	}
	return out, nil
}

// Inherit walks the inheritance hierarchy of a type: extends plus
// implements going up, subclasses plus implementors going down. Levels are
// tagged with their distance from the start node.
func (s *Service) Inherit(id string, dir Direction, depth, limit int) ([]Item, error) {
	node := s.store.Node(id)
	if node == nil {
		return nil, &model.NotFoundError{ID: id}
	}
	if !node.Kind.IsTypeLike() {
		return nil, &model.InvalidArgumentError{
			Reason: fmt.Sprintf("inheritance query on %s node %s", node.Kind, node.FQN),
		}
	}

	var step func(string) []string
	switch dir {
	case DirectionUp:
		step = func(cur string) []string {
			var next []string
			if p, ok := s.store.ExtendsParent(cur); ok {
				next = append(next, p)
			}
			return append(next, s.store.Implements(cur)...)
		}
	case DirectionDown:
		step = func(cur string) []string {
			next := append([]string(nil), s.store.ExtendsChildren(cur)...)
			return append(next, s.store.Implementors(cur)...)
		}
	default:
		return nil, &model.InvalidArgumentError{
			Reason: fmt.Sprintf("unknown direction %q", dir),
		}
	}
	return s.bfs(id, step, depth, limit), nil
}

// Overrides walks the override chain of a method. Up yields the overridden
// declarations nearest first; down yields every transitive override,
// level by level.
func (s *Service) Overrides(id string, dir Direction, depth, limit int) ([]Item, error) {
	node := s.store.Node(id)
	if node == nil {
		return nil, &model.NotFoundError{ID: id}
	}
	if !node.Kind.IsCallable() {
		return nil, &model.InvalidArgumentError{
			Reason: fmt.Sprintf("overrides query on %s node %s", node.Kind, node.FQN),
		}
	}

	var step func(string) []string
	switch dir {
	case DirectionUp:
		step = func(cur string) []string {
			if p, ok := s.store.OverridesParent(cur); ok {
				return []string{p}
			}
			return nil
		}
	case DirectionDown:
		step = s.store.OverriddenBy
	default:
		return nil, &model.InvalidArgumentError{
			Reason: fmt.Sprintf("unknown direction %q", dir),
		}
	}
	return s.bfs(id, step, depth, limit), nil
}

// bfs is the shared level-tagged walk behind Inherit and Overrides. The
// start node is excluded from the result; cycles in the input degrade to a
// truncated walk rather than an error.
func (s *Service) bfs(start string, step func(string) []string, depth, limit int) []Item {
	if depth <= 0 {
		depth = 1
	}
	if depth > traversal.DepthCeiling {
		depth = traversal.DepthCeiling
	}
	if limit <= 0 {
		limit = traversal.DefaultOptions().Limit
	}

	visited := map[string]bool{start: true}
	frontier := []string{start}
	var out []Item
	for level := 1; level <= depth && len(frontier) > 0; level++ {
		var next []string
		var found []Item
		for _, cur := range frontier {
			for _, id := range step(cur) {
				if visited[id] {
					continue
				}
				visited[id] = true
				next = append(next, id)
				found = append(found, s.item(id, level))
			}
		}
		sort.SliceStable(found, func(i, j int) bool {
			return found[i].FQN < found[j].FQN
		})
		for _, it := range found {
			if len(out) >= limit {
				return out
			}
			out = append(out, it)
		}
		frontier = next
	}
	return out
}

func (s *Service) item(id string, depth int) Item {
	it := Item{NodeID: id, Depth: depth, Line: -1}
	if n := s.store.Node(id); n != nil {
		it.FQN = n.FQN
		it.Kind = n.Kind
		it.File = n.File
		it.Line = n.Line()
	}
	return it
}
