package refs

import (
	"sort"

	"kloc/internal/graph"
	"kloc/internal/model"
)

// ConstructorName is the analyzer's name for class constructors. A
// `new ClassName()` expression records a uses edge on the Class while the
// Call node's callee is the __construct Method, so matching has to bridge
// the two.
const ConstructorName = "__construct"

// FindCallForUsage locates the specific Call node behind a uses edge: the
// Call contained under sourceID (or pinned to file/line when given) whose
// resolved callee is targetID. A callee mismatch is never "close enough";
// with several calls on the same line only the one invoking the requested
// target matches.
func FindCallForUsage(s *graph.Store, sourceID, targetID, file string, line int) (*model.Node, bool) {
	calls := CallsUnder(s, sourceID)
	if file != "" && line >= 0 {
		var at []*model.Node
		for _, c := range calls {
			if c.File == file && c.Line() == line {
				at = append(at, c)
			}
		}
		calls = at
	}
	for _, c := range calls {
		if callMatchesTarget(s, c, targetID) {
			return c, true
		}
	}
	return nil, false
}

// callMatchesTarget is the identity check for call-to-usage matching. For
// constructor calls the callee is the __construct Method contained by the
// class, but a uses edge pointing at the class itself must still match.
func callMatchesTarget(s *graph.Store, call *model.Node, targetID string) bool {
	for _, e := range s.Outgoing(call.ID, model.EdgeCalls) {
		if e.To == targetID {
			return true
		}
		callee := s.Node(e.To)
		if callee == nil {
			continue
		}
		if callee.Kind == model.KindMethod && callee.Name == ConstructorName {
			if owner, ok := s.ContainingType(callee.ID); ok && owner.ID == targetID {
				return true
			}
		}
	}
	return false
}

// CallsUnder collects every Call node transitively contained under id, in
// deterministic (file, line, id) order.
func CallsUnder(s *graph.Store, id string) []*model.Node {
	var out []*model.Node
	visited := map[string]bool{id: true}
	queue := s.ContainsChildren(id)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		if n := s.Node(cur); n != nil {
			if n.Kind == model.KindCall {
				out = append(out, n)
			}
			queue = append(queue, s.ContainsChildren(cur)...)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		if out[i].Line() != out[j].Line() {
			return out[i].Line() < out[j].Line()
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Callee resolves the target node of a Call's calls edge.
func Callee(s *graph.Store, callID string) (*model.Node, bool) {
	for _, e := range s.Outgoing(callID, model.EdgeCalls) {
		if n := s.Node(e.To); n != nil {
			return n, true
		}
	}
	return nil, false
}

// Refine upgrades a base reference type using the resolved call site:
// constructor calls become instantiations, static dispatch becomes
// static_call. Without a call the base classification stands.
func Refine(base Type, call *model.Node) Type {
	if call == nil {
		return base
	}
	switch call.CallKind {
	case model.CallConstructor:
		return Instantiation
	case model.CallMethodStatic:
		if base == MethodCall || base == TypeHint || base == Uses {
			return StaticCall
		}
	case model.CallMethod:
		if base == TypeHint || base == Uses {
			return MethodCall
		}
	case model.CallAccess, model.CallAccessStatic:
		if base == TypeHint || base == Uses {
			return PropertyAccess
		}
	}
	return base
}
