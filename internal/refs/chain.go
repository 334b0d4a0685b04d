package refs

import (
	"kloc/internal/graph"
	"kloc/internal/model"
)

// chainDepthCap bounds receiver-chain recursion on malformed cyclic input.
const chainDepthCap = 16

// BuildAccessChain renders the human-readable receiver expression leading
// to a call, e.g. "$this->repo" or "$order->customer()->address". It
// returns "" when the call has no receiver (static calls, bare
// constructors).
func BuildAccessChain(s *graph.Store, callID string) string {
	return receiverExpr(s, callID, map[string]bool{}, 0)
}

func receiverExpr(s *graph.Store, callID string, visited map[string]bool, depth int) string {
	if depth > chainDepthCap || visited[callID] {
		return ""
	}
	visited[callID] = true

	value, ok := receiverValue(s, callID)
	if !ok {
		return ""
	}
	if value.Name == "this" {
		return "$this"
	}
	if producer, ok := producingCall(s, value.ID); ok {
		return callExpr(s, producer, visited, depth+1)
	}
	switch value.ValueKind {
	case model.ValueLocal, model.ValueParameter:
		return "$" + value.Name
	}
	return ""
}

// callExpr renders a producing call itself as part of a chain, prepending
// its own receiver expression.
func callExpr(s *graph.Store, call *model.Node, visited map[string]bool, depth int) string {
	base := receiverExpr(s, call.ID, visited, depth)
	switch call.CallKind {
	case model.CallAccess:
		if base == "" {
			return call.Name
		}
		return base + "->" + call.Name
	case model.CallMethod:
		if base == "" {
			return call.Name + "()"
		}
		return base + "->" + call.Name + "()"
	case model.CallAccessStatic:
		return staticQualifier(s, call) + "::$" + call.Name
	case model.CallMethodStatic:
		return staticQualifier(s, call) + "::" + call.Name + "()"
	case model.CallConstructor:
		return "new " + constructorClassName(s, call) + "()"
	case model.CallFunction:
		return call.Name + "()"
	}
	return ""
}

// ResolveChainSymbol is BuildAccessChain's identity-level counterpart: it
// returns the FQN of the terminal Property or Value the receiver chain
// lands on, so a call receiver can be matched against a specific property
// by identity rather than display text.
func ResolveChainSymbol(s *graph.Store, callID string) string {
	value, ok := receiverValue(s, callID)
	if !ok {
		return ""
	}
	depth := 0
	for {
		if depth > chainDepthCap {
			return ""
		}
		depth++
		producer, ok := producingCall(s, value.ID)
		if !ok {
			return value.FQN
		}
		switch producer.CallKind {
		case model.CallAccess, model.CallAccessStatic:
			if member, ok := Callee(s, producer.ID); ok {
				return member.FQN
			}
			return ""
		}
		next, ok := receiverValue(s, producer.ID)
		if !ok {
			return ""
		}
		value = next
	}
}

func receiverValue(s *graph.Store, callID string) (*model.Node, bool) {
	for _, e := range s.Outgoing(callID, model.EdgeReceiver) {
		if n := s.Node(e.To); n != nil && n.Kind == model.KindValue {
			return n, true
		}
	}
	return nil, false
}

func producingCall(s *graph.Store, valueID string) (*model.Node, bool) {
	for _, e := range s.Incoming(valueID, model.EdgeProduces) {
		if n := s.Node(e.From); n != nil && n.Kind == model.KindCall {
			return n, true
		}
	}
	return nil, false
}

func staticQualifier(s *graph.Store, call *model.Node) string {
	if callee, ok := Callee(s, call.ID); ok {
		if owner, ok := s.ContainingType(callee.ID); ok {
			return owner.ShortName()
		}
		return model.ContainerFQN(callee.FQN)
	}
	return ""
}

func constructorClassName(s *graph.Store, call *model.Node) string {
	if callee, ok := Callee(s, call.ID); ok {
		if callee.Kind == model.KindMethod {
			if owner, ok := s.ContainingType(callee.ID); ok {
				return owner.ShortName()
			}
		}
		return callee.ShortName()
	}
	return call.Name
}
