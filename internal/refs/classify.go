// Package refs classifies uses-style edges into their semantic reference
// types and resolves call sites and receiver access chains. The taxonomy
// mirrors what the upstream analyzer can express: instantiation, method
// and property dispatch, type hints, signature types, inheritance.
package refs

import (
	"kloc/internal/graph"
	"kloc/internal/model"
)

// Type is the classified semantic meaning of an edge.
type Type string

const (
	Instantiation  Type = "instantiation"
	MethodCall     Type = "method_call"
	StaticCall     Type = "static_call"
	PropertyAccess Type = "property_access"
	PropertyType   Type = "property_type"
	ParameterType  Type = "parameter_type"
	ReturnType     Type = "return_type"
	TypeHint       Type = "type_hint"
	Extends        Type = "extends"
	Implements     Type = "implements"
	UsesTrait      Type = "uses_trait"
	ConstantAccess Type = "constant_access"
	FunctionCall   Type = "function_call"
	ArgumentRef    Type = "argument_ref"
	VariableRef    Type = "variable_ref"
	Uses           Type = "uses"
)

// Chainable reports whether entries of this reference type expand to the
// next depth by chaining into callers of the referencing method.
// Structural references (type hints, inheritance, signature types) are
// always leaves regardless of remaining depth budget.
func (t Type) Chainable() bool {
	switch t {
	case MethodCall, StaticCall, PropertyAccess, Instantiation:
		return true
	}
	return false
}

// InferType determines the reference type of an edge. The rule table is
// edge-type first; for uses edges targeting a declared type the source
// node's own context disambiguates property types, parameter types and
// return types. Without a store the type-context rules degrade to
// type_hint (backward-compatible mode for bare edge lists).
func InferType(s *graph.Store, e *model.Edge, target *model.Node) Type {
	switch e.Type {
	case model.EdgeExtends:
		return Extends
	case model.EdgeImplements:
		return Implements
	case model.EdgeUsesTrait:
		return UsesTrait
	case model.EdgeUses:
		return inferUsesType(s, e, target)
	}
	return Uses
}

func inferUsesType(s *graph.Store, e *model.Edge, target *model.Node) Type {
	if target == nil {
		return Uses
	}
	switch target.Kind {
	case model.KindMethod:
		return MethodCall
	case model.KindProperty:
		return PropertyAccess
	case model.KindConstant:
		return ConstantAccess
	case model.KindFunction:
		return FunctionCall
	case model.KindArgument:
		return ArgumentRef
	case model.KindVariable:
		return VariableRef
	case model.KindClass, model.KindInterface, model.KindEnum:
		return inferTypeContext(s, e, target)
	}
	return Uses
}

// inferTypeContext resolves a uses edge onto a declared type by inspecting
// the kind and type-hint edges of the referencing node.
func inferTypeContext(s *graph.Store, e *model.Edge, target *model.Node) Type {
	if s == nil {
		return TypeHint
	}
	source := s.Node(e.From)
	if source == nil {
		return TypeHint
	}
	switch source.Kind {
	case model.KindProperty:
		return PropertyType
	case model.KindArgument:
		return ParameterType
	case model.KindFile:
		// Import statement, not a real type dependency.
		return TypeHint
	case model.KindMethod, model.KindFunction:
		return inferSignatureType(s, source, target)
	}
	return TypeHint
}

// inferSignatureType decides between parameter_type and return_type for a
// uses edge whose source is the method itself rather than one of its
// arguments: a type-hinted Argument child claims the reference as a
// parameter type even though the edge hangs off the method.
func inferSignatureType(s *graph.Store, method, target *model.Node) Type {
	for _, childID := range s.ContainsChildren(method.ID) {
		child := s.Node(childID)
		if child == nil || child.Kind != model.KindArgument {
			continue
		}
		for _, hint := range s.Outgoing(childID, model.EdgeTypeOf) {
			if hint.To == target.ID {
				return ParameterType
			}
		}
	}
	for _, hint := range s.Outgoing(method.ID, model.EdgeTypeOf) {
		if hint.To == target.ID {
			return ReturnType
		}
	}
	return TypeHint
}
