package model

// NodeKind is the closed set of symbol kinds produced by the upstream analyzer.
type NodeKind string

const (
	KindFile      NodeKind = "File"
	KindClass     NodeKind = "Class"
	KindInterface NodeKind = "Interface"
	KindTrait     NodeKind = "Trait"
	KindEnum      NodeKind = "Enum"
	KindMethod    NodeKind = "Method"
	KindFunction  NodeKind = "Function"
	KindProperty  NodeKind = "Property"
	KindArgument  NodeKind = "Argument"
	KindValue     NodeKind = "Value"
	KindCall      NodeKind = "Call"
	KindConstant  NodeKind = "Constant"
	KindVariable  NodeKind = "Variable"
)

// IsContainer reports whether nodes of this kind can own members via contains edges.
func (k NodeKind) IsContainer() bool {
	switch k {
	case KindFile, KindClass, KindInterface, KindTrait, KindEnum:
		return true
	}
	return false
}

// IsTypeLike reports whether the kind names a declared type.
func (k NodeKind) IsTypeLike() bool {
	switch k {
	case KindClass, KindInterface, KindTrait, KindEnum:
		return true
	}
	return false
}

// IsCallable reports whether the kind has an executable body.
func (k NodeKind) IsCallable() bool {
	return k == KindMethod || k == KindFunction
}

// EdgeType is the closed set of relations between nodes.
type EdgeType string

const (
	EdgeContains     EdgeType = "contains"
	EdgeExtends      EdgeType = "extends"
	EdgeImplements   EdgeType = "implements"
	EdgeOverrides    EdgeType = "overrides"
	EdgeUses         EdgeType = "uses"
	EdgeUsesTrait    EdgeType = "uses_trait"
	EdgeCalls        EdgeType = "calls"
	EdgeReceiver     EdgeType = "receiver"
	EdgeProduces     EdgeType = "produces"
	EdgeArgument     EdgeType = "argument"
	EdgeAssignedFrom EdgeType = "assigned_from"
	EdgeTypeOf       EdgeType = "type_of"
)

// ValueKind classifies Value nodes.
type ValueKind string

const (
	ValueParameter ValueKind = "parameter"
	ValueLocal     ValueKind = "local"
	ValueResult    ValueKind = "result"
	ValueLiteral   ValueKind = "literal"
	ValueConstant  ValueKind = "constant"
)

// CallKind classifies Call nodes.
type CallKind string

const (
	CallMethod       CallKind = "method"
	CallMethodStatic CallKind = "method_static"
	CallConstructor  CallKind = "constructor"
	CallAccess       CallKind = "access"
	CallAccessStatic CallKind = "access_static"
	CallFunction     CallKind = "function"
)

// Range is a source span. Lines and columns are 0-based throughout the core;
// the render layer converts to 1-based exactly once at the boundary.
type Range struct {
	StartLine int `json:"start_line"`
	StartCol  int `json:"start_col"`
	EndLine   int `json:"end_line"`
	EndCol    int `json:"end_col"`
}

// Location pins an edge occurrence to a specific source position, distinct
// from the source node's own declaration site.
type Location struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

// Node is a program symbol. Immutable after load.
type Node struct {
	ID        string   `json:"id"`
	Kind      NodeKind `json:"kind"`
	Name      string   `json:"name"`
	FQN       string   `json:"fqn"`
	Symbol    string   `json:"symbol"`
	File      string   `json:"file,omitempty"`
	Range     *Range   `json:"range,omitempty"`
	Enclosing *Range   `json:"enclosing,omitempty"`
	Docs      []string `json:"docs,omitempty"`

	// Value-kind specific fields, meaningful only when Kind == KindValue.
	ValueKind  ValueKind `json:"value_kind,omitempty"`
	TypeSymbol string    `json:"type_symbol,omitempty"`

	// Call-kind specific field, meaningful only when Kind == KindCall.
	CallKind CallKind `json:"call_kind,omitempty"`
}

// Line returns the node's declaration line, or -1 when unknown.
func (n *Node) Line() int {
	if n.Range == nil {
		return -1
	}
	return n.Range.StartLine
}

// ShortName returns the member part of the FQN (after the last "::"),
// or the whole FQN for non-members.
func (n *Node) ShortName() string {
	return ShortName(n.FQN)
}

// Edge is a directed relation between two node ids. Immutable after load.
// Multiple edges with the same (type, from, to) are legitimate and are
// never collapsed; argument edges in particular are identity-sensitive.
type Edge struct {
	Type EdgeType  `json:"type"`
	From string    `json:"from"`
	To   string    `json:"to"`
	Loc  *Location `json:"loc,omitempty"`

	// Argument-edge fields. Position is a pointer so an absent position is
	// distinguishable from an explicit 0.
	Position   *int   `json:"position,omitempty"`
	Expression string `json:"expression,omitempty"`
	Parameter  string `json:"parameter,omitempty"`
}

// Pos returns the argument position, defaulting to 0 when absent. Two
// absent positions keep their input order relative to each other; see
// Store.GetArguments.
func (e *Edge) Pos() int {
	if e.Position == nil {
		return 0
	}
	return *e.Position
}

// Document is the source-of-truth graph file produced by the upstream
// analyzer, consumed wholesale at build time.
type Document struct {
	Version  string         `json:"version"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Nodes    []Node         `json:"nodes"`
	Edges    []Edge         `json:"edges"`
}
