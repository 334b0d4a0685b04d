package refs

import (
	"testing"

	"kloc/internal/graph"
	"kloc/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildStore(t *testing.T, doc *model.Document) *graph.Store {
	t.Helper()
	return graph.Build(doc)
}

func TestInferTypeEdgeRules(t *testing.T) {
	tests := []struct {
		name   string
		edge   model.EdgeType
		target model.NodeKind
		want   Type
	}{
		{"extends", model.EdgeExtends, model.KindClass, Extends},
		{"implements", model.EdgeImplements, model.KindInterface, Implements},
		{"uses trait", model.EdgeUsesTrait, model.KindTrait, UsesTrait},
		{"method target", model.EdgeUses, model.KindMethod, MethodCall},
		{"property target", model.EdgeUses, model.KindProperty, PropertyAccess},
		{"function target", model.EdgeUses, model.KindFunction, FunctionCall},
		{"constant target", model.EdgeUses, model.KindConstant, ConstantAccess},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &model.Edge{Type: tt.edge, From: "src", To: "dst"}
			target := &model.Node{ID: "dst", Kind: tt.target}
			assert.Equal(t, tt.want, InferType(nil, e, target))
		})
	}
}

func TestInferTypeContext(t *testing.T) {
	doc := &model.Document{
		Nodes: []model.Node{
			{ID: "cls", Kind: model.KindClass, FQN: "App\\Target"},
			{ID: "prop", Kind: model.KindProperty, FQN: "App\\Holder::prop"},
			{ID: "arg", Kind: model.KindArgument, Name: "x", FQN: "App\\Holder::m::x"},
			{ID: "file", Kind: model.KindFile, FQN: "src/Holder.php"},
			{ID: "m", Kind: model.KindMethod, FQN: "App\\Holder::m"},
			{ID: "ret", Kind: model.KindMethod, FQN: "App\\Holder::producer"},
		},
		Edges: []model.Edge{
			{Type: model.EdgeContains, From: "m", To: "arg"},
			{Type: model.EdgeTypeOf, From: "arg", To: "cls"},
			{Type: model.EdgeTypeOf, From: "ret", To: "cls"},
		},
	}
	s := buildStore(t, doc)
	target := s.Node("cls")

	tests := []struct {
		name string
		from string
		want Type
	}{
		{"property source", "prop", PropertyType},
		{"argument source", "arg", ParameterType},
		{"file import", "file", TypeHint},
		{"method with typed argument", "m", ParameterType},
		{"method with return hint", "ret", ReturnType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &model.Edge{Type: model.EdgeUses, From: tt.from, To: "cls"}
			assert.Equal(t, tt.want, InferType(s, e, target))
		})
	}
}

func TestChainable(t *testing.T) {
	assert.True(t, MethodCall.Chainable())
	assert.True(t, StaticCall.Chainable())
	assert.True(t, PropertyAccess.Chainable())
	assert.True(t, Instantiation.Chainable())

	assert.False(t, TypeHint.Chainable())
	assert.False(t, Extends.Chainable())
	assert.False(t, ParameterType.Chainable())
	assert.False(t, ReturnType.Chainable())
}

func TestRefine(t *testing.T) {
	assert.Equal(t, MethodCall, Refine(MethodCall, nil))

	ctor := &model.Node{Kind: model.KindCall, CallKind: model.CallConstructor}
	assert.Equal(t, Instantiation, Refine(TypeHint, ctor))

	static := &model.Node{Kind: model.KindCall, CallKind: model.CallMethodStatic}
	assert.Equal(t, StaticCall, Refine(MethodCall, static))

	dyn := &model.Node{Kind: model.KindCall, CallKind: model.CallMethod}
	assert.Equal(t, MethodCall, Refine(Uses, dyn))
	assert.Equal(t, PropertyAccess, Refine(PropertyAccess, dyn))
}

// constructorDoc models `$svc = new UserService(); $svc->find()` plus the
// class-level uses edge the analyzer emits for `new`.
func constructorDoc() *model.Document {
	return &model.Document{
		Nodes: []model.Node{
			{ID: "caller", Kind: model.KindMethod, Name: "handle", FQN: "App\\Controller::handle", File: "src/Controller.php"},
			{ID: "cls", Kind: model.KindClass, Name: "UserService", FQN: "App\\UserService"},
			{ID: "ctor", Kind: model.KindMethod, Name: ConstructorName, FQN: "App\\UserService::__construct"},
			{ID: "newcall", Kind: model.KindCall, Name: "UserService", FQN: "call:new", File: "src/Controller.php", Range: &model.Range{StartLine: 8}, CallKind: model.CallConstructor},
		},
		Edges: []model.Edge{
			{Type: model.EdgeContains, From: "cls", To: "ctor"},
			{Type: model.EdgeContains, From: "caller", To: "newcall"},
			{Type: model.EdgeCalls, From: "newcall", To: "ctor"},
			{Type: model.EdgeUses, From: "caller", To: "cls", Loc: &model.Location{File: "src/Controller.php", Line: 8}},
		},
	}
}

func TestFindCallForUsageConstructorBridge(t *testing.T) {
	s := buildStore(t, constructorDoc())

	// The uses edge points at the class; the call's callee is __construct.
	call, ok := FindCallForUsage(s, "caller", "cls", "src/Controller.php", 8)
	require.True(t, ok)
	assert.Equal(t, "newcall", call.ID)

	// Refinement upgrades the type-level classification to instantiation.
	assert.Equal(t, Instantiation, Refine(TypeHint, call))
}

func TestFindCallForUsageWrongLine(t *testing.T) {
	s := buildStore(t, constructorDoc())
	_, ok := FindCallForUsage(s, "caller", "cls", "src/Controller.php", 99)
	assert.False(t, ok)
}

func TestCallsUnderSorted(t *testing.T) {
	doc := &model.Document{
		Nodes: []model.Node{
			{ID: "m", Kind: model.KindMethod, FQN: "App\\C::m"},
			{ID: "c2", Kind: model.KindCall, FQN: "call:2", File: "a.php", Range: &model.Range{StartLine: 20}},
			{ID: "c1", Kind: model.KindCall, FQN: "call:1", File: "a.php", Range: &model.Range{StartLine: 5}},
		},
		Edges: []model.Edge{
			{Type: model.EdgeContains, From: "m", To: "c2"},
			{Type: model.EdgeContains, From: "m", To: "c1"},
		},
	}
	s := buildStore(t, doc)

	calls := CallsUnder(s, "m")
	require.Len(t, calls, 2)
	assert.Equal(t, "c1", calls[0].ID)
	assert.Equal(t, "c2", calls[1].ID)
}

func TestBuildAccessChain(t *testing.T) {
	// $this->repo->find(): the find call's receiver value is produced by a
	// property access whose own receiver is $this.
	doc := &model.Document{
		Nodes: []model.Node{
			{ID: "findcall", Kind: model.KindCall, Name: "find", CallKind: model.CallMethod, FQN: "call:find"},
			{ID: "acccall", Kind: model.KindCall, Name: "repo", CallKind: model.CallAccess, FQN: "call:acc"},
			{ID: "vthis", Kind: model.KindValue, Name: "this", ValueKind: model.ValueLocal, FQN: "v:this"},
			{ID: "vrepo", Kind: model.KindValue, Name: "repo", ValueKind: model.ValueResult, FQN: "v:repo"},
			{ID: "prop", Kind: model.KindProperty, Name: "repo", FQN: "App\\Service::repo"},
		},
		Edges: []model.Edge{
			{Type: model.EdgeReceiver, From: "findcall", To: "vrepo"},
			{Type: model.EdgeProduces, From: "acccall", To: "vrepo"},
			{Type: model.EdgeReceiver, From: "acccall", To: "vthis"},
			{Type: model.EdgeCalls, From: "acccall", To: "prop"},
		},
	}
	s := buildStore(t, doc)

	assert.Equal(t, "$this->repo", BuildAccessChain(s, "findcall"))

	// The identity-level resolution lands on the property FQN.
	assert.Equal(t, "App\\Service::repo", ResolveChainSymbol(s, "findcall"))
}

func TestBuildAccessChainLocal(t *testing.T) {
	doc := &model.Document{
		Nodes: []model.Node{
			{ID: "call", Kind: model.KindCall, Name: "save", CallKind: model.CallMethod, FQN: "call:save"},
			{ID: "vorder", Kind: model.KindValue, Name: "order", ValueKind: model.ValueLocal, FQN: "v:order"},
		},
		Edges: []model.Edge{
			{Type: model.EdgeReceiver, From: "call", To: "vorder"},
		},
	}
	s := buildStore(t, doc)
	assert.Equal(t, "$order", BuildAccessChain(s, "call"))
}
