package traversal

import (
	"testing"

	"kloc/internal/graph"
	"kloc/internal/model"
	"kloc/internal/refs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inheritanceDoc models: File F1 contains Class C, C contains bar(), Class
// D extends C, and bar() references D.
func inheritanceDoc() *model.Document {
	return &model.Document{
		Nodes: []model.Node{
			{ID: "F1", Kind: model.KindFile, Name: "C.php", FQN: "src/C.php", File: "src/C.php"},
			{ID: "C", Kind: model.KindClass, Name: "C", FQN: "C", File: "src/C.php", Range: &model.Range{StartLine: 2}},
			{ID: "bar", Kind: model.KindMethod, Name: "bar", FQN: "C::bar", File: "src/C.php", Range: &model.Range{StartLine: 9}},
			{ID: "D", Kind: model.KindClass, Name: "D", FQN: "D", File: "src/D.php", Range: &model.Range{StartLine: 2}},
		},
		Edges: []model.Edge{
			{Type: model.EdgeContains, From: "F1", To: "C"},
			{Type: model.EdgeContains, From: "C", To: "bar"},
			{Type: model.EdgeExtends, From: "D", To: "C"},
			{Type: model.EdgeUses, From: "bar", To: "D", Loc: &model.Location{File: "src/C.php", Line: 11}},
		},
	}
}

// callChainDoc models three classes where C::dispatch calls B::handle
// calls A::run.
func callChainDoc() *model.Document {
	return &model.Document{
		Nodes: []model.Node{
			{ID: "clsA", Kind: model.KindClass, Name: "A", FQN: "App\\A", File: "a.php"},
			{ID: "m1", Kind: model.KindMethod, Name: "run", FQN: "App\\A::run", File: "a.php", Range: &model.Range{StartLine: 3}},
			{ID: "clsB", Kind: model.KindClass, Name: "B", FQN: "App\\B", File: "b.php"},
			{ID: "m2", Kind: model.KindMethod, Name: "handle", FQN: "App\\B::handle", File: "b.php", Range: &model.Range{StartLine: 3}},
			{ID: "clsC", Kind: model.KindClass, Name: "C", FQN: "App\\C", File: "c.php"},
			{ID: "m3", Kind: model.KindMethod, Name: "dispatch", FQN: "App\\C::dispatch", File: "c.php", Range: &model.Range{StartLine: 3}},
			{ID: "call1", Kind: model.KindCall, Name: "run", FQN: "call:1", File: "b.php", Range: &model.Range{StartLine: 5}, CallKind: model.CallMethod},
			{ID: "call2", Kind: model.KindCall, Name: "handle", FQN: "call:2", File: "c.php", Range: &model.Range{StartLine: 9}, CallKind: model.CallMethod},
		},
		Edges: []model.Edge{
			{Type: model.EdgeContains, From: "clsA", To: "m1"},
			{Type: model.EdgeContains, From: "clsB", To: "m2"},
			{Type: model.EdgeContains, From: "clsC", To: "m3"},
			{Type: model.EdgeContains, From: "m2", To: "call1"},
			{Type: model.EdgeContains, From: "m3", To: "call2"},
			{Type: model.EdgeCalls, From: "call1", To: "m1"},
			{Type: model.EdgeCalls, From: "call2", To: "m2"},
			{Type: model.EdgeUses, From: "m2", To: "m1", Loc: &model.Location{File: "b.php", Line: 5}},
			{Type: model.EdgeUses, From: "m3", To: "m2", Loc: &model.Location{File: "c.php", Line: 9}},
		},
	}
}

func newEngine(doc *model.Document) *Engine {
	return New(graph.Build(doc))
}

func TestUsedByClassTypeReference(t *testing.T) {
	e := newEngine(inheritanceDoc())

	entries, err := e.UsedBy("D", Options{MaxDepth: 1, Limit: 100})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	ent := entries[0]
	assert.Equal(t, 1, ent.Depth)
	assert.Equal(t, "C::bar()", ent.FQN)
	assert.Equal(t, refs.TypeHint, ent.RefType)
	assert.Equal(t, "src/C.php", ent.File)
	assert.Equal(t, 11, ent.Line)
	assert.Empty(t, ent.Children)
}

func TestTypeHintIsAlwaysLeaf(t *testing.T) {
	e := newEngine(inheritanceDoc())

	// Depth budget left over must not expand a structural reference.
	entries, err := e.UsedBy("D", Options{MaxDepth: 5, Limit: 100})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].Children)
}

func TestUsedByMethodCallChain(t *testing.T) {
	e := newEngine(callChainDoc())

	entries, err := e.UsedBy("m1", Options{MaxDepth: 2, Limit: 100})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	caller := entries[0]
	assert.Equal(t, "App\\B::handle()", caller.FQN)
	assert.Equal(t, refs.MethodCall, caller.RefType)
	assert.Equal(t, 1, caller.Depth)
	assert.Equal(t, "b.php", caller.File)
	assert.Equal(t, 5, caller.Line)

	// A qualifying caller of the caller expands at depth 2.
	require.Len(t, caller.Children, 1)
	grand := caller.Children[0]
	assert.Equal(t, "App\\C::dispatch()", grand.FQN)
	assert.Equal(t, 2, grand.Depth)
	assert.Empty(t, grand.Children)
}

func TestUsedByDepthOne(t *testing.T) {
	e := newEngine(callChainDoc())

	entries, err := e.UsedBy("m1", Options{MaxDepth: 1, Limit: 100})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].Children)
}

func TestUsedByUnknownNode(t *testing.T) {
	e := newEngine(callChainDoc())

	_, err := e.UsedBy("nope", Options{})
	var nf *model.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "nope", nf.ID)
}

func TestUsedByLimit(t *testing.T) {
	doc := callChainDoc()
	// Second independent caller of m1.
	doc.Nodes = append(doc.Nodes,
		model.Node{ID: "m4", Kind: model.KindMethod, Name: "other", FQN: "App\\C::other", File: "c.php", Range: &model.Range{StartLine: 20}},
		model.Node{ID: "call3", Kind: model.KindCall, Name: "run", FQN: "call:3", File: "c.php", Range: &model.Range{StartLine: 22}, CallKind: model.CallMethod},
	)
	doc.Edges = append(doc.Edges,
		model.Edge{Type: model.EdgeContains, From: "clsC", To: "m4"},
		model.Edge{Type: model.EdgeContains, From: "m4", To: "call3"},
		model.Edge{Type: model.EdgeCalls, From: "call3", To: "m1"},
		model.Edge{Type: model.EdgeUses, From: "m4", To: "m1", Loc: &model.Location{File: "c.php", Line: 22}},
	)
	e := newEngine(doc)

	entries, err := e.UsedBy("m1", Options{MaxDepth: 1, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestConstructorRedirectsToClass(t *testing.T) {
	doc := &model.Document{
		Nodes: []model.Node{
			{ID: "ctrl", Kind: model.KindClass, Name: "Ctrl", FQN: "App\\Ctrl", File: "ctrl.php"},
			{ID: "handle", Kind: model.KindMethod, Name: "handle", FQN: "App\\Ctrl::handle", File: "ctrl.php", Range: &model.Range{StartLine: 2}},
			{ID: "X", Kind: model.KindClass, Name: "X", FQN: "App\\X", File: "x.php"},
			{ID: "ctor", Kind: model.KindMethod, Name: refs.ConstructorName, FQN: "App\\X::__construct", File: "x.php"},
			{ID: "newcall", Kind: model.KindCall, Name: "X", FQN: "call:new", File: "ctrl.php", Range: &model.Range{StartLine: 4}, CallKind: model.CallConstructor},
		},
		Edges: []model.Edge{
			{Type: model.EdgeContains, From: "ctrl", To: "handle"},
			{Type: model.EdgeContains, From: "X", To: "ctor"},
			{Type: model.EdgeContains, From: "handle", To: "newcall"},
			{Type: model.EdgeCalls, From: "newcall", To: "ctor"},
			{Type: model.EdgeUses, From: "handle", To: "X", Loc: &model.Location{File: "ctrl.php", Line: 4}},
		},
	}
	e := newEngine(doc)

	// A direct query on __construct finds the class's instantiations: the
	// uses edge for `new X()` lands on the class, not the constructor.
	entries, err := e.UsedBy("ctor", Options{MaxDepth: 1, Limit: 100})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "App\\Ctrl::handle()", entries[0].FQN)
	assert.Equal(t, refs.Instantiation, entries[0].RefType)
}

func TestUsedByClassDirectCallsRankAfterInheritance(t *testing.T) {
	// A static call on the class is a behavioral reference, but structural
	// relationships still lead the merged listing.
	doc := &model.Document{
		Nodes: []model.Node{
			{ID: "X", Kind: model.KindClass, Name: "X", FQN: "App\\X", File: "x.php"},
			{ID: "D", Kind: model.KindClass, Name: "D", FQN: "App\\D", File: "d.php"},
			{ID: "A", Kind: model.KindClass, Name: "A", FQN: "App\\A", File: "a.php"},
			{ID: "run", Kind: model.KindMethod, Name: "run", FQN: "App\\A::run", File: "a.php", Range: &model.Range{StartLine: 2}},
			{ID: "c1", Kind: model.KindCall, Name: "X", FQN: "call:1", File: "a.php", Range: &model.Range{StartLine: 4}, CallKind: model.CallMethodStatic},
		},
		Edges: []model.Edge{
			{Type: model.EdgeContains, From: "A", To: "run"},
			{Type: model.EdgeContains, From: "run", To: "c1"},
			{Type: model.EdgeExtends, From: "D", To: "X"},
			{Type: model.EdgeCalls, From: "c1", To: "X"},
			{Type: model.EdgeUses, From: "run", To: "X", Loc: &model.Location{File: "a.php", Line: 4}},
		},
	}
	e := newEngine(doc)

	entries, err := e.UsedBy("X", Options{MaxDepth: 1, Limit: 100})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "App\\D", entries[0].FQN)
	assert.Equal(t, refs.Extends, entries[0].RefType)
	assert.Equal(t, "App\\A::run()", entries[1].FQN)
	assert.Equal(t, refs.StaticCall, entries[1].RefType)
}

func TestUsedByClassImportEntriesHonorLimit(t *testing.T) {
	doc := &model.Document{
		Nodes: []model.Node{
			{ID: "X", Kind: model.KindClass, Name: "X", FQN: "App\\X", File: "x.php"},
			{ID: "F1", Kind: model.KindFile, Name: "a.php", FQN: "src/a.php", File: "src/a.php"},
			{ID: "F2", Kind: model.KindFile, Name: "b.php", FQN: "src/b.php", File: "src/b.php"},
		},
		Edges: []model.Edge{
			{Type: model.EdgeUses, From: "F1", To: "X", Loc: &model.Location{File: "src/a.php", Line: 2}},
			{Type: model.EdgeUses, From: "F2", To: "X", Loc: &model.Location{File: "src/b.php", Line: 2}},
		},
	}
	e := newEngine(doc)

	// File references only appear when imports are requested.
	entries, err := e.UsedBy("X", Options{MaxDepth: 1, Limit: 100})
	require.NoError(t, err)
	assert.Empty(t, entries)

	entries, err = e.UsedBy("X", Options{MaxDepth: 1, Limit: 100, WithImports: true})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	entries, err = e.UsedBy("X", Options{MaxDepth: 1, Limit: 1, WithImports: true})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestUsesMethodExecutionFlow(t *testing.T) {
	e := newEngine(callChainDoc())

	entries, err := e.Uses("m2", Options{MaxDepth: 1, Limit: 100})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	ent := entries[0]
	assert.Equal(t, "App\\A::run()", ent.FQN)
	assert.Equal(t, refs.MethodCall, ent.RefType)
	assert.Equal(t, "b.php", ent.File)
	assert.Equal(t, 5, ent.Line)
}

func TestUsesClassStructural(t *testing.T) {
	e := newEngine(inheritanceDoc())

	entries, err := e.Uses("D", Options{MaxDepth: 1, Limit: 100})
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	var extends *Entry
	for _, ent := range entries {
		if ent.RefType == refs.Extends {
			extends = ent
		}
	}
	require.NotNil(t, extends)
	assert.Equal(t, "C", extends.FQN)
}

func TestUsesLocalVariableBinding(t *testing.T) {
	// $u = $this->repo->find(): the local is the primary entry, the call
	// nests under it as source_call.
	doc := &model.Document{
		Nodes: []model.Node{
			{ID: "cls", Kind: model.KindClass, Name: "S", FQN: "App\\S", File: "s.php"},
			{ID: "m", Kind: model.KindMethod, Name: "load", FQN: "App\\S::load", File: "s.php", Range: &model.Range{StartLine: 2}},
			{ID: "repo", Kind: model.KindClass, Name: "Repo", FQN: "App\\Repo", File: "r.php"},
			{ID: "find", Kind: model.KindMethod, Name: "find", FQN: "App\\Repo::find", File: "r.php"},
			{ID: "call", Kind: model.KindCall, Name: "find", FQN: "call:f", File: "s.php", Range: &model.Range{StartLine: 4}, CallKind: model.CallMethod},
			{ID: "res", Kind: model.KindValue, Name: "", FQN: "v:res", ValueKind: model.ValueResult},
			{ID: "u", Kind: model.KindValue, Name: "u", FQN: "v:u", ValueKind: model.ValueLocal, TypeSymbol: "App\\Repo"},
		},
		Edges: []model.Edge{
			{Type: model.EdgeContains, From: "cls", To: "m"},
			{Type: model.EdgeContains, From: "repo", To: "find"},
			{Type: model.EdgeContains, From: "m", To: "call"},
			{Type: model.EdgeCalls, From: "call", To: "find"},
			{Type: model.EdgeProduces, From: "call", To: "res"},
			{Type: model.EdgeAssignedFrom, From: "u", To: "res"},
		},
	}
	e := newEngine(doc)

	entries, err := e.Uses("m", Options{MaxDepth: 1, Limit: 100})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	ent := entries[0]
	assert.Equal(t, model.KindValue, ent.Kind)
	require.NotNil(t, ent.Variable)
	assert.Equal(t, "u", ent.Variable.Name)
	require.NotNil(t, ent.SourceCall)
	assert.Equal(t, "App\\Repo::find()", ent.SourceCall.FQN)
}

func TestQueryContext(t *testing.T) {
	e := newEngine(callChainDoc())

	ctx, err := e.QueryContext("m2", Options{MaxDepth: 1, Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, "App\\B::handle", ctx.Node.FQN)
	assert.Len(t, ctx.UsedBy, 1)
	assert.Len(t, ctx.Uses, 1)
	require.NotNil(t, ctx.Definition)
	assert.Equal(t, model.KindMethod, ctx.Definition.Kind)
	assert.Equal(t, "handle()", ctx.Definition.Signature)
}

func TestUsesNeverRevisitsStartNode(t *testing.T) {
	// C's method calls B::handle, and handle takes a parameter typed C.
	// Expanding handle at depth 2 must not surface C inside its own
	// dependency tree.
	doc := &model.Document{
		Nodes: []model.Node{
			{ID: "C", Kind: model.KindClass, Name: "C", FQN: "App\\C", File: "c.php"},
			{ID: "run", Kind: model.KindMethod, Name: "run", FQN: "App\\C::run", File: "c.php", Range: &model.Range{StartLine: 3}},
			{ID: "B", Kind: model.KindClass, Name: "B", FQN: "App\\B", File: "b.php"},
			{ID: "handle", Kind: model.KindMethod, Name: "handle", FQN: "App\\B::handle", File: "b.php", Range: &model.Range{StartLine: 3}},
			{ID: "arg", Kind: model.KindArgument, Name: "c", FQN: "App\\B::handle::c"},
			{ID: "call1", Kind: model.KindCall, Name: "handle", FQN: "call:1", File: "c.php", Range: &model.Range{StartLine: 5}, CallKind: model.CallMethod},
		},
		Edges: []model.Edge{
			{Type: model.EdgeContains, From: "C", To: "run"},
			{Type: model.EdgeContains, From: "B", To: "handle"},
			{Type: model.EdgeContains, From: "handle", To: "arg"},
			{Type: model.EdgeContains, From: "run", To: "call1"},
			{Type: model.EdgeCalls, From: "call1", To: "handle"},
			{Type: model.EdgeUses, From: "run", To: "handle", Loc: &model.Location{File: "c.php", Line: 5}},
			{Type: model.EdgeUses, From: "handle", To: "C", Loc: &model.Location{File: "b.php", Line: 3}},
			{Type: model.EdgeTypeOf, From: "arg", To: "C"},
		},
	}
	e := newEngine(doc)

	entries, err := e.Uses("C", Options{MaxDepth: 2, Limit: 100})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "App\\B::handle()", entries[0].FQN)

	var walk func(entries []*Entry)
	walk = func(entries []*Entry) {
		for _, ent := range entries {
			assert.NotEqual(t, "C", ent.NodeID, "queried node reappeared at depth %d", ent.Depth)
			walk(ent.Children)
		}
	}
	walk(entries)
}

func TestValueDataFlowCrossing(t *testing.T) {
	// $u is accessed ($u->find()), the result is passed into save($x), and
	// the trace continues inside save through the parameter.
	doc := &model.Document{
		Nodes: []model.Node{
			{ID: "caller", Kind: model.KindMethod, Name: "run", FQN: "App\\A::run", File: "a.php"},
			{ID: "u", Kind: model.KindValue, Name: "u", FQN: "v:u", ValueKind: model.ValueLocal},
			{ID: "find", Kind: model.KindMethod, Name: "find", FQN: "App\\Repo::find", File: "r.php"},
			{ID: "c1", Kind: model.KindCall, Name: "find", FQN: "call:1", File: "a.php", Range: &model.Range{StartLine: 4}, CallKind: model.CallMethod},
			{ID: "r1", Kind: model.KindValue, Name: "", FQN: "v:r1", ValueKind: model.ValueResult},
			{ID: "saver", Kind: model.KindClass, Name: "B", FQN: "App\\B", File: "b.php"},
			{ID: "save", Kind: model.KindMethod, Name: "save", FQN: "App\\B::save", File: "b.php"},
			{ID: "c2", Kind: model.KindCall, Name: "save", FQN: "call:2", File: "a.php", Range: &model.Range{StartLine: 5}, CallKind: model.CallMethod},
			{ID: "x", Kind: model.KindValue, Name: "x", FQN: "App\\B::save::x", ValueKind: model.ValueParameter},
			{ID: "write", Kind: model.KindMethod, Name: "write", FQN: "App\\Log::write", File: "l.php"},
			{ID: "c3", Kind: model.KindCall, Name: "write", FQN: "call:3", File: "b.php", Range: &model.Range{StartLine: 9}, CallKind: model.CallMethod},
		},
		Edges: []model.Edge{
			{Type: model.EdgeContains, From: "caller", To: "u"},
			{Type: model.EdgeContains, From: "caller", To: "c1"},
			{Type: model.EdgeContains, From: "caller", To: "c2"},
			{Type: model.EdgeContains, From: "saver", To: "save"},
			{Type: model.EdgeContains, From: "save", To: "x"},
			{Type: model.EdgeContains, From: "save", To: "c3"},
			{Type: model.EdgeReceiver, From: "c1", To: "u"},
			{Type: model.EdgeCalls, From: "c1", To: "find"},
			{Type: model.EdgeProduces, From: "c1", To: "r1"},
			{Type: model.EdgeArgument, From: "c2", To: "r1", Expression: "$r", Parameter: "App\\B::save::x"},
			{Type: model.EdgeCalls, From: "c2", To: "save"},
			{Type: model.EdgeReceiver, From: "c3", To: "x"},
			{Type: model.EdgeCalls, From: "c3", To: "write"},
		},
	}
	e := newEngine(doc)

	entries, err := e.UsedBy("u", Options{MaxDepth: 3, Limit: 100})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	access := entries[0]
	assert.Equal(t, "App\\Repo::find()", access.FQN)
	assert.Equal(t, refs.MethodCall, access.RefType)
	assert.Equal(t, 4, access.Line)

	require.Len(t, access.Children, 1)
	passed := access.Children[0]
	assert.Equal(t, "App\\B::save()", passed.FQN)
	assert.Equal(t, 2, passed.Depth)
	require.Len(t, passed.Arguments, 1)
	assert.Equal(t, "x", passed.Arguments[0].ParamName)

	// The trace crossed into save's parameter and found its consumer.
	require.Len(t, passed.Children, 1)
	inside := passed.Children[0]
	assert.Equal(t, "App\\Log::write()", inside.FQN)
	assert.Equal(t, 3, inside.Depth)
	assert.Equal(t, "x", inside.CrossedFrom)
}

func TestOptionsNormalization(t *testing.T) {
	o := Options{}.normalized()
	assert.Equal(t, 2, o.MaxDepth)
	assert.Equal(t, 100, o.Limit)

	o = Options{MaxDepth: 99}.normalized()
	assert.Equal(t, DepthCeiling, o.MaxDepth)

	o = Options{MaxDepth: 5, DirectOnly: true}.normalized()
	assert.Equal(t, 1, o.MaxDepth)
}
