package render

import (
	"testing"

	"kloc/internal/model"
	"kloc/internal/query"
	"kloc/internal/refs"
	"kloc/internal/traversal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryLineConversion(t *testing.T) {
	e := &traversal.Entry{
		Depth:   1,
		NodeID:  "n1",
		FQN:     "App\\C::bar()",
		Kind:    model.KindMethod,
		File:    "src/c.php",
		Line:    11,
		RefType: refs.TypeHint,
	}

	r := Entry(e)
	assert.Equal(t, 12, r.Line)
	assert.Equal(t, "type_hint", r.RefType)
	assert.Equal(t, "Method", r.Kind)
}

func TestEntryUnknownLineRendersZero(t *testing.T) {
	r := Entry(&traversal.Entry{NodeID: "n1", FQN: "App\\C", Line: -1})
	assert.Equal(t, 0, r.Line)
}

func TestEntryFirstLineRendersOne(t *testing.T) {
	r := Entry(&traversal.Entry{NodeID: "n1", FQN: "App\\C", Line: 0})
	assert.Equal(t, 1, r.Line)
}

func TestEntryTreeConversionIsRecursive(t *testing.T) {
	e := &traversal.Entry{
		NodeID: "root", FQN: "App\\A", Line: 4,
		Sites: []traversal.Site{{File: "a.php", Line: 9}},
		Children: []*traversal.Entry{
			{NodeID: "kid", FQN: "App\\B", Line: 19},
		},
		SourceCall: &traversal.Entry{NodeID: "call", FQN: "App\\C::run()", Line: 29},
		Variable:   &traversal.VariableInfo{Name: "u", TypeFQN: "App\\B"},
		Member:     &traversal.MemberRef{FQN: "App\\B::x", Name: "x", AccessChain: "$this->b"},
		Arguments:  []traversal.ArgumentMapping{{Position: 0, Expression: "$id", Parameter: "App\\B::x::id", ParamName: "id"}},
	}

	r := Entry(e)
	assert.Equal(t, 5, r.Line)
	require.Len(t, r.Sites, 1)
	assert.Equal(t, 10, r.Sites[0].Line)
	require.Len(t, r.Children, 1)
	assert.Equal(t, 20, r.Children[0].Line)
	require.NotNil(t, r.SourceCall)
	assert.Equal(t, 30, r.SourceCall.Line)
	require.NotNil(t, r.Variable)
	assert.Equal(t, "u", r.Variable.Name)
	require.NotNil(t, r.Member)
	assert.Equal(t, "$this->b", r.Member.AccessChain)
	require.Len(t, r.Arguments, 1)
	assert.Equal(t, "id", r.Arguments[0].ParamName)
}

func TestItems(t *testing.T) {
	rows := Items([]query.Item{
		{Depth: 0, NodeID: "a", FQN: "App\\C::bar", Kind: model.KindMethod, File: "c.php", Line: 5},
		{Depth: 2, NodeID: "f", FQN: "src/c.php", Kind: model.KindFile, Line: -1},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, 6, rows[0].Line)
	assert.Equal(t, 0, rows[1].Line)
	assert.Equal(t, "File", rows[1].Kind)
}

func TestCandidates(t *testing.T) {
	out := Candidates([]*model.Node{
		{ID: "n1", Kind: model.KindClass, FQN: "App\\C", File: "c.php", Range: &model.Range{StartLine: 2}},
		{ID: "n2", Kind: model.KindClass, FQN: "App\\D", File: "d.php"},
	})
	require.Len(t, out, 2)
	assert.Equal(t, 3, out[0].Line)
	// No range recorded: unknown line, not line 1.
	assert.Equal(t, 0, out[1].Line)
}

func TestDefinitionOf(t *testing.T) {
	d := &traversal.Definition{
		FQN:  "App\\C",
		Kind: model.KindClass,
		Line: 4,
		Methods: []traversal.MethodDef{
			{Name: "bar", FQN: "App\\C::bar", Signature: "bar()", Line: 9, Override: true},
		},
		Dependencies: []traversal.ArgumentDef{{Name: "repo", Type: "App\\Repo", Position: 0}},
	}

	out := DefinitionOf(d)
	assert.Equal(t, 5, out.Line)
	require.Len(t, out.Methods, 1)
	assert.Equal(t, 10, out.Methods[0].Line)
	assert.True(t, out.Methods[0].Override)
	require.Len(t, out.Injected, 1)
	assert.Equal(t, "App\\Repo", out.Injected[0].Type)
}
