package graph

import (
	"testing"

	"kloc/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

func testDoc() *model.Document {
	return &model.Document{
		Version: "1.0",
		Nodes: []model.Node{
			{ID: "f1", Kind: model.KindFile, Name: "UserService.php", FQN: "src/UserService.php", File: "src/UserService.php"},
			{ID: "svc", Kind: model.KindClass, Name: "UserService", FQN: "App\\UserService", File: "src/UserService.php", Range: &model.Range{StartLine: 4}},
			{ID: "find", Kind: model.KindMethod, Name: "find", FQN: "App\\UserService::find", File: "src/UserService.php", Range: &model.Range{StartLine: 10}},
			{ID: "repo", Kind: model.KindClass, Name: "UserRepository", FQN: "App\\UserRepository", File: "src/UserRepository.php"},
			{ID: "query", Kind: model.KindMethod, Name: "query", FQN: "App\\UserRepository::query", File: "src/UserRepository.php"},
		},
		Edges: []model.Edge{
			{Type: model.EdgeContains, From: "f1", To: "svc"},
			{Type: model.EdgeContains, From: "svc", To: "find"},
			{Type: model.EdgeContains, From: "repo", To: "query"},
			{Type: model.EdgeUses, From: "find", To: "query", Loc: &model.Location{File: "src/UserService.php", Line: 12}},
		},
	}
}

func TestResolveSymbolPrecedence(t *testing.T) {
	s := Build(testDoc())

	t.Run("exact FQN wins", func(t *testing.T) {
		nodes := s.ResolveSymbol("App\\UserService")
		require.Len(t, nodes, 1)
		assert.Equal(t, "svc", nodes[0].ID)
	})

	t.Run("leading backslash stripped", func(t *testing.T) {
		nodes := s.ResolveSymbol("\\App\\UserService")
		require.Len(t, nodes, 1)
		assert.Equal(t, "svc", nodes[0].ID)
	})

	t.Run("case-insensitive FQN", func(t *testing.T) {
		nodes := s.ResolveSymbol("app\\userservice")
		require.Len(t, nodes, 1)
		assert.Equal(t, "svc", nodes[0].ID)
	})

	t.Run("member suffix", func(t *testing.T) {
		nodes := s.ResolveSymbol("UserService::find")
		require.Len(t, nodes, 1)
		assert.Equal(t, "find", nodes[0].ID)
	})

	t.Run("short name", func(t *testing.T) {
		nodes := s.ResolveSymbol("find")
		require.NotEmpty(t, nodes)
		assert.Equal(t, "find", nodes[0].ID)
	})

	t.Run("call suffix stripped", func(t *testing.T) {
		nodes := s.ResolveSymbol("find()")
		require.NotEmpty(t, nodes)
		assert.Equal(t, "find", nodes[0].ID)
	})

	t.Run("no match is empty, not an error", func(t *testing.T) {
		assert.Empty(t, s.ResolveSymbol("DoesNotExist123"))
	})
}

func TestGetArgumentsSortedByPosition(t *testing.T) {
	doc := &model.Document{
		Nodes: []model.Node{
			{ID: "call", Kind: model.KindCall, FQN: "c"},
			{ID: "v0", Kind: model.KindValue, FQN: "v0"},
			{ID: "v1", Kind: model.KindValue, FQN: "v1"},
			{ID: "v2", Kind: model.KindValue, FQN: "v2"},
		},
		Edges: []model.Edge{
			{Type: model.EdgeArgument, From: "call", To: "v2", Position: intPtr(2)},
			{Type: model.EdgeArgument, From: "call", To: "v0", Position: intPtr(0)},
			{Type: model.EdgeArgument, From: "call", To: "v1", Position: intPtr(1)},
		},
	}
	s := Build(doc)

	args := s.GetArguments("call")
	require.Len(t, args, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{args[0].Position, args[1].Position, args[2].Position})
	assert.Equal(t, "v0", args[0].ValueID)
	assert.Equal(t, "v2", args[2].ValueID)
}

func TestGetArgumentsAbsentPositionsKeepInputOrder(t *testing.T) {
	doc := &model.Document{
		Nodes: []model.Node{
			{ID: "call", Kind: model.KindCall, FQN: "c"},
			{ID: "a", Kind: model.KindValue, FQN: "a"},
			{ID: "b", Kind: model.KindValue, FQN: "b"},
		},
		Edges: []model.Edge{
			{Type: model.EdgeArgument, From: "call", To: "a"},
			{Type: model.EdgeArgument, From: "call", To: "b"},
		},
	}
	s := Build(doc)

	args := s.GetArguments("call")
	require.Len(t, args, 2)
	assert.Equal(t, "a", args[0].ValueID)
	assert.Equal(t, "b", args[1].ValueID)
}

func TestGetUsagesIncludeMembers(t *testing.T) {
	s := Build(testDoc())

	// Direct usages of the repository class: none.
	assert.Empty(t, s.GetUsages("repo", false))

	// With members included, the uses edge against query() counts.
	usages := s.GetUsages("repo", true)
	require.Len(t, usages, 1)
	assert.Equal(t, "find", usages[0].From)
}

func TestGetDeps(t *testing.T) {
	s := Build(testDoc())

	deps := s.GetDeps("find", false)
	require.Len(t, deps, 1)
	assert.Equal(t, "query", deps[0].To)
}

func TestResolveFileToClass(t *testing.T) {
	t.Run("single type", func(t *testing.T) {
		s := Build(testDoc())
		n, ok := s.ResolveFileToClass("f1")
		require.True(t, ok)
		assert.Equal(t, "svc", n.ID)
	})

	t.Run("multiple types prefer base-name match", func(t *testing.T) {
		doc := &model.Document{
			Nodes: []model.Node{
				{ID: "f", Kind: model.KindFile, Name: "Helper.php", FQN: "src/Helper.php", File: "src/Helper.php"},
				{ID: "other", Kind: model.KindClass, Name: "Other", FQN: "App\\Other", File: "src/Helper.php"},
				{ID: "helper", Kind: model.KindClass, Name: "Helper", FQN: "App\\Helper", File: "src/Helper.php"},
			},
			Edges: []model.Edge{
				{Type: model.EdgeContains, From: "f", To: "other"},
				{Type: model.EdgeContains, From: "f", To: "helper"},
			},
		}
		s := Build(doc)
		n, ok := s.ResolveFileToClass("f")
		require.True(t, ok)
		assert.Equal(t, "helper", n.ID)
	})

	t.Run("not a file", func(t *testing.T) {
		s := Build(testDoc())
		_, ok := s.ResolveFileToClass("svc")
		assert.False(t, ok)
	})
}

func TestAdjacency(t *testing.T) {
	s := Build(testDoc())

	out := s.Outgoing("find", model.EdgeUses)
	require.Len(t, out, 1)
	assert.Equal(t, "query", out[0].To)

	in := s.Incoming("query", model.EdgeUses)
	require.Len(t, in, 1)
	assert.Equal(t, "find", in[0].From)

	assert.Empty(t, s.Outgoing("find", model.EdgeExtends))
	assert.Equal(t, 5, s.NodeCount())
	assert.Equal(t, 4, s.EdgeCount())
}

func TestComputeStats(t *testing.T) {
	s := Build(testDoc())
	st := s.ComputeStats()
	assert.Equal(t, 5, st.Nodes)
	assert.Equal(t, 4, st.Edges)
	assert.Equal(t, 2, st.NodesByKind[model.KindClass])
	assert.Equal(t, 3, st.EdgesByType[model.EdgeContains])
}
