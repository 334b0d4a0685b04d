package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"kloc/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.json")
	graphJSON := `{
	  "nodes": [{"id": "c1", "kind": "Class", "name": "A", "fqn": "App\\A"}],
	  "edges": []
	}`
	require.NoError(t, os.WriteFile(path, []byte(graphJSON), 0o644))

	cfg := config.Default()
	cfg.Projects = []config.Project{{Name: "app", Graph: path}}
	return cfg
}

func TestGetBuildsOnce(t *testing.T) {
	reg := New(testConfig(t), nil)
	ctx := context.Background()

	svc, err := reg.Get(ctx, "app")
	require.NoError(t, err)
	require.NotNil(t, svc.Store().Node("c1"))

	// Same service instance on repeat use.
	again, err := reg.Get(ctx, "app")
	require.NoError(t, err)
	assert.Same(t, svc, again)
}

func TestGetEmptyNameResolvesSoleProject(t *testing.T) {
	reg := New(testConfig(t), nil)

	svc, err := reg.Get(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestGetUnknownProject(t *testing.T) {
	reg := New(testConfig(t), nil)

	_, err := reg.Get(context.Background(), "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown project")
}

func TestGetBadGraphFile(t *testing.T) {
	cfg := config.Default()
	cfg.Projects = []config.Project{{Name: "app", Graph: filepath.Join(t.TempDir(), "absent.json")}}
	reg := New(cfg, nil)

	_, err := reg.Get(context.Background(), "app")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to build index")
}

func TestProjects(t *testing.T) {
	reg := New(testConfig(t), nil)
	assert.Equal(t, []string{"app"}, reg.Projects())
}
