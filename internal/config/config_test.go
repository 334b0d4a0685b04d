package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 2, cfg.Query.MaxDepth)
	assert.Equal(t, 100, cfg.Query.Limit)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Projects)
}

func TestLoadConfigYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kloc.yaml")
	content := `
projects:
  - name: app
    graph: /data/app.json
    cache: /data/app.db
query:
  max_depth: 4
  limit: 50
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Len(t, cfg.Projects, 1)
	assert.Equal(t, "app", cfg.Projects[0].Name)
	assert.Equal(t, "/data/app.json", cfg.Projects[0].Graph)
	assert.Equal(t, "/data/app.db", cfg.Projects[0].Cache)
	assert.Equal(t, 4, cfg.Query.MaxDepth)
	assert.Equal(t, 50, cfg.Query.Limit)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigPartialYAMLKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kloc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 2, cfg.Query.MaxDepth)
	assert.Equal(t, 100, cfg.Query.Limit)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("KLOC_LOG_LEVEL", "error")
	t.Setenv("KLOC_MAX_DEPTH", "6")
	t.Setenv("KLOC_LIMIT", "25")
	t.Setenv("KLOC_GRAPH", "/data/graph.json")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, 6, cfg.Query.MaxDepth)
	assert.Equal(t, 25, cfg.Query.Limit)
	require.Len(t, cfg.Projects, 1)
	assert.Equal(t, "default", cfg.Projects[0].Name)
	assert.Equal(t, "/data/graph.json", cfg.Projects[0].Graph)
}

func TestLoadConfigInvalidDepth(t *testing.T) {
	t.Setenv("KLOC_MAX_DEPTH", "many")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid KLOC_MAX_DEPTH")
}

func TestFindProject(t *testing.T) {
	cfg := Default()
	cfg.Projects = []Project{
		{Name: "app", Graph: "/data/app.json"},
		{Name: "lib", Graph: "/data/lib.json"},
	}

	p, ok := cfg.FindProject("lib")
	require.True(t, ok)
	assert.Equal(t, "/data/lib.json", p.Graph)

	_, ok = cfg.FindProject("ghost")
	assert.False(t, ok)

	// Empty name is ambiguous with two projects.
	_, ok = cfg.FindProject("")
	assert.False(t, ok)

	cfg.Projects = cfg.Projects[:1]
	p, ok = cfg.FindProject("")
	require.True(t, ok)
	assert.Equal(t, "app", p.Name)
}
