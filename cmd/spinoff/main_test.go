package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zpdzap/spinoff/internal/config"
)

func TestRun_RequiresFeature(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(nil, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "accepts 1 arg(s)")
}

func TestRun_InvalidOptionsCreateNothing(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(config.EnvWorkspacesDir, "")

	var stdout, stderr bytes.Buffer
	code := run([]string{"login", "--volumes", "bogus"}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), `invalid volumes option "bogus"`)
	assert.NoDirExists(t, filepath.Join(dir, "workspaces"))
}

func TestRun_PruneEmpty(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	var stdout, stderr bytes.Buffer
	code := run([]string{"prune", "--workspaces-dir", filepath.Join(dir, "ws")}, &stdout, &stderr)

	assert.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "Nothing to prune.\n", stdout.String())
}

func TestInitProject(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module x\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docker-compose.yml"),
		[]byte("services:\n  web:\n    image: nginx\n  db:\n    image: postgres\n"), 0o644))

	var out bytes.Buffer
	require.NoError(t, initProject(dir, &out))

	assert.Contains(t, out.String(), "(go project)")
	cfg, err := config.Load(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"web", "db"}, cfg.Docker.Services)
	assert.Equal(t, "docker-compose.yml", cfg.Docker.ComposePattern)

	out.Reset()
	require.NoError(t, initProject(dir, &out))
	assert.Contains(t, out.String(), "already initialized")
}

func TestUpdateGitignore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".gitignore")
	require.NoError(t, os.WriteFile(path, []byte("node_modules/\n*.safe.yml"), 0o644))

	require.NoError(t, updateGitignore(dir))
	require.NoError(t, updateGitignore(dir))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Equal(t, "node_modules/\n*.safe.yml\n\n# spinoff\nworkspaces/\n.safecompose.env\n", content)
	assert.Equal(t, 1, strings.Count(content, "# spinoff"))
}
