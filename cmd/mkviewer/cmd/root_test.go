package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkviewer/mkviewer/internal/config"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootHasSubcommands(t *testing.T) {
	root := NewRootCmd()
	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "sync", "search", "tree", "clear-cache", "config", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "mkviewer")
}

func TestVersionCommandJSON(t *testing.T) {
	out, err := runCommand(t, "version", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"version"`)
	assert.Contains(t, out, `"go_version"`)
}

func TestConfigInit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mkviewer.yaml")

	out, err := runCommand(t, "--config", path, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 512, cfg.Cache.Capacity)

	// A second init without --force refuses to overwrite.
	_, err = runCommand(t, "--config", path, "config", "init")
	require.Error(t, err)

	_, err = runCommand(t, "--config", path, "config", "init", "--force")
	require.NoError(t, err)
}

func TestSearchRejectsUnknownMode(t *testing.T) {
	_, err := runCommand(t, "search", "--mode", "psychic", "query")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	old := configPath
	configPath = filepath.Join(t.TempDir(), "nope.yaml")
	defer func() { configPath = old }()

	_, err := loadConfig()
	require.Error(t, err)
}
