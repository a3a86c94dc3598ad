package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashboard-assistant/pkg/registry"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCatalogLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")

	out, err := run(t, "init", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote built-in catalog")

	_, err = run(t, "init", "--path", path)
	assert.Error(t, err)

	_, err = run(t, "add", "--path", path, "--id", "instagram_rank", "--title", "Instagram 순위", "--group", "instagram")
	require.NoError(t, err)

	_, err = run(t, "add", "--path", path, "--id", "instagram_rank", "--title", "again")
	assert.Error(t, err)

	_, err = run(t, "update", "--path", path, "--id", "instagram_rank", "--field", "title", "--value", "인스타그램 순위")
	require.NoError(t, err)

	catalog, err := registry.LoadCatalog(path)
	require.NoError(t, err)
	src, ok := catalog.Lookup("instagram_rank")
	require.True(t, ok)
	assert.Equal(t, "인스타그램 순위", src.Title)
	assert.Len(t, catalog.All(), 24)

	out, err = run(t, "validate", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Found 24 sources, 4 in baseline")

	out, err = run(t, "list", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "instagram_rank")
}

func TestUpdate_Errors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	_, err := run(t, "init", "--path", path)
	require.NoError(t, err)

	_, err = run(t, "update", "--path", path, "--id", "missing", "--field", "title", "--value", "x")
	assert.Error(t, err)

	_, err = run(t, "update", "--path", path, "--id", "sale", "--field", "owner", "--value", "x")
	assert.Error(t, err)

	// An unsupported kind fails catalog construction and is not saved.
	_, err = run(t, "update", "--path", path, "--id", "sale", "--field", "kind", "--value", "chart")
	assert.Error(t, err)
	_, err = run(t, "validate", "--path", path)
	assert.NoError(t, err)
}

func TestList_WithoutFileUsesBuiltIn(t *testing.T) {
	out, err := run(t, "list", "--path", filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)
	assert.Contains(t, out, "llm_insights")
	assert.Contains(t, out, "ID")
}
