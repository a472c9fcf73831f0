package checkpoint

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rzbill/gcu/pkg/log"
	"github.com/rzbill/gcu/pkg/schema/schematest"
	"github.com/rzbill/gcu/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(filepath.Join(t.TempDir(), "checkpoints"), log.NewTestLogger())
}

func TestSaveAndGet(t *testing.T) {
	m := newManager(t)
	doc := schematest.ConfigWithNonSchemaTables()

	assert.False(t, m.Exists("before-upgrade"))
	require.NoError(t, m.Save("before-upgrade", map[string]types.Document{"": doc}))
	assert.True(t, m.Exists("before-upgrade"))

	cp, err := m.Get("before-upgrade")
	require.NoError(t, err)
	assert.Equal(t, "before-upgrade", cp.Name)
	assert.False(t, cp.CreatedAt.IsZero())
	assert.Equal(t, []string{"localhost"}, cp.Namespaces())
	require.Contains(t, cp.Snapshot, "")
	assert.True(t, doc.Equal(cp.Snapshot[""]))
}

func TestSaveWritesIndentedConfigDB(t *testing.T) {
	m := newManager(t)
	doc := types.Document{"PORT": {"Ethernet0": {"mtu": "9100"}}}
	require.NoError(t, m.Save("cp", map[string]types.Document{"": doc}))

	data, err := os.ReadFile(filepath.Join(m.Dir(), "cp.cp.json"))
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"PORT\": {\n        \"Ethernet0\": {\n            \"mtu\": \"9100\"\n        }\n    }\n}", string(data))
}

func TestSaveMultiNamespace(t *testing.T) {
	m := newManager(t)
	snapshot := map[string]types.Document{
		"":      {"PORT": {"Ethernet0": {"mtu": "9100"}}},
		"asic0": {"PORT": {"Ethernet0": {"mtu": "1500"}}},
	}
	require.NoError(t, m.Save("multi", snapshot))

	data, err := os.ReadFile(filepath.Join(m.Dir(), "multi.cp.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "\"localhost\": {")
	assert.Contains(t, string(data), "\"asic0\": {")

	cp, err := m.Get("multi")
	require.NoError(t, err)
	assert.Equal(t, []string{"asic0", "localhost"}, cp.Namespaces())
	loaded := cp.Snapshot
	require.Len(t, loaded, 2)
	assert.True(t, snapshot[""].Equal(loaded[""]))
	assert.True(t, snapshot["asic0"].Equal(loaded["asic0"]))
}

func TestSaveOverwrites(t *testing.T) {
	m := newManager(t)
	require.NoError(t, m.Save("cp", map[string]types.Document{"": {"PORT": {"Ethernet0": {"mtu": "9100"}}}}))
	require.NoError(t, m.Save("cp", map[string]types.Document{"": {"PORT": {"Ethernet0": {"mtu": "1500"}}}}))

	cp, err := m.Get("cp")
	require.NoError(t, err)
	assert.Equal(t, "1500", cp.Snapshot[""]["PORT"]["Ethernet0"]["mtu"])
}

func TestList(t *testing.T) {
	m := newManager(t)

	names, err := m.List()
	require.NoError(t, err)
	assert.Equal(t, []string{}, names, "missing directory lists nothing")

	for _, name := range []string{"c", "a", "b"} {
		require.NoError(t, m.Save(name, map[string]types.Document{"": schematest.Config()}))
	}
	require.NoError(t, os.WriteFile(filepath.Join(m.Dir(), "notes.txt"), []byte("x"), 0644))

	names, err = m.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, names)
}

func TestDelete(t *testing.T) {
	m := newManager(t)
	for _, name := range []string{"a", "b"} {
		require.NoError(t, m.Save(name, map[string]types.Document{"": schematest.Config()}))
	}

	require.NoError(t, m.Delete("a"))
	assert.False(t, m.Exists("a"))

	err := m.Delete("missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrCheckpointNotFound))
	assert.Equal(t, "checkpoint missing does not exist", err.Error())

	names, err := m.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, names)
}

func TestGetErrors(t *testing.T) {
	m := newManager(t)

	_, err := m.Get("missing")
	assert.True(t, errors.Is(err, types.ErrCheckpointNotFound))

	require.NoError(t, os.MkdirAll(m.Dir(), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(m.Dir(), "broken.cp.json"), []byte("{not json"), 0644))
	_, err = m.Get("broken")
	assert.True(t, errors.Is(err, types.ErrCheckpointIO))
}

func TestInvalidNames(t *testing.T) {
	m := newManager(t)
	for _, name := range []string{"", ".", "..", "../escape", "a/b"} {
		err := m.Save(name, map[string]types.Document{"": {}})
		assert.True(t, errors.Is(err, types.ErrCheckpointIO), "name %q", name)
		assert.False(t, m.Exists(name))
	}
}
