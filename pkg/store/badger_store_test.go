package store

import (
	"context"
	"errors"
	"testing"

	"github.com/rzbill/gcu/pkg/log"
	"github.com/rzbill/gcu/pkg/schema"
	"github.com/rzbill/gcu/pkg/schema/schematest"
	"github.com/rzbill/gcu/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a BadgerDB store in a temporary directory.
func setupTestStore(t *testing.T) (*BadgerStore, string) {
	t.Helper()
	dir := t.TempDir()
	store := NewBadgerStore(log.NewTestLogger())
	require.NoError(t, store.Open(dir))
	t.Cleanup(func() { store.Close() })
	return store, dir
}

func seed(t *testing.T, db ConfigDB, doc types.Document) {
	t.Helper()
	ctx := context.Background()
	for _, table := range doc.Tables() {
		for _, key := range doc[table].Keys() {
			require.NoError(t, db.Apply(ctx, types.Change{Op: types.OpAdd, Table: table, Key: key, Fields: doc[table][key]}))
		}
	}
}

func TestBadgerStoreCRUD(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()
	db := store.ConfigDB("")

	doc, err := db.Read(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc)

	require.NoError(t, db.Apply(ctx, types.Change{Op: types.OpAdd, Table: "PORT", Key: "Ethernet0", Fields: types.Entry{"mtu": "9100"}}))
	require.NoError(t, db.Apply(ctx, types.Change{Op: types.OpAdd, Table: "VLAN", Key: "Vlan100", Fields: types.Entry{"dhcp_servers": []string{"192.0.2.1"}}}))
	require.NoError(t, db.Apply(ctx, types.Change{Op: types.OpReplace, Table: "PORT", Key: "Ethernet0", Fields: types.Entry{"mtu": "1500"}}))

	doc, err = db.Read(ctx)
	require.NoError(t, err)
	assert.True(t, types.Document{
		"PORT": {"Ethernet0": {"mtu": "1500"}},
		"VLAN": {"Vlan100": {"dhcp_servers": []string{"192.0.2.1"}}},
	}.Equal(doc))

	require.NoError(t, db.Apply(ctx, types.Change{Op: types.OpRemove, Table: "PORT", Key: "Ethernet0"}))
	doc, err = db.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"VLAN"}, doc.Tables())
}

func TestBadgerStoreChangeErrors(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()
	db := store.ConfigDB("")
	require.NoError(t, db.Apply(ctx, types.Change{Op: types.OpAdd, Table: "PORT", Key: "Ethernet0", Fields: types.Entry{}}))

	err := db.Apply(ctx, types.Change{Op: types.OpAdd, Table: "PORT", Key: "Ethernet0", Fields: types.Entry{}})
	assert.True(t, errors.Is(err, ErrAlreadyExists))

	err = db.Apply(ctx, types.Change{Op: types.OpReplace, Table: "PORT", Key: "Ethernet4", Fields: types.Entry{}})
	assert.True(t, errors.Is(err, ErrNotFound))

	err = db.Apply(ctx, types.Change{Op: types.OpRemove, Table: "PORT", Key: "Ethernet4"})
	assert.True(t, errors.Is(err, ErrNotFound))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, db.Apply(cancelled, types.Change{Op: types.OpRemove, Table: "PORT", Key: "Ethernet0"}), context.Canceled)
}

func TestBadgerStoreNamespacesAreIsolated(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	seed(t, store.ConfigDB(""), types.Document{"PORT": {"Ethernet0": {"mtu": "9100"}}})
	seed(t, store.ConfigDB("asic0"), types.Document{"PORT": {"Ethernet0": {"mtu": "1500"}, "Ethernet4": {"mtu": "1500"}}})

	def, err := store.ConfigDB("").Read(ctx)
	require.NoError(t, err)
	assert.Len(t, def["PORT"], 1)

	asic, err := store.ConfigDB("asic0").Read(ctx)
	require.NoError(t, err)
	assert.Len(t, asic["PORT"], 2)

	namespaces, err := store.Namespaces(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"", "asic0"}, namespaces)
}

func TestBadgerStoreKeysWithSlashes(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()
	db := store.ConfigDB("")

	seed(t, db, types.Document{"INTERFACE": {"Ethernet0|10.0.0.1/31": {}}})

	doc, err := db.Read(ctx)
	require.NoError(t, err)
	_, ok := doc.Get("INTERFACE", "Ethernet0|10.0.0.1/31")
	assert.True(t, ok)
}

func TestBadgerStorePersists(t *testing.T) {
	store, dir := setupTestStore(t)
	ctx := context.Background()
	seed(t, store.ConfigDB(""), schematest.Config())
	require.NoError(t, store.Close())

	reopened := NewBadgerStore(log.NewTestLogger())
	require.NoError(t, reopened.Open(dir))
	defer reopened.Close()

	doc, err := reopened.ConfigDB("").Read(ctx)
	require.NoError(t, err)
	assert.True(t, schematest.Config().Equal(doc))
}

func TestBadgerStoreClosed(t *testing.T) {
	store := NewBadgerStore(log.NewTestLogger())
	_, err := store.ConfigDB("").Read(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestBadgerStoreGuard(t *testing.T) {
	s, err := schema.Parse(schematest.Sources())
	require.NoError(t, err)

	store := NewBadgerStore(log.NewTestLogger())
	require.NoError(t, store.Open(""))
	defer store.Close()

	ctx := context.Background()
	seed(t, store.ConfigDB(""), schematest.Config())
	db := store.ConfigDB("", WithGuard(schema.NewGuard(s)))

	// the port is still a VLAN member
	err = db.Apply(ctx, types.Change{Op: types.OpRemove, Table: "PORT", Key: "Ethernet0"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReferenceViolation)
	assert.Contains(t, err.Error(), "PORT|Ethernet0 is still referenced by VLAN_MEMBER|Vlan100|Ethernet0")

	// the VLAN does not exist
	err = db.Apply(ctx, types.Change{Op: types.OpAdd, Table: "VLAN_MEMBER", Key: "Vlan300|Ethernet8", Fields: types.Entry{"tagging_mode": "tagged"}})
	assert.ErrorIs(t, err, ErrReferenceViolation)

	// in order, both succeed
	require.NoError(t, db.Apply(ctx, types.Change{Op: types.OpRemove, Table: "VLAN_MEMBER", Key: "Vlan100|Ethernet0"}))
	require.NoError(t, db.Apply(ctx, types.Change{Op: types.OpRemove, Table: "PORT", Key: "Ethernet0"}))
}

func TestParseKey(t *testing.T) {
	ns, table, key, ok := ParseKey(MakeKey("", "VLAN_MEMBER", "Vlan100|Ethernet0"))
	require.True(t, ok)
	assert.Equal(t, "", ns)
	assert.Equal(t, "VLAN_MEMBER", table)
	assert.Equal(t, "Vlan100|Ethernet0", key)

	ns, _, key, ok = ParseKey([]byte("asic1/INTERFACE/Ethernet0|10.0.0.1/31"))
	require.True(t, ok)
	assert.Equal(t, "asic1", ns)
	assert.Equal(t, "Ethernet0|10.0.0.1/31", key)

	_, _, _, ok = ParseKey([]byte("localhost/PORT"))
	assert.False(t, ok)
}
