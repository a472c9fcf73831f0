package store

import (
	"context"
	"errors"
	"testing"

	"github.com/rzbill/gcu/pkg/schema"
	"github.com/rzbill/gcu/pkg/schema/schematest"
	"github.com/rzbill/gcu/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreReadIsACopy(t *testing.T) {
	ctx := context.Background()
	seedDoc := schematest.Config()
	m := NewMemoryStore("asic0", seedDoc)
	assert.Equal(t, "asic0", m.Namespace())

	seedDoc["PORT"]["Ethernet0"]["mtu"] = "1"
	doc, err := m.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "9100", doc["PORT"]["Ethernet0"]["mtu"])

	doc["PORT"]["Ethernet0"]["mtu"] = "2"
	again, err := m.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "9100", again["PORT"]["Ethernet0"]["mtu"])
}

func TestMemoryStoreApply(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore("", nil)

	require.NoError(t, m.Apply(ctx, types.Change{Op: types.OpAdd, Table: "VLAN_MEMBER", Key: "Vlan100|Ethernet0"}))
	doc, err := m.Read(ctx)
	require.NoError(t, err)
	entry, ok := doc.Get("VLAN_MEMBER", "Vlan100|Ethernet0")
	require.True(t, ok)
	assert.NotNil(t, entry)

	err = m.Apply(ctx, types.Change{Op: types.OpAdd, Table: "VLAN_MEMBER", Key: "Vlan100|Ethernet0"})
	assert.True(t, errors.Is(err, ErrAlreadyExists))

	err = m.Apply(ctx, types.Change{Op: "move", Table: "VLAN_MEMBER", Key: "Vlan100|Ethernet0"})
	assert.Error(t, err)

	require.NoError(t, m.Apply(ctx, types.Change{Op: types.OpRemove, Table: "VLAN_MEMBER", Key: "Vlan100|Ethernet0"}))
	doc, err = m.Read(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc)
}

func TestMemoryStoreGuard(t *testing.T) {
	s, err := schema.Parse(schematest.Sources())
	require.NoError(t, err)

	ctx := context.Background()
	m := NewMemoryStore("", schematest.Config(), WithGuard(schema.NewGuard(s)))

	err = m.Apply(ctx, types.Change{Op: types.OpRemove, Table: "VLAN", Key: "Vlan200"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReferenceViolation)
	assert.Contains(t, err.Error(), "VLAN|Vlan200 is still referenced by ACL_TABLE|DATAACL")

	// dropping the reference first unblocks the removal
	require.NoError(t, m.Apply(ctx, types.Change{
		Op: types.OpReplace, Table: "ACL_TABLE", Key: "DATAACL",
		Fields: types.Entry{"type": "L3", "ports": []string{"Ethernet4"}},
	}))
	require.NoError(t, m.Apply(ctx, types.Change{Op: types.OpRemove, Table: "VLAN", Key: "Vlan200"}))
}

func TestMemoryStoreFailOn(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore("", nil)
	boom := errors.New("boom")
	m.FailOn = func(c types.Change) error {
		if c.Table == "PORT" {
			return boom
		}
		return nil
	}

	assert.ErrorIs(t, m.Apply(ctx, types.Change{Op: types.OpAdd, Table: "PORT", Key: "Ethernet0"}), boom)
	assert.NoError(t, m.Apply(ctx, types.Change{Op: types.OpAdd, Table: "VLAN", Key: "Vlan100"}))
}
