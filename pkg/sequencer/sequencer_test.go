package sequencer

import (
	"errors"
	"testing"

	"github.com/rzbill/gcu/pkg/differ"
	"github.com/rzbill/gcu/pkg/log"
	"github.com/rzbill/gcu/pkg/schema"
	"github.com/rzbill/gcu/pkg/schema/schematest"
	"github.com/rzbill/gcu/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const peerYang = `
module sonic-peer {
    namespace "urn:sonic-peer";
    prefix peer;

    container sonic-peer {
        container LEFT {
            list LEFT_LIST {
                key "name";
                leaf name { type string; }
                leaf peer {
                    type leafref {
                        path "/peer:sonic-peer/peer:RIGHT/peer:RIGHT_LIST/peer:name";
                    }
                }
            }
        }
        container RIGHT {
            list RIGHT_LIST {
                key "name";
                leaf name { type string; }
                leaf peer {
                    type leafref {
                        path "../../../LEFT/LEFT_LIST/name";
                    }
                }
            }
        }
    }
}
`

func newSequencer(t *testing.T, sources map[string]string) *Sequencer {
	t.Helper()
	s, err := schema.Parse(sources)
	require.NoError(t, err)
	return New(s, log.NewTestLogger())
}

func names(changes []types.Change) []string {
	out := make([]string, len(changes))
	for i, c := range changes {
		out[i] = c.String()
	}
	return out
}

func TestSequenceRemovesReferrersFirst(t *testing.T) {
	seq := newSequencer(t, schematest.Sources())
	current := schematest.Config()
	target := current.Clone()
	target.Delete("PORT", "Ethernet0")
	target.Delete("VLAN_MEMBER", "Vlan100|Ethernet0")

	changes := differ.Diff(current, target, nil)
	require.Equal(t, []string{"remove /PORT/Ethernet0", "remove /VLAN_MEMBER/Vlan100|Ethernet0"}, names(changes))

	ordered, err := seq.Sequence(changes, current, target)
	require.NoError(t, err)
	assert.Equal(t, []string{"remove /VLAN_MEMBER/Vlan100|Ethernet0", "remove /PORT/Ethernet0"}, names(ordered))
}

func TestSequenceCreatesReferencedEntriesFirst(t *testing.T) {
	seq := newSequencer(t, schematest.Sources())
	current := schematest.Config()
	target := current.Clone()
	target.Set("PORT", "Ethernet12", types.Entry{"lanes": "12,13"})
	target.Set("VLAN", "Vlan300", types.Entry{"vlanid": "300"})
	target.Set("ACL_TABLE", "EVERFLOW", types.Entry{"type": "MIRROR", "ports": []string{"Ethernet12", "Vlan300"}})
	target.Set("VLAN_MEMBER", "Vlan300|Ethernet12", types.Entry{"tagging_mode": "tagged"})

	changes := differ.Diff(current, target, nil)
	ordered, err := seq.Sequence(changes, current, target)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"add /PORT/Ethernet12",
		"add /VLAN/Vlan300",
		"add /ACL_TABLE/EVERFLOW",
		"add /VLAN_MEMBER/Vlan300|Ethernet12",
	}, names(ordered))
}

func TestSequenceReplaceDroppingReferenceBeforeRemove(t *testing.T) {
	seq := newSequencer(t, schematest.Sources())
	current := schematest.Config()
	target := current.Clone()
	target["ACL_TABLE"]["DATAACL"]["ports"] = []string{"Ethernet4"}
	target.Delete("VLAN", "Vlan200")

	// reversed on purpose: the remove must still wait for the replace
	changes := differ.Diff(current, target, nil)
	changes[0], changes[1] = changes[1], changes[0]

	ordered, err := seq.Sequence(changes, current, target)
	require.NoError(t, err)
	assert.Equal(t, []string{"replace /ACL_TABLE/DATAACL", "remove /VLAN/Vlan200"}, names(ordered))
}

func TestSequenceKeepsInputOrderForIndependentChanges(t *testing.T) {
	seq := newSequencer(t, schematest.Sources())
	current := schematest.Config()
	changes := []types.Change{
		{Op: types.OpReplace, Table: "PORT", Key: "Ethernet8", Fields: types.Entry{"lanes": "8", "mtu": "1500"}, Old: current["PORT"]["Ethernet8"]},
		{Op: types.OpReplace, Table: "DEVICE_METADATA", Key: "localhost", Fields: types.Entry{"hostname": "leaf1"}, Old: current["DEVICE_METADATA"]["localhost"]},
		{Op: types.OpAdd, Table: "PORT", Key: "Ethernet12", Fields: types.Entry{"lanes": "12"}},
	}
	target := differ.Apply(current, changes)

	ordered, err := seq.Sequence(changes, current, target)
	require.NoError(t, err)
	assert.Equal(t, names(changes), names(ordered))
}

func TestSequenceCycle(t *testing.T) {
	seq := newSequencer(t, map[string]string{"sonic-peer.yang": peerYang})
	current := types.Document{}
	target := types.Document{
		"LEFT":  {"l1": {"peer": "r1"}},
		"RIGHT": {"r1": {"peer": "l1"}},
	}

	_, err := seq.Sequence(differ.Diff(current, target, nil), current, target)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrUnresolvableDependency))
	assert.Contains(t, err.Error(), "add /LEFT/l1 -> add /RIGHT/r1 -> add /LEFT/l1")
}
