package format

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rzbill/gcu/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	EnableColor(false)
	m.Run()
}

func TestWriteError(t *testing.T) {
	var buf bytes.Buffer
	WriteError(&buf, errors.New("boom"), true, 80)
	assert.Equal(t, "Error: boom\n", buf.String())
}

func TestWriteErrorDetails(t *testing.T) {
	err := types.NewSchemaValidationError([]string{
		"/PORT/Ethernet0/mtu: value 70000 out of range 68..9216",
		"/VLAN_MEMBER/Vlan100|Ethernet0/port: Ethernet0 does not exist in PORT",
	})

	var buf bytes.Buffer
	WriteError(&buf, err, false, 80)
	assert.Equal(t, "Error: "+err.Error()+"\n", buf.String())

	buf.Reset()
	WriteError(&buf, err, true, 80)
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"Error: " + err.Error(),
		"Violations:",
		"  - /PORT/Ethernet0/mtu: value 70000 out of range 68..9216",
		"  - /VLAN_MEMBER/Vlan100|Ethernet0/port: Ethernet0 does not exist in PORT",
	}, lines)
}

func TestWriteErrorStoreCommit(t *testing.T) {
	err := types.NewStoreCommitError("asic0", 2, types.Change{Op: types.OpAdd, Table: "VLAN", Key: "Vlan300"}, errors.New("refused"))

	var buf bytes.Buffer
	WriteError(&buf, err, true, 80)
	assert.Contains(t, buf.String(), "2 change(s) in namespace asic0 were committed before the failure")
}

func TestWrap(t *testing.T) {
	assert.Equal(t, []string{"short"}, wrap("short", 40))
	assert.Equal(t,
		[]string{"aaaa bbbb cccc dddd", "eeee"},
		wrap("aaaa bbbb cccc dddd eeee", 20))
	assert.Equal(t,
		[]string{"x", strings.Repeat("y", 30), "z"},
		wrap("x "+strings.Repeat("y", 30)+" z", 20))
}

func TestChangeLabel(t *testing.T) {
	assert.Equal(t, "add", ChangeLabel("add"))
	assert.Equal(t, "move", ChangeLabel("move"))
	assert.True(t, strings.HasPrefix(Success("%d done", 3), "3 done"))
}
