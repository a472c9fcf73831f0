package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	err := fmt.Errorf("rollback: %w", NewCheckpointNotFoundError("cp1"))

	assert.True(t, errors.Is(err, ErrCheckpointNotFound))
	assert.False(t, errors.Is(err, ErrCheckpointIO))
	assert.Equal(t, KindCheckpointNotFound, KindOf(err))
	assert.True(t, IsKind(err, KindCheckpointNotFound))
	assert.Equal(t, "rollback: checkpoint cp1 does not exist", err.Error())
}

func TestSchemaValidationErrorListsViolations(t *testing.T) {
	err := NewSchemaValidationError([]string{"/PORT/Ethernet0/mtu: out of range", "/VLAN/Vlan1: missing vlanid"})
	assert.Equal(t, "schema validation failed: /PORT/Ethernet0/mtu: out of range; /VLAN/Vlan1: missing vlanid", err.Error())
}

func TestStoreCommitError(t *testing.T) {
	change := Change{Op: OpRemove, Table: "PORT", Key: "Ethernet0"}
	err := NewStoreCommitError("", 2, change, errors.New("rejected"))

	assert.Equal(t, 2, err.Committed)
	assert.Equal(t, "failed to commit remove /PORT/Ethernet0 in namespace localhost after 2 committed changes: rejected", err.Error())
	assert.True(t, errors.Is(err, ErrStoreCommit))
}

func TestWrapFormatConversionError(t *testing.T) {
	inner := NewFormatConversionError("value must be a scalar, got object")
	err := WrapFormatConversionError(inner, "field %s", "mtu")
	assert.Equal(t, "field mtu: value must be a scalar, got object", err.Error())
	assert.True(t, IsKind(err, KindFormatConversion))

	assert.Nil(t, WrapFormatConversionError(nil, "ignored"))
}
