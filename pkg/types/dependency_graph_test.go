package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopologicalOrderKeepsInputOrder(t *testing.T) {
	nodes := []string{"a", "b", "c", "d"}
	order, err := TopologicalOrder(nodes, nil)
	require.NoError(t, err)
	assert.Equal(t, nodes, order)
}

func TestTopologicalOrderRespectsDependencies(t *testing.T) {
	nodes := []string{"member", "port", "vlan", "unrelated"}
	deps := map[string][]string{
		"member": {"port", "vlan"},
		"vlan":   {"missing"},
	}

	order, err := TopologicalOrder(nodes, deps)
	require.NoError(t, err)
	assert.Equal(t, []string{"port", "vlan", "member", "unrelated"}, order)
}

func TestTopologicalOrderCycle(t *testing.T) {
	nodes := []string{"x", "a", "b"}
	deps := map[string][]string{
		"a": {"b"},
		"b": {"a"},
	}

	_, err := TopologicalOrder(nodes, deps)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnresolvableDependency))

	var e *Error
	require.True(t, errors.As(err, &e))
	require.Len(t, e.Details, 1)
	assert.Equal(t, "a -> b -> a", e.Details[0])
}

func TestTopologicalOrderNamesEveryCycle(t *testing.T) {
	nodes := []string{"a", "b", "c", "d", "e"}
	deps := map[string][]string{
		"a": {"b"},
		"b": {"a"},
		"c": {"d"},
		"d": {"c"},
		"e": {"a"},
	}

	_, err := TopologicalOrder(nodes, deps)
	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, []string{"a -> b -> a", "c -> d -> c"}, e.Details)
}
