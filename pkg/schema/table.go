package schema

import (
	"strings"

	"github.com/openconfig/goyang/pkg/yang"
	"github.com/rzbill/gcu/pkg/types"
)

// Table describes how one ConfigDB table maps onto YANG.
type Table struct {
	Name string

	// Module and Container name the YANG module and its top-level container.
	Module    string
	Container string

	// Lists are the table's YANG lists, Containers its static child
	// containers (one fixed ConfigDB key each, e.g. DEVICE_METADATA|localhost).
	Lists      []*Node
	Containers map[string]*Node

	Entry *yang.Entry
}

// Node is a YANG list or static container holding the entries of a table.
type Node struct {
	Name   string
	Keys   []string
	Static bool
	Leaves map[string]*yang.Entry
	Entry  *yang.Entry
}

func newTable(module, container string, e *yang.Entry) *Table {
	t := &Table{
		Name:       e.Name,
		Module:     module,
		Container:  container,
		Containers: make(map[string]*Node),
		Entry:      e,
	}
	for _, child := range sortedChildren(e) {
		switch {
		case child.IsList():
			t.Lists = append(t.Lists, &Node{
				Name:   child.Name,
				Keys:   strings.Fields(child.Key),
				Leaves: leaves(child),
				Entry:  child,
			})
		case child.IsContainer():
			t.Containers[child.Name] = &Node{
				Name:   child.Name,
				Static: true,
				Leaves: leaves(child),
				Entry:  child,
			}
		}
	}
	return t
}

// leaves collects the leaf and leaf-list children of e, looking through
// choice and case statements.
func leaves(e *yang.Entry) map[string]*yang.Entry {
	out := make(map[string]*yang.Entry)
	var walk func(*yang.Entry)
	walk = func(n *yang.Entry) {
		for name, c := range n.Dir {
			switch {
			case c.IsChoice(), c.IsCase():
				walk(c)
			case c.IsLeaf(), c.IsLeafList():
				out[name] = c
			}
		}
	}
	walk(e)
	return out
}

// NodeFor returns the list or static container that holds the ConfigDB key:
// a static container of that name, else the list whose key arity matches.
func (t *Table) NodeFor(key string) *Node {
	if c, ok := t.Containers[key]; ok {
		return c
	}
	parts := len(types.SplitKey(key))
	for _, l := range t.Lists {
		if len(l.Keys) == parts {
			return l
		}
	}
	return nil
}

// Node returns the list or static container with the given YANG name.
func (t *Table) Node(name string) *Node {
	if c, ok := t.Containers[name]; ok {
		return c
	}
	for _, l := range t.Lists {
		if l.Name == name {
			return l
		}
	}
	return nil
}

// KeyIndex returns the position of a key leaf, or -1.
func (n *Node) KeyIndex(leaf string) int {
	for i, k := range n.Keys {
		if k == leaf {
			return i
		}
	}
	return -1
}

// IsKey reports whether leaf is one of the node's key leaves.
func (n *Node) IsKey(leaf string) bool {
	return n.KeyIndex(leaf) >= 0
}

// KeyValues maps the node's key leaves to the components of a ConfigDB key.
// It returns nil when the arity does not match.
func (n *Node) KeyValues(key string) map[string]string {
	if n.Static {
		return map[string]string{}
	}
	parts := types.SplitKey(key)
	if len(parts) != len(n.Keys) {
		return nil
	}
	out := make(map[string]string, len(parts))
	for i, k := range n.Keys {
		out[k] = parts[i]
	}
	return out
}
