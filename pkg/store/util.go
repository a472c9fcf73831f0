package store

import (
	"fmt"
	"strings"

	"github.com/rzbill/gcu/pkg/types"
)

// MakeKey creates the database key of a ConfigDB entry.
func MakeKey(namespace, table, key string) []byte {
	return []byte(fmt.Sprintf("%s/%s/%s", types.NamespaceName(namespace), table, key))
}

// MakePrefix creates the prefix shared by every entry of a namespace.
func MakePrefix(namespace string) []byte {
	return []byte(types.NamespaceName(namespace) + "/")
}

// ParseKey parses a database key into its components. Entry keys may
// themselves contain slashes.
func ParseKey(key []byte) (namespace, table, entryKey string, ok bool) {
	parts := strings.SplitN(string(key), "/", 3)
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return "", "", "", false
	}
	return types.NamespaceFromName(parts[0]), parts[1], parts[2], true
}

// check validates a change against the current content of the namespace.
func check(doc types.Document, guard Guard, c types.Change) error {
	_, exists := doc.Get(c.Table, c.Key)
	switch c.Op {
	case types.OpAdd:
		if exists {
			return fmt.Errorf("%s: %w", c.Path(), ErrAlreadyExists)
		}
	case types.OpReplace, types.OpRemove:
		if !exists {
			return fmt.Errorf("%s: %w", c.Path(), ErrNotFound)
		}
	default:
		return fmt.Errorf("unsupported change operation %q", c.Op)
	}
	if guard == nil {
		return nil
	}

	var err error
	if c.Op == types.OpRemove {
		err = guard.CheckDelete(doc, c.Table, c.Key)
	} else {
		err = guard.CheckSet(doc, c.Table, c.Key, c.Fields)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReferenceViolation, err)
	}
	return nil
}
