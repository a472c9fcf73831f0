package types

import (
	"regexp"
	"sort"
	"time"
)

// DefaultNamespaceName addresses the default ("") namespace in scoped
// patches, scoped targets and multi-namespace checkpoints.
const DefaultNamespaceName = "localhost"

var asicNamespace = regexp.MustCompile(`^asic[0-9]+$`)

// Checkpoint is a named snapshot of every namespace's configuration.
type Checkpoint struct {
	Name      string              `json:"name"`
	Snapshot  map[string]Document `json:"snapshot"`
	CreatedAt time.Time           `json:"createdAt"`
}

// Namespaces returns the names of the snapshot namespaces in sorted order.
func (c *Checkpoint) Namespaces() []string {
	out := make([]string, 0, len(c.Snapshot))
	for ns := range c.Snapshot {
		out = append(out, NamespaceName(ns))
	}
	sort.Strings(out)
	return out
}

// NamespaceName returns the external name of a namespace.
func NamespaceName(ns string) string {
	return displayNamespace(ns)
}

// NamespaceFromName maps an external namespace name back to its identifier.
func NamespaceFromName(name string) string {
	if name == DefaultNamespaceName {
		return ""
	}
	return name
}

// IsNamespaceName reports whether name looks like a namespace name
// (localhost or asicN).
func IsNamespaceName(name string) bool {
	return name == DefaultNamespaceName || asicNamespace.MatchString(name)
}

func displayNamespace(ns string) string {
	if ns == "" {
		return DefaultNamespaceName
	}
	return ns
}
