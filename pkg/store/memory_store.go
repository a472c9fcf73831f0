package store

import (
	"context"
	"sync"

	"github.com/rzbill/gcu/pkg/types"
)

var _ ConfigDB = &MemoryStore{}

// MemoryStore is an in-memory ConfigDB, used for tests and dry runs.
type MemoryStore struct {
	namespace string
	doc       types.Document
	opts      Options
	mutex     sync.RWMutex

	// FailOn, when set, is consulted before every write; a non-nil result
	// rejects the change.
	FailOn func(types.Change) error
}

// NewMemoryStore creates an in-memory ConfigDB seeded with a copy of doc.
func NewMemoryStore(namespace string, doc types.Document, opts ...Option) *MemoryStore {
	if doc == nil {
		doc = types.Document{}
	}
	return &MemoryStore{
		namespace: namespace,
		doc:       doc.Clone(),
		opts:      ParseOptions(opts...),
	}
}

// Namespace returns the namespace identifier.
func (m *MemoryStore) Namespace() string {
	return m.namespace
}

// Read returns a copy of the stored configuration.
func (m *MemoryStore) Read(ctx context.Context) (types.Document, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.doc.Clone(), nil
}

// Apply commits one change.
func (m *MemoryStore) Apply(ctx context.Context, change types.Change) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.FailOn != nil {
		if err := m.FailOn(change); err != nil {
			return err
		}
	}
	change.Fields = normalizeFields(change)
	if err := check(m.doc, m.opts.Guard, change); err != nil {
		return err
	}
	if change.Op == types.OpRemove {
		m.doc.Delete(change.Table, change.Key)
	} else {
		m.doc.Set(change.Table, change.Key, change.Fields.Clone())
	}
	return nil
}

// normalizeFields gives adds and replaces a non-nil field map, so an entry
// without fields is still stored.
func normalizeFields(c types.Change) types.Entry {
	if c.Op != types.OpRemove && c.Fields == nil {
		return types.Entry{}
	}
	return c.Fields
}
