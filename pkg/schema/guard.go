package schema

import (
	"fmt"

	"github.com/rzbill/gcu/pkg/types"
)

// Guard enforces reference integrity on every single change, the way the
// device's ConfigDB rejects an entry that references something missing or a
// delete that leaves a reference dangling.
type Guard struct {
	schema *Schema
}

// NewGuard returns a guard over the schema's references.
func NewGuard(s *Schema) *Guard {
	return &Guard{schema: s}
}

// CheckSet validates storing entry under table/key in doc.
func (g *Guard) CheckSet(doc types.Document, table, key string, entry types.Entry) error {
	if !g.schema.HasTable(table) {
		return nil
	}
	after := overlay(doc, table, key, entry)
	if d := g.schema.Dangling(after, table, key, entry); len(d) > 0 {
		return fmt.Errorf("%s", d[0])
	}
	return g.checkReferrers(doc, after, table, key)
}

// CheckDelete validates deleting table/key from doc.
func (g *Guard) CheckDelete(doc types.Document, table, key string) error {
	if !g.schema.HasTable(table) {
		return nil
	}
	return g.checkReferrers(doc, overlay(doc, table, key, nil), table, key)
}

// checkReferrers reports an entry that referenced table/key before the change
// and is left dangling after it.
func (g *Guard) checkReferrers(before, after types.Document, table, key string) error {
	changed := types.EntryRef{Table: table, Key: key}
	for _, rt := range g.schema.Referrers(table) {
		for _, k := range before[rt].Keys() {
			if rt == table && k == key {
				continue
			}
			e := before[rt][k]
			if !containsRef(g.schema.Dependencies(before, rt, k, e), changed) {
				continue
			}
			if d := g.schema.Dangling(after, rt, k, e); len(d) > 0 {
				return fmt.Errorf("%s is still referenced by %s", changed, d[0].Ref)
			}
		}
	}
	return nil
}

// overlay returns doc with one entry replaced (or removed when entry is nil),
// sharing every untouched table.
func overlay(doc types.Document, table, key string, entry types.Entry) types.Document {
	out := make(types.Document, len(doc)+1)
	for name, t := range doc {
		out[name] = t
	}
	t := make(types.Table, len(doc[table])+1)
	for k, e := range doc[table] {
		t[k] = e
	}
	if entry == nil {
		delete(t, key)
	} else {
		t[key] = entry
	}
	out[table] = t
	return out
}

func containsRef(refs []types.EntryRef, ref types.EntryRef) bool {
	for _, r := range refs {
		if r == ref {
			return true
		}
	}
	return false
}
