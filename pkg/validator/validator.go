// Package validator checks a ConfigDB document against the YANG schema.
package validator

import (
	"fmt"
	"sort"

	"github.com/openconfig/goyang/pkg/yang"
	"github.com/rzbill/gcu/pkg/converter"
	"github.com/rzbill/gcu/pkg/differ"
	"github.com/rzbill/gcu/pkg/jsonpatch"
	"github.com/rzbill/gcu/pkg/log"
	"github.com/rzbill/gcu/pkg/schema"
	"github.com/rzbill/gcu/pkg/types"
)

// Options controls what the validator skips.
type Options struct {
	// IgnoreNonSchemaTables skips tables no YANG module describes instead of
	// reporting them.
	IgnoreNonSchemaTables bool

	// IgnorePaths lists the subtrees that are not checked. They still count
	// as reference targets.
	IgnorePaths []jsonpatch.Pointer
}

// Validator validates documents against a schema.
type Validator struct {
	schema    *schema.Schema
	converter *converter.Converter
	patterns  *patternCache
	logger    log.Logger
}

// New creates a validator for the given schema.
func New(s *schema.Schema, logger log.Logger) *Validator {
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	return &Validator{
		schema:    s,
		converter: converter.New(s),
		patterns:  newPatternCache(),
		logger:    logger.WithComponent("validator"),
	}
}

// run holds the state of one validation.
type run struct {
	*Validator
	opts    Options
	details []string

	// skip holds the paths of ignored fields that are kept in the tree so
	// mandatory checks still see them, but are not type checked.
	skip map[string]bool
}

func (r *run) addf(format string, args ...interface{}) {
	r.details = append(r.details, fmt.Sprintf(format, args...))
}

// Validate checks doc and returns a SchemaValidationError listing every
// violation, or nil.
func (v *Validator) Validate(doc types.Document, opts Options) error {
	r := &run{Validator: v, opts: opts, skip: make(map[string]bool)}

	checked := r.filter(doc)

	tree, err := v.converter.ToSchemaTree(checked)
	if err != nil {
		r.addf("%v", err)
	} else {
		r.walkTree(tree)
	}

	for _, table := range checked.Tables() {
		for _, key := range checked[table].Keys() {
			entry := withoutIgnored(checked[table][key], opts.IgnorePaths, table, key)
			for _, d := range v.schema.Dangling(doc, table, key, entry) {
				r.addf("%s", d.String())
			}
		}
	}

	if len(r.details) > 0 {
		v.logger.Debug("Document rejected", log.Int("violations", len(r.details)))
		return types.NewSchemaValidationError(r.details)
	}
	return nil
}

// filter returns the part of doc that is checked: schema tables only, minus
// ignored tables and entries. Entries whose shape cannot be converted are
// reported and left out so the remaining entries still get checked.
func (r *run) filter(doc types.Document) types.Document {
	out := types.Document{}
	for _, table := range doc.Tables() {
		t, ok := r.schema.Table(table)
		if !ok {
			if !r.opts.IgnoreNonSchemaTables && !differ.Ignored(r.opts.IgnorePaths, table) {
				r.addf("/%s: table has no YANG model", jsonpatch.EscapeToken(table))
			}
			continue
		}
		if differ.Ignored(r.opts.IgnorePaths, table) {
			continue
		}
		for _, key := range doc[table].Keys() {
			if differ.Ignored(r.opts.IgnorePaths, table, key) {
				continue
			}
			path := types.EntryRef{Table: table, Key: key}.Path()
			n := t.NodeFor(key)
			if n == nil {
				r.addf("%s: key matches no list of %s", path, table)
				continue
			}
			entry, ok := r.filterEntry(n, path, table, key, doc[table][key])
			if ok {
				out.Set(table, key, entry)
			}
		}
	}
	return out
}

func (r *run) filterEntry(n *schema.Node, path, table, key string, entry types.Entry) (types.Entry, bool) {
	out := make(types.Entry, len(entry))
	valid := true
	for _, field := range entry.Fields() {
		leaf, known := n.Leaves[field]
		ignored := differ.Ignored(r.opts.IgnorePaths, table, key, field)
		shapeOK := known && !n.IsKey(field) && shapeMatches(leaf, entry[field])
		switch {
		case ignored && shapeOK:
			out[field] = entry[field]
			r.skip[path+"/"+jsonpatch.EscapeToken(field)] = true
		case ignored:
		case !known:
			r.addf("%s/%s: field is not defined in %s", path, field, n.Name)
			valid = false
		case n.IsKey(field):
			r.addf("%s/%s: key leaf must not appear as a field", path, field)
			valid = false
		case !shapeOK:
			if leaf.IsLeafList() {
				r.addf("%s/%s: leaf-list expects a list of values", path, field)
			} else {
				r.addf("%s/%s: leaf expects a single value", path, field)
			}
			valid = false
		default:
			out[field] = entry[field]
		}
	}
	return out, valid
}

func shapeMatches(leaf *yang.Entry, v any) bool {
	switch v.(type) {
	case string:
		return !leaf.IsLeafList()
	case []string:
		return leaf.IsLeafList()
	default:
		return false
	}
}

func withoutIgnored(entry types.Entry, ignore []jsonpatch.Pointer, table, key string) types.Entry {
	out := make(types.Entry, len(entry))
	for f, v := range entry {
		if !differ.Ignored(ignore, table, key, f) {
			out[f] = v
		}
	}
	return out
}

// walkTree checks the typed schema tree produced by the converter.
func (r *run) walkTree(tree map[string]any) {
	for _, name := range r.schema.Tables() {
		t, _ := r.schema.Table(name)
		top, _ := tree[t.Module+":"+t.Container].(map[string]any)
		obj, ok := top[t.Module+":"+t.Name].(map[string]any)
		if !ok {
			continue
		}
		for _, n := range t.Lists {
			elems, _ := obj[n.Name].([]any)
			r.checkCount(n.Entry, "/"+jsonpatch.EscapeToken(name)+"/"+n.Name, len(elems))
			for _, e := range elems {
				elem, _ := e.(map[string]any)
				r.checkElement(name, n, listKey(n, elem), elem)
			}
		}
		for _, cname := range sortedNames(t.Containers) {
			if elem, ok := obj[cname].(map[string]any); ok {
				r.checkElement(name, t.Containers[cname], cname, elem)
			}
		}
	}
}

func listKey(n *schema.Node, elem map[string]any) string {
	parts := make([]string, len(n.Keys))
	for i, k := range n.Keys {
		parts[i], _ = types.ScalarString(elem[k])
	}
	return types.JoinKey(parts...)
}

func (r *run) checkElement(table string, n *schema.Node, key string, elem map[string]any) {
	path := types.EntryRef{Table: table, Key: key}.Path()
	for _, field := range sortedNames(n.Leaves) {
		leaf := n.Leaves[field]
		fpath := path + "/" + jsonpatch.EscapeToken(field)
		v, ok := elem[field]
		if !ok {
			if leaf.IsLeaf() && leaf.Mandatory.Value() {
				r.addf("%s: mandatory leaf is missing", fpath)
			}
			if leaf.IsLeafList() {
				r.checkCount(leaf, fpath, 0)
			}
			continue
		}
		if r.skip[fpath] {
			continue
		}
		if leaf.IsLeafList() {
			items, _ := v.([]any)
			r.checkCount(leaf, fpath, len(items))
			for _, item := range items {
				if err := r.checkValue(leaf.Type, item); err != nil {
					r.addf("%s: %v", fpath, err)
				}
			}
			continue
		}
		if err := r.checkValue(leaf.Type, v); err != nil {
			r.addf("%s: %v", fpath, err)
		}
	}
}

// checkCount enforces min-elements and max-elements of a list or leaf-list.
func (r *run) checkCount(e *yang.Entry, path string, n int) {
	if e == nil || e.ListAttr == nil {
		return
	}
	count := uint64(n)
	if lo := e.ListAttr.MinElements; count < lo {
		r.addf("%s: %d elements, at least %d required", path, n, lo)
	}
	if hi := e.ListAttr.MaxElements; hi > 0 && count > hi {
		r.addf("%s: %d elements, at most %d allowed", path, n, hi)
	}
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
