package schema

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/openconfig/goyang/pkg/yang"
	"github.com/rzbill/gcu/pkg/types"
)

// Reference is a leafref leaf of a table: the values of Field must exist as
// Leaf values of one of the Targets.
type Reference struct {
	Table   string
	Node    string
	Field   string
	Targets []Target

	// Required is false when the leaf also accepts values that are not
	// references (union with non-leafref members, require-instance false).
	Required bool
}

// Target is the table and leaf a leafref points at.
type Target struct {
	Table string
	Leaf  string
}

func (t Target) String() string {
	return t.Table + "/" + t.Leaf
}

// Dangling is a reference value that resolves to no entry.
type Dangling struct {
	Ref     types.EntryRef
	Field   string
	Value   string
	Targets []Target
}

func (d Dangling) String() string {
	tables := make([]string, len(d.Targets))
	for i, t := range d.Targets {
		tables[i] = t.Table
	}
	return fmt.Sprintf("%s/%s: %s does not exist in %s", d.Ref.Path(), d.Field, d.Value, strings.Join(tables, " or "))
}

var predicates = regexp.MustCompile(`\[[^\]]*\]`)

func (s *Schema) buildReferences() error {
	for _, name := range s.Tables() {
		t := s.tables[name]
		nodes := append([]*Node(nil), t.Lists...)
		for _, c := range sortedNodes(t.Containers) {
			nodes = append(nodes, c)
		}
		for _, n := range nodes {
			for _, field := range sortedLeafNames(n.Leaves) {
				leaf := n.Leaves[field]
				refs, onlyRefs := leafrefs(leaf.Type)
				if len(refs) == 0 {
					continue
				}
				r := &Reference{Table: name, Node: n.Name, Field: field, Required: onlyRefs}
				for _, lr := range refs {
					target, err := resolveLeafref(lr.Path, leaf)
					if err != nil {
						return fmt.Errorf("%s/%s/%s: %w", name, n.Name, field, err)
					}
					if _, ok := s.tables[target.Table]; !ok {
						return fmt.Errorf("%s/%s/%s: leafref %s points at unknown table %s", name, n.Name, field, lr.Path, target.Table)
					}
					if lr.OptionalInstance {
						r.Required = false
					}
					r.Targets = append(r.Targets, target)
				}
				s.refs[name] = append(s.refs[name], r)
				for _, target := range r.Targets {
					s.addReferrer(target.Table, name)
				}
			}
		}
	}
	return nil
}

func (s *Schema) addReferrer(target, from string) {
	for _, existing := range s.referrers[target] {
		if existing == from {
			return
		}
	}
	s.referrers[target] = append(s.referrers[target], from)
	sort.Strings(s.referrers[target])
}

// leafrefs returns the leafref types of t, looking into unions, and whether
// every member of t is a leafref.
func leafrefs(t *yang.YangType) ([]*yang.YangType, bool) {
	if t == nil {
		return nil, false
	}
	switch t.Kind {
	case yang.Yleafref:
		return []*yang.YangType{t}, true
	case yang.Yunion:
		var out []*yang.YangType
		only := len(t.Type) > 0
		for _, member := range t.Type {
			refs, memberOnly := leafrefs(member)
			out = append(out, refs...)
			only = only && memberOnly
		}
		return out, only
	default:
		return nil, false
	}
}

// resolveLeafref turns an absolute or relative leafref path into the table
// and leaf it designates. Predicates are dropped.
func resolveLeafref(path string, leaf *yang.Entry) (Target, error) {
	clean := predicates.ReplaceAllString(strings.TrimSpace(path), "")
	var elems []string
	if !strings.HasPrefix(clean, "/") {
		elems = dataPath(leaf)
	}
	for _, p := range strings.Split(clean, "/") {
		switch p {
		case "", ".":
		case "..":
			if len(elems) == 0 {
				return Target{}, fmt.Errorf("leafref path %s climbs above the module", path)
			}
			elems = elems[:len(elems)-1]
		default:
			elems = append(elems, stripPrefix(p))
		}
	}
	// top container / table / list or container / leaf
	if len(elems) < 4 {
		return Target{}, fmt.Errorf("leafref path %s does not designate a table leaf", path)
	}
	return Target{Table: elems[1], Leaf: elems[len(elems)-1]}, nil
}

// dataPath returns the data node names from the top container down to e.
func dataPath(e *yang.Entry) []string {
	var out []string
	for n := e; n != nil && n.Parent != nil; n = n.Parent {
		if n.IsChoice() || n.IsCase() {
			continue
		}
		out = append(out, n.Name)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// References returns the leafref leaves of a table.
func (s *Schema) References(table string) []*Reference {
	return s.refs[table]
}

// Referrers returns the tables holding leafrefs into table.
func (s *Schema) Referrers(table string) []string {
	return s.referrers[table]
}

// fieldValues returns the values an entry holds for a reference, key leaves included.
func (s *Schema) fieldValues(r *Reference, key string, entry types.Entry) []string {
	t := s.tables[r.Table]
	n := t.NodeFor(key)
	if n == nil || n.Name != r.Node {
		return nil
	}
	if n.IsKey(r.Field) {
		if v, ok := n.KeyValues(key)[r.Field]; ok {
			return []string{v}
		}
		return nil
	}
	return types.Values(entry[r.Field])
}

// resolve returns the entries of doc whose target leaf holds value.
func (s *Schema) resolve(doc types.Document, target Target, value string) []types.EntryRef {
	tbl := s.tables[target.Table]
	var out []types.EntryRef
	for _, key := range doc[target.Table].Keys() {
		n := tbl.NodeFor(key)
		if n == nil {
			continue
		}
		if n.IsKey(target.Leaf) {
			if n.KeyValues(key)[target.Leaf] == value {
				out = append(out, types.EntryRef{Table: target.Table, Key: key})
			}
			continue
		}
		for _, v := range types.Values(doc[target.Table][key][target.Leaf]) {
			if v == value {
				out = append(out, types.EntryRef{Table: target.Table, Key: key})
				break
			}
		}
	}
	return out
}

// Dependencies returns the entries of doc that the given entry references.
func (s *Schema) Dependencies(doc types.Document, table, key string, entry types.Entry) []types.EntryRef {
	self := types.EntryRef{Table: table, Key: key}
	seen := map[types.EntryRef]bool{self: true}
	var out []types.EntryRef
	for _, r := range s.refs[table] {
		for _, v := range s.fieldValues(r, key, entry) {
			for _, target := range r.Targets {
				for _, ref := range s.resolve(doc, target, v) {
					if !seen[ref] {
						seen[ref] = true
						out = append(out, ref)
					}
				}
			}
		}
	}
	return out
}

// Dangling returns the required references of the entry that resolve to
// nothing in doc.
func (s *Schema) Dangling(doc types.Document, table, key string, entry types.Entry) []Dangling {
	var out []Dangling
	for _, r := range s.refs[table] {
		if !r.Required {
			continue
		}
		for _, v := range s.fieldValues(r, key, entry) {
			found := false
			for _, target := range r.Targets {
				if len(s.resolve(doc, target, v)) > 0 {
					found = true
					break
				}
			}
			if !found {
				out = append(out, Dangling{
					Ref:     types.EntryRef{Table: table, Key: key},
					Field:   r.Field,
					Value:   v,
					Targets: r.Targets,
				})
			}
		}
	}
	return out
}

func sortedNodes(m map[string]*Node) []*Node {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*Node, len(names))
	for i, name := range names {
		out[i] = m[name]
	}
	return out
}

func sortedLeafNames(m map[string]*yang.Entry) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
