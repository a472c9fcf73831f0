// Package converter maps configurations between the native ConfigDB shape
// and the SONiC YANG schema-tree shape.
package converter

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/openconfig/goyang/pkg/yang"
	"github.com/rzbill/gcu/pkg/schema"
	"github.com/rzbill/gcu/pkg/types"
)

// Converter converts documents using the tables of a schema.
type Converter struct {
	schema *schema.Schema
}

// New creates a converter for the given schema.
func New(s *schema.Schema) *Converter {
	return &Converter{schema: s}
}

// Split separates the tables a YANG module describes from the others.
func (c *Converter) Split(doc types.Document) (types.Document, types.Document) {
	known, unknown := types.Document{}, types.Document{}
	for _, name := range doc.Tables() {
		if c.schema.HasTable(name) {
			known[name] = doc[name]
		} else {
			unknown[name] = doc[name]
		}
	}
	return known, unknown
}

// Merge combines documents; later documents win on table collisions.
func Merge(docs ...types.Document) types.Document {
	out := types.Document{}
	for _, d := range docs {
		for _, name := range d.Tables() {
			out[name] = d[name]
		}
	}
	return out
}

// ToSchemaTree converts a ConfigDB document into the schema-tree shape:
//
//	{"<module>:<container>": {"<module>:<TABLE>": {"<LIST>": [{...}], "<static container>": {...}}}}
func (c *Converter) ToSchemaTree(doc types.Document) (map[string]any, error) {
	tree := map[string]any{}
	for _, name := range doc.Tables() {
		t, ok := c.schema.Table(name)
		if !ok {
			return nil, types.NewFormatConversionError("table %s has no schema definition", name)
		}
		tableObj, err := c.tableToTree(t, doc[name])
		if err != nil {
			return nil, err
		}
		topName := t.Module + ":" + t.Container
		top, ok := tree[topName].(map[string]any)
		if !ok {
			top = map[string]any{}
			tree[topName] = top
		}
		top[t.Module+":"+t.Name] = tableObj
	}
	return tree, nil
}

func (c *Converter) tableToTree(t *schema.Table, table types.Table) (map[string]any, error) {
	obj := map[string]any{}
	for _, key := range table.Keys() {
		n := t.NodeFor(key)
		if n == nil {
			return nil, types.NewFormatConversionError("key %s of table %s matches no list of the schema", key, t.Name)
		}
		elem, err := entryToTree(n, key, table[key])
		if err != nil {
			return nil, types.WrapFormatConversionError(err, "%s|%s", t.Name, key)
		}
		if n.Static {
			obj[n.Name] = elem
			continue
		}
		list, _ := obj[n.Name].([]any)
		obj[n.Name] = append(list, elem)
	}
	return obj, nil
}

func entryToTree(n *schema.Node, key string, entry types.Entry) (map[string]any, error) {
	elem := make(map[string]any, len(entry)+len(n.Keys))
	for leafName, v := range n.KeyValues(key) {
		elem[leafName] = scalarToTree(n.Leaves[leafName], v)
	}
	for _, field := range entry.Fields() {
		leaf, ok := n.Leaves[field]
		if !ok {
			return nil, types.NewFormatConversionError("field %s is not defined in %s", field, n.Name)
		}
		if n.IsKey(field) {
			return nil, types.NewFormatConversionError("field %s duplicates a key leaf of %s", field, n.Name)
		}
		switch v := entry[field].(type) {
		case string:
			if leaf.IsLeafList() {
				return nil, types.NewFormatConversionError("field %s is a leaf-list, got a scalar", field)
			}
			elem[field] = scalarToTree(leaf, v)
		case []string:
			if !leaf.IsLeafList() {
				return nil, types.NewFormatConversionError("field %s is a leaf, got a list", field)
			}
			items := make([]any, len(v))
			for i, s := range v {
				items[i] = scalarToTree(leaf, s)
			}
			elem[field] = items
		default:
			return nil, types.NewFormatConversionError("field %s has unsupported value %v", field, v)
		}
	}
	return elem, nil
}

// decimal matches the canonical decimal64 forms that survive a JSON round trip.
var decimal = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?$`)

// scalarToTree types a ConfigDB string per the leaf's YANG type. Strings that
// do not parse as the declared type are kept as strings for the validator.
func scalarToTree(leaf *yang.Entry, s string) any {
	if leaf == nil || leaf.Type == nil {
		return s
	}
	switch leaf.Type.Kind {
	case yang.Yint8, yang.Yint16, yang.Yint32, yang.Yint64:
		if n, err := strconv.ParseInt(s, 10, 64); err == nil && strconv.FormatInt(n, 10) == s {
			return json.Number(s)
		}
	case yang.Yuint8, yang.Yuint16, yang.Yuint32, yang.Yuint64:
		if n, err := strconv.ParseUint(s, 10, 64); err == nil && strconv.FormatUint(n, 10) == s {
			return json.Number(s)
		}
	case yang.Ydecimal64:
		if decimal.MatchString(s) {
			return json.Number(s)
		}
	case yang.Ybool:
		if s == "true" || s == "false" {
			return s == "true"
		}
	}
	return s
}

// ToConfigDocument converts a schema tree back into a ConfigDB document.
func (c *Converter) ToConfigDocument(tree any) (types.Document, error) {
	root, ok := tree.(map[string]any)
	if !ok {
		if tree == nil {
			return types.Document{}, nil
		}
		return nil, types.NewFormatConversionError("schema tree must be an object")
	}
	doc := types.Document{}
	for _, topName := range sortedKeys(root) {
		top, ok := root[topName].(map[string]any)
		if !ok {
			return nil, types.NewFormatConversionError("%s must be an object", topName)
		}
		for _, tableName := range sortedKeys(top) {
			name := stripPrefix(tableName)
			t, ok := c.schema.Table(name)
			if !ok {
				return nil, types.NewFormatConversionError("table %s has no schema definition", name)
			}
			if t.Container != stripPrefix(topName) {
				return nil, types.NewFormatConversionError("table %s belongs to %s, not %s", name, t.Container, topName)
			}
			table, err := treeToTable(t, top[tableName])
			if err != nil {
				return nil, err
			}
			if len(table) > 0 {
				doc[name] = table
			}
		}
	}
	return doc, nil
}

func treeToTable(t *schema.Table, v any) (types.Table, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, types.NewFormatConversionError("table %s must be an object", t.Name)
	}
	table := types.Table{}
	for _, child := range sortedKeys(obj) {
		n := t.Node(stripPrefix(child))
		if n == nil {
			return nil, types.NewFormatConversionError("%s is not a list or container of table %s", child, t.Name)
		}
		if n.Static {
			elem, ok := obj[child].(map[string]any)
			if !ok {
				return nil, types.NewFormatConversionError("%s/%s must be an object", t.Name, n.Name)
			}
			entry, err := treeToEntry(n, elem)
			if err != nil {
				return nil, types.WrapFormatConversionError(err, "%s|%s", t.Name, n.Name)
			}
			table[n.Name] = entry
			continue
		}
		items, ok := obj[child].([]any)
		if !ok {
			return nil, types.NewFormatConversionError("%s/%s must be an array", t.Name, n.Name)
		}
		for i, item := range items {
			elem, ok := item.(map[string]any)
			if !ok {
				return nil, types.NewFormatConversionError("%s/%s[%d] must be an object", t.Name, n.Name, i)
			}
			parts := make([]string, len(n.Keys))
			for k, keyLeaf := range n.Keys {
				kv, ok := elem[keyLeaf]
				if !ok {
					return nil, types.NewFormatConversionError("%s/%s[%d] is missing key leaf %s", t.Name, n.Name, i, keyLeaf)
				}
				s, err := types.ScalarString(kv)
				if err != nil {
					return nil, types.WrapFormatConversionError(err, "%s/%s[%d] key leaf %s", t.Name, n.Name, i, keyLeaf)
				}
				parts[k] = s
			}
			key := types.JoinKey(parts...)
			if _, dup := table[key]; dup {
				return nil, types.NewFormatConversionError("duplicate key %s in %s", key, t.Name)
			}
			entry, err := treeToEntry(n, elem)
			if err != nil {
				return nil, types.WrapFormatConversionError(err, "%s|%s", t.Name, key)
			}
			table[key] = entry
		}
	}
	return table, nil
}

func treeToEntry(n *schema.Node, elem map[string]any) (types.Entry, error) {
	entry := types.Entry{}
	for name, v := range elem {
		field := stripPrefix(name)
		leaf, ok := n.Leaves[field]
		if !ok {
			return nil, types.NewFormatConversionError("field %s is not defined in %s", field, n.Name)
		}
		if n.IsKey(field) {
			continue
		}
		if leaf.IsLeafList() {
			items, ok := v.([]any)
			if !ok {
				return nil, types.NewFormatConversionError("field %s is a leaf-list, got a scalar", field)
			}
			values := make([]string, len(items))
			for i, item := range items {
				s, err := types.ScalarString(item)
				if err != nil {
					return nil, types.WrapFormatConversionError(err, "field %s", field)
				}
				values[i] = s
			}
			entry[field] = values
			continue
		}
		s, err := types.ScalarString(v)
		if err != nil {
			return nil, types.WrapFormatConversionError(err, "field %s", field)
		}
		entry[field] = s
	}
	return entry, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func stripPrefix(name string) string {
	if i := strings.Index(name, ":"); i >= 0 {
		return name[i+1:]
	}
	return name
}
