package types

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// KeySeparator joins the components of a composite ConfigDB key.
const KeySeparator = "|"

// Entry holds the fields of one ConfigDB entry. A field value is either a
// string or a []string (leaf-list).
type Entry map[string]any

// Table maps an entry key to its fields.
type Table map[string]Entry

// Document is a complete ConfigDB configuration: table -> key -> fields.
// A table without entries is equivalent to an absent table.
type Document map[string]Table

// JoinKey builds the canonical composite key.
func JoinKey(parts ...string) string {
	return strings.Join(parts, KeySeparator)
}

// SplitKey splits a canonical composite key into its components.
func SplitKey(key string) []string {
	return strings.Split(key, KeySeparator)
}

// Tables returns the names of the non-empty tables in lexicographic order.
func (d Document) Tables() []string {
	names := make([]string, 0, len(d))
	for name, t := range d {
		if len(t) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Keys returns the entry keys of the table in lexicographic order.
func (t Table) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Fields returns the field names of the entry in lexicographic order.
func (e Entry) Fields() []string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Get returns the entry stored under table and key.
func (d Document) Get(table, key string) (Entry, bool) {
	t, ok := d[table]
	if !ok {
		return nil, false
	}
	e, ok := t[key]
	return e, ok
}

// Set stores an entry, creating the table when needed.
func (d Document) Set(table, key string, entry Entry) {
	t, ok := d[table]
	if !ok {
		t = Table{}
		d[table] = t
	}
	t[key] = entry
}

// Delete removes an entry and drops the table once it is empty.
func (d Document) Delete(table, key string) {
	t, ok := d[table]
	if !ok {
		return
	}
	delete(t, key)
	if len(t) == 0 {
		delete(d, table)
	}
}

// Clone returns a deep copy of the document without its empty tables.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for name, t := range d {
		if len(t) == 0 {
			continue
		}
		out[name] = t.Clone()
	}
	return out
}

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for k, e := range t {
		out[k] = e.Clone()
	}
	return out
}

// Clone returns a deep copy of the entry.
func (e Entry) Clone() Entry {
	out := make(Entry, len(e))
	for f, v := range e {
		if list, ok := v.([]string); ok {
			out[f] = append([]string(nil), list...)
			continue
		}
		out[f] = v
	}
	return out
}

// Equal reports whether two entries carry the same fields and values.
func (e Entry) Equal(o Entry) bool {
	if len(e) != len(o) {
		return false
	}
	for f, v := range e {
		ov, ok := o[f]
		if !ok || !valueEqual(v, ov) {
			return false
		}
	}
	return true
}

// Equal reports whether two documents hold the same entries. Empty tables
// are ignored on both sides.
func (d Document) Equal(o Document) bool {
	a, b := d.Tables(), o.Tables()
	if len(a) != len(b) {
		return false
	}
	for i, name := range a {
		if b[i] != name {
			return false
		}
		ta, tb := d[name], o[name]
		if len(ta) != len(tb) {
			return false
		}
		for k, e := range ta {
			oe, ok := tb[k]
			if !ok || !e.Equal(oe) {
				return false
			}
		}
	}
	return true
}

// Values returns the field value as a list: a string becomes a one element list.
func Values(v any) []string {
	switch val := v.(type) {
	case string:
		return []string{val}
	case []string:
		return val
	default:
		return nil
	}
}

func valueEqual(a, b any) bool {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case []string:
		bv, ok := b.([]string)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// ToJSON returns the document as a generic JSON tree.
func (d Document) ToJSON() map[string]any {
	out := make(map[string]any, len(d))
	for _, name := range d.Tables() {
		t := d[name]
		tt := make(map[string]any, len(t))
		for k, e := range t {
			tt[k] = e.toJSON()
		}
		out[name] = tt
	}
	return out
}

func (e Entry) toJSON() map[string]any {
	out := make(map[string]any, len(e))
	for f, v := range e {
		if list, ok := v.([]string); ok {
			items := make([]any, len(list))
			for i, s := range list {
				items[i] = s
			}
			out[f] = items
			continue
		}
		out[f] = v
	}
	return out
}

// MarshalJSON encodes the document without its empty tables.
func (d Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.ToJSON())
}

// DocumentFromJSON builds a document from a generic JSON tree. Numbers and
// booleans are normalized to their string form.
func DocumentFromJSON(v any) (Document, error) {
	root, ok := v.(map[string]any)
	if !ok {
		if v == nil {
			return Document{}, nil
		}
		return nil, NewFormatConversionError("config document must be an object, got %s", jsonKind(v))
	}
	doc := make(Document, len(root))
	for name, tv := range root {
		tm, ok := tv.(map[string]any)
		if !ok {
			return nil, NewFormatConversionError("table %s must be an object, got %s", name, jsonKind(tv))
		}
		if len(tm) == 0 {
			continue
		}
		t := make(Table, len(tm))
		for key, ev := range tm {
			entry, err := EntryFromJSON(ev)
			if err != nil {
				return nil, WrapFormatConversionError(err, "entry %s|%s", name, key)
			}
			t[key] = entry
		}
		doc[name] = t
	}
	return doc, nil
}

// EntryFromJSON builds an entry from a generic JSON object.
func EntryFromJSON(v any) (Entry, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, NewFormatConversionError("entry must be an object, got %s", jsonKind(v))
	}
	e := make(Entry, len(m))
	for f, fv := range m {
		if list, ok := fv.([]any); ok {
			values := make([]string, len(list))
			for i, item := range list {
				s, err := ScalarString(item)
				if err != nil {
					return nil, WrapFormatConversionError(err, "field %s", f)
				}
				values[i] = s
			}
			e[f] = values
			continue
		}
		s, err := ScalarString(fv)
		if err != nil {
			return nil, WrapFormatConversionError(err, "field %s", f)
		}
		e[f] = s
	}
	return e, nil
}

// ScalarString returns the canonical string form of a JSON scalar.
func ScalarString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case bool:
		return strconv.FormatBool(val), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	default:
		return "", NewFormatConversionError("value must be a scalar, got %s", jsonKind(v))
	}
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, int, int64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
