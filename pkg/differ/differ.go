// Package differ computes the entry-level change-set between two ConfigDB
// documents, with ignored subtrees masked out.
package differ

import (
	"sort"

	"github.com/rzbill/gcu/pkg/jsonpatch"
	"github.com/rzbill/gcu/pkg/types"
)

// ParseIgnorePaths parses ignore paths given as JSON pointers over the
// ConfigDB shape. "" ignores the whole document; pointers deeper than a field
// are truncated to the field.
func ParseIgnorePaths(paths []string) ([]jsonpatch.Pointer, error) {
	out := make([]jsonpatch.Pointer, 0, len(paths))
	for _, p := range paths {
		ptr, err := jsonpatch.ParsePointer(p)
		if err != nil {
			return nil, err
		}
		if len(ptr) > 3 {
			ptr = ptr[:3]
		}
		out = append(out, ptr)
	}
	return out, nil
}

// Ignored reports whether a ConfigDB location falls under one of the ignore paths.
func Ignored(ignore []jsonpatch.Pointer, tokens ...string) bool {
	p := jsonpatch.Pointer(tokens)
	for _, ig := range ignore {
		if p.HasPrefix(ig) {
			return true
		}
	}
	return false
}

// Mask returns a copy of target in which every ignored subtree holds its
// current value, or is absent when current lacks it. An entry that target
// drops keeps its ignored fields.
func Mask(current, target types.Document, ignore []jsonpatch.Pointer) types.Document {
	out := target.Clone()
	for _, p := range ignore {
		switch len(p) {
		case 0:
			return current.Clone()
		case 1:
			if t, ok := current[p[0]]; ok && len(t) > 0 {
				out[p[0]] = t.Clone()
			} else {
				delete(out, p[0])
			}
		case 2:
			if e, ok := current.Get(p[0], p[1]); ok {
				out.Set(p[0], p[1], e.Clone())
			} else {
				out.Delete(p[0], p[1])
			}
		default:
			ce, _ := current.Get(p[0], p[1])
			v, inCur := ce[p[2]]
			te, inTgt := out.Get(p[0], p[1])
			switch {
			case inCur && inTgt:
				te[p[2]] = types.Entry{p[2]: v}.Clone()[p[2]]
			case inCur:
				out.Set(p[0], p[1], types.Entry{p[2]: v}.Clone())
			case inTgt:
				delete(te, p[2])
			}
		}
	}
	return out
}

// Diff returns the changes that turn current into target: adds for keys only
// in target, removes for keys only in current and replaces for entries that
// differ. Ignored subtrees produce no change. Changes are ordered by table
// then key.
func Diff(current, target types.Document, ignore []jsonpatch.Pointer) []types.Change {
	masked := Mask(current, target, ignore)

	var changes []types.Change
	for _, table := range unionKeys(current.Tables(), masked.Tables()) {
		cur, tgt := current[table], masked[table]
		for _, key := range unionKeys(cur.Keys(), tgt.Keys()) {
			ce, inCur := cur[key]
			te, inTgt := tgt[key]
			switch {
			case inCur && inTgt:
				if !ce.Equal(te) {
					changes = append(changes, types.Change{Op: types.OpReplace, Table: table, Key: key, Fields: te.Clone(), Old: ce.Clone()})
				}
			case inTgt:
				changes = append(changes, types.Change{Op: types.OpAdd, Table: table, Key: key, Fields: te.Clone()})
			default:
				changes = append(changes, types.Change{Op: types.OpRemove, Table: table, Key: key, Old: ce.Clone()})
			}
		}
	}
	return changes
}

// Apply returns doc with the changes applied.
func Apply(doc types.Document, changes []types.Change) types.Document {
	out := doc.Clone()
	for _, c := range changes {
		switch c.Op {
		case types.OpRemove:
			out.Delete(c.Table, c.Key)
		default:
			out.Set(c.Table, c.Key, c.Fields.Clone())
		}
	}
	return out
}

func unionKeys(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, k := range list {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				out = append(out, k)
			}
		}
	}
	sort.Strings(out)
	return out
}
