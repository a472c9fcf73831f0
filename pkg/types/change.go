package types

import (
	"fmt"
	"strings"
)

// ChangeOp is the kind of an elementary change.
type ChangeOp string

const (
	OpAdd     ChangeOp = "add"
	OpRemove  ChangeOp = "remove"
	OpReplace ChangeOp = "replace"
)

// EntryRef identifies one ConfigDB entry.
type EntryRef struct {
	Table string `json:"table"`
	Key   string `json:"key"`
}

func (r EntryRef) String() string {
	return r.Table + KeySeparator + r.Key
}

// Path returns the JSON pointer of the entry in the ConfigDB shape.
func (r EntryRef) Path() string {
	return "/" + escapeToken(r.Table) + "/" + escapeToken(r.Key)
}

// Change is an elementary add, remove or replace of a whole ConfigDB entry.
// Fields holds the entry after the change (nil for remove) and Old the entry
// before it (nil for add).
type Change struct {
	Op     ChangeOp `json:"op"`
	Table  string   `json:"table"`
	Key    string   `json:"key"`
	Fields Entry    `json:"fields,omitempty"`
	Old    Entry    `json:"old,omitempty"`
}

// Ref returns the entry the change targets.
func (c Change) Ref() EntryRef {
	return EntryRef{Table: c.Table, Key: c.Key}
}

// Path returns the JSON pointer of the targeted entry.
func (c Change) Path() string {
	return c.Ref().Path()
}

func (c Change) String() string {
	return fmt.Sprintf("%s %s", c.Op, c.Path())
}

var tokenEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func escapeToken(s string) string {
	return tokenEscaper.Replace(s)
}
