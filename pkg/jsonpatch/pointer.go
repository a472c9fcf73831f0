// Package jsonpatch handles JSON pointers (RFC 6901) and the add, remove and
// replace operations of JSON patch (RFC 6902) over generic JSON trees, and
// reports failures with the updater's error kinds.
package jsonpatch

import (
	"errors"
	"strings"

	"github.com/go-openapi/jsonpointer"
	"github.com/rzbill/gcu/pkg/types"
)

// Pointer is a parsed JSON pointer. The empty pointer addresses the whole document.
type Pointer []string

// ParsePointer parses a JSON pointer string.
func ParsePointer(s string) (Pointer, error) {
	if err := checkEscapes(s); err != nil {
		return nil, types.NewPatchSyntaxError("invalid path %q: %s", s, err)
	}
	ptr, err := jsonpointer.New(s)
	if err != nil {
		return nil, types.NewPatchSyntaxError("invalid path %q: must be empty or start with /", s)
	}
	return Pointer(ptr.DecodedTokens()), nil
}

// checkEscapes rejects '~' sequences other than ~0 and ~1, which the
// pointer library would keep as literal text.
func checkEscapes(s string) error {
	for i := 0; i < len(s); i++ {
		if s[i] != '~' {
			continue
		}
		if i+1 >= len(s) || (s[i+1] != '0' && s[i+1] != '1') {
			return errBadEscape
		}
	}
	return nil
}

var errBadEscape = errors.New("'~' must be followed by 0 or 1")

// EscapeToken escapes one reference token.
func EscapeToken(tok string) string {
	return jsonpointer.Escape(tok)
}

// NewPointer builds a pointer from unescaped tokens.
func NewPointer(tokens ...string) Pointer {
	return Pointer(append([]string(nil), tokens...))
}

func (p Pointer) String() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for _, tok := range p {
		b.WriteByte('/')
		b.WriteString(EscapeToken(tok))
	}
	return b.String()
}

// HasPrefix reports whether prefix addresses p itself or one of its ancestors.
func (p Pointer) HasPrefix(prefix Pointer) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i := range prefix {
		if p[i] != prefix[i] {
			return false
		}
	}
	return true
}
