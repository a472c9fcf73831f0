package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// IndentJSON marshals v with the 4-space indentation used for checkpoint
// files and CLI output. HTML characters are not escaped.
func IndentJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ValidateFileName checks that name can be used as a single path element.
func ValidateFileName(name string) error {
	if name == "" {
		return fmt.Errorf("name must not be empty")
	}
	if name == "." || name == ".." {
		return fmt.Errorf("name %q is reserved", name)
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return fmt.Errorf("name %q must not contain path separators or NUL", name)
	}
	if len(name) > 200 {
		return fmt.Errorf("name must be at most 200 characters")
	}
	return nil
}
