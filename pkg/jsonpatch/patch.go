package jsonpatch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	jsonpatchv5 "github.com/evanphx/json-patch/v5"
	"github.com/rzbill/gcu/pkg/types"
)

// Supported operation names.
const (
	OpAdd     = "add"
	OpRemove  = "remove"
	OpReplace = "replace"
)

// Operation is one JSON patch operation.
type Operation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

// Patch is an ordered list of operations.
type Patch []Operation

// Decode parses a JSON patch document.
func Decode(data []byte) (Patch, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, types.NewPatchSyntaxError("invalid patch document: %v", err)
	}
	if dec.More() {
		return nil, types.NewPatchSyntaxError("invalid patch document: trailing data")
	}
	return FromJSON(v)
}

// FromJSON builds a patch from a decoded JSON array of operation objects.
func FromJSON(v any) (Patch, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, types.NewPatchSyntaxError("patch must be a JSON array of operations")
	}
	patch := make(Patch, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, types.NewPatchSyntaxError("operation %d: must be an object", i)
		}
		op, ok := obj["op"].(string)
		if !ok {
			return nil, types.NewPatchSyntaxError("operation %d: missing or invalid \"op\"", i)
		}
		path, ok := obj["path"].(string)
		if !ok {
			return nil, types.NewPatchSyntaxError("operation %d: missing or invalid \"path\"", i)
		}
		o := Operation{Op: op, Path: path}
		switch op {
		case OpAdd, OpReplace:
			value, ok := obj["value"]
			if !ok {
				return nil, types.NewPatchSyntaxError("operation %d: %s requires a \"value\"", i, op)
			}
			o.Value = value
		case OpRemove:
		default:
			return nil, types.NewPatchSyntaxError("operation %d: unsupported op %q", i, op)
		}
		if _, err := ParsePointer(path); err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
		patch = append(patch, o)
	}
	return patch, nil
}

// Apply applies the patch to a copy of doc and returns the result. Numbers
// come back as json.Number.
func (p Patch) Apply(doc any) (any, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, types.NewPatchSyntaxError("document is not valid JSON: %v", err)
	}
	for i, op := range p {
		data, err = op.apply(data)
		if err != nil {
			return nil, fmt.Errorf("operation %d (%s %s): %w", i, op.Op, op.Path, err)
		}
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode patched document: %w", err)
	}
	return out, nil
}

func (o Operation) apply(doc []byte) ([]byte, error) {
	if _, err := ParsePointer(o.Path); err != nil {
		return nil, err
	}
	switch o.Op {
	case OpAdd, OpReplace:
		if o.Path == "" {
			return marshalValue(o.Value)
		}
	case OpRemove:
		if o.Path == "" {
			return nil, types.NewPatchSyntaxError("cannot remove the document root")
		}
	default:
		return nil, types.NewPatchSyntaxError("unsupported op %q", o.Op)
	}

	raw := map[string]any{"op": o.Op, "path": o.Path}
	if o.Op != OpRemove {
		raw["value"] = o.Value
	}
	encoded, err := json.Marshal([]any{raw})
	if err != nil {
		return nil, types.NewPatchSyntaxError("invalid value: %v", err)
	}
	patch, err := jsonpatchv5.DecodePatch(encoded)
	if err != nil {
		return nil, types.NewPatchSyntaxError("%v", err)
	}
	out, err := patch.ApplyWithOptions(doc, applyOptions)
	if err != nil {
		if errors.Is(err, jsonpatchv5.ErrMissing) || errors.Is(err, jsonpatchv5.ErrInvalidIndex) {
			return nil, types.NewPathNotFoundError("path %s does not exist: %v", o.Path, err)
		}
		return nil, types.NewPatchSyntaxError("%v", err)
	}
	return out, nil
}

var applyOptions = func() *jsonpatchv5.ApplyOptions {
	opts := jsonpatchv5.NewApplyOptions()
	opts.SupportNegativeIndices = false
	opts.EnsurePathExistsOnAdd = false
	opts.AllowMissingPathOnRemove = false
	return opts
}()

func marshalValue(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, types.NewPatchSyntaxError("invalid value: %v", err)
	}
	return data, nil
}
