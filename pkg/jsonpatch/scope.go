package jsonpatch

import (
	"github.com/rzbill/gcu/pkg/types"
)

// Scope splits a patch across namespaces. An operation whose first path
// token names one of the namespaces (localhost for the default one, asicN for
// the others) goes to that namespace with the token stripped; every other
// operation goes to all namespaces. With a single namespace the patch is
// returned unchanged.
func Scope(p Patch, namespaces []string) (map[string]Patch, error) {
	out := make(map[string]Patch, len(namespaces))
	for _, ns := range namespaces {
		out[ns] = Patch{}
	}
	if len(namespaces) == 1 {
		out[namespaces[0]] = append(Patch{}, p...)
		return out, nil
	}

	byName := make(map[string]string, len(namespaces))
	for _, ns := range namespaces {
		byName[types.NamespaceName(ns)] = ns
	}

	for _, op := range p {
		ptr, err := ParsePointer(op.Path)
		if err != nil {
			return nil, err
		}
		if len(ptr) > 0 {
			if ns, ok := byName[ptr[0]]; ok {
				scoped := op
				scoped.Path = ptr[1:].String()
				out[ns] = append(out[ns], scoped)
				continue
			}
			if types.IsNamespaceName(ptr[0]) {
				return nil, types.NewPathNotFoundError("namespace %s does not exist", ptr[0])
			}
		}
		for _, ns := range namespaces {
			out[ns] = append(out[ns], op)
		}
	}
	return out, nil
}
