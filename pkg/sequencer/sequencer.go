// Package sequencer orders a change-set so that every intermediate state
// keeps the schema's references intact.
package sequencer

import (
	"github.com/rzbill/gcu/pkg/log"
	"github.com/rzbill/gcu/pkg/schema"
	"github.com/rzbill/gcu/pkg/types"
)

// Sequencer orders changes along the schema's reference graph.
type Sequencer struct {
	schema *schema.Schema
	logger log.Logger
}

// New creates a sequencer for the given schema.
func New(s *schema.Schema, logger log.Logger) *Sequencer {
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	return &Sequencer{schema: s, logger: logger.WithComponent("sequencer")}
}

// Sequence returns the changes in an order that can be applied one at a time
// to current without breaking a reference:
//
//   - an add or replace whose new fields reference entry E comes after the
//     add creating E;
//   - the remove of E comes after every remove or replace whose old fields
//     referenced E.
//
// Dependencies on entries the change-set does not touch are already
// satisfied by current. Changes keep their input order wherever the graph
// allows. A cycle fails with an UnresolvableDependencyError.
func (s *Sequencer) Sequence(changes []types.Change, current, target types.Document) ([]types.Change, error) {
	if len(changes) < 2 {
		return changes, nil
	}

	adds := make(map[types.EntryRef]string)
	removes := make(map[types.EntryRef]string)
	nodes := make([]string, len(changes))
	byNode := make(map[string]types.Change, len(changes))
	for i, c := range changes {
		id := c.String()
		nodes[i] = id
		byNode[id] = c
		switch c.Op {
		case types.OpAdd:
			adds[c.Ref()] = id
		case types.OpRemove:
			removes[c.Ref()] = id
		}
	}

	deps := make(map[string][]string)
	for i, c := range changes {
		id := nodes[i]
		if c.Op == types.OpAdd || c.Op == types.OpReplace {
			for _, ref := range s.schema.Dependencies(target, c.Table, c.Key, c.Fields) {
				if dep, ok := adds[ref]; ok {
					deps[id] = append(deps[id], dep)
				}
			}
		}
		if c.Op == types.OpRemove || c.Op == types.OpReplace {
			for _, ref := range s.schema.Dependencies(current, c.Table, c.Key, c.Old) {
				if rm, ok := removes[ref]; ok {
					deps[rm] = append(deps[rm], id)
				}
			}
		}
	}

	order, err := types.TopologicalOrder(nodes, deps)
	if err != nil {
		s.logger.Debug("Change-set cannot be ordered", log.Err(err))
		return nil, err
	}

	out := make([]types.Change, len(order))
	for i, id := range order {
		out[i] = byNode[id]
	}
	s.logger.Debug("Change-set ordered", log.Int("changes", len(out)))
	return out, nil
}
