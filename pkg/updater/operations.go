package updater

import (
	"context"
	"fmt"
	"time"

	"github.com/rzbill/gcu/pkg/converter"
	"github.com/rzbill/gcu/pkg/differ"
	"github.com/rzbill/gcu/pkg/jsonpatch"
	"github.com/rzbill/gcu/pkg/log"
	"github.com/rzbill/gcu/pkg/store"
	"github.com/rzbill/gcu/pkg/types"
	"github.com/rzbill/gcu/pkg/validator"
)

// namespacePlan is the prepared update of one namespace.
type namespacePlan struct {
	db     store.ConfigDB
	result NamespaceResult
}

// ApplyPatch applies a JSON patch to every namespace. Operations whose first
// path token names a namespace only apply to that namespace.
func (u *Updater) ApplyPatch(ctx context.Context, patch jsonpatch.Patch, opts Options) (result *Result, err error) {
	ctx, logger, done := u.begin(ctx, OpApplyPatch, opts.Verbose)
	defer func() { done(&err) }()

	ignore, err := parseIgnorePaths(opts.IgnorePaths)
	if err != nil {
		return nil, err
	}
	patches, err := jsonpatch.Scope(patch, u.Namespaces())
	if err != nil {
		return nil, err
	}
	logger.Info("Applying patch", log.Int("operations", len(patch)), log.Str("format", opts.Format.String()))

	current, err := u.read(ctx)
	if err != nil {
		return nil, err
	}
	targets := make(map[string]types.Document, len(u.dbs))
	for _, db := range u.dbs {
		ns := db.Namespace()
		target, err := u.patched(current[ns], patches[ns], opts.Format)
		if err != nil {
			return nil, u.scoped(ns, err)
		}
		targets[ns] = target
	}
	return u.update(ctx, logger, current, targets, ignore, opts)
}

// patched returns the document the patch turns current into. In the
// SONICYANG format the patch applies to the schema tree of the tables a
// module describes; the other tables are carried over untouched.
func (u *Updater) patched(current types.Document, patch jsonpatch.Patch, format types.ConfigFormat) (types.Document, error) {
	if len(patch) == 0 {
		return current.Clone(), nil
	}
	switch format {
	case types.FormatSonicYang:
		known, unknown := u.converter.Split(current)
		tree, err := u.converter.ToSchemaTree(known)
		if err != nil {
			return nil, err
		}
		out, err := patch.Apply(tree)
		if err != nil {
			return nil, err
		}
		doc, err := u.converter.ToConfigDocument(out)
		if err != nil {
			return nil, err
		}
		return converter.Merge(unknown, doc), nil
	default:
		out, err := patch.Apply(current.ToJSON())
		if err != nil {
			return nil, err
		}
		return types.DocumentFromJSON(out)
	}
}

// Replace makes target the configuration of every namespace. With several
// namespaces, a target keyed by namespace names (localhost, asicN) gives each
// namespace its own document; any other target applies to all of them.
func (u *Updater) Replace(ctx context.Context, target any, opts Options) (result *Result, err error) {
	ctx, logger, done := u.begin(ctx, OpReplace, opts.Verbose)
	defer func() { done(&err) }()
	logger.Info("Replacing config", log.Str("format", opts.Format.String()))

	ignore, err := parseIgnorePaths(opts.IgnorePaths)
	if err != nil {
		return nil, err
	}
	routed, err := u.route(target)
	if err != nil {
		return nil, err
	}

	current, err := u.read(ctx)
	if err != nil {
		return nil, err
	}
	targets := make(map[string]types.Document, len(u.dbs))
	for _, db := range u.dbs {
		ns := db.Namespace()
		doc, err := u.targetDocument(current[ns], routed[ns], opts.Format)
		if err != nil {
			return nil, u.scoped(ns, err)
		}
		targets[ns] = doc
	}
	return u.update(ctx, logger, current, targets, ignore, opts)
}

// route splits a target across namespaces.
func (u *Updater) route(target any) (map[string]any, error) {
	out := make(map[string]any, len(u.dbs))
	obj, ok := target.(map[string]any)
	if len(u.dbs) == 1 || !ok || len(obj) == 0 || !allNamespaceNames(obj) {
		for _, db := range u.dbs {
			out[db.Namespace()] = target
		}
		return out, nil
	}

	for name, v := range obj {
		if _, ok := u.db(name); !ok {
			return nil, types.NewPathNotFoundError("namespace %s does not exist", name)
		}
		out[types.NamespaceFromName(name)] = v
	}
	for _, db := range u.dbs {
		if _, ok := out[db.Namespace()]; !ok {
			return nil, types.NewPathNotFoundError("target has no config for namespace %s", types.NamespaceName(db.Namespace()))
		}
	}
	return out, nil
}

func allNamespaceNames(obj map[string]any) bool {
	for name := range obj {
		if !types.IsNamespaceName(name) {
			return false
		}
	}
	return true
}

// targetDocument converts a target to a ConfigDB document. A SONICYANG target
// only covers the tables a module describes, so the other tables of current
// are kept.
func (u *Updater) targetDocument(current types.Document, target any, format types.ConfigFormat) (types.Document, error) {
	switch format {
	case types.FormatSonicYang:
		doc, err := u.converter.ToConfigDocument(target)
		if err != nil {
			return nil, err
		}
		_, unknown := u.converter.Split(current)
		return converter.Merge(unknown, doc), nil
	default:
		return types.DocumentFromJSON(target)
	}
}

// Rollback restores every namespace to the named checkpoint.
func (u *Updater) Rollback(ctx context.Context, name string, opts Options) (result *Result, err error) {
	ctx, logger, done := u.begin(ctx, OpRollback, opts.Verbose)
	defer func() { done(&err) }()
	logger = logger.With(log.Str("checkpoint", name))
	logger.Info("Rolling back config")

	cp, err := u.checkpoints.Get(name)
	if err != nil {
		return nil, err
	}
	logger.Info("Checkpoint loaded",
		log.Str("created_at", cp.CreatedAt.Format(time.RFC3339)),
		log.Strs("namespaces", cp.Namespaces()))

	current, err := u.read(ctx)
	if err != nil {
		return nil, err
	}
	targets := make(map[string]types.Document, len(u.dbs))
	for _, db := range u.dbs {
		doc, ok := cp.Snapshot[db.Namespace()]
		if !ok {
			return nil, types.NewCheckpointIOError(nil, "checkpoint %s has no config for namespace %s", name, types.NamespaceName(db.Namespace()))
		}
		targets[db.Namespace()] = doc
	}

	ignore, err := parseIgnorePaths(opts.IgnorePaths)
	if err != nil {
		return nil, err
	}
	opts.Format = types.FormatConfigDB
	return u.update(ctx, logger, current, targets, ignore, opts)
}

// update diffs, orders and validates the changes of every namespace before
// committing any of them, then commits namespace by namespace.
func (u *Updater) update(ctx context.Context, logger log.Logger, current, targets map[string]types.Document, ignore []jsonpatch.Pointer, opts Options) (*Result, error) {
	plans := make([]*namespacePlan, 0, len(u.dbs))
	for _, db := range u.dbs {
		p, err := u.plan(logger, db, current[db.Namespace()], targets[db.Namespace()], ignore, opts)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}

	result := &Result{DryRun: opts.DryRun}
	for _, p := range plans {
		result.Namespaces = append(result.Namespaces, p.result)
	}
	if opts.DryRun {
		logger.Info("Dry run, nothing committed")
		return result, nil
	}

	for i, p := range plans {
		committed, err := u.commit(ctx, logger, p)
		result.Namespaces[i].Committed = committed
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

func (u *Updater) plan(logger log.Logger, db store.ConfigDB, current, target types.Document, ignore []jsonpatch.Pointer, opts Options) (*namespacePlan, error) {
	ns := db.Namespace()
	logger = logger.With(log.Namespace(ns))

	changes := differ.Diff(current, target, ignore)
	u.metrics.ChangesPlanned(ns, len(changes))
	p := &namespacePlan{
		db:     db,
		result: NamespaceResult{Namespace: ns, Candidate: current.Clone()},
	}
	if len(changes) == 0 {
		logger.Info("No changes to apply")
		return p, nil
	}

	candidate := differ.Apply(current, changes)
	ordered, err := u.sequencer.Sequence(changes, current, candidate)
	if err != nil {
		return nil, u.scoped(ns, err)
	}
	if err := u.validator.Validate(candidate, validator.Options{
		IgnoreNonSchemaTables: opts.IgnoreNonSchemaTables,
		IgnorePaths:           ignore,
	}); err != nil {
		return nil, u.scoped(ns, err)
	}

	for _, c := range ordered {
		logger.Debug("Planned change", log.Str("change", c.String()))
	}
	logger.Info("Changes planned", log.Int("changes", len(ordered)))
	p.result.Changes = ordered
	p.result.Candidate = candidate
	return p, nil
}

// commit writes the planned changes in order. Changes committed before a
// failure stay applied.
func (u *Updater) commit(ctx context.Context, logger log.Logger, p *namespacePlan) (int, error) {
	ns := p.db.Namespace()
	for i, c := range p.result.Changes {
		if err := p.db.Apply(ctx, c); err != nil {
			logger.Error("Commit failed",
				log.Namespace(ns), log.Str("change", c.String()), log.Int("committed", i), log.Err(err))
			return i, types.NewStoreCommitError(ns, i, c, err)
		}
		u.metrics.ChangeCommitted(ns, c)
	}
	if n := len(p.result.Changes); n > 0 {
		logger.Info("Changes committed", log.Namespace(ns), log.Int("changes", n))
	}
	return len(p.result.Changes), nil
}

// scoped prefixes err with the namespace when several are configured.
func (u *Updater) scoped(ns string, err error) error {
	if len(u.dbs) == 1 {
		return err
	}
	return fmt.Errorf("namespace %s: %w", types.NamespaceName(ns), err)
}

func parseIgnorePaths(paths []string) ([]jsonpatch.Pointer, error) {
	ignore, err := differ.ParseIgnorePaths(paths)
	if err != nil {
		return nil, fmt.Errorf("invalid ignore path: %w", err)
	}
	return ignore, nil
}
