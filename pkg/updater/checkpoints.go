package updater

import (
	"context"
	"fmt"

	"github.com/rzbill/gcu/pkg/log"
	"github.com/rzbill/gcu/pkg/types"
)

// Checkpoint saves the live configuration of every namespace under name,
// replacing any checkpoint of the same name.
func (u *Updater) Checkpoint(ctx context.Context, name string, verbose bool) (err error) {
	ctx, logger, done := u.begin(ctx, OpCheckpoint, verbose)
	defer func() { done(&err) }()

	snapshot, err := u.read(ctx)
	if err != nil {
		return err
	}
	replaced := u.checkpoints.Exists(name)
	if err := u.checkpoints.Save(name, snapshot); err != nil {
		return err
	}
	logger.Info("Checkpoint saved",
		log.Str("checkpoint", name), log.Int("namespaces", len(snapshot)), log.Bool("replaced", replaced))
	u.recordCheckpoints(logger)
	return nil
}

// DeleteCheckpoint removes the named checkpoint.
func (u *Updater) DeleteCheckpoint(ctx context.Context, name string, verbose bool) (err error) {
	_, logger, done := u.begin(ctx, OpDeleteCheckpoint, verbose)
	defer func() { done(&err) }()

	if err := u.checkpoints.Delete(name); err != nil {
		return err
	}
	logger.Info("Checkpoint deleted", log.Str("checkpoint", name))
	u.recordCheckpoints(logger)
	return nil
}

// ListCheckpoints returns the checkpoint names in sorted order.
func (u *Updater) ListCheckpoints(ctx context.Context, verbose bool) (names []string, err error) {
	_, logger, done := u.begin(ctx, OpListCheckpoints, verbose)
	defer func() { done(&err) }()

	names, err = u.checkpoints.List()
	if err != nil {
		return nil, err
	}
	logger.Debug("Listed checkpoints", log.Int("count", len(names)))
	u.metrics.SetCheckpoints(len(names))
	return names, nil
}

func (u *Updater) recordCheckpoints(logger log.Logger) {
	if u.metrics == nil {
		return
	}
	names, err := u.checkpoints.List()
	if err != nil {
		logger.Warn("Failed to count checkpoints", log.Err(err))
		return
	}
	u.metrics.SetCheckpoints(len(names))
}

// ShowConfig returns the live configuration of one namespace, or of all of
// them keyed by namespace name when ns is empty and several are configured.
func (u *Updater) ShowConfig(ctx context.Context, ns string, format types.ConfigFormat) (any, error) {
	docs, err := u.read(ctx)
	if err != nil {
		return nil, err
	}

	render := func(doc types.Document) (any, error) {
		if format != types.FormatSonicYang {
			return doc.ToJSON(), nil
		}
		known, _ := u.converter.Split(doc)
		return u.converter.ToSchemaTree(known)
	}

	if ns != "" || len(u.dbs) == 1 {
		db, ok := u.db(ns)
		if !ok && ns == "" {
			db, ok = u.dbs[0], true
		}
		if !ok {
			return nil, fmt.Errorf("namespace %s is not configured", ns)
		}
		return render(docs[db.Namespace()])
	}

	out := make(map[string]any, len(u.dbs))
	for _, db := range u.dbs {
		v, err := render(docs[db.Namespace()])
		if err != nil {
			return nil, err
		}
		out[types.NamespaceName(db.Namespace())] = v
	}
	return out, nil
}
