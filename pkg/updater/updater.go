// Package updater applies patches, replacements and rollbacks to the live
// configuration of every namespace, keeping references intact at each step.
package updater

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rzbill/gcu/pkg/converter"
	"github.com/rzbill/gcu/pkg/log"
	"github.com/rzbill/gcu/pkg/metrics"
	"github.com/rzbill/gcu/pkg/schema"
	"github.com/rzbill/gcu/pkg/sequencer"
	"github.com/rzbill/gcu/pkg/store"
	"github.com/rzbill/gcu/pkg/types"
	"github.com/rzbill/gcu/pkg/validator"
)

// Operation names, used for logging and metrics.
const (
	OpApplyPatch       = "apply-patch"
	OpReplace          = "replace"
	OpRollback         = "rollback"
	OpCheckpoint       = "checkpoint"
	OpDeleteCheckpoint = "delete-checkpoint"
	OpListCheckpoints  = "list-checkpoints"
)

// Checkpoints persists named snapshots.
type Checkpoints interface {
	Save(name string, snapshot map[string]types.Document) error
	Get(name string) (*types.Checkpoint, error)
	Exists(name string) bool
	Delete(name string) error
	List() ([]string, error)
}

// Options are shared by every update operation. The zero value selects the
// ConfigDB format with every flag off and no ignore paths.
type Options struct {
	Format                types.ConfigFormat
	Verbose               bool
	DryRun                bool
	IgnoreNonSchemaTables bool

	// IgnorePaths are JSON pointers over the ConfigDB shape whose subtrees
	// keep their live value whatever the request says.
	IgnorePaths []string
}

// NamespaceResult describes what an operation did to one namespace.
type NamespaceResult struct {
	Namespace string
	// Changes are the changes in commit order.
	Changes []types.Change
	// Candidate is the configuration the namespace ends up with once every
	// change is committed.
	Candidate types.Document
	// Committed counts the changes written to the live store.
	Committed int
}

// Result lists the per-namespace outcomes in processing order.
type Result struct {
	Namespaces []NamespaceResult
	DryRun     bool
}

// Changed reports whether any namespace had changes to apply.
func (r *Result) Changed() bool {
	for _, ns := range r.Namespaces {
		if len(ns.Changes) > 0 {
			return true
		}
	}
	return false
}

// Candidates returns the candidate configuration: the document itself for a
// single namespace, else an object keyed by namespace name.
func (r *Result) Candidates() any {
	if len(r.Namespaces) == 1 && r.Namespaces[0].Namespace == "" {
		return r.Namespaces[0].Candidate.ToJSON()
	}
	out := make(map[string]any, len(r.Namespaces))
	for _, ns := range r.Namespaces {
		out[types.NamespaceName(ns.Namespace)] = ns.Candidate.ToJSON()
	}
	return out
}

// Updater orchestrates configuration updates over a fixed, ordered list of
// namespaces.
type Updater struct {
	dbs         []store.ConfigDB
	schema      *schema.Schema
	converter   *converter.Converter
	validator   *validator.Validator
	sequencer   *sequencer.Sequencer
	checkpoints Checkpoints
	metrics     *metrics.Metrics
	logger      log.Logger
}

// Option configures an Updater.
type Option func(*Updater)

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(u *Updater) {
		u.logger = logger
	}
}

// WithMetrics records operation metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(u *Updater) {
		u.metrics = m
	}
}

// New creates an updater. Namespaces are processed in the order of dbs.
func New(dbs []store.ConfigDB, s *schema.Schema, checkpoints Checkpoints, opts ...Option) (*Updater, error) {
	if len(dbs) == 0 {
		return nil, fmt.Errorf("at least one namespace is required")
	}
	if s == nil {
		return nil, fmt.Errorf("schema is required")
	}
	seen := make(map[string]bool, len(dbs))
	for _, db := range dbs {
		if seen[db.Namespace()] {
			return nil, fmt.Errorf("namespace %s is configured twice", types.NamespaceName(db.Namespace()))
		}
		seen[db.Namespace()] = true
	}

	u := &Updater{
		dbs:         dbs,
		schema:      s,
		converter:   converter.New(s),
		checkpoints: checkpoints,
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.logger == nil {
		u.logger = log.GetDefaultLogger()
	}
	u.logger = u.logger.WithComponent("updater")
	u.validator = validator.New(s, u.logger)
	u.sequencer = sequencer.New(s, u.logger)
	return u, nil
}

// Namespaces returns the namespaces in processing order.
func (u *Updater) Namespaces() []string {
	out := make([]string, len(u.dbs))
	for i, db := range u.dbs {
		out[i] = db.Namespace()
	}
	return out
}

// begin tags ctx with a request id and returns the operation logger, raising
// the log level to debug for verbose operations. The returned func restores
// the level and records metrics.
func (u *Updater) begin(ctx context.Context, op string, verbose bool) (context.Context, log.Logger, func(*error)) {
	started := time.Now()
	ctx = log.ContextWithFields(ctx, log.RequestID(uuid.NewString()), log.Operation(op))
	logger := u.logger.WithContext(ctx)

	prev := u.logger.GetLevel()
	if verbose && prev != log.DebugLevel {
		u.logger.SetLevel(log.DebugLevel)
	}
	logger.Debug("Operation started")

	return ctx, logger, func(errp *error) {
		var err error
		if errp != nil {
			err = *errp
		}
		if err != nil {
			logger.Debug("Operation failed", log.Err(err), log.Duration("took", time.Since(started)))
		} else {
			logger.Debug("Operation finished", log.Duration("took", time.Since(started)))
		}
		u.metrics.ObserveOperation(op, started, err)
		if u.logger.GetLevel() != prev {
			u.logger.SetLevel(prev)
		}
	}
}

// read returns the live document of every namespace.
func (u *Updater) read(ctx context.Context) (map[string]types.Document, error) {
	out := make(map[string]types.Document, len(u.dbs))
	for _, db := range u.dbs {
		doc, err := db.Read(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read namespace %s: %w", types.NamespaceName(db.Namespace()), err)
		}
		out[db.Namespace()] = doc
	}
	return out, nil
}

func (u *Updater) db(name string) (store.ConfigDB, bool) {
	ns := types.NamespaceFromName(name)
	for _, db := range u.dbs {
		if db.Namespace() == ns {
			return db, true
		}
	}
	return nil, false
}
