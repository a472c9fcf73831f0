// Package store provides access to the live configuration database of each
// namespace.
package store

import (
	"context"
	"errors"

	"github.com/rzbill/gcu/pkg/types"
)

var (
	// ErrNotFound is returned when a replace or remove targets a missing entry.
	ErrNotFound = errors.New("entry not found")

	// ErrAlreadyExists is returned when an add targets an existing entry.
	ErrAlreadyExists = errors.New("entry already exists")

	// ErrReferenceViolation is returned when a change would leave the
	// database with a dangling reference.
	ErrReferenceViolation = errors.New("reference violation")

	// ErrClosed is returned after the backing database was closed.
	ErrClosed = errors.New("store is closed")
)

// ConfigDB is the live configuration of one namespace.
type ConfigDB interface {
	// Namespace returns the namespace identifier ("" for the default one).
	Namespace() string

	// Read returns a snapshot of the whole configuration.
	Read(ctx context.Context) (types.Document, error)

	// Apply commits one change atomically.
	Apply(ctx context.Context, change types.Change) error
}

// Guard checks every write against the reference constraints of the schema.
// doc is the configuration before the write.
type Guard interface {
	CheckSet(doc types.Document, table, key string, entry types.Entry) error
	CheckDelete(doc types.Document, table, key string) error
}

// Options configure a ConfigDB accessor.
type Options struct {
	// Guard, when set, rejects writes that break a reference.
	Guard Guard
}

// Option mutates Options.
type Option func(*Options)

// WithGuard enables continuous reference enforcement.
func WithGuard(g Guard) Option {
	return func(o *Options) {
		o.Guard = g
	}
}

// ParseOptions applies opts over the zero Options.
func ParseOptions(opts ...Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
