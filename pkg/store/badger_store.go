package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/rzbill/gcu/pkg/log"
	"github.com/rzbill/gcu/pkg/types"
)

// BadgerStore holds the ConfigDB of every namespace in one BadgerDB.
// Entries are stored under <namespace>/<TABLE>/<KEY> as JSON objects.
type BadgerStore struct {
	db     *badger.DB
	path   string
	logger log.Logger

	// writeMu serializes writes so the reference check and the write see
	// the same state.
	writeMu sync.Mutex
}

// NewBadgerStore creates a new BadgerDB-backed store.
func NewBadgerStore(logger log.Logger) *BadgerStore {
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	return &BadgerStore{logger: logger.WithComponent("store")}
}

// Open opens the BadgerDB database at path. An empty path opens an
// in-memory database.
func (s *BadgerStore) Open(path string) error {
	s.path = path

	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = &badgerLogAdapter{logger: s.logger}

	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("failed to open badger db: %w", err)
	}
	s.db = db

	s.logger.Debug("ConfigDB store opened", log.Str("path", path))
	return nil
}

// Close closes the BadgerDB database.
func (s *BadgerStore) Close() error {
	if s.db == nil {
		return nil
	}
	s.logger.Debug("Closing ConfigDB store", log.Str("path", s.path))
	err := s.db.Close()
	s.db = nil
	return err
}

// ConfigDB returns the accessor for one namespace.
func (s *BadgerStore) ConfigDB(namespace string, opts ...Option) ConfigDB {
	return &badgerConfigDB{store: s, namespace: namespace, opts: ParseOptions(opts...)}
}

// Namespaces returns the namespaces holding at least one entry.
func (s *BadgerStore) Namespaces(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	seen := map[string]bool{}
	var out []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			ns, _, _, ok := ParseKey(it.Item().Key())
			if ok && !seen[ns] {
				seen[ns] = true
				out = append(out, ns)
			}
		}
		return nil
	})
	return out, err
}

func (s *BadgerStore) read(txn *badger.Txn, namespace string) (types.Document, error) {
	doc := types.Document{}
	prefix := MakePrefix(namespace)

	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		_, table, key, ok := ParseKey(item.KeyCopy(nil))
		if !ok {
			s.logger.Warn("Skipping malformed key", log.Str("key", string(item.Key())))
			continue
		}
		var raw map[string]any
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &raw)
		}); err != nil {
			return nil, fmt.Errorf("failed to deserialize %s|%s: %w", table, key, err)
		}
		entry, err := types.EntryFromJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s|%s: %w", table, key, err)
		}
		doc.Set(table, key, entry)
	}
	return doc, nil
}

// badgerConfigDB is the ConfigDB view of one namespace.
type badgerConfigDB struct {
	store     *BadgerStore
	namespace string
	opts      Options
}

var _ ConfigDB = &badgerConfigDB{}

func (c *badgerConfigDB) Namespace() string {
	return c.namespace
}

func (c *badgerConfigDB) Read(ctx context.Context) (types.Document, error) {
	if c.store.db == nil {
		return nil, ErrClosed
	}
	var doc types.Document
	err := c.store.db.View(func(txn *badger.Txn) error {
		var err error
		doc, err = c.store.read(txn, c.namespace)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (c *badgerConfigDB) Apply(ctx context.Context, change types.Change) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.store.db == nil {
		return ErrClosed
	}
	change.Fields = normalizeFields(change)

	c.store.writeMu.Lock()
	defer c.store.writeMu.Unlock()

	txn := c.store.db.NewTransaction(true)
	defer txn.Discard()

	// the whole namespace is only needed for the reference check
	doc := types.Document{}
	if c.opts.Guard != nil {
		var err error
		if doc, err = c.store.read(txn, c.namespace); err != nil {
			return err
		}
	} else {
		exists, err := keyExists(txn, MakeKey(c.namespace, change.Table, change.Key))
		if err != nil {
			return err
		}
		if exists {
			doc.Set(change.Table, change.Key, types.Entry{})
		}
	}
	if err := check(doc, c.opts.Guard, change); err != nil {
		return err
	}

	key := MakeKey(c.namespace, change.Table, change.Key)
	if change.Op == types.OpRemove {
		if err := txn.Delete(key); err != nil {
			return fmt.Errorf("failed to delete entry: %w", err)
		}
	} else {
		data, err := json.Marshal(change.Fields)
		if err != nil {
			return fmt.Errorf("failed to serialize entry: %w", err)
		}
		if err := txn.Set(key, data); err != nil {
			return fmt.Errorf("failed to store entry: %w", err)
		}
	}

	if err := txn.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	c.store.logger.Debug("Change committed",
		log.Namespace(c.namespace),
		log.Str("change", change.String()))
	return nil
}

func keyExists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check existing entry: %w", err)
	}
	return true, nil
}

// badgerLogAdapter adapts our logger to BadgerDB's logger interface.
type badgerLogAdapter struct {
	logger log.Logger
}

// Errorf implements badger.Logger.
func (l *badgerLogAdapter) Errorf(format string, args ...interface{}) {
	l.logger.Errorf("BadgerDB: "+format, args...)
}

// Warningf implements badger.Logger.
func (l *badgerLogAdapter) Warningf(format string, args ...interface{}) {
	l.logger.Warnf("BadgerDB: "+format, args...)
}

// Infof implements badger.Logger.
func (l *badgerLogAdapter) Infof(format string, args ...interface{}) {
	l.logger.Debugf("BadgerDB: "+format, args...)
}

// Debugf implements badger.Logger.
func (l *badgerLogAdapter) Debugf(format string, args ...interface{}) {
	l.logger.Debugf("BadgerDB: "+format, args...)
}
