package kv

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
)

// Badger persists entries in a BadgerDB v4 database.
type Badger struct {
	db   *badger.DB
	opts *Options
}

// BadgerOptions configures NewBadger.
type BadgerOptions struct {
	// Options controls key flattening. nil uses defaults.
	Options *Options

	// Dir holds the database files. Required unless InMemory is set.
	Dir string

	// InMemory skips disk persistence entirely. Mostly for tests that
	// want a real badger engine.
	InMemory bool

	// Logger replaces the default badger logger, which only surfaces
	// warnings and errors through slog.
	Logger badger.Logger
}

// NewBadger opens (creating if needed) a badger-backed store.
func NewBadger(bopts BadgerOptions) (*Badger, error) {
	if !bopts.InMemory && bopts.Dir == "" {
		return nil, errors.New("kv: BadgerOptions.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(bopts.Dir).WithInMemory(bopts.InMemory)
	logger := bopts.Logger
	if logger == nil {
		logger = slogBridge{}
	}
	db, err := badger.Open(dbOpts.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return &Badger{db: db, opts: bopts.Options}, nil
}

func (b *Badger) Get(_ context.Context, key Key) ([]byte, error) {
	var val []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.opts.flatten(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return val, err
}

func (b *Badger) Set(_ context.Context, key Key, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(b.opts.flatten(key), value)
	})
}

func (b *Badger) Delete(_ context.Context, key Key) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(b.opts.flatten(key))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	return err
}

func (b *Badger) List(_ context.Context, prefix Key) iter.Seq2[Entry, error] {
	// The trailing separator keeps "a:b" from matching "a:bc"; an empty
	// prefix scans the whole keyspace.
	var scan []byte
	if p := b.opts.flatten(prefix); len(p) > 0 {
		scan = append(p, b.opts.sep())
	}

	return func(yield func(Entry, error) bool) {
		err := b.db.View(func(txn *badger.Txn) error {
			iterOpts := badger.DefaultIteratorOptions
			iterOpts.Prefix = scan
			it := txn.NewIterator(iterOpts)
			defer it.Close()

			for it.Seek(scan); it.ValidForPrefix(scan); it.Next() {
				item := it.Item()
				val, err := item.ValueCopy(nil)
				if err != nil {
					if !yield(Entry{}, err) {
						return nil
					}
					continue
				}
				e := Entry{Key: b.opts.unflatten(item.KeyCopy(nil)), Value: val}
				if !yield(e, nil) {
					return nil
				}
			}
			return nil
		})
		if err != nil {
			yield(Entry{}, err)
		}
	}
}

func (b *Badger) BatchSet(_ context.Context, entries []Entry) error {
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for _, e := range entries {
		if err := wb.Set(b.opts.flatten(e.Key), e.Value); err != nil {
			return err
		}
	}
	return wb.Flush()
}

func (b *Badger) BatchDelete(_ context.Context, keys []Key) error {
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range keys {
		if err := wb.Delete(b.opts.flatten(key)); err != nil {
			return err
		}
	}
	return wb.Flush()
}

func (b *Badger) Close() error {
	return b.db.Close()
}

// slogBridge routes badger's warnings and errors to slog and drops the
// rest, which is far too chatty for a CLI.
type slogBridge struct{}

func (slogBridge) Errorf(f string, v ...interface{})   { slog.Error("badger: " + sprintf(f, v...)) }
func (slogBridge) Warningf(f string, v ...interface{}) { slog.Warn("badger: " + sprintf(f, v...)) }
func (slogBridge) Infof(string, ...interface{})        {}
func (slogBridge) Debugf(string, ...interface{})       {}

// badger appends its own newlines to log lines.
func sprintf(f string, v ...interface{}) string {
	return strings.TrimRight(fmt.Sprintf(f, v...), "\n")
}
