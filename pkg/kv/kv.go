// Package kv defines a small key-value store abstraction used for durable
// agent state such as the complaint book. Keys are hierarchical paths
// (Key{"complaints", "1234"}) flattened with a separator byte when stored.
//
// Two implementations are provided: Badger for on-disk persistence and
// Memory for tests.
package kv

import (
	"bytes"
	"context"
	"errors"
	"iter"
	"strconv"
	"strings"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("kv: not found")

// Key is a hierarchical path. Segments must not contain the separator.
type Key []string

func (k Key) String() string {
	return strings.Join(k, ":")
}

// Entry pairs a key with its raw value, as yielded by List and accepted
// by BatchSet.
type Entry struct {
	Key   Key
	Value []byte
}

// Store is the storage contract shared by Badger and Memory.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key Key) ([]byte, error)

	// Set writes a value, replacing any previous one.
	Set(ctx context.Context, key Key, value []byte) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key Key) error

	// List yields every entry under prefix in lexicographic order of
	// the flattened key.
	List(ctx context.Context, prefix Key) iter.Seq2[Entry, error]

	// BatchSet writes several entries in one atomic operation.
	BatchSet(ctx context.Context, entries []Entry) error

	// BatchDelete removes several keys in one atomic operation.
	BatchDelete(ctx context.Context, keys []Key) error

	Close() error
}

// DefaultSeparator joins key segments in the flattened representation.
const DefaultSeparator byte = ':'

// Options tunes how keys are flattened. The zero value (or nil) uses
// DefaultSeparator.
type Options struct {
	Separator byte
}

func (o *Options) sep() byte {
	if o != nil && o.Separator != 0 {
		return o.Separator
	}
	return DefaultSeparator
}

// flatten joins key segments with the separator byte. A segment that
// contains the separator would corrupt the keyspace, so it panics.
func (o *Options) flatten(k Key) []byte {
	sep := string(o.sep())
	for _, seg := range k {
		if strings.Contains(seg, sep) {
			panic("kv: key segment " + strconv.Quote(seg) + " contains separator")
		}
	}
	return []byte(strings.Join(k, sep))
}

// unflatten splits a stored key back into segments.
func (o *Options) unflatten(b []byte) Key {
	parts := bytes.Split(b, []byte{o.sep()})
	k := make(Key, len(parts))
	for i, p := range parts {
		k[i] = string(p)
	}
	return k
}
