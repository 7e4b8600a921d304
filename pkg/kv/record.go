package kv

import (
	"context"

	"github.com/vmihailenco/msgpack/v5"
)

// PutRecord encodes v with msgpack and stores it under key.
func PutRecord(ctx context.Context, s Store, key Key, v any) error {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, b)
}

// GetRecord retrieves the value for key and decodes it into v.
// Returns ErrNotFound if the key does not exist.
func GetRecord(ctx context.Context, s Store, key Key, v any) error {
	b, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	return msgpack.Unmarshal(b, v)
}

// Records iterates over all entries under prefix, decoding each value into a
// fresh T. Decoding errors abort the iteration.
func Records[T any](ctx context.Context, s Store, prefix Key) func(yield func(Key, T, error) bool) {
	return func(yield func(Key, T, error) bool) {
		for entry, err := range s.List(ctx, prefix) {
			var v T
			if err == nil {
				err = msgpack.Unmarshal(entry.Value, &v)
			}
			if !yield(entry.Key, v, err) {
				return
			}
		}
	}
}
