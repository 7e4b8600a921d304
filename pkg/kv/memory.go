package kv

import (
	"bytes"
	"context"
	"iter"
	"maps"
	"slices"
	"strings"
	"sync"
)

// Memory is a map-backed Store for tests. Safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
	opts *Options
}

// NewMemory creates an empty in-memory store. opts may be nil.
func NewMemory(opts *Options) *Memory {
	return &Memory{data: make(map[string][]byte), opts: opts}
}

func (m *Memory) Get(_ context.Context, key Key) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[string(m.opts.flatten(key))]
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(v), nil
}

func (m *Memory) Set(_ context.Context, key Key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[string(m.opts.flatten(key))] = bytes.Clone(value)
	return nil
}

func (m *Memory) Delete(_ context.Context, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, string(m.opts.flatten(key)))
	return nil
}

func (m *Memory) List(_ context.Context, prefix Key) iter.Seq2[Entry, error] {
	// Empty prefix scans everything; otherwise the trailing separator
	// keeps "a:b" from matching "a:bc".
	var want string
	if p := m.opts.flatten(prefix); len(p) > 0 {
		want = string(p) + string(m.opts.sep())
	}

	m.mu.RLock()
	keys := slices.Sorted(maps.Keys(m.data))
	snapshot := make(map[string][]byte, len(m.data))
	for k, v := range m.data {
		snapshot[k] = bytes.Clone(v)
	}
	m.mu.RUnlock()

	return func(yield func(Entry, error) bool) {
		for _, k := range keys {
			if want != "" && !strings.HasPrefix(k, want) {
				continue
			}
			e := Entry{Key: m.opts.unflatten([]byte(k)), Value: snapshot[k]}
			if !yield(e, nil) {
				return
			}
		}
	}
}

func (m *Memory) BatchSet(_ context.Context, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		m.data[string(m.opts.flatten(e.Key))] = bytes.Clone(e.Value)
	}
	return nil
}

func (m *Memory) BatchDelete(_ context.Context, keys []Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, string(m.opts.flatten(key)))
	}
	return nil
}

func (m *Memory) Close() error { return nil }
