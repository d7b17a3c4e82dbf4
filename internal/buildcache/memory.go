package buildcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Memory is an in-process Cache.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemory returns an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]Entry)}
}

// Set stores a copy of entry under key, replacing any previous entry.
func (m *Memory) Set(_ context.Context, key string, entry Entry) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("cache key required")
	}
	entry.Key = key
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = time.Now().UTC()
	}
	copied, err := clone(entry)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = copied
	return nil
}

// Get returns a copy of the entry for key or ErrNotFound.
func (m *Memory) Get(_ context.Context, key string) (Entry, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return clone(entry)
}

// List returns copies of every entry ordered by key.
func (m *Memory) List(_ context.Context) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]Entry, 0, len(m.entries))
	for _, entry := range m.entries {
		copied, err := clone(entry)
		if err != nil {
			return nil, err
		}
		entries = append(entries, copied)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// Delete removes the entry for key or returns ErrNotFound.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	delete(m.entries, key)
	return nil
}

// Clear removes every entry.
func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]Entry)
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

func clone(entry Entry) (Entry, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return Entry{}, fmt.Errorf("copy cache entry: %w", err)
	}
	var out Entry
	if err := json.Unmarshal(data, &out); err != nil {
		return Entry{}, fmt.Errorf("copy cache entry: %w", err)
	}
	return out, nil
}

var _ Cache = (*Memory)(nil)
