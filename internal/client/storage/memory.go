package storage

import (
	"context"
	"sync"
)

// MemoryKV is an in-process KV. Safe for concurrent use.
type MemoryKV struct {
	mu     sync.RWMutex
	data   map[string]string
	used   int64
	quota  int64
	closed bool
}

func NewMemoryKV(quota int64) *MemoryKV {
	if quota <= 0 {
		quota = DefaultQuota
	}
	return &MemoryKV{data: make(map[string]string), quota: quota}
}

func (m *MemoryKV) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return "", false, ErrClosed
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	used := m.used + entrySize(key, value)
	if old, ok := m.data[key]; ok {
		used -= entrySize(key, old)
	}
	if used > m.quota {
		return ErrQuotaExceeded
	}

	m.data[key] = value
	m.used = used
	return nil
}

func (m *MemoryKV) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if old, ok := m.data[key]; ok {
		m.used -= entrySize(key, old)
		delete(m.data, key)
	}
	return nil
}

func (m *MemoryKV) Keys(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys, nil
}

func (m *MemoryKV) Quota() int64 { return m.quota }

func (m *MemoryKV) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
