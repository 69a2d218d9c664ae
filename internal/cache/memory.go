package cache

import (
	"context"
	"sync"
)

// Memory is an in-process Store.
type Memory struct {
	mu   sync.RWMutex
	data map[string]uint64
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]uint64)}
}

func (m *Memory) Get(_ context.Context, key string) (uint64, bool, error) {
	m.mu.RLock()
	v, ok := m.data[key]
	m.mu.RUnlock()
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key string, block uint64) error {
	m.mu.Lock()
	m.data[key] = block
	m.mu.Unlock()
	return nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
