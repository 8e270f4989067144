package storage

import (
	"context"
	"sync"
)

// MemoryKV keeps records in process memory. Used by tests and the "memory" driver.
type MemoryKV struct {
	mu      sync.RWMutex
	records map[string]map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{records: make(map[string]map[string][]byte)}
}

func (m *MemoryKV) Get(_ context.Context, playerID, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.records[playerID][key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (m *MemoryKV) PutAll(_ context.Context, playerID string, records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	player := m.records[playerID]
	if player == nil {
		player = make(map[string][]byte, len(records))
		m.records[playerID] = player
	}
	for _, r := range records {
		player[r.Key] = append([]byte(nil), r.Value...)
	}
	return nil
}

func (m *MemoryKV) Close() error { return nil }
