package storage

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.RecordStorage = (*MemRecords)(nil)

type recordKey struct {
	owner, name string
}

// MemRecords is a process-local RecordStorage.
type MemRecords struct {
	mu      sync.RWMutex
	records map[recordKey][]byte
}

func NewMemRecords() *MemRecords {
	return &MemRecords{records: make(map[recordKey][]byte)}
}

func (m *MemRecords) LoadRecord(_ context.Context, owner, name string) ([]byte, error) {
	const op = "MemRecords.LoadRecord"

	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.records[recordKey{owner, name}]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrRecordNotFound)
	}
	return slices.Clone(v), nil
}

func (m *MemRecords) SaveRecord(_ context.Context, owner, name string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[recordKey{owner, name}] = slices.Clone(value)
	return nil
}

func (m *MemRecords) DeleteRecords(_ context.Context, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.records {
		if k.owner == owner {
			delete(m.records, k)
		}
	}
	return nil
}
