package storage

import (
	"context"
	"sync"

	"github.com/yourusername/productsync/internal/domain/entity"
	"github.com/yourusername/productsync/internal/domain/repository"
)

type memoryKeyValueStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryKeyValueStore in-memory key-value store; contents are lost on exit
func NewMemoryKeyValueStore() repository.KeyValueStore {
	return &memoryKeyValueStore{
		values: make(map[string]string),
	}
}

func (m *memoryKeyValueStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, exists := m.values[key]
	if !exists {
		return "", entity.ErrKeyNotFound
	}
	return value, nil
}

func (m *memoryKeyValueStore) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	return nil
}

func (m *memoryKeyValueStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}

func (m *memoryKeyValueStore) Close() error {
	return nil
}
