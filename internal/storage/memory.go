package storage

import (
	"context"
	"sync"
)

// MemoryStore — хранилище в памяти. Используется в тестах и как
// последний резерв, когда ни одна долговременная реализация недоступна.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore создаёт пустое хранилище в памяти.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string][]byte),
	}
}

// Get возвращает копию значения по ключу.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}

	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Save сохраняет копию значения по ключу.
func (s *MemoryStore) Save(ctx context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = stored
	return nil
}

// Delete удаляет значение по ключу. Отсутствующий ключ не считается ошибкой.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}

// Close освобождает ресурсы хранилища.
func (s *MemoryStore) Close() error {
	return nil
}
