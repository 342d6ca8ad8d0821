package memory

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/furnicart/internal/domain"
)

// recordStorageInMemory: простая in-memory реализация RecordStorage.
type recordStorageInMemory struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewRecordStorage возвращает in-memory хранилище записей для локальной разработки и тестов.
func NewRecordStorage() domain.RecordStorage {
	return &recordStorageInMemory{
		items: make(map[string][]byte),
	}
}

// Get возвращает копию записи или ErrRecordNotFound, если её нет.
func (s *recordStorageInMemory) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.items[key]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return append([]byte(nil), value...), nil
}

// Put перезаписывает запись целиком.
func (s *recordStorageInMemory) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Сохраняем копию, чтобы избежать непредсказуемых мутаций извне.
	s.items[key] = append([]byte(nil), value...)
	return nil
}

// Delete удаляет запись, если она есть.
func (s *recordStorageInMemory) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)
	return nil
}

var _ domain.RecordStorage = (*recordStorageInMemory)(nil)
