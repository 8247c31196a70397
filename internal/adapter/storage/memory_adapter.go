package storage

import (
	"context"
	"sync"

	"github.com/rl1809/storefront/internal/port"
)

// MemoryAdapter keeps every browser namespace in process memory. State is
// lost on restart.
type MemoryAdapter struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{data: make(map[string]map[string][]byte)}
}

func (m *MemoryAdapter) Storage(browserID string) port.BrowserStorage {
	return &memoryStorage{adapter: m, browserID: browserID}
}

type memoryStorage struct {
	adapter   *MemoryAdapter
	browserID string
}

func (s *memoryStorage) GetItem(ctx context.Context, key string) ([]byte, bool, error) {
	s.adapter.mu.RLock()
	defer s.adapter.mu.RUnlock()

	v, ok := s.adapter.data[s.browserID][key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *memoryStorage) SetItem(ctx context.Context, key string, value []byte) error {
	s.adapter.mu.Lock()
	defer s.adapter.mu.Unlock()

	ns, ok := s.adapter.data[s.browserID]
	if !ok {
		ns = make(map[string][]byte)
		s.adapter.data[s.browserID] = ns
	}
	ns[key] = append([]byte(nil), value...)
	return nil
}

func (s *memoryStorage) RemoveItem(ctx context.Context, key string) error {
	s.adapter.mu.Lock()
	defer s.adapter.mu.Unlock()

	delete(s.adapter.data[s.browserID], key)
	return nil
}
