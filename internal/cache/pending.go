package cache

import (
	"context"
	"sync"
	"time"

	"palsanalytix/internal/models"
)

// PendingStore — TTL-хранилище незавершённых регистраций.
// Повторный Put по тому же ключу перезаписывает старую запись.
type PendingStore interface {
	Put(ctx context.Context, key string, value *models.PendingSignup, ttl time.Duration) error
	Get(ctx context.Context, key string) (*models.PendingSignup, bool, error)
	Delete(ctx context.Context, key string) error
}

// MemoryStore держит pending-регистрации в памяти процесса.
// Известное ограничение: при нескольких инстансах сервиса регистрация,
// начатая на одном, не подтвердится на другом — для этого есть RedisStore.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     *models.PendingSignup
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{entries: make(map[string]memoryEntry)}
	go s.reap()
	return s
}

func (s *MemoryStore) Put(_ context.Context, key string, value *models.PendingSignup, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{value: value, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (*models.PendingSignup, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(e.expiresAt) {
		delete(s.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// reap — фоновая чистка просроченных записей; основная проверка срока
// всё равно выполняется при Get.
func (s *MemoryStore) reap() {
	t := time.NewTicker(1 * time.Minute)
	defer t.Stop()
	for range t.C {
		now := time.Now()
		s.mu.Lock()
		for k, e := range s.entries {
			if now.After(e.expiresAt) {
				delete(s.entries, k)
			}
		}
		s.mu.Unlock()
	}
}
