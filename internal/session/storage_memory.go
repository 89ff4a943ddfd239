// internal/session/storage_memory.go
package session

import (
	"context"
	"sync"
)

// MemoryStorage keeps the token slot in process memory. Saves and clears
// notify watchers, which mirrors the storage-change event a second browser
// tab would observe.
type MemoryStorage struct {
	mu       sync.Mutex
	token    string
	watchers map[int]func()
	nextID   int
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{watchers: make(map[int]func())}
}

func (m *MemoryStorage) Load(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryStorage) Save(_ context.Context, token string) error {
	m.mu.Lock()
	changed := m.token != token
	m.token = token
	fns := m.watcherList()
	m.mu.Unlock()

	if changed {
		for _, fn := range fns {
			fn()
		}
	}
	return nil
}

func (m *MemoryStorage) Clear(_ context.Context) error {
	return m.Save(context.Background(), "")
}

// Watch registers a change callback. The callback runs on the goroutine
// performing the change, after the new value is visible.
func (m *MemoryStorage) Watch(fn func()) (cancel func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.watchers[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.watchers, id)
		m.mu.Unlock()
	}
}

// watcherList must be called with the lock held.
func (m *MemoryStorage) watcherList() []func() {
	fns := make([]func(), 0, len(m.watchers))
	for _, fn := range m.watchers {
		fns = append(fns, fn)
	}
	return fns
}
