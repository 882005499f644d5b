// Package storage defines the local key-value port the checkout flow persists
// its state through. The contract mirrors browser local storage: synchronous,
// single-writer, last-write-wins, with an external-change hook so another view
// of the same store can refresh itself (a full overwrite, never a merge).
package storage

import "sync"

// Store is the persistence port for cart, shipping and reconciliation state.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}

// Watcher is a Store that notifies listeners after an external write.
type Watcher interface {
	Store
	Watch(fn func(key string))
}

// Memory is an in-process Store. It is safe for concurrent use, though the
// checkout flow itself is single-writer.
type Memory struct {
	mu       sync.Mutex
	values   map[string]string
	watchers []func(key string)
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.values[key]
	return value, ok
}

func (m *Memory) Set(key, value string) {
	m.mu.Lock()
	m.values[key] = value
	watchers := append([]func(string){}, m.watchers...)
	m.mu.Unlock()

	for _, fn := range watchers {
		fn(key)
	}
}

func (m *Memory) Delete(key string) {
	m.mu.Lock()
	delete(m.values, key)
	watchers := append([]func(string){}, m.watchers...)
	m.mu.Unlock()

	for _, fn := range watchers {
		fn(key)
	}
}

// Watch registers fn to run after every write or delete with the key that
// changed. Listeners must tolerate being called for keys they do not own.
func (m *Memory) Watch(fn func(key string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watchers = append(m.watchers, fn)
}
