package services

import (
	"context"
	"sync"
	"time"
)

// MockLocker is an in-process SweepLocker for testing
type MockLocker struct {
	mu   sync.Mutex
	held map[string]bool
	Err  error
}

// NewMockLocker creates an empty mock locker
func NewMockLocker() *MockLocker {
	return &MockLocker{held: make(map[string]bool)}
}

func (m *MockLocker) TryLock(_ context.Context, key string, _ time.Duration) (func(), bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return func() {}, false, m.Err
	}
	if m.held[key] {
		return func() {}, false, nil
	}
	m.held[key] = true

	return func() {
		m.mu.Lock()
		delete(m.held, key)
		m.mu.Unlock()
	}, true, nil
}

// Held reports whether key is currently locked
func (m *MockLocker) Held(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held[key]
}
