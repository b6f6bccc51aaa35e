package services

import (
	"context"
	"sync"

	"github.com/legalconnect/legalconnect-api/models"
)

// MockPublisher records published notifications for testing
type MockPublisher struct {
	mu        sync.Mutex
	published []models.Notification
	Err       error
}

// NewMockPublisher creates a new mock publisher
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// SetAsMockForTesting sets this mock as the process-wide publisher
func (m *MockPublisher) SetAsMockForTesting() {
	SetNotificationPublisher(m)
}

func (m *MockPublisher) Publish(_ context.Context, n *models.Notification) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	m.published = append(m.published, *n)
	m.mu.Unlock()
	return nil
}

func (m *MockPublisher) Close() error { return nil }

// Published returns a copy of everything published so far
func (m *MockPublisher) Published() []models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Notification(nil), m.published...)
}
