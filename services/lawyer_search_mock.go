package services

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MockLawyerIndex is an in-memory LawyerIndex for testing
type MockLawyerIndex struct {
	mu   sync.RWMutex
	docs map[uint]LawyerDocument
	Err  error
}

// NewMockLawyerIndex creates an empty index
func NewMockLawyerIndex() *MockLawyerIndex {
	return &MockLawyerIndex{docs: make(map[uint]LawyerDocument)}
}

// SetAsMockForTesting sets this mock as the process-wide lawyer index
func (m *MockLawyerIndex) SetAsMockForTesting() {
	SetLawyerIndex(m)
}

func (m *MockLawyerIndex) IndexLawyer(_ context.Context, doc LawyerDocument) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	m.docs[doc.ProfileID] = doc
	m.mu.Unlock()
	return nil
}

func (m *MockLawyerIndex) SearchApproved(_ context.Context, search, expertise string) ([]uint, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	search = strings.ToLower(strings.TrimSpace(search))
	expertise = strings.ToLower(strings.TrimSpace(expertise))

	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := []uint{}
	for id, doc := range m.docs {
		if !doc.Approved {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(doc.FullName), search) {
			continue
		}
		if expertise != "" && strings.ToLower(string(doc.Expertise)) != expertise {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Document returns the indexed document of a profile
func (m *MockLawyerIndex) Document(profileID uint) (LawyerDocument, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[profileID]
	return doc, ok
}
