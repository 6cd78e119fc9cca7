package testutils

import (
	"context"
	"sync"

	"github.com/suresportpicks/picks-service/internal/ledger"
	"github.com/suresportpicks/picks-service/internal/models"
)

// MockDebitPublisher records debit events instead of writing to Kafka.
type MockDebitPublisher struct {
	mu     sync.Mutex
	Events []ledger.Event
}

func NewMockDebitPublisher() *MockDebitPublisher {
	return &MockDebitPublisher{
		mu:     sync.Mutex{},
		Events: make([]ledger.Event, 0),
	}
}

func (m *MockDebitPublisher) AddDebit(_ context.Context, event ledger.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Events = append(m.Events, event)

	return nil
}

// MockNotifier records status changes instead of calling the webhook.
type MockNotifier struct {
	mu      sync.Mutex
	Changes []models.StatusChange
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{
		mu:      sync.Mutex{},
		Changes: make([]models.StatusChange, 0),
	}
}

func (m *MockNotifier) NotifyStatusChange(_ context.Context, change models.StatusChange) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Changes = append(m.Changes, change)
}
