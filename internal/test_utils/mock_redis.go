package testutils

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// MockRedis is an in-memory session store for middleware and handler tests.
type MockRedis struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMockRedis() *MockRedis {
	return &MockRedis{
		mu:     sync.Mutex{},
		values: make(map[string]string),
	}
}

func (m *MockRedis) Ping(_ context.Context) error {
	return nil
}

func (m *MockRedis) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	value, exists := m.values[key]
	if !exists {
		return "", errors.New("key not found")
	}

	return value, nil
}

func (m *MockRedis) Set(_ context.Context, key string, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value

	return nil
}
