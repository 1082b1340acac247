package repositories

import (
	"context"
	"sync"
)

// MockIdempotencyGuard is an in-memory implementation of IdempotencyGuard.
type MockIdempotencyGuard struct {
	seen map[string]bool
	mu   sync.Mutex
}

// NewMockIdempotencyGuard creates a new instance of MockIdempotencyGuard.
func NewMockIdempotencyGuard() *MockIdempotencyGuard {
	return &MockIdempotencyGuard{
		seen: make(map[string]bool),
	}
}

// Acquire marks the key as seen; first caller wins.
func (g *MockIdempotencyGuard) Acquire(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.seen[key] {
		return false, nil
	}
	g.seen[key] = true
	return true, nil
}

// Forget drops the key.
func (g *MockIdempotencyGuard) Forget(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.seen, key)
	return nil
}
