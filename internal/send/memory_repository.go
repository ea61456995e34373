package send

import (
	"context"
	"sync"
)

// MemoryRepository is an in-memory Send store for tests and local runs.
type MemoryRepository struct {
	mu      sync.RWMutex
	methods map[ID]AuthenticationMethod
}

// NewMemoryRepository builds an in-memory Send store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{methods: make(map[ID]AuthenticationMethod)}
}

// Put registers a Send with the given authentication method.
func (r *MemoryRepository) Put(id ID, method AuthenticationMethod) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods[id] = method
}

// FindMethod returns the configured method or ErrNotFound.
func (r *MemoryRepository) FindMethod(_ context.Context, id ID) (AuthenticationMethod, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	method, ok := r.methods[id]
	if !ok {
		return AuthenticationMethod{}, ErrNotFound
	}
	return method, nil
}
