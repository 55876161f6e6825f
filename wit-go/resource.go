package witgo

import (
	"sync"
)

// ResourceManager[T] is a generic, thread-safe handle table for host-owned
// resources of type T. Handles start at 1 and are never reused, so 0 always
// means "no resource".
type ResourceManager[T any] struct {
	mu      sync.RWMutex
	handles map[uint32]T
	nextID  uint32
}

// NewResourceManager creates a new generic resource manager for a specific type.
func NewResourceManager[T any]() *ResourceManager[T] {
	return &ResourceManager[T]{
		handles: make(map[uint32]T),
	}
}

// Add stores a new resource and returns a handle to it.
func (m *ResourceManager[T]) Add(resource T) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.handles[m.nextID] = resource
	return m.nextID
}

// Get retrieves a resource by its handle.
func (m *ResourceManager[T]) Get(handle uint32) (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res, ok := m.handles[handle]
	return res, ok
}

// Remove deletes a resource by its handle and returns it, allowing it to be
// garbage collected once the caller drops it.
func (m *ResourceManager[T]) Remove(handle uint32) (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.handles[handle]
	delete(m.handles, handle)
	return res, ok
}

// Len returns the number of live resources.
func (m *ResourceManager[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handles)
}

// Range iterates over the resources in the manager.
// It calls the given function for each handle and resource. If the function
// returns false, the iteration stops. f must not call back into the manager.
func (m *ResourceManager[T]) Range(f func(handle uint32, resource T) bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for handle, resource := range m.handles {
		if !f(handle, resource) {
			break
		}
	}
}
