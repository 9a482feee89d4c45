package storage

import (
	"fmt"
	"reflect"
	"sync"

	ecs "github.com/duskforge/ecsworld"
)

// SharedStorageStrategy creates stores where multiple entities can reference
// the same component instance. Useful for entities with identical data
// (e.g., every zombie sharing the same base stats) — a component whose
// ComponentMeta.Shared is set resolves to this strategy instead of dense.
//
// Shared components are immutable from the perspective of individual
// entities. To "modify" a shared component, remove it and add a new value.
type sharedStrategy struct{}

// NewSharedStrategy constructs a shared storage strategy.
func NewSharedStrategy() ecs.StorageStrategy {
	return sharedStrategy{}
}

func (sharedStrategy) Name() string {
	return "shared"
}

func (sharedStrategy) NewStore(comp ecs.CompId) ecs.ComponentStore {
	return &sharedStore{
		comp:          comp,
		entityToValue: make(map[ecs.EntityId]uint32),
		valueToData:   make(map[uint32]*sharedValue),
		nextValueID:   1,
	}
}

// sharedValue holds a component value and tracks how many entities reference it.
type sharedValue struct {
	data     any
	refCount int
}

// sharedStore implements ComponentStore with shared component instances.
type sharedStore struct {
	mu            sync.RWMutex
	comp          ecs.CompId
	entityToValue map[ecs.EntityId]uint32
	valueToData   map[uint32]*sharedValue
	nextValueID   uint32
	count         int
}

func (s *sharedStore) ComponentId() ecs.CompId {
	return s.comp
}

func (s *sharedStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

func (s *sharedStore) Has(id ecs.EntityId) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.entityToValue[id]
	return exists
}

func (s *sharedStore) Get(id ecs.EntityId) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	valueID, exists := s.entityToValue[id]
	if !exists {
		return nil, false
	}

	sharedVal, ok := s.valueToData[valueID]
	if !ok {
		return nil, false
	}

	return sharedVal.data, true
}

func (s *sharedStore) Iterate(fn func(ecs.EntityId, any) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for entityID, valueID := range s.entityToValue {
		sharedVal, ok := s.valueToData[valueID]
		if !ok {
			continue
		}
		if !fn(entityID, sharedVal.data) {
			return
		}
	}
}

func (s *sharedStore) Set(id ecs.EntityId, value any) error {
	if id.IsZero() {
		return fmt.Errorf("shared: cannot set zero entity")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if oldValueID, exists := s.entityToValue[id]; exists {
		s.decrementRefCountLocked(oldValueID)
	} else {
		s.count++
	}

	valueID := s.findOrCreateValueLocked(value)
	s.entityToValue[id] = valueID

	return nil
}

func (s *sharedStore) Remove(id ecs.EntityId) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	valueID, exists := s.entityToValue[id]
	if !exists {
		return false
	}

	delete(s.entityToValue, id)
	s.decrementRefCountLocked(valueID)
	s.count--

	return true
}

func (s *sharedStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entityToValue = make(map[ecs.EntityId]uint32)
	s.valueToData = make(map[uint32]*sharedValue)
	s.count = 0
}

// findOrCreateValueLocked finds an existing value ID for the given data, or
// creates a new one, deduplicating component values by deep equality.
func (s *sharedStore) findOrCreateValueLocked(value any) uint32 {
	for valueID, sharedVal := range s.valueToData {
		if reflect.DeepEqual(sharedVal.data, value) {
			sharedVal.refCount++
			return valueID
		}
	}

	valueID := s.nextValueID
	s.nextValueID++
	s.valueToData[valueID] = &sharedValue{
		data:     value,
		refCount: 1,
	}

	return valueID
}

func (s *sharedStore) decrementRefCountLocked(valueID uint32) {
	sharedVal, ok := s.valueToData[valueID]
	if !ok {
		return
	}

	sharedVal.refCount--
	if sharedVal.refCount <= 0 {
		delete(s.valueToData, valueID)
	}
}

// Stats returns statistics about the shared store for debugging and optimization.
func (s *sharedStore) Stats() SharedStorageStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return SharedStorageStats{
		EntityCount:      s.count,
		UniqueValueCount: len(s.valueToData),
		SharingRatio:     float64(s.count) / float64(max(len(s.valueToData), 1)),
	}
}

// SharedStorageStats provides metrics about shared component storage efficiency.
type SharedStorageStats struct {
	EntityCount      int
	UniqueValueCount int
	SharingRatio     float64
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

var _ ecs.ComponentStore = (*sharedStore)(nil)
