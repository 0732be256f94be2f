package store

import (
	"context"
	"sync"

	"github.com/videograph/videograph/internal/resolver"
)

// Memory is a map-backed store. It is the default backend and the test
// double for the persistent ones.
type Memory struct {
	schema Schema

	mu     sync.RWMutex
	videos map[string]resolver.Video
}

func NewMemory(schema Schema) *Memory {
	return &Memory{
		schema: schema,
		videos: make(map[string]resolver.Video),
	}
}

func (m *Memory) Get(_ context.Context, service, id string) (resolver.Video, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.videos[cacheKey(service, id)]
	return v, ok, nil
}

func (m *Memory) Fields(service string) []string {
	return m.schema.Fields(service)
}

func (m *Memory) UpsertOne(_ context.Context, v resolver.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.videos[cacheKey(v.Service, v.ID)] = v
	return nil
}

func (m *Memory) UpsertMany(ctx context.Context, vs []resolver.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range vs {
		m.videos[cacheKey(v.Service, v.ID)] = v
	}
	return nil
}

// Len reports the number of cached records.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.videos)
}
