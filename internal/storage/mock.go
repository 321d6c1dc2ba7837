package storage

import (
	"context"
	"sync"
	"time"

	"github.com/jwebster45206/mission-engine/pkg/mission"
)

// MockBackend is an in-memory Backend for testing. Error and latency
// injection let manager tests exercise failure and migration paths.
type MockBackend struct {
	mu       sync.Mutex
	missions map[string]*mission.Mission

	SaveErr     error
	LoadErr     error
	DeleteErr   error
	LoadLatency time.Duration
}

var _ Backend = (*MockBackend)(nil)

// NewMockBackend creates an empty mock.
func NewMockBackend() *MockBackend {
	return &MockBackend{missions: make(map[string]*mission.Mission)}
}

func (b *MockBackend) Save(ctx context.Context, m *mission.Mission) error {
	if b.SaveErr != nil {
		return b.SaveErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := *m
	b.missions[m.ID] = &cp
	return nil
}

func (b *MockBackend) Load(ctx context.Context, id string) (*mission.Mission, error) {
	if b.LoadLatency > 0 {
		time.Sleep(b.LoadLatency)
	}
	if b.LoadErr != nil {
		return nil, b.LoadErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.missions[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (b *MockBackend) LoadAll(ctx context.Context) ([]*mission.Mission, error) {
	if b.LoadErr != nil {
		return nil, b.LoadErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*mission.Mission, 0, len(b.missions))
	for _, m := range b.missions {
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (b *MockBackend) Query(ctx context.Context, f QueryFilters) ([]*mission.Mission, error) {
	all, err := b.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*mission.Mission, 0, len(all))
	for _, m := range all {
		if matches(m, f) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (b *MockBackend) Delete(ctx context.Context, id string) error {
	if b.DeleteErr != nil {
		return b.DeleteErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.missions, id)
	return nil
}

func (b *MockBackend) Ping(ctx context.Context) error { return nil }
func (b *MockBackend) Close() error                   { return nil }

// Count returns the number of stored missions.
func (b *MockBackend) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.missions)
}
