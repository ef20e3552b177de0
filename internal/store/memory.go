package store

import (
	"context"
	"slices"
	"sync"

	"github.com/DoyleJ11/couch-lobby/internal/engine"
)

// Memory keeps results in maps. It is the default store and the one tests use.
type Memory struct {
	mu      sync.Mutex
	rosters map[string][]engine.Pick
	maps    map[string]int
}

func NewMemory() *Memory {
	return &Memory{rosters: map[string][]engine.Pick{}, maps: map[string]int{}}
}

func (m *Memory) SaveRoster(_ context.Context, runID string, picks []engine.Pick) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rosters[runID] = slices.Clone(picks)
	return nil
}

func (m *Memory) SaveMap(_ context.Context, runID string, choice int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maps[runID] = choice
	return nil
}

func (m *Memory) Roster(_ context.Context, runID string) ([]engine.Pick, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	picks, ok := m.rosters[runID]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(picks), nil
}

func (m *Memory) Map(_ context.Context, runID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	choice, ok := m.maps[runID]
	if !ok {
		return engine.NoChoice, ErrNotFound
	}
	return choice, nil
}
