package storage

import (
	"context"
	"sort"
	"sync"

	"formbreed/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	populations map[int][]model.Genome
	winners     map[int]model.Winners
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	s.initialized = true
	s.populations = make(map[int][]model.Genome)
	s.winners = make(map[int]model.Winners)
	return nil
}

func (s *MemoryStore) SavePopulation(_ context.Context, generation int, population []model.Genome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensure()
	s.populations[generation] = clonePopulation(population)
	return nil
}

func (s *MemoryStore) GetPopulation(_ context.Context, generation int) ([]model.Genome, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	population, ok := s.populations[generation]
	if !ok {
		return nil, false, nil
	}
	return clonePopulation(population), true, nil
}

func (s *MemoryStore) SaveWinners(_ context.Context, winners model.Winners) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensure()
	s.winners[winners.Generation] = cloneWinners(winners)
	return nil
}

func (s *MemoryStore) GetWinners(_ context.Context, generation int) (model.Winners, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	winners, ok := s.winners[generation]
	if !ok {
		return model.Winners{}, false, nil
	}
	return cloneWinners(winners), true, nil
}

func (s *MemoryStore) DeleteWinners(_ context.Context, generation int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.winners, generation)
	return nil
}

func (s *MemoryStore) ListGenerations(_ context.Context) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]int, 0, len(s.populations))
	for gen := range s.populations {
		out = append(out, gen)
	}
	sort.Ints(out)
	return out, nil
}

// ensure lazily initializes maps; callers hold the write lock.
func (s *MemoryStore) ensure() {
	if s.populations == nil {
		s.populations = make(map[int][]model.Genome)
	}
	if s.winners == nil {
		s.winners = make(map[int]model.Winners)
	}
	s.initialized = true
}

func clonePopulation(population []model.Genome) []model.Genome {
	out := make([]model.Genome, len(population))
	for i, g := range population {
		out[i] = g.Clone()
	}
	return out
}

func cloneWinners(w model.Winners) model.Winners {
	out := w
	out.WinnerIndices = append([]int(nil), w.WinnerIndices...)
	out.WinnerIDs = append([]string(nil), w.WinnerIDs...)
	return out
}
