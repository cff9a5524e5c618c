package db

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"crossing-simulator/internal/signal"
)

// MemoryStore keeps junction recordings in process. It backs STORE=memory and
// tests.
type MemoryStore struct {
	mu        sync.RWMutex
	junctions map[string]signal.Snapshot
}

func NewMemoryStore(snapshots ...signal.Snapshot) *MemoryStore {
	m := &MemoryStore{junctions: make(map[string]signal.Snapshot, len(snapshots))}
	for _, s := range snapshots {
		m.junctions[s.JunctionID] = cloneSnapshot(s)
	}
	return m
}

func (m *MemoryStore) ListJunctions(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.junctions))
	for id := range m.junctions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MemoryStore) LoadSnapshot(ctx context.Context, junctionID string) (signal.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.junctions[junctionID]
	if !ok {
		return signal.Snapshot{}, fmt.Errorf("%w: %s", ErrUnknownJunction, junctionID)
	}
	return cloneSnapshot(s), nil
}

func (m *MemoryStore) RecordTransitions(ctx context.Context, junctionID string, ts []signal.Transition) error {
	return m.update(junctionID, func(s *signal.Snapshot) error {
		s.Transitions = append(s.Transitions, ts...)
		return nil
	})
}

func (m *MemoryStore) UpdateCycle(ctx context.Context, junctionID string, c signal.Cycle) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return m.update(junctionID, func(s *signal.Snapshot) error {
		s.Cycle = c
		return nil
	})
}

func (m *MemoryStore) UpdateJourneys(ctx context.Context, junctionID, text string) error {
	return m.update(junctionID, func(s *signal.Snapshot) error {
		s.JourneyText = text
		return nil
	})
}

func (m *MemoryStore) update(junctionID string, fn func(*signal.Snapshot) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.junctions[junctionID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJunction, junctionID)
	}
	s = cloneSnapshot(s)
	if err := fn(&s); err != nil {
		return err
	}
	m.junctions[junctionID] = s
	return nil
}

func cloneSnapshot(s signal.Snapshot) signal.Snapshot {
	out := s
	out.Crossings = make([]signal.Crossing, len(s.Crossings))
	for i, c := range s.Crossings {
		c.WalkTime = cloneSec(c.WalkTime)
		c.Chosen = signal.Representative{Green: cloneSec(c.Chosen.Green), Red: cloneSec(c.Chosen.Red)}
		out.Crossings[i] = c
	}
	out.Transitions = append([]signal.Transition(nil), s.Transitions...)
	return out
}

func cloneSec(p *int) *int {
	if p == nil {
		return nil
	}
	return signal.Sec(*p)
}

// DemoSnapshot is a small two-leg junction with a median island, recorded over
// three 90 second cycles.
func DemoSnapshot() signal.Snapshot {
	return signal.Snapshot{
		JunctionID: "demo",
		Name:       "Demo junction",
		Cycle:      signal.Cycle{Duration: 90},
		Crossings: []signal.Crossing{
			{ID: "north-a", Name: "North (kerb to island)", WalkTime: signal.Sec(6)},
			{ID: "north-b", Name: "North (island to kerb)", WalkTime: signal.Sec(6)},
			{ID: "east", Name: "East", WalkTime: signal.Sec(11)},
		},
		Transitions: []signal.Transition{
			{Crossing: "north-a", Color: signal.Green, At: 10},
			{Crossing: "north-a", Color: signal.Red, At: 50},
			{Crossing: "north-a", Color: signal.Green, At: 100},
			{Crossing: "north-a", Color: signal.Red, At: 140},
			{Crossing: "north-a", Color: signal.Green, At: 190},
			{Crossing: "north-b", Color: signal.Green, At: 25},
			{Crossing: "north-b", Color: signal.Red, At: 60},
			{Crossing: "north-b", Color: signal.Green, At: 115},
			{Crossing: "north-b", Color: signal.Red, At: 151},
			{Crossing: "east", Color: signal.Red, At: 5},
			{Crossing: "east", Color: signal.Green, At: 55},
			{Crossing: "east", Color: signal.Red, At: 95},
			{Crossing: "east", Color: signal.Green, At: 145},
		},
		JourneyText: "0 1\n0 1 2\n2 0 1\n",
	}
}
