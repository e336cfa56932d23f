package persist

import (
	"context"
	"sync"

	"lifetimeline/internal/model"
)

// Memory keeps the last saved list in process memory. It backs the
// "memory" storage driver and tests.
type Memory struct {
	mu     sync.Mutex
	events []model.Event
	saves  int
	// Err, when set, is returned by every Save.
	Err error
}

// NewMemory returns a Memory persister preloaded with events.
func NewMemory(events ...model.Event) *Memory {
	return &Memory{events: clone(events)}
}

func (m *Memory) Load(_ context.Context) ([]model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clone(m.events), nil
}

func (m *Memory) Save(_ context.Context, events []model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.events = clone(events)
	m.saves++
	return nil
}

// Saves returns how many saves succeeded.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func clone(events []model.Event) []model.Event {
	out := make([]model.Event, len(events))
	copy(out, events)
	return out
}
