package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	appLog "lifetimeline/internal/log"
	"lifetimeline/internal/model"
)

// Persister is the key-value slot the store reads once at startup and
// rewrites after every committed mutation. The most recent Save wins.
type Persister interface {
	Load(ctx context.Context) ([]model.Event, error)
	Save(ctx context.Context, events []model.Event) error
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator replaces the uuid-based id generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// Store owns the ordered event collection.
//
// It is not safe for concurrent use: callers deliver commands one at a time
// (the HTTP server serializes them). Mutations are written through to the
// Persister first and only then committed in memory, so a failed save leaves
// the store exactly as it was.
type Store struct {
	persister Persister
	events    []model.Event
	newID     func() string
	del       deleteState
}

// New constructs an empty store backed by p.
func New(p Persister, opts ...Option) *Store {
	s := &Store{
		persister: p,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open constructs a store and loads its initial contents from p.
func Open(ctx context.Context, p Persister, opts ...Option) (*Store, error) {
	s := New(p, opts...)
	events, err := p.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: load: %w", err)
	}
	s.events = events
	appLog.Info("store loaded", "event_count", len(events))
	return s, nil
}

// List returns a copy of all events in insertion order.
func (s *Store) List() []model.Event {
	out := make([]model.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Len returns the number of stored events.
func (s *Store) Len() int { return len(s.events) }

// Get returns the event with the given id.
func (s *Store) Get(id string) (model.Event, error) {
	if i := s.indexOf(id); i >= 0 {
		return s.events[i], nil
	}
	return model.Event{}, &model.NotFoundError{ID: id}
}

// Create validates ev, assigns an id when none is supplied and appends it.
func (s *Store) Create(ctx context.Context, ev model.Event) (model.Event, error) {
	if err := ev.Validate(); err != nil {
		return model.Event{}, err
	}
	if ev.ID == "" {
		ev.ID = s.newID()
	} else if s.indexOf(ev.ID) >= 0 {
		return model.Event{}, &model.ValidationError{
			Field: "id",
			Value: ev.ID,
			Msg:   fmt.Sprintf("event id %q already exists", ev.ID),
		}
	}

	next := append(s.List(), ev)
	if err := s.commit(ctx, next); err != nil {
		return model.Event{}, err
	}
	appLog.Info("event created", "id", ev.ID, "category", ev.Category)
	return ev, nil
}

// Update replaces every field of the event with the given id. The id itself
// is preserved whatever ev.ID holds.
func (s *Store) Update(ctx context.Context, id string, ev model.Event) (model.Event, error) {
	i := s.indexOf(id)
	if i < 0 {
		return model.Event{}, &model.NotFoundError{ID: id}
	}
	ev.ID = id
	if err := ev.Validate(); err != nil {
		return model.Event{}, err
	}

	next := s.List()
	next[i] = ev
	if err := s.commit(ctx, next); err != nil {
		return model.Event{}, err
	}
	appLog.Info("event updated", "id", id)
	return ev, nil
}

// Append adds already-validated events with fresh ids in one write. It is
// the merge step of the CSV import.
func (s *Store) Append(ctx context.Context, events []model.Event) ([]model.Event, error) {
	if len(events) == 0 {
		return nil, nil
	}
	added := make([]model.Event, len(events))
	for i, ev := range events {
		ev.ID = s.newID()
		added[i] = ev
	}
	next := append(s.List(), added...)
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}
	return added, nil
}

// Replace swaps the whole collection, as the JSON import does. Events with
// an empty id get a fresh one. Validation is the caller's job.
func (s *Store) Replace(ctx context.Context, events []model.Event) error {
	next := make([]model.Event, len(events))
	for i, ev := range events {
		if ev.ID == "" {
			ev.ID = s.newID()
		}
		next[i] = ev
	}
	if err := s.commit(ctx, next); err != nil {
		return err
	}
	s.del.reset()
	return nil
}

// Clear removes every event.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.commit(ctx, []model.Event{}); err != nil {
		return err
	}
	s.del.reset()
	appLog.Info("store cleared")
	return nil
}

func (s *Store) commit(ctx context.Context, next []model.Event) error {
	if err := s.persister.Save(ctx, next); err != nil {
		appLog.Error("store: save failed", err, "event_count", len(next))
		return fmt.Errorf("store: save: %w", err)
	}
	s.events = next
	return nil
}

func (s *Store) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, ev := range s.events {
		if ev.ID == id {
			return i
		}
	}
	return -1
}
