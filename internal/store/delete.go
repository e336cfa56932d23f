package store

import (
	"context"

	appLog "lifetimeline/internal/log"
)

// deleteState is the two-phase delete machine: Idle or Pending(id).
type deleteState struct {
	id      string
	pending bool
}

func (d *deleteState) reset() { *d = deleteState{} }

// StageDelete moves the machine to Pending(id), replacing any earlier stage.
// The collection is not touched.
func (s *Store) StageDelete(id string) {
	s.del = deleteState{id: id, pending: true}
	appLog.Debug("delete staged", "id", id)
}

// PendingDelete returns the staged id, if any.
func (s *Store) PendingDelete() (string, bool) {
	return s.del.id, s.del.pending
}

// CancelDelete returns the machine to Idle without mutating the store.
func (s *Store) CancelDelete() {
	s.del.reset()
}

// CommitDelete removes the staged event and returns to Idle. It reports
// whether an event was removed; with nothing staged it is a no-op. If the
// save fails the stage is kept so the caller can retry or cancel.
func (s *Store) CommitDelete(ctx context.Context) (bool, error) {
	if !s.del.pending {
		return false, nil
	}
	id := s.del.id
	i := s.indexOf(id)
	if i < 0 {
		s.del.reset()
		return false, nil
	}

	remaining := s.List()
	remaining = append(remaining[:i], remaining[i+1:]...)
	if err := s.commit(ctx, remaining); err != nil {
		return false, err
	}
	s.del.reset()
	appLog.Info("event deleted", "id", id)
	return true, nil
}
