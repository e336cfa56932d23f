package web

import (
	"encoding/json"
	"net/http"

	"lifetimeline/internal/model"
)

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	category := model.Category(r.URL.Query().Get("category"))
	if category != "" && !category.Valid() {
		writeError(w, http.StatusBadRequest, "unknown category "+string(category))
		return
	}

	var events []model.Event
	s.Exclusive(func() { events = s.store.List() })

	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if category == "" || ev.Category == category {
			out = append(out, ev)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, err := s.store.Get(r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ev, err := decodeEvent(w, r)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	created, err := s.store.Create(r.Context(), ev)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ev, err := decodeEvent(w, r)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updated, err := s.store.Update(r.Context(), r.PathValue("id"), ev)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Clear(r.Context()); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pendingResponse is the JSON shape of the two-phase delete state.
type pendingResponse struct {
	Pending bool   `json:"pending"`
	ID      string `json:"id,omitempty"`
}

func (s *Server) handleStageDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := r.PathValue("id")
	s.store.StageDelete(id)
	writeJSON(w, http.StatusAccepted, pendingResponse{Pending: true, ID: id})
}

func (s *Server) handlePendingDelete(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.store.PendingDelete()
	writeJSON(w, http.StatusOK, pendingResponse{Pending: ok, ID: id})
}

func (s *Server) handleCommitDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.store.CommitDelete(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

func (s *Server) handleCancelDelete(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store.CancelDelete()
	writeJSON(w, http.StatusOK, pendingResponse{Pending: false})
}

// decodeEvent reads a wire record from the request body.
func decodeEvent(w http.ResponseWriter, r *http.Request) (model.Event, error) {
	var rec model.Record
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(&rec); err != nil {
		return model.Event{}, &model.FormatError{Msg: "invalid event body", Err: err}
	}
	return rec.Event()
}
