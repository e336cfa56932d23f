package web

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"lifetimeline/internal/exchange"
	"lifetimeline/internal/ics"
	appLog "lifetimeline/internal/log"
	"lifetimeline/internal/model"
	"lifetimeline/internal/query"
	"lifetimeline/internal/timeline"
)

const defaultAnniversaryDays = 30

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "missing date parameter")
		return
	}
	date, err := model.ParseDate(raw)
	if err != nil {
		writeStoreError(w, &model.ValidationError{Field: "date", Value: raw, Msg: "invalid date " + strconv.Quote(raw)})
		return
	}

	var events []model.Event
	s.Exclusive(func() { events = s.store.List() })
	writeJSON(w, http.StatusOK, query.Snapshot(events, date, s.now()))
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := timeline.Options{Now: s.now()}
	if s.cfg != nil {
		opts.Width = s.cfg.Timeline.Width
		opts.Height = s.cfg.Timeline.Height
		opts.RowHeight = s.cfg.Timeline.RowHeight
		opts.MinWidth = s.cfg.Timeline.MinWidth
	}
	opts.Width = parseFloatDefault(q.Get("width"), opts.Width)
	opts.Height = parseFloatDefault(q.Get("height"), opts.Height)

	if c := model.Category(q.Get("category")); c != "" {
		if !c.Valid() {
			writeError(w, http.StatusBadRequest, "unknown category "+string(c))
			return
		}
		opts.Category = c
	}

	var events []model.Event
	s.Exclusive(func() { events = s.store.List() })
	writeJSON(w, http.StatusOK, timeline.Project(events, opts))
}

func (s *Server) handleAnniversaries(w http.ResponseWriter, r *http.Request) {
	days := parseIntDefault(r.URL.Query().Get("days"), defaultAnniversaryDays)
	if days < 0 {
		writeError(w, http.StatusBadRequest, "days must not be negative")
		return
	}

	var events []model.Event
	s.Exclusive(func() { events = s.store.List() })

	from := model.DateOf(s.now())
	list, err := ics.Anniversaries(events, from, from.AddDate(0, 0, days))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var events []model.Event
	s.Exclusive(func() { events = s.store.List() })

	switch kind := r.URL.Query().Get("kind"); kind {
	case "", "json":
		data, err := exchange.ExportJSON(events)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="life-timeline.json"`)
		_, _ = w.Write(data)
	case "ics":
		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="life-timeline.ics"`)
		_, _ = io.WriteString(w, ics.Export(events, s.now()))
	default:
		writeError(w, http.StatusBadRequest, "unknown export kind "+strconv.Quote(kind))
	}
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	if kind != "csv" && kind != "json" {
		writeError(w, http.StatusBadRequest, "kind must be csv or json")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "import file too large")
			return
		}
		writeStoreError(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var rep exchange.Report
	if kind == "csv" {
		rep, err = exchange.ImportCSV(r.Context(), s.store, string(body))
	} else {
		rep, err = exchange.ImportJSON(r.Context(), s.store, body)
	}
	if err != nil {
		writeStoreError(w, err)
		return
	}
	s.stats.observeImport(kind, rep)
	appLog.Info("import finished", "kind", kind, "rows", rep.Rows, "added", rep.Added,
		"incomplete", rep.Incomplete, "duplicates", rep.Duplicates)
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleTemplate(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="timeline_template.csv"`)
	_, _ = io.WriteString(w, exchange.Template)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func parseFloatDefault(s string, def float64) float64 {
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return def
	}
	return f
}
