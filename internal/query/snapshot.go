// Package query answers "what was true on a given date".
package query

import (
	"time"

	"lifetimeline/internal/model"
)

// Group is the match list for one category.
type Group struct {
	Category model.Category `json:"category"`
	Matches  []model.Event  `json:"matches"`
}

// Result holds one Group per category, in model.Categories order.
type Result struct {
	Date   time.Time `json:"date"`
	Groups []Group   `json:"groups"`
}

// For returns the matches for category c.
func (r Result) For(c model.Category) []model.Event {
	for _, g := range r.Groups {
		if g.Category == c {
			return g.Matches
		}
	}
	return nil
}

// Snapshot groups the events covering date by category. An event matches
// when start <= date <= effective end. An ongoing event's effective end is
// now, the moment the query runs, and not the query date, so an ongoing
// event is excluded for any date later than now.
func Snapshot(events []model.Event, date, now time.Time) Result {
	res := Result{
		Date:   date,
		Groups: make([]Group, 0, len(model.Categories)),
	}
	for _, c := range model.Categories {
		g := Group{Category: c, Matches: []model.Event{}}
		for _, ev := range events {
			if ev.Category == c && Covers(ev, date, now) {
				g.Matches = append(g.Matches, ev)
			}
		}
		res.Groups = append(res.Groups, g)
	}
	return res
}

// Covers reports whether date falls inside ev's interval, closing an ongoing
// event at now.
func Covers(ev model.Event, date, now time.Time) bool {
	start, end := ev.Interval(now)
	return !date.Before(start) && !date.After(end)
}
