// Package timeline projects events onto a horizontal coordinate space for
// the timeline view. Everything here is a pure function of its inputs; the
// caller re-projects whenever the container size changes.
package timeline

import (
	"math"
	"time"

	"lifetimeline/internal/model"
)

const (
	day = 24 * time.Hour

	// Padding added on both sides of the event span.
	padding = 30 * day
	// Span used when there are no events at all.
	emptySpan = 365 * day

	// TickCount is the number of axis ticks, both ends included.
	TickCount = 11
)

// Range is the padded [Min, Max] window the timeline is laid out on.
// Max is always at least one day after Min.
type Range struct {
	Min time.Time `json:"min"`
	Max time.Time `json:"max"`
}

// Bounds computes the display range. Min is the earliest start minus 30
// days; Max is the latest end (or start, for an ongoing event) plus 30 days.
// With no events the range is [now, now+365 days].
func Bounds(events []model.Event, now time.Time) Range {
	if len(events) == 0 {
		return normalize(Range{Min: now, Max: now.Add(emptySpan)})
	}

	var lo, hi time.Time
	for i, ev := range events {
		last := ev.Start
		if end, ok := ev.End.Date(); ok {
			last = end
		}
		if i == 0 || ev.Start.Before(lo) {
			lo = ev.Start
		}
		if i == 0 || last.After(hi) {
			hi = last
		}
	}
	return normalize(Range{Min: lo.Add(-padding), Max: hi.Add(padding)})
}

// normalize widens a degenerate or inverted range to one day.
func normalize(r Range) Range {
	if r.Max.Before(r.Min.Add(day)) {
		r.Max = r.Min.Add(day)
	}
	return r
}

// Seconds returns Max - Min in seconds. A time.Duration saturates after
// about 292 years, so range arithmetic stays in float seconds.
func (r Range) Seconds() float64 {
	return secondsBetween(r.Min, r.Max)
}

func secondsBetween(a, b time.Time) float64 {
	return float64(b.Unix()-a.Unix()) + float64(b.Nanosecond()-a.Nanosecond())/1e9
}

// XPos maps t linearly onto [0, width] across the range. Dates outside the
// range map outside [0, width].
func (r Range) XPos(t time.Time, width float64) float64 {
	span := r.Seconds()
	if span < day.Seconds() {
		span = day.Seconds()
	}
	return secondsBetween(r.Min, t) / span * width
}

// Ticks returns TickCount evenly spaced instants from Min to Max inclusive.
func (r Range) Ticks() []time.Time {
	ticks := make([]time.Time, TickCount)
	span := r.Seconds()
	for i := range ticks {
		off := span * float64(i) / float64(TickCount-1)
		whole := math.Floor(off)
		ns := int64(r.Min.Nanosecond()) + int64((off-whole)*1e9)
		ticks[i] = time.Unix(r.Min.Unix()+int64(whole), ns).In(r.Min.Location())
	}
	// Pin the last tick so float rounding never drifts off Max.
	ticks[TickCount-1] = r.Max
	return ticks
}
