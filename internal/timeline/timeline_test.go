package timeline

import (
	"math"
	"testing"
	"time"

	"lifetimeline/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var now = time.Date(2025, time.October, 19, 8, 0, 0, 0, time.UTC)

func TestBoundsEmptyStore(t *testing.T) {
	r := Bounds(nil, now)
	if !r.Min.Equal(now) {
		t.Fatalf("min = %v, want now", r.Min)
	}
	if !r.Max.Equal(now.Add(365 * 24 * time.Hour)) {
		t.Fatalf("max = %v, want now+365d", r.Max)
	}
}

func TestBoundsPadsEventSpan(t *testing.T) {
	r := Bounds(model.SampleEvents(), now)
	// Earliest start 2020-01-15; latest end-or-start is 2022-06-30 (the
	// ongoing job contributes its start, 2020-03-01).
	if want := date(2019, 12, 16); !r.Min.Equal(want) {
		t.Fatalf("min = %v, want %v", r.Min, want)
	}
	if want := date(2022, 7, 30); !r.Max.Equal(want) {
		t.Fatalf("max = %v, want %v", r.Max, want)
	}
}

func TestBoundsInvertedEventKeepsPositiveSpan(t *testing.T) {
	ev := model.Event{Category: model.CategoryJob, Title: "x", Start: date(2020, 1, 1), End: model.Until(date(2010, 1, 1))}
	r := Bounds([]model.Event{ev}, now)
	if r.Seconds() < (24 * time.Hour).Seconds() {
		t.Fatalf("span %vs should be at least one day", r.Seconds())
	}
	if x := r.XPos(r.Max, 100); x != 100 {
		t.Fatalf("XPos(max) = %v, want 100", x)
	}
}

func TestTicks(t *testing.T) {
	for _, events := range [][]model.Event{nil, model.SampleEvents()} {
		r := Bounds(events, now)
		ticks := r.Ticks()
		if len(ticks) != 11 {
			t.Fatalf("expected 11 ticks, got %d", len(ticks))
		}
		if !ticks[0].Equal(r.Min) || !ticks[10].Equal(r.Max) {
			t.Fatalf("ticks must span [min, max], got %v .. %v", ticks[0], ticks[10])
		}
		for i := 1; i < len(ticks); i++ {
			if ticks[i].Before(ticks[i-1]) {
				t.Fatalf("ticks decrease at %d", i)
			}
		}
	}
}

func TestLongRangeStaysLinear(t *testing.T) {
	// A mistyped year stretches the range past what a time.Duration holds.
	events := []model.Event{
		{ID: "typo", Category: model.CategoryJob, Title: "Old", Start: date(202, 1, 1)},
		{ID: "real", Category: model.CategoryJob, Title: "New", Start: date(2023, 1, 1)},
	}
	r := Bounds(events, now)
	ticks := r.Ticks()
	step := secondsBetween(ticks[0], ticks[1])
	for i := 1; i < len(ticks); i++ {
		gap := secondsBetween(ticks[i-1], ticks[i])
		if math.Abs(gap-step) > 1 {
			t.Fatalf("tick %d gap %vs, want %vs", i, gap, step)
		}
	}
	if !ticks[TickCount-1].Equal(r.Max) {
		t.Fatalf("last tick %v, want %v", ticks[TickCount-1], r.Max)
	}

	if x := r.XPos(r.Max, 800); x != 800 {
		t.Fatalf("XPos(max) = %v, want 800", x)
	}
	x := r.XPos(date(2023, 1, 1), 800)
	if x >= 800 || x < 790 {
		t.Fatalf("XPos(2023-01-01) = %v, want just under 800", x)
	}
	if mid := r.XPos(date(1112, 7, 2), 800); math.Abs(mid-400) > 1 {
		t.Fatalf("XPos(midpoint) = %v, want about 400", mid)
	}
}

func TestXPosLinearAndMonotonic(t *testing.T) {
	r := Range{Min: date(2020, 1, 1), Max: date(2020, 1, 11)}
	if x := r.XPos(r.Min, 1000); x != 0 {
		t.Fatalf("XPos(min) = %v", x)
	}
	if x := r.XPos(date(2020, 1, 6), 1000); x != 500 {
		t.Fatalf("XPos(mid) = %v, want 500", x)
	}
	if x := r.XPos(r.Max, 1000); x != 1000 {
		t.Fatalf("XPos(max) = %v", x)
	}
	prev := -1.0
	for d := r.Min; !d.After(r.Max); d = d.Add(7 * time.Hour) {
		x := r.XPos(d, 640)
		if x < prev {
			t.Fatalf("XPos not monotonic at %v", d)
		}
		prev = x
	}
}

func TestProjectRowsAndWidths(t *testing.T) {
	events := []model.Event{
		{ID: "late", Category: model.CategoryVehicle, Title: "Car", Start: date(2021, 1, 1), End: model.Until(date(2021, 1, 2))},
		{ID: "tieA", Category: model.CategoryJob, Title: "Job A", Start: date(2020, 1, 1), End: model.Until(date(2020, 12, 31))},
		{ID: "tieB", Category: model.CategoryResidence, Title: "Flat", Start: date(2020, 1, 1), End: model.Until(date(2020, 6, 1))},
	}
	l := Project(events, Options{Width: 1000, Now: now})

	order := []string{"tieA", "tieB", "late"}
	if len(l.Bars) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(l.Bars))
	}
	for i, id := range order {
		b := l.Bars[i]
		if b.Event.ID != id || b.Row != i {
			t.Fatalf("row %d = %s, want %s", i, b.Event.ID, id)
		}
		if b.Y != float64(i)*DefaultRowHeight+DefaultBarInset || b.Height != DefaultBarHeight {
			t.Fatalf("row %d geometry y=%v h=%v", i, b.Y, b.Height)
		}
	}

	// A one-day event is floored to the minimum width and loses its label.
	short := l.Bars[2]
	if short.Width != DefaultMinWidth {
		t.Fatalf("short bar width = %v, want %v", short.Width, DefaultMinWidth)
	}
	if short.Label != "" {
		t.Fatalf("narrow bar should hide its label, got %q", short.Label)
	}
	if d, _ := short.Event.End.Date(); !d.Equal(date(2021, 1, 2)) {
		t.Fatal("width floor must not change stored dates")
	}

	long := l.Bars[0]
	want := l.Range.XPos(date(2020, 12, 31), 1000) - l.Range.XPos(date(2020, 1, 1), 1000)
	if long.Width != want || long.Label != "Job A" {
		t.Fatalf("long bar width=%v label=%q, want %v", long.Width, long.Label, want)
	}
	if len(l.Ticks) != TickCount || l.Ticks[0].X != 0 || l.Ticks[TickCount-1].X != 1000 {
		t.Fatalf("ticks = %+v", l.Ticks)
	}
}

func TestProjectOngoingExtendsToNow(t *testing.T) {
	ev := model.Event{ID: "j", Category: model.CategoryJob, Title: "Dev", Start: date(2020, 3, 1)}
	l := Project([]model.Event{ev}, Options{Width: 500, Now: now})
	b := l.Bars[0]
	want := l.Range.XPos(now, 500) - l.Range.XPos(ev.Start, 500)
	if b.Width != want {
		t.Fatalf("ongoing width = %v, want %v", b.Width, want)
	}
}

func TestProjectCategoryFilterKeepsFullRange(t *testing.T) {
	events := model.SampleEvents()
	all := Project(events, Options{Now: now})
	jobs := Project(events, Options{Now: now, Category: model.CategoryJob})
	if len(jobs.Bars) != 1 || jobs.Bars[0].Event.Category != model.CategoryJob {
		t.Fatalf("filter kept %+v", jobs.Bars)
	}
	if !jobs.Range.Min.Equal(all.Range.Min) || !jobs.Range.Max.Equal(all.Range.Max) {
		t.Fatalf("filtered range %v differs from full range %v", jobs.Range, all.Range)
	}
	if jobs.Width != DefaultWidth || jobs.Height != DefaultHeight {
		t.Fatalf("defaults not applied: %vx%v", jobs.Width, jobs.Height)
	}
}
