package timeline

import (
	"math"
	"sort"
	"time"

	"lifetimeline/internal/model"
)

// Default geometry, in coordinate units.
const (
	DefaultWidth         = 800
	DefaultHeight        = 400
	DefaultRowHeight     = 40
	DefaultBarHeight     = 30
	DefaultBarInset      = 5
	DefaultMinWidth      = 40
	DefaultLabelMinWidth = 60
)

// Options controls a projection. Zero values take the defaults above.
type Options struct {
	Width         float64
	Height        float64
	RowHeight     float64
	BarHeight     float64
	BarInset      float64
	MinWidth      float64
	LabelMinWidth float64

	// Category, when set, keeps only rows of that category. The range is
	// still computed over every event.
	Category model.Category

	// Now closes ongoing events. Zero means time.Now().
	Now time.Time
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.RowHeight <= 0 {
		o.RowHeight = DefaultRowHeight
	}
	if o.BarHeight <= 0 {
		o.BarHeight = DefaultBarHeight
	}
	if o.BarInset <= 0 {
		o.BarInset = DefaultBarInset
	}
	if o.MinWidth <= 0 {
		o.MinWidth = DefaultMinWidth
	}
	if o.LabelMinWidth <= 0 {
		o.LabelMinWidth = DefaultLabelMinWidth
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	return o
}

// Tick is one axis label point.
type Tick struct {
	Date time.Time `json:"date"`
	X    float64   `json:"x"`
}

// Bar is the geometry of one event row. Label is empty when the bar is too
// narrow to carry the title.
type Bar struct {
	Event  model.Event `json:"event"`
	Row    int         `json:"row"`
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
	Width  float64     `json:"width"`
	Height float64     `json:"height"`
	Label  string      `json:"label"`
}

// Layout is the full projected geometry.
type Layout struct {
	Range  Range   `json:"range"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Ticks  []Tick  `json:"ticks"`
	Bars   []Bar   `json:"bars"`
}

// Project lays events out one per row in start-date order, ties keeping
// insertion order. A bar is never narrower than MinWidth; that floor only
// affects geometry, never the stored dates.
func Project(events []model.Event, opts Options) Layout {
	opts = opts.withDefaults()
	r := Bounds(events, opts.Now)

	out := Layout{
		Range:  r,
		Width:  opts.Width,
		Height: opts.Height,
		Ticks:  make([]Tick, 0, TickCount),
		Bars:   make([]Bar, 0, len(events)),
	}
	for _, t := range r.Ticks() {
		out.Ticks = append(out.Ticks, Tick{Date: t, X: r.XPos(t, opts.Width)})
	}

	rows := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if opts.Category != "" && ev.Category != opts.Category {
			continue
		}
		rows = append(rows, ev)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Start.Before(rows[j].Start)
	})

	for i, ev := range rows {
		start, end := ev.Interval(opts.Now)
		x := r.XPos(start, opts.Width)
		w := math.Max(r.XPos(end, opts.Width)-x, opts.MinWidth)
		label := ev.Title
		if w < opts.LabelMinWidth {
			label = ""
		}
		out.Bars = append(out.Bars, Bar{
			Event:  ev,
			Row:    i,
			X:      x,
			Y:      float64(i)*opts.RowHeight + opts.BarInset,
			Width:  w,
			Height: opts.BarHeight,
			Label:  label,
		})
	}
	return out
}
