package model

import (
	"strings"
	"time"
)

// Category is one of the fixed kinds of life event.
type Category string

const (
	CategoryResidence    Category = "Residence"
	CategoryJob          Category = "Job"
	CategoryRelationship Category = "Relationship"
	CategoryVehicle      Category = "Vehicle"
)

// Categories lists every category in display order. Snapshot results and
// error messages follow this order.
var Categories = []Category{
	CategoryResidence,
	CategoryJob,
	CategoryRelationship,
	CategoryVehicle,
}

// Valid reports whether c is one of the fixed categories. Matching is exact
// (case-sensitive), the same way imported files are checked.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// CategoryNames joins the category names for messages.
func CategoryNames() string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

// End is the optional end of an event: either bounded by a calendar date or
// ongoing. The zero value is ongoing.
type End struct {
	date    time.Time
	bounded bool
}

// Ongoing returns an open-ended End.
func Ongoing() End { return End{} }

// Until returns an End bounded by the calendar date of d.
func Until(d time.Time) End {
	return End{date: DateOf(d), bounded: true}
}

// Date returns the end date and true, or the zero time and false when the
// event is ongoing.
func (e End) Date() (time.Time, bool) {
	return e.date, e.bounded
}

// IsOngoing reports whether the event has no end date.
func (e End) IsOngoing() bool { return !e.bounded }

// Resolve returns the end date, or now for an ongoing event.
func (e End) Resolve(now time.Time) time.Time {
	if e.bounded {
		return e.date
	}
	return now
}

// String formats the end date, or "" when ongoing.
func (e End) String() string {
	if !e.bounded {
		return ""
	}
	return FormatDate(e.date)
}

// Equal reports whether both ends are ongoing or bounded by the same date.
func (e End) Equal(o End) bool {
	if e.bounded != o.bounded {
		return false
	}
	return !e.bounded || e.date.Equal(o.date)
}

// Event is a single life event. Start <= End is deliberately not enforced;
// an inverted event is stored as given and matches nothing at query time.
type Event struct {
	ID       string
	Category Category
	Title    string
	Start    time.Time
	End      End
	Notes    string
}

// Interval returns the [start, effective end] span of the event, closing an
// ongoing event at now.
func (e Event) Interval(now time.Time) (time.Time, time.Time) {
	return e.Start, e.End.Resolve(now)
}

// Validate checks the invariants every stored event must satisfy.
func (e Event) Validate() error {
	if !e.Category.Valid() {
		return &ValidationError{
			Field: "category",
			Value: string(e.Category),
			Msg:   `invalid category "` + string(e.Category) + `". Must be one of: ` + CategoryNames(),
		}
	}
	if strings.TrimSpace(e.Title) == "" {
		return &ValidationError{Field: "title", Msg: "title is required"}
	}
	if e.Start.IsZero() {
		return &ValidationError{Field: "start", Msg: "start date is required"}
	}
	return nil
}

// Equal reports whether two events carry the same fields.
func (e Event) Equal(o Event) bool {
	return e.ID == o.ID &&
		e.Category == o.Category &&
		e.Title == o.Title &&
		e.Start.Equal(o.Start) &&
		e.End.Equal(o.End) &&
		e.Notes == o.Notes
}

// DedupKey is the composite key imports use to recognise an event that is
// already stored.
type DedupKey struct {
	Category Category
	Title    string
	Start    string
}

// Key returns the event's dedup key.
func (e Event) Key() DedupKey {
	return DedupKey{Category: e.Category, Title: e.Title, Start: FormatDate(e.Start)}
}
