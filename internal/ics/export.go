// Package ics connects the timeline to calendar tools: an iCalendar export
// of every event and the yearly anniversaries of event starts.
package ics

import (
	"time"

	ical "github.com/arran4/golang-ical"

	"lifetimeline/internal/model"
)

const productID = "-//lifetimeline//Life Timeline//EN"

// Export renders events as an iCalendar document with one all-day VEVENT
// per event. DTEND is exclusive, so a bounded event ends the day after its
// end date. Ongoing events, and events whose end precedes their start,
// carry no DTEND.
func Export(events []model.Event, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetName("Life Timeline")

	for _, ev := range events {
		ve := cal.AddEvent(ev.ID + "@lifetimeline")
		ve.SetDtStampTime(stamp.UTC())
		ve.SetSummary(ev.Title)
		if ev.Notes != "" {
			ve.SetDescription(ev.Notes)
		}
		ve.AddProperty(ical.ComponentPropertyCategories, string(ev.Category))
		ve.SetAllDayStartAt(ev.Start)
		if end, ok := ev.End.Date(); ok && !end.Before(ev.Start) {
			ve.SetAllDayEndAt(end.AddDate(0, 0, 1))
		}
	}
	return cal.Serialize()
}
