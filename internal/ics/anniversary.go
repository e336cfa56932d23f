package ics

import (
	"errors"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	appLog "lifetimeline/internal/log"
	"lifetimeline/internal/model"
)

// Anniversary is one yearly recurrence of an event's start date.
type Anniversary struct {
	Event model.Event `json:"event"`
	Date  time.Time   `json:"date"`
	Years int         `json:"years"`
}

// Anniversaries lists the anniversaries of every event start that fall in
// [from, to], ordered by date. The start date itself (year 0) is not an
// anniversary. An event started on February 29 only recurs in leap years.
func Anniversaries(events []model.Event, from, to time.Time) ([]Anniversary, error) {
	if to.Before(from) {
		return nil, errors.New("ics: anniversary range ends before it starts")
	}
	from, to = model.DateOf(from), model.DateOf(to)

	out := make([]Anniversary, 0)
	for _, ev := range events {
		r, err := rrule.NewRRule(rrule.ROption{
			Freq:    rrule.YEARLY,
			Dtstart: ev.Start,
		})
		if err != nil {
			appLog.Error("ics: failed to build yearly rule", err, "id", ev.ID)
			continue
		}
		for _, d := range r.Between(from, to, true) {
			years := d.Year() - ev.Start.Year()
			if years <= 0 {
				continue
			}
			out = append(out, Anniversary{Event: ev, Date: d, Years: years})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}
