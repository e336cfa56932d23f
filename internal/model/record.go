package model

import (
	"encoding/json"
	"time"
)

// Record is the string-only wire form of an Event used by the JSON export
// and the persistence adapters. End is "" for an ongoing event.
type Record struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Title    string `json:"title"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Notes    string `json:"notes"`
}

// Record converts the event to its wire form.
func (e Event) Record() Record {
	return Record{
		ID:       e.ID,
		Category: string(e.Category),
		Title:    e.Title,
		Start:    FormatDate(e.Start),
		End:      e.End.String(),
		Notes:    e.Notes,
	}
}

// Event parses the record's dates. It does not check the category or the
// required fields; call Event.Validate for that.
func (r Record) Event() (Event, error) {
	ev := Event{
		ID:       r.ID,
		Category: Category(r.Category),
		Title:    r.Title,
		Notes:    r.Notes,
	}
	if r.Start != "" {
		start, err := ParseDate(r.Start)
		if err != nil {
			return Event{}, &ValidationError{
				Field: "start",
				Value: r.Start,
				Msg:   `invalid start date "` + r.Start + `"`,
			}
		}
		ev.Start = start
	}
	if r.End != "" {
		end, err := ParseDate(r.End)
		if err != nil {
			return Event{}, &ValidationError{
				Field: "end",
				Value: r.End,
				Msg:   `invalid end date "` + r.End + `"`,
			}
		}
		ev.End = Until(end)
	}
	return ev, nil
}

func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Record())
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	ev, err := r.Event()
	if err != nil {
		return err
	}
	*e = ev
	return nil
}

// SampleEvents returns the events a fresh installation starts with.
func SampleEvents() []Event {
	return []Event{
		{
			ID:       "1",
			Category: CategoryResidence,
			Title:    "Moved to New York",
			Start:    time.Date(2020, time.January, 15, 0, 0, 0, 0, time.UTC),
			End:      Until(time.Date(2022, time.June, 30, 0, 0, 0, 0, time.UTC)),
			Notes:    "First apartment in the city",
		},
		{
			ID:       "2",
			Category: CategoryJob,
			Title:    "Software Developer at TechCorp",
			Start:    time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC),
			End:      Ongoing(),
			Notes:    "Full-stack development role",
		},
	}
}
