package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	appLog "lifetimeline/internal/log"
	"lifetimeline/internal/model"
)

// ExportJSON renders events as a pretty-printed JSON array.
func ExportJSON(events []model.Event) ([]byte, error) {
	if events == nil {
		events = []model.Event{}
	}
	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("exchange: encode json: %w", err)
	}
	return data, nil
}

// ImportJSON replaces the whole store with the events in data. Malformed
// JSON or a value other than an array is a FormatError; an element with a
// bad field is a ValidationError. In both cases s is left untouched.
func ImportJSON(ctx context.Context, s Store, data []byte) (Report, error) {
	if !json.Valid(data) {
		var probe any
		err := json.Unmarshal(data, &probe)
		return Report{}, &model.FormatError{Msg: "invalid JSON", Err: err}
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return Report{}, &model.FormatError{Msg: "invalid JSON format: expected an array of events"}
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return Report{}, &model.FormatError{Msg: "invalid JSON", Err: err}
	}

	events := make([]model.Event, 0, len(elems))
	ids := make(map[string]int, len(elems))
	for i, raw := range elems {
		ev, err := decodeElement(i, raw)
		if err != nil {
			return Report{}, err
		}
		if ev.ID != "" {
			if first, dup := ids[ev.ID]; dup {
				return Report{}, &model.ValidationError{
					Field: "id",
					Value: ev.ID,
					Msg:   fmt.Sprintf("event %d: id %q already used by event %d", i, ev.ID, first),
				}
			}
			ids[ev.ID] = i
		}
		events = append(events, ev)
	}

	if err := s.Replace(ctx, events); err != nil {
		return Report{}, fmt.Errorf("exchange: json replace: %w", err)
	}
	appLog.Info("json import finished", "events", len(events))
	return Report{Rows: len(events), Added: len(events)}, nil
}

func decodeElement(i int, raw json.RawMessage) (model.Event, error) {
	var rec model.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return model.Event{}, &model.FormatError{Msg: fmt.Sprintf("event %d is not an object of strings", i), Err: err}
	}
	ev, err := rec.Event()
	if err == nil {
		err = ev.Validate()
	}
	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			out := *verr
			out.Msg = fmt.Sprintf("event %d: %s", i, verr.Msg)
			return model.Event{}, &out
		}
		return model.Event{}, err
	}
	return ev, nil
}
