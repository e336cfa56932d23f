// Package exchange moves whole datasets in and out of the event store:
// CSV import (validated, deduplicated merge) and JSON export/import
// (wholesale replace).
package exchange

import (
	"context"
	"fmt"
	"strings"

	appLog "lifetimeline/internal/log"
	"lifetimeline/internal/model"
)

// Store is the part of the event store the pipelines write to.
type Store interface {
	List() []model.Event
	Append(ctx context.Context, events []model.Event) ([]model.Event, error)
	Replace(ctx context.Context, events []model.Event) error
}

// Template is the CSV file offered for download.
const Template = `Category,Title,Start Date,End Date,Notes
Residence,"My First Apartment",2023-01-01,2024-01-01,"Great location near downtown"
Job,"Software Developer",2023-06-01,,"Working at a tech startup"
Vehicle,"Honda Civic",2022-03-15,2024-03-15,"Reliable car for commuting"`

// Report summarizes a successful import.
type Report struct {
	// Rows is the number of data rows that carried a title and a start.
	Rows int `json:"rows"`
	// Added is the number of events appended to the store.
	Added int `json:"added"`
	// Incomplete counts rows skipped for a missing title or start.
	Incomplete int `json:"incomplete"`
	// Duplicates counts rows dropped because the store already held them.
	Duplicates int `json:"duplicates"`
}

// row is one non-blank data line.
type row struct {
	line   int
	fields [5]string
}

// ImportCSV validates every row of text and, only if all of them pass,
// merges the new ones into s. Any failure leaves s untouched.
func ImportCSV(ctx context.Context, s Store, text string) (Report, error) {
	rows, err := parseCSV(text)
	if err != nil {
		return Report{}, err
	}

	var rep Report
	candidates := make([]model.Event, 0, len(rows))
	for _, r := range rows {
		ev, ok, err := r.event()
		if err != nil {
			appLog.Info("csv import rejected", "line", r.line, "err", err)
			return Report{}, err
		}
		if !ok {
			rep.Incomplete++
			continue
		}
		candidates = append(candidates, ev)
	}
	rep.Rows = len(candidates)

	seen := make(map[model.DedupKey]struct{}, len(candidates))
	for _, ev := range s.List() {
		seen[ev.Key()] = struct{}{}
	}
	fresh := make([]model.Event, 0, len(candidates))
	for _, ev := range candidates {
		k := ev.Key()
		if _, dup := seen[k]; dup {
			rep.Duplicates++
			continue
		}
		seen[k] = struct{}{}
		fresh = append(fresh, ev)
	}

	added, err := s.Append(ctx, fresh)
	if err != nil {
		return Report{}, fmt.Errorf("exchange: csv merge: %w", err)
	}
	rep.Added = len(added)
	appLog.Info("csv import finished",
		"rows", rep.Rows,
		"added", rep.Added,
		"duplicates", rep.Duplicates,
		"incomplete", rep.Incomplete,
	)
	return rep, nil
}

// parseCSV splits text into data rows, dropping the header and blank lines.
// Row line numbers are 1-indexed positions in the source text.
func parseCSV(text string) ([]row, error) {
	lines := strings.Split(text, "\n")
	rows := make([]row, 0, len(lines))
	header := false
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !header {
			header = true
			continue
		}
		r := row{line: i + 1}
		copy(r.fields[:], splitFields(line))
		rows = append(rows, r)
	}
	if len(rows) == 0 {
		return nil, &model.FormatError{Msg: "CSV must have at least a header row and one data row"}
	}
	return rows, nil
}

// splitFields splits a line on commas outside double quotes. A quote
// toggles quoted mode and is not kept; there is no escaping.
func splitFields(line string) []string {
	var (
		fields   []string
		cur      strings.Builder
		inQuotes bool
	)
	for _, ch := range line {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			fields = append(fields, cleanField(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(ch)
		}
	}
	return append(fields, cleanField(cur.String()))
}

func cleanField(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return s
}

// event maps the row to an Event. ok is false for an incomplete row (no
// title or no start), which is skipped rather than rejected.
func (r row) event() (model.Event, bool, error) {
	category, title, start, end, notes := r.fields[0], r.fields[1], r.fields[2], r.fields[3], r.fields[4]
	if title == "" || start == "" {
		return model.Event{}, false, nil
	}

	ev := model.Event{Category: model.Category(category), Title: title, Notes: notes}
	if !ev.Category.Valid() {
		return model.Event{}, false, &model.ValidationError{
			Field: "category",
			Value: category,
			Line:  r.line,
			Msg: fmt.Sprintf("invalid category %q on line %d. Must be one of: %s",
				category, r.line, model.CategoryNames()),
		}
	}
	d, err := model.ParseDate(start)
	if err != nil {
		return model.Event{}, false, &model.ValidationError{
			Field: "start",
			Value: start,
			Line:  r.line,
			Msg:   fmt.Sprintf("invalid start date %q on line %d", start, r.line),
		}
	}
	ev.Start = d
	if end != "" {
		d, err := model.ParseDate(end)
		if err != nil {
			return model.Event{}, false, &model.ValidationError{
				Field: "end",
				Value: end,
				Line:  r.line,
				Msg:   fmt.Sprintf("invalid end date %q on line %d", end, r.line),
			}
		}
		ev.End = model.Until(d)
	}
	return ev, true, nil
}
