package persist

import (
	"context"
	"database/sql"
	"fmt"

	"lifetimeline/internal/model"
)

// eventsDDL is shared by the SQL backends. Row order is kept in position.
const eventsDDL = `CREATE TABLE IF NOT EXISTS events (
	position INTEGER PRIMARY KEY,
	id       TEXT NOT NULL UNIQUE,
	category TEXT NOT NULL,
	title    TEXT NOT NULL,
	start    TEXT NOT NULL,
	end_date TEXT NOT NULL DEFAULT '',
	notes    TEXT NOT NULL DEFAULT ''
)`

func loadEvents(ctx context.Context, db *sql.DB) ([]model.Event, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, category, title, start, end_date, notes FROM events ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("persist: select events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	events := make([]model.Event, 0)
	for rows.Next() {
		var r model.Record
		if err := rows.Scan(&r.ID, &r.Category, &r.Title, &r.Start, &r.End, &r.Notes); err != nil {
			return nil, fmt.Errorf("persist: scan: %w", err)
		}
		ev, err := r.Event()
		if err != nil {
			return nil, fmt.Errorf("persist: decode event %q: %w", r.ID, err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("persist: iterate events: %w", err)
	}
	return events, nil
}

// replaceEvents swaps the whole table for events in one transaction. insert
// takes seven positional parameters in column order.
func replaceEvents(ctx context.Context, db *sql.DB, insert string, events []model.Event) (retErr error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("persist: begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM events`); err != nil {
		return fmt.Errorf("persist: clear events: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("persist: prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, ev := range events {
		r := ev.Record()
		if _, err := stmt.ExecContext(ctx, i, r.ID, r.Category, r.Title, r.Start, r.End, r.Notes); err != nil {
			return fmt.Errorf("persist: insert %q: %w", r.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("persist: commit: %w", err)
	}
	return nil
}
