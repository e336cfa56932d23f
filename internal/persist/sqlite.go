package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"lifetimeline/internal/model"
)

// SQLite snapshots the full event list into a single table after every
// mutation. Row order is kept in the position column.
type SQLite struct {
	db   *sql.DB
	path string
}

// NewSQLite opens (creating if needed) the database at path.
func NewSQLite(path string) (*SQLite, error) {
	if path == "" {
		path = "lifetimeline.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("persist: create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("persist: open sqlite: %w", err)
	}
	if _, err := db.Exec(eventsDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("persist: create events table: %w", err)
	}
	return &SQLite{db: db, path: path}, nil
}

// Load returns the events in stored order.
func (s *SQLite) Load(ctx context.Context) ([]model.Event, error) {
	return loadEvents(ctx, s.db)
}

// Save replaces the table contents in one transaction.
func (s *SQLite) Save(ctx context.Context, events []model.Event) error {
	return replaceEvents(ctx, s.db, `INSERT INTO events(position, id, category, title, start, end_date, notes) VALUES(?,?,?,?,?,?,?)`, events)
}

// Close releases the database handle.
func (s *SQLite) Close() error { return s.db.Close() }

// Path returns the configured database path.
func (s *SQLite) Path() string { return s.path }
