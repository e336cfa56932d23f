package persist

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"lifetimeline/internal/model"
)

const defaultPostgresDSN = "postgres://localhost/lifetimeline?sslmode=disable"

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Postgres keeps the event list in the same single-table layout as SQLite.
type Postgres struct {
	db *sql.DB
}

// NewPostgres connects to dsn (falls back to a local default), pings the
// server and ensures the events table exists.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		dsn = defaultPostgresDSN
	}
	openMu.Lock()
	db, err := sqlOpen("pgx", dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("persist: open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("persist: ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, eventsDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("persist: create events table: %w", err)
	}
	return &Postgres{db: db}, nil
}

// Load returns the events in stored order.
func (p *Postgres) Load(ctx context.Context) ([]model.Event, error) {
	return loadEvents(ctx, p.db)
}

// Save replaces the table contents in one transaction.
func (p *Postgres) Save(ctx context.Context, events []model.Event) error {
	return replaceEvents(ctx, p.db, `INSERT INTO events(position, id, category, title, start, end_date, notes) VALUES($1,$2,$3,$4,$5,$6,$7)`, events)
}

// Close releases the connection pool.
func (p *Postgres) Close() error { return p.db.Close() }

// OverrideSQLOpen swaps the sql.Open function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
