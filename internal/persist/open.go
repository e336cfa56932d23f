package persist

import (
	"context"
	"fmt"

	"lifetimeline/internal/model"
)

// Driver selects a persistence backend.
type Driver string

const (
	DriverFile     Driver = "file"
	DriverSQLite   Driver = "sqlite"
	DriverMemory   Driver = "memory"
	DriverPostgres Driver = "postgres"
)

// Backend is what every driver provides.
type Backend interface {
	Load(ctx context.Context) ([]model.Event, error)
	Save(ctx context.Context, events []model.Event) error
	Close() error
}

// Open returns the backend for driver. path is a file path, or the DSN for
// postgres.
func Open(ctx context.Context, driver Driver, path string) (Backend, error) {
	switch driver {
	case DriverFile, "":
		return NewFile(path)
	case DriverSQLite:
		return NewSQLite(path)
	case DriverMemory:
		return NewMemory(), nil
	case DriverPostgres:
		return NewPostgres(ctx, path)
	default:
		return nil, fmt.Errorf("persist: unknown driver %q", driver)
	}
}

// Close is a no-op for the file backend.
func (f *File) Close() error { return nil }

// Close is a no-op for the memory backend.
func (m *Memory) Close() error { return nil }
