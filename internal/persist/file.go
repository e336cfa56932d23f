package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"lifetimeline/internal/model"
)

// File keeps the event list as a pretty-printed JSON array on disk, in the
// same shape the JSON export produces.
type File struct {
	path string
}

// NewFile returns a file persister writing to path.
func NewFile(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("persist: file path is empty")
	}
	return &File{path: path}, nil
}

// Path returns the backing file path.
func (f *File) Path() string { return f.path }

// Load reads the stored events. A missing file is an empty store.
func (f *File) Load(_ context.Context) ([]model.Event, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []model.Event{}, nil
		}
		return nil, fmt.Errorf("persist: read %s: %w", f.path, err)
	}
	if len(data) == 0 {
		return []model.Event{}, nil
	}

	var events []model.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("persist: decode %s: %w", f.path, err)
	}
	if events == nil {
		events = []model.Event{}
	}
	return events, nil
}

// Save rewrites the file atomically: temp file in the same directory, fsync,
// chmod 0600, rename.
func (f *File) Save(_ context.Context, events []model.Event) error {
	if events == nil {
		events = []model.Event{}
	}
	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("persist: encode: %w", err)
	}
	return writeAtomic(f.path, data)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".lifetimeline-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
