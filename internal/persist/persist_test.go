package persist

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lifetimeline/internal/model"
)

func sample() []model.Event {
	return model.SampleEvents()
}

func assertSameEvents(t *testing.T, got, want []model.Event) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(got))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("event %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestFileMissingIsEmpty(t *testing.T) {
	f, err := NewFile(filepath.Join(t.TempDir(), "events.json"))
	if err != nil {
		t.Fatalf("new file: %v", err)
	}
	events, err := f.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected empty store, got %d events", len(events))
	}
}

func TestFileSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "events.json")
	f, err := NewFile(path)
	if err != nil {
		t.Fatalf("new file: %v", err)
	}
	ctx := context.Background()
	if err := f.Save(ctx, sample()); err != nil {
		t.Fatalf("save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600 permissions, got %o", perm)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `"end": ""`) {
		t.Fatalf("ongoing end should be stored as empty string:\n%s", data)
	}

	again, _ := NewFile(path)
	got, err := again.Load(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	assertSameEvents(t, got, sample())
}

func TestFileLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	f, _ := NewFile(path)
	if _, err := f.Load(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestSQLiteSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	db, err := NewSQLite(path)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	ctx := context.Background()
	if err := db.Save(ctx, sample()); err != nil {
		t.Fatalf("save: %v", err)
	}
	// A second save replaces the first snapshot.
	if err := db.Save(ctx, sample()[:1]); err != nil {
		t.Fatalf("second save: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })
	got, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	assertSameEvents(t, got, sample()[:1])
}

func TestOpenDrivers(t *testing.T) {
	dir := t.TempDir()
	for _, d := range []Driver{DriverFile, DriverSQLite, DriverMemory} {
		b, err := Open(context.Background(), d, filepath.Join(dir, string(d)))
		if err != nil {
			if d == DriverSQLite {
				t.Skipf("sqlite unavailable: %v", err)
			}
			t.Fatalf("open %s: %v", d, err)
		}
		if err := b.Save(context.Background(), sample()); err != nil {
			t.Fatalf("%s save: %v", d, err)
		}
		got, err := b.Load(context.Background())
		if err != nil {
			t.Fatalf("%s load: %v", d, err)
		}
		assertSameEvents(t, got, sample())
		_ = b.Close()
	}
	if _, err := Open(context.Background(), "redis", ""); err == nil {
		t.Fatal("expected unknown driver error")
	}
}
