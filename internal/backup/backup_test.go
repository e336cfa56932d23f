package backup

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"lifetimeline/internal/model"
)

func TestRunWritesAndPrunes(t *testing.T) {
	dir := t.TempDir()
	job, err := NewJob(dir, 2, model.SampleEvents)
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	clock := time.Date(2025, time.October, 19, 3, 0, 0, 0, time.UTC)
	job.now = func() time.Time {
		clock = clock.Add(time.Hour)
		return clock
	}

	var last string
	for i := 0; i < 3; i++ {
		if last, err = job.Run(context.Background()); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	files, err := job.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 retained backups, got %v", files)
	}
	if files[1] != last || filepath.Base(last) != "events-20251019T060000Z.json" {
		t.Fatalf("newest backup = %s, files %v", last, files)
	}

	data, err := os.ReadFile(last)
	if err != nil {
		t.Fatal(err)
	}
	var events []model.Event
	if err := json.Unmarshal(data, &events); err != nil {
		t.Fatalf("backup is not a JSON export: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events in backup, got %d", len(events))
	}
}

func TestNewJobValidation(t *testing.T) {
	if _, err := NewJob("", 1, model.SampleEvents); err == nil {
		t.Fatal("expected error for empty dir")
	}
	if _, err := NewJob(t.TempDir(), 1, nil); err == nil {
		t.Fatal("expected error for nil snapshot")
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	job, _ := NewJob(t.TempDir(), 1, model.SampleEvents)
	if _, err := Start("every tuesday", job); err == nil {
		t.Fatal("expected schedule parse error")
	}
	s, err := Start("0 3 * * *", job)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
