// Package backup writes periodic JSON snapshots of the event store.
package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"lifetimeline/internal/exchange"
	appLog "lifetimeline/internal/log"
	"lifetimeline/internal/model"
)

const (
	filePrefix = "events-"
	fileSuffix = ".json"
	stampFmt   = "20060102T150405Z"

	runTimeout = 2 * time.Minute
)

// Job writes one backup file per run and keeps the newest Keep files.
type Job struct {
	dir      string
	keep     int
	snapshot func() []model.Event
	now      func() time.Time
	uploader Uploader
}

// NewJob returns a Job reading events through snapshot.
func NewJob(dir string, keep int, snapshot func() []model.Event) (*Job, error) {
	if dir == "" {
		return nil, errors.New("backup: dir is empty")
	}
	if snapshot == nil {
		return nil, errors.New("backup: snapshot func is nil")
	}
	if keep <= 0 {
		keep = 1
	}
	return &Job{dir: dir, keep: keep, snapshot: snapshot, now: time.Now}, nil
}

// SetUploader makes every run also ship the backup through u.
func (j *Job) SetUploader(u Uploader) { j.uploader = u }

// Run writes a backup and prunes old ones, returning the new file's path.
// An upload failure is returned together with the path of the local copy,
// which is kept.
func (j *Job) Run(ctx context.Context) (string, error) {
	if err := os.MkdirAll(j.dir, 0o700); err != nil {
		return "", fmt.Errorf("backup: create dir: %w", err)
	}
	data, err := exchange.ExportJSON(j.snapshot())
	if err != nil {
		return "", err
	}
	name := filePrefix + j.now().UTC().Format(stampFmt) + fileSuffix
	path := filepath.Join(j.dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("backup: write: %w", err)
	}
	if err := j.prune(); err != nil {
		appLog.Error("backup: prune failed", err, "dir", j.dir)
	}
	if j.uploader != nil {
		if err := j.uploader.Upload(ctx, name, data); err != nil {
			return path, err
		}
	}
	return path, nil
}

// prune removes the oldest backups beyond keep. File names sort by time.
func (j *Job) prune() error {
	files, err := j.List()
	if err != nil {
		return err
	}
	if len(files) <= j.keep {
		return nil
	}
	for _, f := range files[:len(files)-j.keep] {
		if err := os.Remove(f); err != nil {
			return err
		}
	}
	return nil
}

// List returns existing backup paths, oldest first.
func (j *Job) List() ([]string, error) {
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		out = append(out, filepath.Join(j.dir, name))
	}
	sort.Strings(out)
	return out, nil
}

// Scheduler runs a Job on a cron schedule.
type Scheduler struct {
	c *cron.Cron
}

// Start parses schedule (standard 5-field cron) and starts running job.
func Start(schedule string, job *Job) (*Scheduler, error) {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		path, err := job.Run(ctx)
		if err != nil {
			appLog.Error("backup failed", err, "path", path)
			return
		}
		appLog.Info("backup written", "path", path)
	}); err != nil {
		return nil, fmt.Errorf("backup: invalid schedule %q: %w", schedule, err)
	}
	c.Start()
	appLog.Info("backup scheduler started", "cron", schedule, "dir", job.dir, "keep", job.keep)
	return &Scheduler{c: c}, nil
}

// Stop halts the schedule and waits for a running backup, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.c.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
