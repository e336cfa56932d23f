package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != "127.0.0.1:8080" || cfg.Storage.Driver != "file" || !cfg.SeedSample {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600, got %o", perm)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "listen: 0.0.0.0:9000\nseed_sample: false\nstorage:\n  driver: sqlite\n  path: /data/events.db\nbackup:\n  cron: \"0 3 * * *\"\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != "0.0.0.0:9000" || cfg.SeedSample {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Storage.Driver != "sqlite" || cfg.Storage.Path != "/data/events.db" {
		t.Fatalf("storage = %+v", cfg.Storage)
	}
	if cfg.Backup.Cron != "0 3 * * *" || cfg.Backup.Keep != 7 {
		t.Fatalf("backup = %+v", cfg.Backup)
	}
	if cfg.Timeline.Width != 800 || cfg.Timeline.MinWidth != 40 {
		t.Fatalf("timeline defaults lost: %+v", cfg.Timeline)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := Save(path, DefaultConfig()); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LIFETIMELINE_LISTEN", ":7000")
	t.Setenv("LIFETIMELINE_STORAGE_DRIVER", "memory")
	t.Setenv("LIFETIMELINE_BACKUP_KEEP", "3")
	t.Setenv("LIFETIMELINE_BASIC_AUTH_USERNAME", "me")
	t.Setenv("LIFETIMELINE_BASIC_AUTH_PASSWORD", "secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":7000" || cfg.Storage.Driver != "memory" || cfg.Backup.Keep != 3 {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if !cfg.BasicAuthEnabled() {
		t.Fatal("basic auth should be enabled")
	}
}

func TestLoadEnvError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := Save(path, DefaultConfig()); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LIFETIMELINE_BACKUP_KEEP", "many")
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env error, got %v", err)
	}
}

func TestNormalizeUnknownDriver(t *testing.T) {
	cfg := &Config{Storage: StorageConfig{Driver: "redis"}}
	cfg.Normalize()
	if cfg.Storage.Driver != "file" || cfg.Listen == "" || cfg.Backup.Keep != 7 {
		t.Fatalf("normalize = %+v", cfg)
	}
	if cfg.BasicAuthEnabled() {
		t.Fatal("basic auth should be disabled without credentials")
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listen: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected decode error")
	}
}
