package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. LIFETIMELINE_LISTEN.
const EnvPrefix = "LIFETIMELINE_"

// StorageConfig selects where events are persisted.
type StorageConfig struct {
	// Driver is "file" (JSON document), "sqlite", "postgres" or "memory".
	Driver string `yaml:"driver" json:"driver" env:"DRIVER"`
	// Path is the JSON file or SQLite database path.
	Path string `yaml:"path" json:"path" env:"PATH"`
	// DSN is the Postgres connection string, used by the postgres driver.
	DSN string `yaml:"dsn" json:"dsn" env:"DSN"`
}

// Target returns the location handed to the storage driver.
func (s StorageConfig) Target() string {
	if s.Driver == "postgres" {
		return s.DSN
	}
	return s.Path
}

// BackupConfig controls scheduled JSON backups.
type BackupConfig struct {
	// Cron is a cron-style schedule (e.g. "0 3 * * *"). Empty disables backups.
	Cron string `yaml:"cron" json:"cron" env:"CRON"`
	// Dir receives timestamped backup files.
	Dir string `yaml:"dir" json:"dir" env:"DIR"`
	// Keep is how many backups are retained; older ones are pruned.
	Keep int `yaml:"keep" json:"keep" env:"KEEP"`

	S3 S3Config `yaml:"s3" json:"s3" envPrefix:"S3_"`
}

// S3Config uploads each backup to an S3-compatible bucket as well. Empty
// Bucket disables the upload. Credentials come from the AWS default chain.
type S3Config struct {
	Bucket    string `yaml:"bucket" json:"bucket" env:"BUCKET"`
	Region    string `yaml:"region" json:"region" env:"REGION"`
	Endpoint  string `yaml:"endpoint" json:"endpoint" env:"ENDPOINT"`
	Prefix    string `yaml:"prefix" json:"prefix" env:"PREFIX"`
	PathStyle bool   `yaml:"path_style" json:"path_style" env:"PATH_STYLE"`
}

// TimelineConfig holds default layout geometry for /api/layout.
type TimelineConfig struct {
	Width     float64 `yaml:"width" json:"width" env:"WIDTH"`
	Height    float64 `yaml:"height" json:"height" env:"HEIGHT"`
	RowHeight float64 `yaml:"row_height" json:"row_height" env:"ROW_HEIGHT"`
	MinWidth  float64 `yaml:"min_width" json:"min_width" env:"MIN_WIDTH"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API. Auth is
// enabled only when both fields are set.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username" env:"USERNAME"`
	Password string `yaml:"password" json:"password" env:"PASSWORD"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen" env:"LISTEN"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level" env:"LOG_LEVEL"`

	// SeedSample loads two sample events when the store starts empty.
	SeedSample bool `yaml:"seed_sample" json:"seed_sample" env:"SEED_SAMPLE"`

	// Metrics exposes Prometheus metrics on /metrics.
	Metrics bool `yaml:"metrics" json:"metrics" env:"METRICS"`

	Storage   StorageConfig   `yaml:"storage" json:"storage" envPrefix:"STORAGE_"`
	Backup    BackupConfig    `yaml:"backup" json:"backup" envPrefix:"BACKUP_"`
	Timeline  TimelineConfig  `yaml:"timeline" json:"timeline" envPrefix:"TIMELINE_"`
	BasicAuth BasicAuthConfig `yaml:"basic_auth" json:"basic_auth" envPrefix:"BASIC_AUTH_"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:     "127.0.0.1:8080",
		LogLevel:   "info",
		SeedSample: true,
		Metrics:    true,
		Storage: StorageConfig{
			Driver: "file",
			Path:   "./var/events.json",
		},
		Backup: BackupConfig{
			Cron: "",
			Dir:  "./var/backups",
			Keep: 7,
		},
		Timeline: TimelineConfig{
			Width:     800,
			Height:    400,
			RowHeight: 40,
			MinWidth:  40,
		},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	switch c.Storage.Driver {
	case "file", "sqlite", "postgres", "memory":
		// ok
	default:
		// Unknown driver; fall back to the JSON file.
		c.Storage.Driver = def.Storage.Driver
	}
	if c.Storage.Path == "" {
		c.Storage.Path = def.Storage.Path
	}
	if c.Backup.Dir == "" {
		c.Backup.Dir = def.Backup.Dir
	}
	if c.Backup.Keep <= 0 {
		c.Backup.Keep = def.Backup.Keep
	}
	if c.Timeline.Width <= 0 {
		c.Timeline.Width = def.Timeline.Width
	}
	if c.Timeline.Height <= 0 {
		c.Timeline.Height = def.Timeline.Height
	}
	if c.Timeline.RowHeight <= 0 {
		c.Timeline.RowHeight = def.Timeline.RowHeight
	}
	if c.Timeline.MinWidth <= 0 {
		c.Timeline.MinWidth = def.Timeline.MinWidth
	}
}

// BasicAuthEnabled reports whether both credentials are configured.
func (c *Config) BasicAuthEnabled() bool {
	return c.BasicAuth.Username != "" && c.BasicAuth.Password != ""
}

// Load loads configuration from the given YAML path, then applies
// LIFETIMELINE_* environment overrides.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - If the file exists:
//   - read YAML over the defaults, so missing keys keep their default
//   - Environment overrides win over the file and are never written back.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// First run: create default config file.
		if err := Save(path, cfg); err != nil {
			// Even if save fails, return cfg with error so caller can decide.
			return cfg, err
		}
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return cfg, nil
}

// ApplyEnv overrides fields from LIFETIMELINE_* environment variables.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".lifetimeline-config-*.tmp")
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
