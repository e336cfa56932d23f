package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"lifetimeline/internal/backup"
	"lifetimeline/internal/config"
	"lifetimeline/internal/exchange"
	"lifetimeline/internal/ics"
	appLog "lifetimeline/internal/log"
	"lifetimeline/internal/model"
	"lifetimeline/internal/persist"
	"lifetimeline/internal/store"
	"lifetimeline/internal/web"
)

const version = "0.1.0"

// flagConfig holds CLI flag values; they override the config file.
type flagConfig struct {
	configPath string
	listen     string
	logLevel   string
	importPath string
	importKind string
	exportPath string
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI flags override config file values if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.logLevel != "" {
		conf.LogLevel = flags.logLevel
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	appLog.Info("lifetimeline starting", "version", version)
	appLog.Info("effective config",
		"listen", conf.Listen,
		"storage_driver", conf.Storage.Driver,
		"storage_path", conf.Storage.Path,
		"metrics", conf.Metrics,
		"seed_sample", conf.SeedSample,
		"backup_cron", conf.Backup.Cron,
		"basic_auth", conf.BasicAuthEnabled(),
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, conf, flags); err != nil {
		appLog.Error("lifetimeline failed", err)
		os.Exit(1)
	}
	appLog.Info("lifetimeline exiting")
}

func run(ctx context.Context, conf *config.Config, flags flagConfig) error {
	backend, err := persist.Open(ctx, persist.Driver(conf.Storage.Driver), conf.Storage.Target())
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			appLog.Error("failed to close storage", err)
		}
	}()

	st, err := store.Open(ctx, backend)
	if err != nil {
		return err
	}
	if st.Len() == 0 && conf.SeedSample && flags.importPath == "" {
		if err := st.Replace(ctx, model.SampleEvents()); err != nil {
			return fmt.Errorf("seed sample events: %w", err)
		}
		appLog.Info("seeded sample events", "count", st.Len())
	}

	// One-shot modes run a single command and exit.
	if flags.importPath != "" {
		if err := importFile(ctx, st, flags.importPath, flags.importKind); err != nil {
			return err
		}
	}
	if flags.exportPath != "" {
		return exportFile(st, flags.exportPath)
	}
	if flags.importPath != "" {
		return nil
	}

	return serve(ctx, conf, st)
}

func serve(ctx context.Context, conf *config.Config, st *store.Store) error {
	srv := web.NewServer(conf, st)

	if conf.Backup.Cron != "" {
		job, err := backup.NewJob(conf.Backup.Dir, conf.Backup.Keep, func() []model.Event {
			var events []model.Event
			srv.Exclusive(func() { events = st.List() })
			return events
		})
		if err != nil {
			return err
		}
		if conf.Backup.S3.Bucket != "" {
			up, err := backup.NewS3Uploader(ctx, conf.Backup.S3)
			if err != nil {
				return err
			}
			job.SetUploader(up)
			appLog.Info("backup upload enabled", "bucket", conf.Backup.S3.Bucket, "prefix", conf.Backup.S3.Prefix)
		}
		sched, err := backup.Start(conf.Backup.Cron, job)
		if err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			sched.Stop(stopCtx)
		}()
	}

	err := srv.Run(ctx)
	if ctx.Err() != nil {
		appLog.Info("signal received, shutting down")
	}
	return err
}

func importFile(ctx context.Context, st *store.Store, path, kind string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}
	if kind == "" {
		kind = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}

	var rep exchange.Report
	switch kind {
	case "csv":
		rep, err = exchange.ImportCSV(ctx, st, string(data))
	case "json":
		rep, err = exchange.ImportJSON(ctx, st, data)
	default:
		return fmt.Errorf("unknown import kind %q (want csv or json)", kind)
	}
	if err != nil {
		return err
	}
	appLog.Info("import finished", "path", path, "kind", kind,
		"rows", rep.Rows, "added", rep.Added, "incomplete", rep.Incomplete, "duplicates", rep.Duplicates)
	return nil
}

func exportFile(st *store.Store, path string) error {
	var data []byte
	if strings.EqualFold(filepath.Ext(path), ".ics") {
		data = []byte(ics.Export(st.List(), time.Now()))
	} else {
		var err error
		if data, err = exchange.ExportJSON(st.List()); err != nil {
			return err
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	appLog.Info("export written", "path", path, "events", st.Len())
	return nil
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./var/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config if set)")
	flag.StringVar(&cfg.importPath, "import", "", "Import events from this file and exit")
	flag.StringVar(&cfg.importKind, "kind", "", "Import format: csv or json (default: from file extension)")
	flag.StringVar(&cfg.exportPath, "export", "", "Export events to this file and exit (.ics writes iCalendar)")

	flag.Parse()

	return cfg
}
