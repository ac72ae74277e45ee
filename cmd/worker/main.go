// Package main - entry point for WOSSIB maintenance tasks.
//
// The worker runs one-shot jobs against the durable mirrors while the bot
// is offline:
// - verify: check that the stored exam and resource mirrors parse
// - prune: drop exams whose scheduled datetime has passed
// - migrate: copy mirrors from one store backend to another
//
// The bot process owns the in-memory state, so maintenance tasks must only
// run against a stopped bot. The worker never serves traffic.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/B-Eddie/WOSSIB/internal/domain/exam"
	"github.com/B-Eddie/WOSSIB/internal/infrastructure/persistence"
	"github.com/B-Eddie/WOSSIB/internal/infrastructure/persistence/jsonfile"
	"github.com/B-Eddie/WOSSIB/internal/infrastructure/persistence/pgblob"
	"github.com/B-Eddie/WOSSIB/internal/infrastructure/persistence/redisblob"
	"github.com/B-Eddie/WOSSIB/internal/infrastructure/scheduler"
	"github.com/B-Eddie/WOSSIB/internal/infrastructure/scheduler/jobs"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains the worker's storage configuration. The worker reads the
// same environment variables as the bot but does not need Discord access.
type Config struct {
	AppEnv   string
	AppDebug bool

	StoreBackend string
	DataDir      string

	DatabaseURL string

	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:        getEnv("APP_ENV", "development"),
		AppDebug:      getEnvBool("APP_DEBUG", false),
		StoreBackend:  getEnv("STORE_BACKEND", "jsonfile"),
		DataDir:       getEnv("STORE_DATA_DIR", "data/store"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnvInt("REDIS_PORT", 6379),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
	}

	if cfg.StoreBackend == "postgres" && cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required with the postgres store backend")
	}

	return cfg, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	task := flag.String("task", "verify", "maintenance task: verify, prune, migrate")
	migrateTo := flag.String("to", "", "destination backend for migrate (jsonfile, redis, postgres)")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := run(ctx, *task, *migrateTo); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, task, migrateTo string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogger(cfg)
	log.Info("starting WOSSIB worker",
		"task", task,
		"store_backend", cfg.StoreBackend,
	)

	store, err := openStore(ctx, cfg, cfg.StoreBackend)
	if err != nil {
		return fmt.Errorf("failed to open blob store: %w", err)
	}
	defer store.Close()

	switch task {
	case "verify":
		return runVerify(ctx, store, log)
	case "prune":
		return runPrune(ctx, store, log)
	case "migrate":
		if migrateTo == "" || migrateTo == cfg.StoreBackend {
			return errors.New("migrate needs -to set to a different backend")
		}
		dest, err := openStore(ctx, cfg, migrateTo)
		if err != nil {
			return fmt.Errorf("failed to open destination store: %w", err)
		}
		defer dest.Close()
		return runMigrate(ctx, store, dest, log)
	default:
		return fmt.Errorf("unknown task %q", task)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// TASKS
// ══════════════════════════════════════════════════════════════════════════════

// runVerify loads both mirrors and reports what they hold.
func runVerify(ctx context.Context, store persistence.BlobStore, log *slog.Logger) error {
	examRecords, err := persistence.NewExamMirror(store).Load(ctx)
	if err != nil {
		return fmt.Errorf("exam mirror does not parse: %w", err)
	}
	log.Info("exam mirror ok", "exams", len(examRecords))
	for _, rec := range examRecords {
		log.Info("exam", "name", rec.DisplayName, "at", rec.At.Format(time.RFC3339), "set_by", rec.SetBy)
	}

	resources, err := persistence.NewResourceMirror(store).Load(ctx)
	if err != nil {
		return fmt.Errorf("resource mirror does not parse: %w", err)
	}
	total := 0
	for _, entries := range resources {
		total += len(entries)
	}
	log.Info("resource mirror ok", "subjects", len(resources), "entries", total)

	return nil
}

// runPrune runs the bot's daily prune job once, on demand: exams whose
// datetime is at or before now are dropped from memory and the mirror is
// rewritten.
func runPrune(ctx context.Context, store persistence.BlobStore, log *slog.Logger) error {
	registry := exam.NewRegistry(persistence.NewExamMirror(store), log)
	registry.Restore(ctx)

	sched := scheduler.NewScheduler(log, time.Local)
	job := jobs.NewPruneExamsJob(registry, time.Now, log)
	if err := sched.Register(job, scheduler.NewIntervalSchedule(24*time.Hour)); err != nil {
		return fmt.Errorf("register prune job: %w", err)
	}
	if err := sched.RunNow(ctx, job.Name()); err != nil {
		return err
	}

	log.Info("prune finished", "remaining", len(registry.List()))
	return nil
}

// runMigrate copies both mirrors to the destination backend. Records are
// round-tripped through their domain form so a corrupt source fails loudly
// instead of copying garbage.
func runMigrate(ctx context.Context, src, dest persistence.BlobStore, log *slog.Logger) error {
	examRecords, err := persistence.NewExamMirror(src).Load(ctx)
	if err != nil {
		return fmt.Errorf("load exams from source: %w", err)
	}
	if err := persistence.NewExamMirror(dest).Save(ctx, examRecords); err != nil {
		return fmt.Errorf("save exams to destination: %w", err)
	}
	log.Info("migrated exams", "count", len(examRecords))

	resources, err := persistence.NewResourceMirror(src).Load(ctx)
	if err != nil {
		return fmt.Errorf("load resources from source: %w", err)
	}
	if err := persistence.NewResourceMirror(dest).Save(ctx, resources); err != nil {
		return fmt.Errorf("save resources to destination: %w", err)
	}
	log.Info("migrated resources", "subjects", len(resources))

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func openStore(ctx context.Context, cfg *Config, backend string) (persistence.BlobStore, error) {
	switch backend {
	case "redis":
		redisCfg := redisblob.DefaultConfig()
		redisCfg.Addr = fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort)
		redisCfg.Password = cfg.RedisPassword
		redisCfg.DB = cfg.RedisDB
		return redisblob.NewStore(ctx, redisCfg)
	case "postgres":
		return pgblob.NewStore(ctx, cfg.DatabaseURL)
	case "jsonfile":
		return jsonfile.NewStore(cfg.DataDir)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

// setupLogger configures structured logging.
func setupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if cfg.AppDebug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.AppEnv == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}

// getEnv returns an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt returns an int environment variable.
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if i, err := strconv.Atoi(value); err == nil {
		return i
	}
	return defaultValue
}
