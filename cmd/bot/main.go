// Package main - entry point for the WOSSIB Discord bot.
//
// WOSSIB keeps a school Discord server on task: grade conversion tables,
// focus sessions with platform-enforced roles, exam countdowns and a shared
// study resource list.
//
// The layout follows Clean Architecture:
// - Domain: business rules with no external dependencies
// - Infrastructure: durable storage, Discord REST, scheduler
// - Interface: command handlers, presenter, HTTP interactions endpoint
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/B-Eddie/WOSSIB/config"
	"github.com/B-Eddie/WOSSIB/internal/domain/exam"
	"github.com/B-Eddie/WOSSIB/internal/domain/focus"
	"github.com/B-Eddie/WOSSIB/internal/domain/resource"
	"github.com/B-Eddie/WOSSIB/internal/infrastructure/external/discord"
	"github.com/B-Eddie/WOSSIB/internal/infrastructure/persistence"
	"github.com/B-Eddie/WOSSIB/internal/infrastructure/persistence/jsonfile"
	"github.com/B-Eddie/WOSSIB/internal/infrastructure/persistence/pgblob"
	"github.com/B-Eddie/WOSSIB/internal/infrastructure/persistence/redisblob"
	"github.com/B-Eddie/WOSSIB/internal/infrastructure/scheduler"
	"github.com/B-Eddie/WOSSIB/internal/infrastructure/scheduler/jobs"
	"github.com/B-Eddie/WOSSIB/internal/infrastructure/tables"
	discordui "github.com/B-Eddie/WOSSIB/internal/interface/discord"
	"github.com/B-Eddie/WOSSIB/internal/interface/discord/handler"
	"github.com/B-Eddie/WOSSIB/internal/interface/discord/presenter"
	httpserver "github.com/B-Eddie/WOSSIB/internal/interface/http"
	"github.com/B-Eddie/WOSSIB/pkg/logger"
	"github.com/B-Eddie/WOSSIB/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting WOSSIB bot",
		"env", cfg.App.Environment,
		"debug", cfg.App.Debug,
		"timezone", cfg.App.Timezone,
		"store_backend", cfg.Storage.Backend,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DURABLE BLOB STORE
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("opening blob store...")
	store, err := openBlobStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to open blob store: %w", err)
	}
	defer func() {
		log.Info("closing blob store...")
		_ = store.Close()
	}()
	log.Info("blob store ready")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REGISTRIES
	// ─────────────────────────────────────────────────────────────────────────
	examRegistry := exam.NewRegistry(persistence.NewExamMirror(store), log)
	examRegistry.Restore(ctx)

	resourceRegistry := resource.NewRegistry(persistence.NewResourceMirror(store), log)
	resourceRegistry.Restore(ctx)

	// ─────────────────────────────────────────────────────────────────────────
	// 5. CONVERSION TABLES
	// ─────────────────────────────────────────────────────────────────────────
	tableStore := tables.NewStore(log)
	tableStore.LoadDir(cfg.Tables.Dir)
	log.Info("conversion tables loaded", "subjects", len(tableStore.Subjects()))

	// ─────────────────────────────────────────────────────────────────────────
	// 6. DISCORD CLIENT
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing Discord client...")

	clientConfig := discord.DefaultClientConfig(cfg.Discord.Token)
	clientConfig.BaseURL = cfg.Discord.BaseURL
	clientConfig.Timeout = cfg.Discord.RequestTimeout
	clientConfig.RetryAttempts = cfg.Discord.MaxRetries
	clientConfig.RetryDelay = cfg.Discord.RetryBaseDelay
	clientConfig.Logger = log
	clientConfig.Debug = cfg.App.Debug
	client := discord.NewClient(clientConfig)

	startupCtx, startupCancel := context.WithTimeout(ctx, 10*time.Second)
	me, err := client.GetMe(startupCtx)
	startupCancel()
	if err != nil {
		return fmt.Errorf("discord credentials check failed: %w", err)
	}
	log.Info("authenticated with Discord", "bot_user", me.Username, "bot_id", me.ID)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. FOCUS SESSIONS
	// ─────────────────────────────────────────────────────────────────────────
	modeRoles := make(map[focus.Mode]string)
	for mode, roleID := range cfg.Discord.ModeRoles() {
		modeRoles[focus.Mode(mode)] = roleID
	}
	granter := discord.NewRoleGranter(client, cfg.Discord.GuildID, modeRoles, log)
	adminGate := discord.NewAdminGate(client, cfg.Discord.GuildID, cfg.Discord.AdminRoleIDs)

	sessions := focus.NewSessionManager(focus.NewSessionStore(), granter, focus.RealClock{}, log)
	workflow := focus.NewApprovalWorkflow(sessions, adminGate, cfg.Focus.ApprovalTimeout, focus.RealClock{}, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		log.Info("initializing scheduler...")
		sched = scheduler.NewScheduler(log, cfg.App.Location)

		var expiryNotifier jobs.ExpiryNotifier
		if cfg.Features.IsEnabled(config.FeatureFocusDMOnExpiry, nil) {
			expiryNotifier = discord.NewNotifier(client)
		}
		expireJob := jobs.NewExpireSessionsJob(sessions, expiryNotifier, log)
		if err := sched.Register(expireJob, scheduler.NewIntervalSchedule(cfg.Focus.SweepInterval)); err != nil {
			return fmt.Errorf("failed to register expiry job: %w", err)
		}

		if cfg.Features.IsEnabled(config.FeatureExamDailyPrune, nil) {
			pruneJob := jobs.NewPruneExamsJob(examRegistry, time.Now, log)
			schedule := scheduler.NewDailySchedule(cfg.Scheduler.PruneHour, cfg.Scheduler.PruneMinute, cfg.App.Location)
			if err := sched.Register(pruneJob, schedule); err != nil {
				return fmt.Errorf("failed to register prune job: %w", err)
			}
		}

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() {
			log.Info("stopping scheduler...")
			_ = sched.Stop()
		}()
	} else {
		log.Warn("scheduler disabled, sessions will not expire automatically")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. COMMAND ROUTING
	// ─────────────────────────────────────────────────────────────────────────
	p := presenter.New()
	router := discordui.NewRouter(p, log)

	router.Register(
		&handler.StartSessionHandler{Manager: sessions, Presenter: p},
		&handler.SessionStatusHandler{Manager: sessions, Presenter: p},
		&handler.ListSessionsHandler{Manager: sessions, Presenter: p},
		&handler.ConvertRawHandler{Tables: tableStore, Presenter: p},
		&handler.GradeToPercentHandler{Tables: tableStore, Presenter: p},
		&handler.PercentToGradeHandler{Tables: tableStore, Presenter: p},
		&handler.RawToGradeHandler{Tables: tableStore, Presenter: p},
		&handler.ShowTableHandler{Tables: tableStore, Presenter: p},
		&handler.ListSubjectsHandler{Tables: tableStore, Presenter: p},
		&handler.SetExamHandler{Registry: examRegistry, Presenter: p},
		&handler.ShowCountdownHandler{Registry: examRegistry, Presenter: p},
		&handler.RemoveExamHandler{Registry: examRegistry, Presenter: p},
		&handler.AddResourceHandler{Registry: resourceRegistry, Presenter: p},
	)

	if cfg.Features.IsEnabled(config.FeatureFocusEarlyEnd, nil) {
		router.Register(
			&handler.EndSessionRequestHandler{Workflow: workflow, Presenter: p},
			&handler.ConfirmEndHandler{Workflow: workflow, Presenter: p},
			&handler.RefuseEndHandler{Workflow: workflow, Presenter: p},
		)
	}
	if cfg.Features.IsEnabled(config.FeatureGradesDiploma, nil) {
		router.Register(&handler.CalculateTotalHandler{Presenter: p})
	}
	if cfg.Features.IsEnabled(config.FeatureResourceRefresh, nil) {
		router.Register(&handler.RefreshResourcesHandler{Registry: resourceRegistry, Presenter: p})
	}

	log.Info("commands registered", "count", len(router.Commands()))

	// ─────────────────────────────────────────────────────────────────────────
	// 10. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	publicKey, err := discordui.ParsePublicKey(cfg.Discord.PublicKey)
	if err != nil {
		return fmt.Errorf("invalid DISCORD_PUBLIC_KEY: %w", err)
	}

	httpConfig := httpserver.Config{
		Host:         cfg.HTTP.Host,
		Port:         cfg.HTTP.Port,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
	}
	httpServer := httpserver.NewServer(httpConfig, httpserver.Dependencies{
		Router:    router,
		PublicKey: publicKey,
		Scheduler: sched,
		Sessions:  sessions,
		Logger:    logger.New(logger.Options{Level: logger.ParseLevel(cfg.Observability.LogLevel)}),
	})

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 11. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("WOSSIB bot is running", "http_address", httpConfig.Address())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		log.Error("service error", "error", err)
		return err
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", "error", err)
		return err
	}

	// Scheduler and blob store close through defers.
	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// openBlobStore builds the configured backend. Network-backed stores are
// probed with backoff so a slow Redis or Postgres at boot does not kill the
// bot.
func openBlobStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (persistence.BlobStore, error) {
	probeOpts := []retry.Option{
		retry.WithMaxAttempts(cfg.Storage.ProbeAttempts),
		retry.WithInitialDelay(cfg.Storage.ProbeBaseDelay),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			log.Warn("blob store not reachable yet, retrying",
				"attempt", attempt,
				"delay", delay.String(),
				"error", err,
			)
		}),
	}

	switch cfg.Storage.Backend {
	case config.StoreRedis:
		redisCfg := redisblob.DefaultConfig()
		redisCfg.Addr = fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		return retry.DoWithData(ctx, func(ctx context.Context) (persistence.BlobStore, error) {
			return redisblob.NewStore(ctx, redisCfg)
		}, probeOpts...)

	case config.StorePostgres:
		return retry.DoWithData(ctx, func(ctx context.Context) (persistence.BlobStore, error) {
			return pgblob.NewStore(ctx, cfg.Database.URL)
		}, probeOpts...)

	default:
		// Local file store needs no probing.
		return jsonfile.NewStore(cfg.Storage.DataDir)
	}
}

// setupLogger configures structured logging.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "json" || cfg.IsProduction() {
		// JSON for production (friendlier to log aggregators)
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}
