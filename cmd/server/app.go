package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmaliks/tasker-api/internal/config"
	"github.com/mmaliks/tasker-api/internal/notify"
	"github.com/mmaliks/tasker-api/internal/platform/postgres"
	"github.com/mmaliks/tasker-api/internal/service/auth"
	"github.com/mmaliks/tasker-api/internal/store"
	"github.com/mmaliks/tasker-api/internal/sweep"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	userStore        store.UserStore
	taskStore        store.TaskStore
	failedTaskStore  store.FailedTaskStore
	noteStore        store.NoteStore
	achievementStore store.AchievementStore
	bannedStore      store.BannedAccountStore

	// Services
	jwtService       auth.JWTService
	passwordVerifier *auth.BcryptVerifier

	// Sweep and notification machinery
	dispatcher *notify.Dispatcher
	ledger     *sweep.StrikeLedger
	sweeper    *sweep.Sweeper
	scheduler  *sweep.Scheduler
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger, and
// database connection that must be established before application
// initialization.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.passwordVerifier = auth.NewBcryptVerifier(cfg.Auth.BcryptCost)

	// Stores
	app.userStore = postgres.NewPostgresUserStore(db, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)
	app.failedTaskStore = postgres.NewPostgresFailedTaskStore(db, logger)
	app.noteStore = postgres.NewPostgresNoteStore(db, logger)
	app.achievementStore = postgres.NewPostgresAchievementStore(db, logger)
	app.bannedStore = postgres.NewPostgresBannedAccountStore(db, logger)

	// Notification delivery
	var notifier notify.Notifier
	if cfg.FCM.ProjectID != "" {
		notifier = notify.NewFCMClient(cfg.FCM, logger)
	} else {
		logger.Warn("no FCM project configured, push delivery disabled")
		notifier = notify.NewNopNotifier(logger)
	}
	app.dispatcher = notify.NewDispatcher(notifier, cfg.Sweep.Workers, notify.DefaultQueueSize, logger)
	app.dispatcher.Start()

	// Sweep machinery
	txRunner := store.NewDB(db)
	app.ledger = sweep.NewStrikeLedger(
		txRunner,
		app.userStore,
		app.taskStore,
		app.failedTaskStore,
		app.noteStore,
		app.achievementStore,
		app.bannedStore,
		logger,
	)

	interval, err := time.ParseDuration(cfg.Sweep.Interval)
	if err != nil {
		return nil, fmt.Errorf("invalid sweep interval %q: %w", cfg.Sweep.Interval, err)
	}
	offsets, err := sweep.ParseOffsets(cfg.Sweep.ReminderOffsets)
	if err != nil {
		return nil, fmt.Errorf("invalid reminder offsets: %w", err)
	}

	app.sweeper = sweep.NewSweeper(sweep.Config{
		DB:         txRunner,
		Tasks:      app.taskStore,
		Users:      app.userStore,
		Failed:     app.failedTaskStore,
		Ledger:     app.ledger,
		Dispatcher: app.dispatcher,
		Interval:   interval,
		Offsets:    offsets,
		Workers:    cfg.Sweep.Workers,
		Logger:     logger,
	})
	app.scheduler = sweep.NewScheduler(app.sweeper, interval, logger)

	logger.Info("Application initialized successfully")
	return app, nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.scheduler != nil {
		app.scheduler.Stop()
	}
	if app.dispatcher != nil {
		app.dispatcher.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
