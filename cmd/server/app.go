package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskflow/internal/api"
	"github.com/phrazzld/taskflow/internal/config"
	"github.com/phrazzld/taskflow/internal/notify"
	"github.com/phrazzld/taskflow/internal/platform/email"
	"github.com/phrazzld/taskflow/internal/platform/sqlstore"
	"github.com/phrazzld/taskflow/internal/service"
	"github.com/phrazzld/taskflow/internal/service/auth"
	"github.com/phrazzld/taskflow/internal/store"
	"github.com/phrazzld/taskflow/internal/task"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger *slog.Logger
	db     *sqlx.DB

	// Stores
	userStore       store.UserStore
	taskStore       store.TaskStore
	preferenceStore store.PreferenceStore
	logStore        store.NotificationLogStore
	inboxStore      store.InboxStore

	// Service interfaces
	jwtService  auth.JWTService
	hasher      auth.PasswordHasher
	emailSender email.Sender
	userService service.UserService
	taskService service.TaskService

	// Notification engine; its scheduler only runs when notifications are enabled
	engine *notify.Engine

	// Background delivery of immediate notifications, nil unless async_immediate is set
	jobQueue   *task.JobQueue
	workerPool *task.WorkerPool
}

// newApplication creates a new application instance with all dependencies initialized.
// It accepts core dependencies like configuration, logger, and database connection that
// must be established before application initialization.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sqlx.DB) (*application, error) {
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

	app.hasher = auth.NewBcryptHasher(cfg.Auth.BCryptCost)

	app.userStore = sqlstore.NewUserStore(db, logger)
	app.taskStore = sqlstore.NewTaskStore(db, logger)
	app.preferenceStore = sqlstore.NewPreferenceStore(db, logger)
	app.logStore = sqlstore.NewNotificationLogStore(db, logger)
	app.inboxStore = sqlstore.NewInboxStore(db, logger)

	app.emailSender, err = email.New(cfg.Email, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize email sender: %w", err)
	}

	app.engine, err = notify.NewEngine(notify.Stores{
		Users:       app.userStore,
		Tasks:       app.taskStore,
		Preferences: app.preferenceStore,
		Logs:        app.logStore,
		Inbox:       app.inboxStore,
	}, app.emailSender, cfg.Notifications, notify.SystemClock{}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize notification engine: %w", err)
	}

	app.userService = service.NewUserService(app.userStore, app.hasher, db, logger)

	app.taskService, err = service.NewTaskService(service.TaskServiceDeps{
		Tasks:    app.taskStore,
		Users:    app.userStore,
		DB:       db,
		Notifier: app.immediateNotifier(),
		Inbox:    app.engine.Inbox,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	logger.Info("Application initialized successfully",
		"notifications_enabled", cfg.Notifications.Enabled,
		"async_immediate", app.workerPool != nil)
	return app, nil
}

// immediateNotifier picks the immediate-path implementation for the task
// service: nil when notifications are off, a queueing wrapper when
// async_immediate is set, and the dispatcher itself otherwise.
func (app *application) immediateNotifier() service.ImmediateNotifier {
	ncfg := app.config.Notifications
	if !ncfg.Enabled {
		return nil
	}
	if !ncfg.AsyncImmediate {
		return app.engine.Dispatcher
	}

	log := app.logger.With("component", "immediate_notifications")
	app.jobQueue = task.NewJobQueue(ncfg.ImmediateQueueSize, log)
	app.workerPool = task.NewWorkerPool(app.jobQueue, task.WorkerPoolConfig{
		WorkerCount: ncfg.ImmediateWorkers,
		JobTimeout:  time.Minute,
	}, log)
	return task.NewAsyncNotifier(app.engine.Dispatcher, app.jobQueue, log)
}

// cycleTrigger returns the scheduler for the manual trigger endpoint, or
// nil when notifications are disabled.
func (app *application) cycleTrigger() api.CycleTrigger {
	if !app.config.Notifications.Enabled {
		return nil
	}
	return app.engine.Scheduler
}

// startBackground launches the worker pool and the notification scheduler.
func (app *application) startBackground(ctx context.Context) error {
	if app.workerPool != nil {
		app.workerPool.Start()
	}
	if app.config.Notifications.Enabled {
		if err := app.engine.Scheduler.Start(ctx); err != nil {
			return fmt.Errorf("failed to start notification scheduler: %w", err)
		}
	}
	return nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	if err := app.startBackground(ctx); err != nil {
		app.cleanup()
		return err
	}

	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	app.engine.Scheduler.Stop()

	if app.jobQueue != nil {
		app.jobQueue.Close()
	}
	if app.workerPool != nil {
		app.workerPool.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
