package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"realia_backend/internal/admin"
	"realia_backend/internal/agent"
	"realia_backend/internal/alerts"
	"realia_backend/internal/conversation"
	"realia_backend/internal/dedupe"
	"realia_backend/internal/documents"
	"realia_backend/internal/events"
	"realia_backend/internal/handoff"
	apphttp "realia_backend/internal/http"
	"realia_backend/internal/http/router"
	"realia_backend/internal/identity"
	"realia_backend/internal/imports"
	"realia_backend/internal/nurturing"
	"realia_backend/internal/qualification"
	"realia_backend/internal/scheduler"
	"realia_backend/internal/session"
	"realia_backend/internal/staffactions"
	"realia_backend/internal/whatsapp"
	"realia_backend/platform/config"
	"realia_backend/platform/db"
	"realia_backend/platform/logger"
	"realia_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	deduper, err := dedupe.New(cfg.GetRedisURL(), log)
	if err != nil {
		log.Warn("message dedupe disabled", "error", err)
	}
	if deduper != nil {
		defer deduper.Close()
	}

	var objectStore documents.ObjectStore
	if minioStore, err := documents.NewMinioStore(cfg, log); err != nil {
		log.Error("failed to initialize object storage", "error", err)
		panic("failed to initialize object storage: " + err.Error())
	} else if minioStore != nil {
		if err := withRetry(ctx, log, "ensure documents bucket", 5, 2*time.Second, func() error {
			return minioStore.EnsureBucket(ctx)
		}); err != nil {
			log.Error("failed to ensure documents bucket", "error", err)
			panic("failed to ensure documents bucket: " + err.Error())
		}
		objectStore = minioStore
	} else {
		log.Warn("MinIO not configured; document storage disabled")
	}

	var threads handoff.ThreadChannel
	if tg, err := handoff.NewTelegramChannel(cfg, log); err != nil {
		log.Error("failed to initialize telegram channel", "error", err)
		panic("failed to initialize telegram channel: " + err.Error())
	} else if tg != nil {
		threads = tg
	} else {
		log.Warn("Telegram not configured; handoffs stay pending without a thread")
	}

	var mailer alerts.Mailer
	if smtp, err := alerts.NewSMTPMailer(cfg); err != nil {
		log.Error("failed to initialize mailer", "error", err)
		panic("failed to initialize mailer: " + err.Error())
	} else if smtp != nil {
		mailer = smtp
	}

	followUps, err := scheduler.NewClient(cfg, log)
	if err != nil {
		log.Warn("follow-up scheduling disabled", "error", err)
	}
	if followUps != nil {
		defer followUps.Close()
	}

	whatsappClient := whatsapp.NewClient(cfg, log)

	gemini, err := agent.NewGemini(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize generative client", "error", err)
		panic("failed to initialize generative client: " + err.Error())
	}

	// ========================================================================
	// Domain wiring
	// ========================================================================

	identityRepo := identity.New(pool)
	identityService := identity.NewService(identityRepo, cfg, eventBus, log)

	sessionService := session.NewService(session.New(pool), eventBus, log)
	leadService := qualification.NewService(qualification.New(pool), eventBus, log)

	documentService := documents.NewService(documents.New(pool), objectStore, whatsappClient, eventBus, log)
	importService := imports.NewService(identityRepo, eventBus, log)

	handoffManager := handoff.NewManager(handoff.New(pool), threads, whatsappClient, eventBus, log)

	// Event-driven side effects.
	alerts.NewService(identityRepo, whatsappClient, mailer, eventBus, log)
	nurturing.NewService(followUps, leadService, whatsappClient, eventBus, log)

	executor := staffactions.NewExecutor(identityRepo, leadService, log)

	msgRouter := conversation.NewRouter(conversation.Config{
		Identity:  identityService,
		Sessions:  sessionService,
		Leads:     leadService,
		Handoffs:  handoffManager,
		Documents: documentService,
		Importer:  importService,
		Directory: identityRepo,
		Dedupe:    deduper,
		Responder: gemini,
		Extractor: gemini,
		Actions:   conversation.NewStaffActionResolver(gemini, executor, log),
		Sender:    whatsappClient,
		Media:     whatsappClient,
		EventBus:  eventBus,
		Logger:    log,
	})

	// ========================================================================
	// HTTP layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			whatsapp.NewModule(msgRouter, cfg, log),
			handoff.NewModule(handoffManager, whatsappClient, leadService, sessionService, log),
			admin.NewModule(identityRepo, leadService, importService, val),
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return fmt.Errorf("%s: %w", name, lastErr)
}
