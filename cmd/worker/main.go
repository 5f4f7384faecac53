package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"realia_backend/internal/events"
	"realia_backend/internal/nurturing"
	"realia_backend/internal/qualification"
	"realia_backend/internal/scheduler"
	"realia_backend/internal/whatsapp"
	"realia_backend/platform/config"
	"realia_backend/platform/db"
	"realia_backend/platform/logger"
)

// The worker drains the follow-up queue: it re-checks lead activity and
// sends the nudge, while the API process only enqueues.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	leadService := qualification.NewService(qualification.New(pool), eventBus, log)
	whatsappClient := whatsapp.NewClient(cfg, log)

	// No scheduler client here: the worker consumes, it never enqueues.
	followUps := nurturing.NewService(nil, leadService, whatsappClient, eventBus, log)

	worker, err := scheduler.NewWorker(cfg, log, followUps)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- worker.Run()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		worker.Shutdown()
		select {
		case <-errCh:
		case <-time.After(10 * time.Second):
		}
	case err := <-errCh:
		if err != nil {
			log.Error("worker error", "error", err)
			panic("worker error: " + err.Error())
		}
	}
}
