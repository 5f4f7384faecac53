package scheduler

import (
	"context"

	"github.com/hibiken/asynq"

	"realia_backend/platform/config"
	"realia_backend/platform/logger"
)

// Handler processes one task type.
type Handler interface {
	Type() string
	Handle(ctx context.Context, task *asynq.Task) error
}

// Worker runs the asynq server with the registered handlers.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    *logger.Logger
}

// NewWorker builds the worker from configuration.
func NewWorker(cfg config.SchedulerConfig, log *logger.Logger, handlers ...Handler) (*Worker, error) {
	opt, err := RedisOpt(cfg)
	if err != nil {
		return nil, err
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: cfg.GetAsynqConcurrency(),
		Queues:      map[string]int{cfg.GetAsynqQueueName(): 1},
		Logger:      asynqLogger{log: log},
	})

	mux := asynq.NewServeMux()
	for _, h := range handlers {
		mux.HandleFunc(h.Type(), h.Handle)
	}

	return &Worker{server: server, mux: mux, log: log}, nil
}

// Run blocks processing tasks until shutdown.
func (w *Worker) Run() error {
	w.log.Info("worker started")
	return w.server.Run(w.mux)
}

// Shutdown stops the worker gracefully.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

// asynqLogger adapts the structured logger to asynq's interface.
type asynqLogger struct {
	log *logger.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.log.Debug("asynq", "msg", args) }
func (l asynqLogger) Info(args ...interface{})  { l.log.Info("asynq", "msg", args) }
func (l asynqLogger) Warn(args ...interface{})  { l.log.Warn("asynq", "msg", args) }
func (l asynqLogger) Error(args ...interface{}) { l.log.Error("asynq", "msg", args) }
func (l asynqLogger) Fatal(args ...interface{}) { l.log.Error("asynq fatal", "msg", args) }
