package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"realia_backend/platform/config"
	"realia_backend/platform/logger"
)

// RedisOpt translates the configured Redis URL into asynq's connection
// options.
func RedisOpt(cfg config.SchedulerConfig) (asynq.RedisConnOpt, error) {
	opt, err := asynq.ParseRedisURI(cfg.GetRedisURL())
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return opt, nil
}

// Client enqueues deferred tasks.
type Client struct {
	client *asynq.Client
	queue  string
	log    *logger.Logger
}

// NewClient creates the task client. Returns nil (disabled) when Redis is
// not configured; a nil client drops enqueues silently.
func NewClient(cfg config.SchedulerConfig, log *logger.Logger) (*Client, error) {
	if cfg.GetRedisURL() == "" {
		return nil, nil
	}
	opt, err := RedisOpt(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{
		client: asynq.NewClient(opt),
		queue:  cfg.GetAsynqQueueName(),
		log:    log,
	}, nil
}

// EnqueueFollowUp schedules a nurturing follow-up after the given delay.
func (c *Client) EnqueueFollowUp(ctx context.Context, leadID uuid.UUID, phone string, delay time.Duration) error {
	if c == nil {
		return nil
	}
	task, err := NewFollowUpTask(leadID, phone, time.Now())
	if err != nil {
		return err
	}
	info, err := c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.ProcessIn(delay),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return fmt.Errorf("enqueue follow-up: %w", err)
	}
	c.log.Info("follow-up scheduled", "task_id", info.ID, "lead_id", leadID, "in", delay)
	return nil
}

// Close releases the client's Redis connection.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
