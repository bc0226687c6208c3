package job

import (
	"context"
	"log/slog"
	"time"
)

// ScheduledTask runs on a cron schedule.
type ScheduledTask interface {
	Name() string
	// Schedule is a five-field cron expression (minute hour dom month dow).
	Schedule() string
	Handle(ctx context.Context) error
}

type config struct {
	logger     *slog.Logger
	tasks      []ScheduledTask
	maxWorkers int
	timeout    time.Duration
}

// Option configures a Manager.
type Option func(*config)

// WithScheduledTask registers a periodic task. Tasks with an empty schedule are skipped.
func WithScheduledTask(task ScheduledTask) Option {
	return func(c *config) {
		if task != nil && task.Schedule() != "" {
			c.tasks = append(c.tasks, task)
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithMaxWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxWorkers = n
		}
	}
}

// WithTaskTimeout bounds a single task run.
func WithTaskTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}
