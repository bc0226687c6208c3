// Package job runs periodic maintenance tasks on River, backed by the
// service's PostgreSQL database. River's leader election guarantees one
// enqueue per tick across replicas.
package job

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/robfig/cron/v3"
)

const (
	defaultMaxWorkers = 5
	defaultTimeout    = 10 * time.Minute
)

// Manager owns the River client and the registered scheduled tasks.
type Manager struct {
	pool   *pgxpool.Pool
	client *river.Client[pgx.Tx]
	tasks  map[string]ScheduledTask
	logger *slog.Logger

	mu      sync.Mutex
	started bool
}

// NewManager validates every schedule and builds the River client.
func NewManager(pool *pgxpool.Pool, opts ...Option) (*Manager, error) {
	if pool == nil {
		return nil, ErrPoolRequired
	}

	cfg := &config{maxWorkers: defaultMaxWorkers, timeout: defaultTimeout}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	tasks := make(map[string]ScheduledTask, len(cfg.tasks))
	periodic := make([]*river.PeriodicJob, 0, len(cfg.tasks))
	for _, task := range cfg.tasks {
		schedule, err := parseCronSchedule(task.Schedule())
		if err != nil {
			return nil, fmt.Errorf("job: invalid cron schedule %q for %s: %w", task.Schedule(), task.Name(), err)
		}
		name := task.Name()
		tasks[name] = task
		periodic = append(periodic, river.NewPeriodicJob(
			schedule,
			func() (river.JobArgs, *river.InsertOpts) {
				return scheduledArgs{TaskName: name}, nil
			},
			&river.PeriodicJobOpts{RunOnStart: false},
		))
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &scheduledWorker{tasks: tasks, logger: cfg.logger, timeout: cfg.timeout})

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues:       map[string]river.QueueConfig{river.QueueDefault: {MaxWorkers: cfg.maxWorkers}},
		Workers:      workers,
		PeriodicJobs: periodic,
		Logger:       cfg.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("job: create client: %w", err)
	}

	return &Manager{pool: pool, client: client, tasks: tasks, logger: cfg.logger}, nil
}

// Migrate brings River's own tables up to date.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("job: create migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return fmt.Errorf("job: migrate: %w", err)
	}
	return nil
}

func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return ErrAlreadyStarted
	}
	if err := m.client.Start(ctx); err != nil {
		return fmt.Errorf("job: start client: %w", err)
	}
	m.started = true
	m.logger.Info("job manager started", slog.Int("scheduled_tasks", len(m.tasks)))
	return nil
}

func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return ErrNotStarted
	}
	if err := m.client.Stop(ctx); err != nil {
		return fmt.Errorf("job: stop client: %w", err)
	}
	m.started = false
	m.logger.Info("job manager stopped")
	return nil
}

// StartFunc adapts Start to a run startup hook.
func (m *Manager) StartFunc() func(context.Context) error {
	return m.Start
}

// Shutdown adapts Stop to a run shutdown hook.
func (m *Manager) Shutdown() func(context.Context) error {
	return m.Stop
}

// Healthcheck fails until the manager is started or when the pool is unreachable.
func Healthcheck(m *Manager) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if m == nil {
			return fmt.Errorf("%w: manager is nil", ErrHealthcheckFailed)
		}
		m.mu.Lock()
		started := m.started
		m.mu.Unlock()
		if !started {
			return fmt.Errorf("%w: %w", ErrHealthcheckFailed, ErrNotStarted)
		}
		if err := m.pool.Ping(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrHealthcheckFailed, err)
		}
		return nil
	}
}

type scheduledArgs struct {
	TaskName string `json:"task_name"`
}

func (scheduledArgs) Kind() string { return "scheduled:task" }

type scheduledWorker struct {
	river.WorkerDefaults[scheduledArgs]
	tasks   map[string]ScheduledTask
	logger  *slog.Logger
	timeout time.Duration
}

func (w *scheduledWorker) Timeout(*river.Job[scheduledArgs]) time.Duration {
	return w.timeout
}

func (w *scheduledWorker) Work(ctx context.Context, job *river.Job[scheduledArgs]) error {
	task, ok := w.tasks[job.Args.TaskName]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, job.Args.TaskName)
	}

	started := time.Now()
	if err := task.Handle(ctx); err != nil {
		w.logger.ErrorContext(ctx, "scheduled task failed",
			slog.String("task", job.Args.TaskName),
			slog.Int64("job_id", job.ID),
			slog.Int("attempt", job.Attempt),
			slog.Any("error", err),
		)
		return err
	}

	w.logger.DebugContext(ctx, "scheduled task completed",
		slog.String("task", job.Args.TaskName),
		slog.Duration("took", time.Since(started)),
	)
	return nil
}

type cronSchedule struct {
	schedule cron.Schedule
}

func (c cronSchedule) Next(t time.Time) time.Time {
	return c.schedule.Next(t)
}

func parseCronSchedule(expr string) (river.PeriodicSchedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	s, err := parser.Parse(expr)
	if err != nil {
		return nil, err
	}
	return cronSchedule{schedule: s}, nil
}
