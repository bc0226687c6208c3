package newsletter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"
)

// Campaigns sends a campaign by id.
type Campaigns interface {
	SendCampaign(ctx context.Context, id string) (*SendResult, error)
}

// DueResult is the outcome of one scheduled campaign.
type DueResult struct {
	NewsletterID string      `json:"newsletterId"`
	Title        string      `json:"title"`
	Success      bool        `json:"success"`
	Result       *SendResult `json:"result,omitempty"`
	Error        string      `json:"error,omitempty"`
}

// Scheduler sends campaigns whose scheduled time has passed.
type Scheduler struct {
	repo      Repository
	campaigns Campaigns
	logger    *slog.Logger
}

func NewScheduler(repo Repository, campaigns Campaigns, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Scheduler{repo: repo, campaigns: campaigns, logger: logger}
}

// ProcessDue sends every campaign due at now, one after another. A failing
// campaign does not stop the others.
func (s *Scheduler) ProcessDue(ctx context.Context, now time.Time) ([]DueResult, error) {
	due, err := s.repo.ListDue(ctx, now)
	if err != nil {
		return nil, errors.Join(ErrStore, err)
	}

	results := make([]DueResult, 0, len(due))
	for _, n := range due {
		r := DueResult{NewsletterID: n.ID.String(), Title: n.Title}

		res, err := s.campaigns.SendCampaign(ctx, r.NewsletterID)
		if err != nil {
			r.Error = err.Error()
			s.logger.ErrorContext(ctx, "scheduled newsletter failed",
				slog.String("newsletter_id", r.NewsletterID),
				slog.Any("error", err),
			)
		} else {
			r.Success = true
			r.Result = res
		}
		results = append(results, r)
	}
	return results, nil
}

// Task adapts a Scheduler to a cron-driven background task.
type Task struct {
	scheduler *Scheduler
	schedule  string
	now       func() time.Time
}

// NewTask returns a task running the scheduler on the cron expression
// schedule. An empty schedule disables it.
func NewTask(s *Scheduler, schedule string) *Task {
	return &Task{scheduler: s, schedule: schedule, now: time.Now}
}

func (t *Task) Name() string     { return "newsletter:scheduled-send" }
func (t *Task) Schedule() string { return t.schedule }

func (t *Task) Handle(ctx context.Context) error {
	results, err := t.scheduler.ProcessDue(ctx, t.now())
	if err != nil {
		return err
	}
	if len(results) > 0 {
		t.scheduler.logger.InfoContext(ctx, "processed scheduled newsletters", slog.Int("count", len(results)))
	}
	return nil
}
