package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/designneighbor/union-yoga-sanity/pkg/mailer"
	"github.com/designneighbor/union-yoga-sanity/pkg/mailer/resend"
)

// DefaultBreakerFailures is the number of consecutive send failures that opens the breaker.
const DefaultBreakerFailures = 5

// Breaker fails sends fast after repeated upstream failures.
// Rejected recipients do not count as failures.
type Breaker struct {
	next Provider
	cb   *gobreaker.CircuitBreaker[SendResult]
}

// BreakerOption configures a Breaker.
type BreakerOption func(*breakerConfig)

type breakerConfig struct {
	failures uint32
	timeout  time.Duration
	logger   *slog.Logger
	onChange func(from, to gobreaker.State)
}

func WithFailures(n uint32) BreakerOption {
	return func(c *breakerConfig) {
		if n > 0 {
			c.failures = n
		}
	}
}

// WithOpenTimeout sets how long the breaker stays open before probing again.
func WithOpenTimeout(d time.Duration) BreakerOption {
	return func(c *breakerConfig) { c.timeout = d }
}

func WithBreakerLogger(l *slog.Logger) BreakerOption {
	return func(c *breakerConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithStateChange registers a callback for breaker transitions.
func WithStateChange(fn func(from, to gobreaker.State)) BreakerOption {
	return func(c *breakerConfig) { c.onChange = fn }
}

// NewBreaker wraps next.
func NewBreaker(name string, next Provider, opts ...BreakerOption) *Breaker {
	cfg := breakerConfig{
		failures: DefaultBreakerFailures,
		timeout:  30 * time.Second,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.failures
		},
		IsSuccessful: rejectedIsSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			cfg.logger.Warn("provider circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			if cfg.onChange != nil {
				cfg.onChange(from, to)
			}
		},
	}

	return &Breaker{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[SendResult](settings),
	}
}

// rejectedIsSuccess keeps bad requests from tripping the breaker.
func rejectedIsSuccess(err error) bool {
	switch {
	case err == nil,
		errors.Is(err, resend.ErrValidation),
		errors.Is(err, mailer.ErrNoRecipient),
		errors.Is(err, mailer.ErrNoSubject),
		errors.Is(err, mailer.ErrNoContent):
		return true
	}
	return false
}

func (b *Breaker) SendEmail(ctx context.Context, req SendRequest) SendResult {
	res, err := b.cb.Execute(func() (SendResult, error) {
		r := b.next.SendEmail(ctx, req)
		if !r.Success {
			if r.Error == nil {
				r.Error = ErrSendFailed
			}
			return r, r.Error
		}
		return r, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return failed(fmt.Errorf("%w: %w", ErrCircuitOpen, err))
	}
	return res
}

// State reports the breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

func (b *Breaker) AddSubscriber(ctx context.Context, email string, tags []string) error {
	return b.next.AddSubscriber(ctx, email, tags)
}

func (b *Breaker) RemoveSubscriber(ctx context.Context, email string) error {
	return b.next.RemoveSubscriber(ctx, email)
}

func (b *Breaker) SubscriberStatus(ctx context.Context, email string) (Status, error) {
	return b.next.SubscriberStatus(ctx, email)
}
