// Command server runs the union-yoga newsletter and forms API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/designneighbor/union-yoga-sanity/internal"
	"github.com/designneighbor/union-yoga-sanity/internal/config"
	"github.com/designneighbor/union-yoga-sanity/internal/content"
	"github.com/designneighbor/union-yoga-sanity/internal/forms"
	"github.com/designneighbor/union-yoga-sanity/internal/handlers"
	"github.com/designneighbor/union-yoga-sanity/internal/metrics"
	"github.com/designneighbor/union-yoga-sanity/internal/newsletter"
	"github.com/designneighbor/union-yoga-sanity/internal/provider"
	"github.com/designneighbor/union-yoga-sanity/internal/store"
	"github.com/designneighbor/union-yoga-sanity/internal/subscriber"
	"github.com/designneighbor/union-yoga-sanity/middlewares"
	"github.com/designneighbor/union-yoga-sanity/pkg/cache"
	"github.com/designneighbor/union-yoga-sanity/pkg/db"
	"github.com/designneighbor/union-yoga-sanity/pkg/job"
	"github.com/designneighbor/union-yoga-sanity/pkg/logger"
	"github.com/designneighbor/union-yoga-sanity/pkg/mailer"
	"github.com/designneighbor/union-yoga-sanity/pkg/mailer/resend"
	"github.com/designneighbor/union-yoga-sanity/pkg/redis"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.Log, middlewares.RequestIDExtractor()).With(slog.String("app", "union-yoga"))
	ctx := context.Background()

	pool, err := db.Open(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	sqlDB := db.SQL(pool)
	if err := db.Migrate(ctx, sqlDB, store.Migrations(), cfg.DB.MigrationsTable, log); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	var startup []internal.RunOption
	shutdown := []internal.RunOption{
		internal.ShutdownHook(db.Shutdown(pool)),
		internal.ShutdownHook(logger.Flush),
	}
	healthOpts := []internal.HealthOption{
		internal.WithReadinessCheck("postgres", db.Healthcheck(pool)),
	}

	var rdb goredis.UniversalClient
	if cfg.Redis.Enabled() {
		rdb, err = redis.Open(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("open redis: %w", err)
		}
		shutdown = append(shutdown, internal.ShutdownHook(redis.Shutdown(rdb)))
		healthOpts = append(healthOpts, internal.WithReadinessCheck("redis", redis.Healthcheck(rdb)))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	subscribers := store.NewSubscribers(sqlDB)
	newsletters := store.NewNewsletters(sqlDB)

	enricher := content.NewEnricher(store.NewContent(sqlDB),
		content.WithCache(contentCaches(rdb, cfg.Content)),
		content.WithImageCDN(content.ImageCDN{ProjectID: cfg.Content.SanityProjectID, Dataset: cfg.Content.SanityDataset}),
		content.WithLogger(log),
	)

	var sender mailer.Sender = unconfiguredSender{}
	if cfg.Resend.Configured() {
		sender = resend.New(cfg.Resend)
	} else {
		log.Warn("RESEND_API_KEY is not set; email sending is disabled")
	}
	registry := provider.NewRegistry(provider.Deps{
		Resend: configuredOnly(cfg.Resend, sender),
		Wrap: func(platform provider.Platform, p provider.Provider) provider.Provider {
			name := string(platform)
			return provider.NewBreaker(name, p,
				provider.WithFailures(cfg.Provider.BreakerFailures),
				provider.WithOpenTimeout(cfg.Provider.BreakerTimeout),
				provider.WithBreakerLogger(log),
				provider.WithStateChange(collector.BreakerStateChange(name)),
			)
		},
	})
	// nil when resend is not configured; forms then answer 500 and
	// subscriptions skip the provider sync.
	defaultProvider, _ := registry.For(provider.PlatformResend)

	notifier := subscriber.NewMailNotifier(
		mailer.New(sender, mailer.NewRenderer(subscriber.Templates(), "layouts"), cfg.Mailer),
		cfg.NewsletterFrom,
	)
	subscriptions := subscriber.NewService(subscribers, notifier, defaultProvider, cfg.SiteURL,
		subscriber.WithLogger(log),
		subscriber.WithObserver(collector),
	)

	campaigns := newsletter.NewSender(newsletters, subscribers, registry, enricher,
		newsletter.Config{SiteURL: cfg.SiteURL, From: cfg.NewsletterFrom},
		newsletter.WithLogger(log),
		newsletter.WithObserver(collector),
	)
	scheduler := newsletter.NewScheduler(newsletters, campaigns, log)
	webhook := newsletter.NewWebhook(newsletters, log, collector)

	submissions := forms.NewService(defaultProvider, store.NewSubmissions(sqlDB), cfg.FormsFrom,
		forms.WithLogger(log),
		forms.WithObserver(collector),
	)

	opts := []internal.Option{
		internal.WithCustomLogger(log),
		internal.WithHTTPMiddleware(
			middlewares.CORS(cfg.CORSAllowedOrigins...),
			collector.Middleware,
		),
		internal.WithMiddleware(
			middlewares.RequestID(),
			middlewares.RequestLogger("/health/live", "/health/ready", "/metrics"),
			middlewares.Recover(),
		),
		internal.WithErrorHandler(handlers.ErrorHandler()),
		internal.WithNotFoundHandler(handlers.NotFound),
		internal.WithMethodNotAllowedHandler(handlers.MethodNotAllowed),
		internal.WithHandlers(
			handlers.NewNewsletterHandler(subscriptions, campaigns, scheduler, webhook,
				handlers.WithCronSecret(cfg.Security.CronSecret),
				handlers.WithWebhookSecret(cfg.Security.WebhookSecret),
				handlers.WithPublicMiddleware(
					middlewares.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window),
					middlewares.Timeout(middlewares.DefaultTimeout),
				),
			),
			handlers.NewFormHandler(submissions,
				middlewares.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window),
				middlewares.Timeout(middlewares.DefaultTimeout),
			),
			handlers.NewAdminHandler(campaigns, submissions, cfg.Security.AdminToken),
			handlers.NewMetricsHandler(metrics.Handler(reg)),
		),
	}

	if cfg.Scheduler.Enabled() {
		jobs, err := job.NewManager(pool,
			job.WithLogger(log),
			job.WithScheduledTask(newsletter.NewTask(scheduler, cfg.Scheduler.Cron)),
		)
		if err != nil {
			return fmt.Errorf("create job manager: %w", err)
		}
		opts = append(opts, internal.WithJobs(jobs))
		// Job tables must exist before the manager starts, which Run does
		// after the startup hooks.
		startup = append(startup, internal.StartupHook(func(ctx context.Context) error {
			if err := job.Migrate(ctx, pool); err != nil {
				return fmt.Errorf("migrate jobs: %w", err)
			}
			return nil
		}))
		healthOpts = append(healthOpts, internal.WithReadinessCheck("jobs", job.Healthcheck(jobs)))
	} else {
		log.Info("scheduled sending is disabled")
	}
	opts = append(opts, internal.WithHealthChecks(healthOpts...))

	app := internal.New(opts...)

	log.Info("starting server", slog.String("addr", cfg.Addr))
	return app.Run(cfg.Addr, append(append(startup, shutdown...),
		internal.Logger(log),
		internal.ShutdownTimeout(cfg.ShutdownTimeout),
	)...)
}

// contentCaches shares enrichment lookups across replicas through Redis
// when it is configured, and keeps them in process otherwise.
func contentCaches(rdb goredis.UniversalClient, cfg config.Content) (cache.Cache[[]content.Testimonial], cache.Cache[[]content.Post], time.Duration) {
	if rdb != nil {
		return cache.NewRedis[[]content.Testimonial](rdb, "content:testimonials:", cfg.CacheTTL),
			cache.NewRedis[[]content.Post](rdb, "content:posts:", cfg.CacheTTL),
			cfg.CacheTTL
	}
	return cache.NewMemory[[]content.Testimonial](cfg.CacheSize, cfg.CacheTTL),
		cache.NewMemory[[]content.Post](cfg.CacheSize, cfg.CacheTTL),
		cfg.CacheTTL
}

// configuredOnly hides the sender from the provider registry when no API
// key is set, so campaigns fail with a misconfiguration error.
func configuredOnly(cfg resend.Config, s mailer.Sender) mailer.Sender {
	if !cfg.Configured() {
		return nil
	}
	return s
}

var errEmailDisabled = errors.New("email sending is not configured")

// unconfiguredSender fails every send. It backs the confirmation mailer
// when RESEND_API_KEY is unset.
type unconfiguredSender struct{}

func (unconfiguredSender) Send(context.Context, *mailer.Email) (string, error) {
	return "", fmt.Errorf("%w: %w", provider.ErrMisconfigured, errEmailDisabled)
}
