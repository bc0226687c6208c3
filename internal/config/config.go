// Package config loads the service configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/designneighbor/union-yoga-sanity/pkg/db"
	"github.com/designneighbor/union-yoga-sanity/pkg/logger"
	"github.com/designneighbor/union-yoga-sanity/pkg/mailer"
	"github.com/designneighbor/union-yoga-sanity/pkg/mailer/resend"
	"github.com/designneighbor/union-yoga-sanity/pkg/redis"
)

const defaultFrom = "Union Yoga <no-reply@david-lewis.co>"

// Config is the complete service configuration.
type Config struct {
	Addr            string        `env:"APP_ADDR" envDefault:":8080"`
	SiteURL         string        `env:"SITE_URL" envDefault:"https://example.com"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" envDefault:"30s"`

	DB     db.Config
	Redis  redis.Config
	Log    logger.Config
	Resend resend.Config
	Mailer mailer.Config

	NewsletterFrom string `env:"NEWSLETTER_FROM_EMAIL" envDefault:"Union Yoga <no-reply@david-lewis.co>"`
	FormsFrom      string `env:"FORMS_FROM_EMAIL" envDefault:"Union Yoga <no-reply@david-lewis.co>"`

	Security  Security
	Scheduler Scheduler
	Content   Content
	Provider  Provider
	RateLimit RateLimit

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

// Security holds the shared secrets of the protected endpoints. An empty
// value disables the check (cron, webhook) or the routes (admin).
type Security struct {
	CronSecret    string `env:"CRON_SECRET"`
	AdminToken    string `env:"ADMIN_TOKEN"`
	WebhookSecret string `env:"RESEND_WEBHOOK_SECRET"`
}

type Scheduler struct {
	// Cron is a five-field expression; "" or "off" disables the sweep.
	Cron string `env:"SCHEDULER_CRON" envDefault:"* * * * *"`
}

func (s Scheduler) Enabled() bool {
	return s.Cron != "" && s.Cron != "off"
}

type Content struct {
	CacheTTL        time.Duration `env:"CONTENT_CACHE_TTL" envDefault:"5m"`
	CacheSize       int           `env:"CONTENT_CACHE_SIZE" envDefault:"256"`
	SanityProjectID string        `env:"SANITY_PROJECT_ID"`
	SanityDataset   string        `env:"SANITY_DATASET" envDefault:"production"`
}

type Provider struct {
	BreakerFailures uint32        `env:"PROVIDER_BREAKER_FAILURES" envDefault:"5"`
	BreakerTimeout  time.Duration `env:"PROVIDER_BREAKER_TIMEOUT" envDefault:"30s"`
}

type RateLimit struct {
	Requests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"20"`
	Window   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
}

// Load reads the given .env files (".env" when none) into the process
// environment without overriding it, then parses the configuration.
// Missing files are not an error.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load env file: %w", err)
	}
	return parse(env.Options{})
}

// FromMap parses the configuration from environ only.
func FromMap(environ map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.NewsletterFrom == "" {
		cfg.NewsletterFrom = defaultFrom
	}
	if cfg.FormsFrom == "" {
		cfg.FormsFrom = defaultFrom
	}
	return &cfg, nil
}
