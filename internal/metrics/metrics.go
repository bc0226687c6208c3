// Package metrics exposes Prometheus counters for subscriptions, sends,
// webhook events, form submissions, the provider circuit breaker and HTTP
// traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker/v2"
)

const namespace = "union_yoga"

// knownWebhookEvents bounds the label set of webhook_events_total.
var knownWebhookEvents = map[string]bool{
	"email.sent":       true,
	"email.delivered":  true,
	"email.opened":     true,
	"email.clicked":    true,
	"email.bounced":    true,
	"email.complained": true,
}

// Collector implements the observer interfaces of the domain services.
type Collector struct {
	subscriptions *prometheus.CounterVec
	emails        *prometheus.CounterVec
	webhooks      *prometheus.CounterVec
	forms         *prometheus.CounterVec
	breaker       *prometheus.GaugeVec
	requests      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

// NewCollector creates the metrics and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		subscriptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscription_events_total",
			Help:      "Subscriber lifecycle transitions.",
		}, []string{"event"}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_sent_total",
			Help:      "Emails handed to the provider, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Provider webhook events, by type and whether a delivery matched.",
		}, []string{"type", "attributed"}),
		forms: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "form_submissions_total",
			Help:      "Form submissions, by outcome.",
		}, []string{"outcome"}),
		breaker: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "provider_breaker_state",
			Help:      "Provider circuit breaker state: 0 closed, 1 half-open, 2 open.",
		}, []string{"provider"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by route, method and status code.",
		}, []string{"route", "method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	reg.MustRegister(
		c.subscriptions,
		c.emails,
		c.webhooks,
		c.forms,
		c.breaker,
		c.requests,
		c.latency,
	)

	return c
}

func (c *Collector) SubscriptionEvent(event string) {
	c.subscriptions.WithLabelValues(event).Inc()
}

func (c *Collector) EmailSent(kind string, ok bool) {
	c.emails.WithLabelValues(kind, outcome(ok)).Inc()
}

// WebhookEvent records an event. Types outside the provider's documented
// set are counted as "other".
func (c *Collector) WebhookEvent(eventType string, attributed bool) {
	if !knownWebhookEvents[eventType] {
		eventType = "other"
	}
	c.webhooks.WithLabelValues(eventType, strconv.FormatBool(attributed)).Inc()
}

func (c *Collector) FormSubmitted(ok bool) {
	c.forms.WithLabelValues(outcome(ok)).Inc()
}

// BreakerStateChange returns a callback for provider.WithStateChange.
func (c *Collector) BreakerStateChange(name string) func(from, to gobreaker.State) {
	c.breaker.WithLabelValues(name).Set(0)
	return func(_, to gobreaker.State) {
		c.breaker.WithLabelValues(name).Set(float64(to))
	}
}

// Middleware counts requests by their chi route pattern so path
// parameters do not explode the label set.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		c.requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		c.latency.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
