// internal/monitoring/metrics.go

// Package monitoring exposes run metrics and pool status over HTTP.
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/valpere/jobharvest/internal/scraper"
	"github.com/valpere/jobharvest/internal/session"
)

const namespace = "jobharvest"

// Metrics records scrape events on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	pagesTotal     *prometheus.CounterVec
	listingsTotal  prometheus.Counter
	captchasTotal  *prometheus.CounterVec
	sessionsTotal  *prometheus.CounterVec
	healthyProxies prometheus.Gauge
	totalProxies   prometheus.Gauge
	pageDuration   *prometheus.HistogramVec
}

var _ scraper.Listener = (*Metrics)(nil)

// NewMetrics creates the collectors and registers them with runtime collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		pagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scraper",
				Name:      "pages_total",
				Help:      "Page attempts by outcome",
			},
			[]string{"outcome"},
		),
		listingsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scraper",
				Name:      "listings_total",
				Help:      "Listings extracted",
			},
		),
		captchasTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scraper",
				Name:      "captchas_total",
				Help:      "CAPTCHA or block pages detected",
			},
			[]string{"proxy"},
		),
		sessionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "sessions_total",
				Help:      "Sessions started",
			},
			[]string{"proxy"},
		),
		healthyProxies: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "proxy",
				Name:      "healthy_proxies",
				Help:      "Proxies currently eligible for selection",
			},
		),
		totalProxies: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "proxy",
				Name:      "total_proxies",
				Help:      "Proxies in the pool",
			},
		),
		pageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "scraper",
				Name:      "page_duration_seconds",
				Help:      "Time spent on one page attempt",
				Buckets:   []float64{1, 2.5, 5, 10, 20, 40, 60, 120, 300},
			},
			[]string{"outcome"},
		),
	}
}

// Registry returns the registry backing the collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SessionStarted counts a new session.
func (m *Metrics) SessionStarted(s *session.Session) {
	m.sessionsTotal.WithLabelValues(s.Key()).Inc()
}

// PageFinished records the outcome and timing of one attempt.
func (m *Metrics) PageFinished(ev scraper.PageEvent) {
	outcome := string(ev.Outcome)
	m.pagesTotal.WithLabelValues(outcome).Inc()
	m.pageDuration.WithLabelValues(outcome).Observe(ev.Duration.Seconds())
	if ev.Listings > 0 {
		m.listingsTotal.Add(float64(ev.Listings))
	}
}

// CaptchaDetected counts a block page against its proxy.
func (m *Metrics) CaptchaDetected(_ int, proxy string) {
	m.captchasTotal.WithLabelValues(proxy).Inc()
}

// PoolChanged updates the pool gauges.
func (m *Metrics) PoolChanged(status session.PoolStatus) {
	m.healthyProxies.Set(float64(status.HealthyProxies))
	m.totalProxies.Set(float64(status.TotalProxies))
}
