package monitoring

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/valpere/jobharvest/internal/proxy"
	"github.com/valpere/jobharvest/internal/scraper"
	"github.com/valpere/jobharvest/internal/session"
)

func TestMetrics_PageFinished(t *testing.T) {
	m := NewMetrics()

	events := []scraper.PageEvent{
		{Page: 1, Outcome: scraper.OutcomeSuccess, Listings: 15, Duration: 3 * time.Second},
		{Page: 2, Outcome: scraper.OutcomeFailed, Duration: time.Second},
		{Page: 2, Outcome: scraper.OutcomeSuccess, Listings: 12, Duration: 4 * time.Second},
		{Page: 3, Outcome: scraper.OutcomeCaptcha, Duration: 60 * time.Second},
	}
	for _, ev := range events {
		m.PageFinished(ev)
	}

	tests := []struct {
		outcome scraper.Outcome
		want    float64
	}{
		{scraper.OutcomeSuccess, 2},
		{scraper.OutcomeFailed, 1},
		{scraper.OutcomeCaptcha, 1},
		{scraper.OutcomeEmpty, 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.outcome), func(t *testing.T) {
			got := testutil.ToFloat64(m.pagesTotal.WithLabelValues(string(tt.outcome)))
			if got != tt.want {
				t.Errorf("pages_total{outcome=%q} = %v, want %v", tt.outcome, got, tt.want)
			}
		})
	}

	if got := testutil.ToFloat64(m.listingsTotal); got != 27 {
		t.Errorf("listings_total = %v, want 27", got)
	}
	if got := testutil.CollectAndCount(m.pageDuration); got != 3 {
		t.Errorf("page_duration_seconds series = %d, want 3", got)
	}
}

func TestMetrics_SessionsAndPool(t *testing.T) {
	m := NewMetrics()

	ep := &proxy.Endpoint{Host: "10.0.0.1", Port: 8080}
	m.SessionStarted(&session.Session{ID: "a", Endpoint: ep})
	m.SessionStarted(&session.Session{ID: "b", Endpoint: ep})
	m.SessionStarted(&session.Session{ID: "c"})
	m.CaptchaDetected(4, ep.Key())
	m.PoolChanged(session.PoolStatus{TotalProxies: 5, HealthyProxies: 3})

	if got := testutil.ToFloat64(m.sessionsTotal.WithLabelValues("10.0.0.1:8080")); got != 2 {
		t.Errorf("sessions for proxy = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.sessionsTotal.WithLabelValues(session.DirectKey)); got != 1 {
		t.Errorf("direct sessions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.captchasTotal.WithLabelValues("10.0.0.1:8080")); got != 1 {
		t.Errorf("captchas = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.healthyProxies); got != 3 {
		t.Errorf("healthy_proxies = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.totalProxies); got != 5 {
		t.Errorf("total_proxies = %v, want 5", got)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.PageFinished(scraper.PageEvent{Page: 1, Outcome: scraper.OutcomeSuccess, Listings: 3})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`jobharvest_scraper_pages_total{outcome="success"} 1`,
		"jobharvest_scraper_listings_total 3",
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
