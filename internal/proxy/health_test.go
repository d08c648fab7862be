// internal/proxy/health_test.go
package proxy

import (
	"testing"
	"time"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestStats_SuccessRate(t *testing.T) {
	s := NewStats()
	if s.SuccessRate() != 100 {
		t.Errorf("empty success rate = %v, want 100", s.SuccessRate())
	}
	if s.SessionSuccessRate() != 100 {
		t.Errorf("empty session rate = %v, want 100", s.SessionSuccessRate())
	}

	s.SuccessCount, s.FailureCount = 3, 1
	if s.SuccessRate() != 75 {
		t.Errorf("success rate = %v, want 75", s.SuccessRate())
	}
}

func TestStats_IsHealthy(t *testing.T) {
	future := testNow.Add(time.Minute)
	past := testNow.Add(-time.Minute)

	tests := []struct {
		name  string
		stats Stats
		want  bool
	}{
		{name: "fresh", stats: NewStats(), want: true},
		{name: "blacklisted with perfect rate", stats: Stats{Health: HealthBlacklisted, SuccessCount: 100}, want: false},
		{name: "cooldown with perfect rate", stats: Stats{Health: HealthExcellent, SuccessCount: 100, CooldownUntil: &future}, want: false},
		{name: "expired cooldown", stats: Stats{Health: HealthGood, CooldownUntil: &past}, want: true},
		{name: "five consecutive failures", stats: Stats{Health: HealthGood, SuccessCount: 50, FailureCount: 5, ConsecutiveFailures: 5}, want: false},
		{name: "four consecutive failures", stats: Stats{Health: HealthGood, SuccessCount: 50, FailureCount: 4, ConsecutiveFailures: 4}, want: true},
		{name: "low success rate", stats: Stats{Health: HealthPoor, SuccessCount: 2, FailureCount: 8}, want: false},
		{name: "exactly thirty percent", stats: Stats{Health: HealthPoor, SuccessCount: 3, FailureCount: 7}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.stats.IsHealthy(testNow); got != tt.want {
				t.Errorf("IsHealthy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStats_RecomputeHealth(t *testing.T) {
	tests := []struct {
		name  string
		stats Stats
		want  Health
	}{
		{name: "three captchas beat perfect rate", stats: Stats{SuccessCount: 100, CaptchaCount: 3, TotalSessions: 5, SuccessfulSessions: 5}, want: HealthBlacklisted},
		{name: "ten consecutive failures", stats: Stats{SuccessCount: 100, FailureCount: 10, ConsecutiveFailures: 10}, want: HealthBlacklisted},
		{name: "no samples", stats: Stats{}, want: HealthExcellent},
		{name: "combined 90", stats: Stats{SuccessCount: 8, FailureCount: 2, TotalSessions: 1, SuccessfulSessions: 1}, want: HealthExcellent},
		{name: "combined 75", stats: Stats{SuccessCount: 1, FailureCount: 1, TotalSessions: 1, SuccessfulSessions: 1}, want: HealthGood},
		{name: "combined 50", stats: Stats{SuccessCount: 1, FailureCount: 1, TotalSessions: 2, SuccessfulSessions: 1}, want: HealthFair},
		{name: "combined 37.5", stats: Stats{SuccessCount: 1, FailureCount: 3, TotalSessions: 2, SuccessfulSessions: 1}, want: HealthPoor},
		{name: "combined 12.5", stats: Stats{SuccessCount: 1, FailureCount: 3, TotalSessions: 2, SuccessfulSessions: 0}, want: HealthBlacklisted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := tt.stats
			st.RecomputeHealth()
			if st.Health != tt.want {
				t.Errorf("Health = %s, want %s", st.Health, tt.want)
			}
		})
	}
}

func TestStats_RecordFailure(t *testing.T) {
	s := NewStats()
	s.RecordFailure(testNow, false)
	if s.CooldownUntil != nil {
		t.Error("plain failure must not set cooldown")
	}
	if s.ConsecutiveFailures != 1 || s.FailureCount != 1 {
		t.Errorf("unexpected counters: %+v", s)
	}

	s.RecordFailure(testNow, true)
	if s.CaptchaCount != 1 {
		t.Errorf("captcha count = %d", s.CaptchaCount)
	}
	if s.CooldownUntil == nil || !s.CooldownUntil.Equal(testNow.Add(2*time.Hour)) {
		t.Errorf("cooldown = %v, want now+2h", s.CooldownUntil)
	}

	s.RecordSuccess()
	if s.ConsecutiveFailures != 0 {
		t.Error("success must reset consecutive failures")
	}
	if s.Health != HealthExcellent {
		t.Error("health must not change outside session end")
	}
}

func TestStats_RecordSessionEnd(t *testing.T) {
	s := NewStats()
	s.RecordSessionEnd(testNow, true)
	if s.TotalSessions != 1 || s.SuccessfulSessions != 1 {
		t.Errorf("unexpected session counters: %+v", s)
	}
	if s.LastUsed == nil || !s.LastUsed.Equal(testNow) {
		t.Error("LastUsed not set")
	}

	s.RecordSessionEnd(testNow, false)
	if s.SuccessfulSessions != 1 || s.TotalSessions != 2 {
		t.Errorf("unsuccessful session counted: %+v", s)
	}
}

func TestParseHealth(t *testing.T) {
	for _, h := range AllHealthLevels {
		got, ok := ParseHealth(h.String())
		if !ok || got != h {
			t.Errorf("ParseHealth(%s) = %v, %v", h, got, ok)
		}
	}
	if _, ok := ParseHealth("LEGENDARY"); ok {
		t.Error("unknown names must not parse")
	}
	if HealthExcellent <= HealthGood || HealthPoor <= HealthBlacklisted || int(HealthExcellent) != 5 {
		t.Error("health ordinals out of order")
	}
}
