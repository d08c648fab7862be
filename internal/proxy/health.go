// internal/proxy/health.go
package proxy

import "time"

// SuccessRate returns page success percentage, 100 with no samples.
func (s *Stats) SuccessRate() float64 {
	total := s.SuccessCount + s.FailureCount
	if total == 0 {
		return 100.0
	}
	return float64(s.SuccessCount) / float64(total) * 100.0
}

// SessionSuccessRate returns session success percentage, 100 with no sessions.
func (s *Stats) SessionSuccessRate() float64 {
	if s.TotalSessions == 0 {
		return 100.0
	}
	return float64(s.SuccessfulSessions) / float64(s.TotalSessions) * 100.0
}

// InCooldown reports whether now is before the CAPTCHA cooldown deadline.
func (s *Stats) InCooldown(now time.Time) bool {
	return s.CooldownUntil != nil && now.Before(*s.CooldownUntil)
}

// IsHealthy reports whether the proxy may be selected for a new session.
func (s *Stats) IsHealthy(now time.Time) bool {
	if s.Health == HealthBlacklisted {
		return false
	}
	if s.InCooldown(now) {
		return false
	}
	if s.ConsecutiveFailures >= MaxConsecutiveFailures {
		return false
	}
	return s.SuccessRate() >= MinHealthySuccessRate
}

// Weight is the selection weight used for weighted random rotation.
func (s *Stats) Weight() float64 {
	return float64(s.Health) * (1 + s.SuccessRate()/100)
}

// RecordSuccess counts a successful page and clears the failure streak.
func (s *Stats) RecordSuccess() {
	s.SuccessCount++
	s.ConsecutiveFailures = 0
}

// RecordFailure counts a failed page. A CAPTCHA failure also starts the cooldown.
func (s *Stats) RecordFailure(now time.Time, captcha bool) {
	s.FailureCount++
	s.ConsecutiveFailures++
	t := now
	s.LastFailure = &t

	if captcha {
		s.CaptchaCount++
		until := now.Add(CaptchaCooldown)
		s.CooldownUntil = &until
	}
}

// RecordSessionEnd closes out one session and recomputes health.
func (s *Stats) RecordSessionEnd(now time.Time, successful bool) {
	s.TotalSessions++
	if successful {
		s.SuccessfulSessions++
	}
	t := now
	s.LastUsed = &t
	s.RecomputeHealth()
}

// RecomputeHealth derives Health from the counters. It is called only at session end.
func (s *Stats) RecomputeHealth() {
	if s.CaptchaCount >= BlacklistCaptchaCount || s.ConsecutiveFailures >= BlacklistConsecutiveFails {
		s.Health = HealthBlacklisted
		return
	}

	combined := (s.SuccessRate() + s.SessionSuccessRate()) / 2
	switch {
	case combined >= 90:
		s.Health = HealthExcellent
	case combined >= 75:
		s.Health = HealthGood
	case combined >= 50:
		s.Health = HealthFair
	case combined >= 30:
		s.Health = HealthPoor
	default:
		s.Health = HealthBlacklisted
	}
}
