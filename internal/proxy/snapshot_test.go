// internal/proxy/snapshot_test.go
package proxy

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/valpere/jobharvest/internal/utils"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxy_stats.json")
	cooldown := testNow.Add(2 * time.Hour)
	used := testNow.Add(-time.Minute)

	store := NewStatsStore()
	store.Set("1.1.1.1:80", Stats{
		SuccessCount:        12,
		FailureCount:        3,
		CaptchaCount:        1,
		ConsecutiveFailures: 2,
		Health:              HealthGood,
		TotalSessions:       4,
		SuccessfulSessions:  3,
		LastUsed:            &used,
		CooldownUntil:       &cooldown,
	})
	store.Set("2.2.2.2:80", NewStats())

	if err := SaveSnapshot(path, store); err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}

	loaded := NewStatsStore()
	n, err := LoadSnapshot(path, loaded)
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("loaded %d records, want 2", n)
	}

	for key, want := range store.Snapshot() {
		got, ok := loaded.Get(key)
		if !ok {
			t.Fatalf("missing key %s", key)
		}
		if got.SuccessCount != want.SuccessCount || got.FailureCount != want.FailureCount ||
			got.CaptchaCount != want.CaptchaCount || got.Health != want.Health ||
			got.TotalSessions != want.TotalSessions || got.SuccessfulSessions != want.SuccessfulSessions ||
			got.ConsecutiveFailures != want.ConsecutiveFailures {
			t.Errorf("%s: got %+v, want %+v", key, got, want)
		}
	}

	got, _ := loaded.Get("1.1.1.1:80")
	if got.CooldownUntil == nil || !got.CooldownUntil.Equal(cooldown) {
		t.Errorf("cooldown not preserved: %v", got.CooldownUntil)
	}
	fresh, _ := loaded.Get("2.2.2.2:80")
	if fresh.LastUsed != nil || fresh.CooldownUntil != nil {
		t.Error("null timestamps must stay nil")
	}
}

func TestReadSnapshot_MissingFile(t *testing.T) {
	records, err := ReadSnapshot(filepath.Join(t.TempDir(), "nope", "stats.json"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestReadSnapshot_MalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewStatsStore()
	store.Register(Endpoint{Host: "a", Port: 1})
	_, err := LoadSnapshot(path, store)
	if !errors.Is(err, utils.ErrStatsPersistence) {
		t.Fatalf("expected ErrStatsPersistence, got %v", err)
	}
	st, _ := store.Get("a:1")
	if st.Health != HealthExcellent || st.SuccessCount != 0 {
		t.Errorf("store must keep defaults, got %+v", st)
	}
}

func TestReadSnapshot_UnknownHealthFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	body := `{
  "1.1.1.1:80": {"success_count": 9, "failure_count": 1, "captcha_count": 0, "health_score": "SUPERB",
                 "total_sessions": 2, "successful_sessions": 2, "last_used": null, "cooldown_until": null},
  "2.2.2.2:80": {"success_count": 4, "failure_count": 0, "captcha_count": 0, "health_score": "GOOD",
                 "total_sessions": 1, "successful_sessions": 1, "last_used": "2024-01-05T10:11:12.123456", "cooldown_until": null}
}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	records, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bad := records["1.1.1.1:80"]
	if bad.SuccessCount != 0 || bad.Health != HealthExcellent {
		t.Errorf("unknown health must reset to fresh stats, got %+v", bad)
	}
	good := records["2.2.2.2:80"]
	if good.Health != HealthGood || good.SuccessCount != 4 {
		t.Errorf("valid record altered: %+v", good)
	}
	if good.LastUsed == nil || good.LastUsed.Year() != 2024 {
		t.Errorf("naive timestamp not parsed: %v", good.LastUsed)
	}
}

func TestReadSnapshot_BadRecordDoesNotResetOthers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	body := `{
  "1.1.1.1:80": {"success_count": 2, "failure_count": 9, "captcha_count": 3, "health_score": "BLACKLISTED",
                 "total_sessions": 4, "successful_sessions": 0, "last_used": null,
                 "cooldown_until": "2024-01-05T12:00:00Z"},
  "2.2.2.2:80": {"success_count": "7", "failure_count": 0, "captcha_count": 0, "health_score": "GOOD",
                 "total_sessions": 1, "successful_sessions": 1, "last_used": null, "cooldown_until": null}
}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewStatsStore()
	n, err := LoadSnapshot(path, store)
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if n != 2 {
		t.Errorf("loaded %d records, want 2", n)
	}

	kept, _ := store.Get("1.1.1.1:80")
	if kept.Health != HealthBlacklisted || kept.CaptchaCount != 3 || kept.CooldownUntil == nil {
		t.Errorf("valid record lost: %+v", kept)
	}
	if store.IsHealthy("1.1.1.1:80", testNow) {
		t.Error("blacklisted proxy became selectable after load")
	}
	reset, _ := store.Get("2.2.2.2:80")
	if reset.SuccessCount != 0 || reset.Health != HealthExcellent {
		t.Errorf("mistyped record should reset to fresh stats, got %+v", reset)
	}
}

func TestReadSnapshot_MissingHealthKeepsCounters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	body := `{
  "1.1.1.1:80": {"success_count": 9, "failure_count": 1, "captcha_count": 1,
                 "total_sessions": 3, "successful_sessions": 2, "last_used": null, "cooldown_until": null},
  "2.2.2.2:80": {"success_count": 5, "failure_count": 0, "captcha_count": 0, "health_score": "",
                 "total_sessions": 1, "successful_sessions": 1, "last_used": null, "cooldown_until": null}
}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	records, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot() error = %v", err)
	}
	tests := []struct {
		key      string
		success  int
		sessions int
	}{
		{"1.1.1.1:80", 9, 3},
		{"2.2.2.2:80", 5, 1},
	}
	for _, tt := range tests {
		st := records[tt.key]
		if st.Health != HealthExcellent {
			t.Errorf("%s: health = %s, want EXCELLENT", tt.key, st.Health)
		}
		if st.SuccessCount != tt.success || st.TotalSessions != tt.sessions {
			t.Errorf("%s: counters dropped: %+v", tt.key, st)
		}
	}
}
