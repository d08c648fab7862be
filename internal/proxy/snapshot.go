// internal/proxy/snapshot.go
package proxy

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/valpere/jobharvest/internal/utils"
)

var snapshotLogger = utils.NewComponentLogger("proxy-snapshot")

// snapshotRecord is the persisted form of Stats.
type snapshotRecord struct {
	SuccessCount        int     `json:"success_count"`
	FailureCount        int     `json:"failure_count"`
	CaptchaCount        int     `json:"captcha_count"`
	ConsecutiveFailures int     `json:"consecutive_failures,omitempty"`
	HealthScore         string  `json:"health_score"`
	TotalSessions       int     `json:"total_sessions"`
	SuccessfulSessions  int     `json:"successful_sessions"`
	LastUsed            *string `json:"last_used"`
	CooldownUntil       *string `json:"cooldown_until"`
}

// Accepted timestamp layouts, most specific first. Naive timestamps are read as UTC.
var snapshotTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func formatSnapshotTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339Nano)
	return &s
}

func parseSnapshotTime(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	for _, layout := range snapshotTimeLayouts {
		if t, err := time.Parse(layout, *s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized timestamp %q", *s)
}

func toRecord(st Stats) snapshotRecord {
	return snapshotRecord{
		SuccessCount:        st.SuccessCount,
		FailureCount:        st.FailureCount,
		CaptchaCount:        st.CaptchaCount,
		ConsecutiveFailures: st.ConsecutiveFailures,
		HealthScore:         st.Health.String(),
		TotalSessions:       st.TotalSessions,
		SuccessfulSessions:  st.SuccessfulSessions,
		LastUsed:            formatSnapshotTime(st.LastUsed),
		CooldownUntil:       formatSnapshotTime(st.CooldownUntil),
	}
}

func fromRecord(rec snapshotRecord) (Stats, error) {
	health := HealthExcellent
	if rec.HealthScore != "" {
		h, ok := ParseHealth(rec.HealthScore)
		if !ok {
			return Stats{}, fmt.Errorf("unknown health score %q", rec.HealthScore)
		}
		health = h
	}
	lastUsed, err := parseSnapshotTime(rec.LastUsed)
	if err != nil {
		return Stats{}, err
	}
	cooldown, err := parseSnapshotTime(rec.CooldownUntil)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		SuccessCount:        rec.SuccessCount,
		FailureCount:        rec.FailureCount,
		CaptchaCount:        rec.CaptchaCount,
		ConsecutiveFailures: rec.ConsecutiveFailures,
		Health:              health,
		TotalSessions:       rec.TotalSessions,
		SuccessfulSessions:  rec.SuccessfulSessions,
		LastUsed:            lastUsed,
		CooldownUntil:       cooldown,
	}, nil
}

func decodeRecord(body json.RawMessage) (Stats, error) {
	var rec snapshotRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return Stats{}, err
	}
	return fromRecord(rec)
}

func lockFor(path string) *flock.Flock {
	return flock.New(path + ".lock")
}

// SaveSnapshot writes every record in store to path as JSON. The write is
// atomic and guarded by an advisory lock on path+".lock".
func SaveSnapshot(path string, store *StatsStore) error {
	data := make(map[string]snapshotRecord)
	for key, st := range store.Snapshot() {
		data[key] = toRecord(st)
	}

	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return utils.NewError(utils.ErrCodeStatsPersistence, "encode snapshot").WithCause(err).Build()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return utils.NewError(utils.ErrCodeStatsPersistence, "create snapshot directory").WithCause(err).Build()
		}
	}

	lock := lockFor(path)
	if err := lock.Lock(); err != nil {
		return utils.NewError(utils.ErrCodeStatsPersistence, "lock snapshot").WithCause(err).Build()
	}
	defer lock.Unlock()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return utils.NewError(utils.ErrCodeStatsPersistence, "write snapshot").WithCause(err).Build()
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return utils.NewError(utils.ErrCodeStatsPersistence, "replace snapshot").WithCause(err).Build()
	}

	snapshotLogger.Debugf("saved stats for %d proxies to %s", len(data), path)
	return nil
}

// ReadSnapshot decodes the snapshot at path. A missing file yields an empty
// map and no error. Records with an unknown health name or unreadable
// timestamps are replaced by fresh stats and logged.
func ReadSnapshot(path string) (map[string]Stats, error) {
	out := make(map[string]Stats)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		snapshotLogger.Infof("no stats snapshot at %s, starting fresh", path)
		return out, nil
	}

	lock := lockFor(path)
	if err := lock.RLock(); err != nil {
		return out, utils.NewError(utils.ErrCodeStatsPersistence, "lock snapshot").WithCause(err).Build()
	}
	defer lock.Unlock()

	raw, err := os.ReadFile(path)
	if err != nil {
		return out, utils.NewError(utils.ErrCodeStatsPersistence, "read snapshot").WithCause(err).Build()
	}

	var records map[string]json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return out, utils.NewError(utils.ErrCodeStatsPersistence, "decode snapshot").
			WithCause(err).
			WithContext("path", path).
			Build()
	}

	for key, body := range records {
		st, err := decodeRecord(body)
		if err != nil {
			snapshotLogger.Warnf("resetting stats for %s: %v", key, err)
			st = NewStats()
		}
		out[key] = st
	}
	return out, nil
}

// LoadSnapshot reads path and applies every record to store.
func LoadSnapshot(path string, store *StatsStore) (int, error) {
	records, err := ReadSnapshot(path)
	for key, st := range records {
		store.Set(key, st)
	}
	return len(records), err
}
