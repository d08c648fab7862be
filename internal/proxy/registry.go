// internal/proxy/registry.go
package proxy

import (
	"sort"
	"sync"
	"time"
)

type statsEntry struct {
	mu    sync.Mutex
	stats Stats
}

// StatsStore owns the Stats of every known proxy. Each key has its own lock,
// so independent sessions on different proxies never contend, while all
// mutation of one proxy's record is serialized.
type StatsStore struct {
	mu      sync.RWMutex
	entries map[string]*statsEntry
}

// NewStatsStore creates an empty store.
func NewStatsStore() *StatsStore {
	return &StatsStore{entries: make(map[string]*statsEntry)}
}

// Register adds fresh stats for each endpoint that is not already present.
func (s *StatsStore) Register(endpoints ...Endpoint) {
	for _, ep := range endpoints {
		s.entry(ep.Key())
	}
}

func (s *StatsStore) entry(key string) *statsEntry {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.entries[key]; ok {
		return e
	}
	e = &statsEntry{stats: NewStats()}
	s.entries[key] = e
	return e
}

// Update runs fn with exclusive access to the stats of key, creating fresh
// stats if the key is unknown.
func (s *StatsStore) Update(key string, fn func(*Stats)) {
	e := s.entry(key)
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.stats)
}

// Get returns a copy of the stats for key.
func (s *StatsStore) Get(key string) (Stats, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return Stats{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats, true
}

// Set replaces the stats for key.
func (s *StatsStore) Set(key string, st Stats) {
	s.Update(key, func(dst *Stats) { *dst = st })
}

// Keys returns all known keys in sorted order.
func (s *StatsStore) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Len returns the number of tracked proxies.
func (s *StatsStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Snapshot returns a point-in-time copy of every record.
func (s *StatsStore) Snapshot() map[string]Stats {
	out := make(map[string]Stats)
	for _, k := range s.Keys() {
		if st, ok := s.Get(k); ok {
			out[k] = st
		}
	}
	return out
}

// IsHealthy reports the health of key at now. Unknown keys are treated as fresh.
func (s *StatsStore) IsHealthy(key string, now time.Time) bool {
	healthy := false
	s.Update(key, func(st *Stats) { healthy = st.IsHealthy(now) })
	return healthy
}

// HealthDistribution counts proxies per health level. Every level is present.
func (s *StatsStore) HealthDistribution() map[Health]int {
	dist := make(map[Health]int, len(AllHealthLevels))
	for _, h := range AllHealthLevels {
		dist[h] = 0
	}
	for _, st := range s.Snapshot() {
		dist[st.Health]++
	}
	return dist
}

// CountHealthy returns how many tracked proxies are currently selectable.
func (s *StatsStore) CountHealthy(now time.Time) int {
	n := 0
	for _, st := range s.Snapshot() {
		if st.IsHealthy(now) {
			n++
		}
	}
	return n
}
