// internal/proxy/registry_test.go
package proxy

import (
	"sync"
	"testing"
)

func TestStatsStore_UpdateSerializesPerKey(t *testing.T) {
	store := NewStatsStore()
	store.Register(Endpoint{Host: "a", Port: 1}, Endpoint{Host: "b", Port: 2})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.Update("a:1", func(s *Stats) { s.RecordSuccess() })
		}()
		go func() {
			defer wg.Done()
			store.Update("b:2", func(s *Stats) { s.RecordFailure(testNow, false) })
		}()
	}
	wg.Wait()

	a, _ := store.Get("a:1")
	b, _ := store.Get("b:2")
	if a.SuccessCount != 50 {
		t.Errorf("a success = %d, want 50", a.SuccessCount)
	}
	if b.FailureCount != 50 || b.ConsecutiveFailures != 50 {
		t.Errorf("b failures = %d/%d, want 50/50", b.FailureCount, b.ConsecutiveFailures)
	}
}

func TestStatsStore_RegisterKeepsExisting(t *testing.T) {
	store := NewStatsStore()
	ep := Endpoint{Host: "a", Port: 1}
	store.Set(ep.Key(), Stats{Health: HealthPoor, SuccessCount: 7})
	store.Register(ep)

	st, ok := store.Get(ep.Key())
	if !ok || st.SuccessCount != 7 || st.Health != HealthPoor {
		t.Errorf("Register overwrote existing stats: %+v", st)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d", store.Len())
	}
}

func TestStatsStore_HealthDistribution(t *testing.T) {
	store := NewStatsStore()
	store.Set("a:1", Stats{Health: HealthExcellent})
	store.Set("b:1", Stats{Health: HealthExcellent})
	store.Set("c:1", Stats{Health: HealthBlacklisted})

	dist := store.HealthDistribution()
	if len(dist) != len(AllHealthLevels) {
		t.Errorf("expected every level present, got %d", len(dist))
	}
	if dist[HealthExcellent] != 2 || dist[HealthBlacklisted] != 1 || dist[HealthFair] != 0 {
		t.Errorf("unexpected distribution: %v", dist)
	}
	if n := store.CountHealthy(testNow); n != 2 {
		t.Errorf("CountHealthy() = %d, want 2", n)
	}
}

func TestStatsStore_GetUnknown(t *testing.T) {
	store := NewStatsStore()
	if _, ok := store.Get("missing:1"); ok {
		t.Error("expected unknown key to be absent")
	}
	if !store.IsHealthy("missing:1", testNow) {
		t.Error("unknown keys start fresh and healthy")
	}
}
